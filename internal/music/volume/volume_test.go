package volume

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestController_Default(t *testing.T) {
	c := New(DefaultPercent)
	assert.Equal(t, 50, c.Get())
	assert.InDelta(t, 0.5, c.Gain(), 1e-9)
}

func TestController_SetClamps(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: -5, want: 0},
		{in: 0, want: 0},
		{in: 37, want: 37},
		{in: 100, want: 100},
		{in: 150, want: 100},
	}

	for _, tt := range tests {
		c := New(DefaultPercent)
		assert.Equal(t, tt.want, c.Set(tt.in))
		assert.Equal(t, tt.want, c.Get())
		assert.InDelta(t, float64(tt.want)/100, c.Gain(), 1e-9)
	}
}

func TestController_ConcurrentSet(t *testing.T) {
	c := New(DefaultPercent)

	var wg sync.WaitGroup
	for i := 0; i <= 100; i++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			c.Set(p)
			_ = c.Gain()
		}(i)
	}
	wg.Wait()

	assert.GreaterOrEqual(t, c.Get(), 0)
	assert.LessOrEqual(t, c.Get(), 100)
}
