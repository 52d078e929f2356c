package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	ts := time.Date(2023, time.November, 10, 7, 5, 9, 0, time.UTC)

	tests := []struct {
		layout string
		want   string
	}{
		{"YYYY.MM.DD", "2023.11.10"},
		{"DD/MM/YY", "10/11/23"},
		{"YYYY-MM-DD hh:mm:ss", "2023-11-10 07:05:09"},
		{"hh:mm", "07:05"},
	}
	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDate(ts, tt.layout))
		})
	}
	assert.Empty(t, FormatDate(time.Time{}, "YYYY"))
}
