package stream

import (
	"io"
	"math"

	"github.com/cockroachdb/errors"
	"layeh.com/gopus"

	"github.com/keshon/media-bot/internal/music/sources"
)

// maxOpusBytes bounds a single encoded frame.
const maxOpusBytes = FrameSize * Channels * 2

// Encoder turns one PCM frame into an opus packet. *gopus.Encoder satisfies it.
type Encoder interface {
	Encode(pcm []int16, frameSize, maxDataBytes int) ([]byte, error)
}

// NewOpusEncoder returns an encoder configured for Discord voice.
func NewOpusEncoder() (Encoder, error) {
	enc, err := gopus.NewEncoder(SampleRate, Channels, gopus.Audio)
	if err != nil {
		return nil, errors.Wrap(err, "encoder error")
	}
	return enc, nil
}

// Pump streams h into out until the track ends or stop is closed. gain is
// read for every frame. A natural end and a stop both return nil; read and
// encode failures are wrapped in sources.ErrTransport.
func Pump(h *Handle, enc Encoder, gain func() float64, stop <-chan struct{}, out chan<- []byte) error {
	pcm := make([]int16, FrameSize*Channels)

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if err := h.ReadFrame(pcm); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			select {
			case <-stop:
				// Close from a stop races the read.
				return nil
			default:
			}
			return errors.Mark(errors.Wrap(err, "read error"), sources.ErrTransport)
		}

		ApplyGain(pcm, gain())

		packet, err := enc.Encode(pcm, FrameSize, maxOpusBytes)
		if err != nil {
			return errors.Mark(errors.Wrap(err, "encode error"), sources.ErrTransport)
		}

		select {
		case out <- packet:
		case <-stop:
			return nil
		}
	}
}

// ApplyGain scales samples in place, saturating at the int16 range.
func ApplyGain(pcm []int16, gain float64) {
	if gain == 1 {
		return
	}
	for i, s := range pcm {
		v := math.Round(float64(s) * gain)
		switch {
		case v > math.MaxInt16:
			v = math.MaxInt16
		case v < math.MinInt16:
			v = math.MinInt16
		}
		pcm[i] = int16(v)
	}
}
