package stream

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

const (
	Channels   = 2
	SampleRate = 48000
	FrameSize  = 960 // 20ms at 48kHz
)

// Source describes what ffmpeg should decode.
type Source struct {
	Title string
	Input string // file path or URL
	// Remote enables ffmpeg's reconnect options; remote hosts may drop the
	// connection mid-stream.
	Remote bool
}

// Handle is a running decode of one track producing s16le PCM.
type Handle struct {
	Title string
	Input string

	r       io.ReadCloser
	cleanup func()
	// wait reports how the decoder exited once its output is drained.
	wait func() error
	once sync.Once
	buf  []byte
}

// NewHandle wraps an already decoded PCM reader. cleanup may be nil.
func NewHandle(title string, r io.ReadCloser, cleanup func()) *Handle {
	return &Handle{Title: title, r: r, cleanup: cleanup}
}

// Opener starts a decode for a source.
type Opener func(ctx context.Context, src Source) (*Handle, error)

// FFmpegPath is the ffmpeg binary used by Open.
var FFmpegPath = "ffmpeg"

// stderrTail bounds how much ffmpeg diagnostics a handle keeps.
const stderrTail = 2048

// Open starts ffmpeg for src. ctx only bounds start-up: the process lives
// until Close.
func Open(ctx context.Context, src Source) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(FFmpegPath, Args(src)...)
	stderr := &tailWriter{max: stderrTail}
	cmd.Stderr = stderr
	reader, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "stdout pipe error")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "command start error")
	}

	var (
		waitOnce sync.Once
		waitErr  error
	)
	wait := func() error {
		waitOnce.Do(func() {
			if err := cmd.Wait(); err != nil {
				waitErr = errors.Wrapf(err, "ffmpeg exited: %s", stderr.String())
			}
		})
		return waitErr
	}

	h := &Handle{
		Title: src.Title,
		Input: src.Input,
		r:     reader,
		wait:  wait,
		cleanup: func() {
			_ = cmd.Process.Kill()
			_ = wait()
		},
	}
	return h, nil
}

// tailWriter keeps the last max bytes written to it.
type tailWriter struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	if over := len(w.buf) - w.max; over > 0 {
		w.buf = append(w.buf[:0], w.buf[over:]...)
	}
	return len(p), nil
}

func (w *tailWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.TrimSpace(string(w.buf))
}

// Args builds the ffmpeg command line for src.
func Args(src Source) []string {
	args := make([]string, 0, 16)
	if src.Remote {
		args = append(args,
			"-reconnect", "1",
			"-reconnect_streamed", "1",
			"-reconnect_delay_max", "5",
		)
	}
	return append(args,
		"-i", src.Input,
		"-vn",
		"-f", "s16le",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-loglevel", "warning",
		"pipe:1",
	)
}

// ReadFrame fills pcm with the next FrameSize*Channels samples. It returns
// io.EOF when the track is over and the decoder exited cleanly; a decoder
// that failed yields its exit error instead. A trailing partial frame is
// dropped.
func (h *Handle) ReadFrame(pcm []int16) error {
	need := len(pcm) * 2
	if cap(h.buf) < need {
		h.buf = make([]byte, need)
	}
	buf := h.buf[:need]

	if _, err := io.ReadFull(h.r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return h.finish()
		}
		return err
	}
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
	}
	return nil
}

// finish turns the end of output into io.EOF for a clean exit, or into the
// decoder's exit error.
func (h *Handle) finish() error {
	if h.wait != nil {
		if err := h.wait(); err != nil {
			return err
		}
	}
	return io.EOF
}

// Close stops the decoder and releases its process. Safe to call repeatedly.
func (h *Handle) Close() error {
	var err error
	h.once.Do(func() {
		err = h.r.Close()
		if h.cleanup != nil {
			h.cleanup()
		}
	})
	return err
}

func (h *Handle) String() string {
	return fmt.Sprintf("%q (%s)", h.Title, h.Input)
}
