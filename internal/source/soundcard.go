package source

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
)

// Soundcard reads baseband samples from a PC sound card's line/mic input,
// spec.md §6's "soundcard ADC" front end for the low-IF receivers where an
// RTL-SDR style downconverter feeds a real-valued audio stream instead of
// a USB I/Q dongle. The ADC is real-only, so each sample becomes a
// complex128 with a zero imaginary part; channels downstream treat this
// identically to the FormatI8 file layout.
type Soundcard struct {
	stream  *portaudio.Stream
	buf     []int32
	sampBuf []complex128
}

// OpenSoundcard starts capture on the default input device at sampleRate
// Hz, mono, reading framesPerBuffer samples per underlying portaudio
// callback.
func OpenSoundcard(sampleRate float64, framesPerBuffer int) (*Soundcard, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("source: portaudio init: %w", err)
	}

	s := &Soundcard{
		buf: make([]int32, framesPerBuffer),
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, framesPerBuffer, s.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("source: open default stream: %w", err)
	}
	s.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("source: start stream: %w", err)
	}

	log.Info("soundcard capture started", "sample_rate_hz", sampleRate, "frames", framesPerBuffer)
	return s, nil
}

// Read implements Source. It blocks on the underlying portaudio stream
// until n frames are available or ctx is done.
func (s *Soundcard) Read(ctx context.Context, n int) ([]complex128, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cap(s.sampBuf) < n {
		s.sampBuf = make([]complex128, n)
	}
	out := s.sampBuf[:0]

	for len(out) < n {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		want := n - len(out)
		if want > len(s.buf) {
			want = len(s.buf)
		}

		if err := s.stream.Read(); err != nil {
			return out, fmt.Errorf("source: soundcard read: %w", err)
		}
		for i := 0; i < want; i++ {
			out = append(out, complex(float64(s.buf[i])/float64(1<<31), 0))
		}
	}
	return out, nil
}

// Close stops capture and releases the portaudio stream.
func (s *Soundcard) Close() error {
	err := s.stream.Close()
	portaudio.Terminate()
	return err
}
