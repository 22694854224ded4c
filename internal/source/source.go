// Package source implements the sample-source collaborators spec.md §6
// names as external to the signal-processing core: file readers for
// several binary I/Q layouts, live SDR front ends (RTL-SDR, Hamlib-tuned
// rigs, a sound-card ADC), and a network client for a remote SDR
// daemon's rtl_tcp-alike command protocol. None of these affect
// correctness of the DSP/navigation core; they only produce the
// []complex128 windows the receiver consumes.
package source

import (
	"context"
	"errors"
)

// ErrEndOfStream is returned (wrapped) when a Source has no more
// samples to give, spec.md §7's "Input exhausted" non-fatal condition.
// The receiver's tick loop treats it as a normal, not an error, exit.
var ErrEndOfStream = errors.New("source: end of stream")

// Source is the single-operation capability interface every sample
// producer implements (spec.md §6: "a single operation: read(num_samples)
// -> complex64[num_samples] or end-of-stream").
type Source interface {
	// Read returns exactly n baseband complex samples. If fewer than n
	// remain, it returns the short slice together with ErrEndOfStream.
	Read(ctx context.Context, n int) ([]complex128, error)
}

// Closer is implemented by sources that own an OS or network resource
// (file handles, USB devices, sockets) that must be released on
// shutdown.
type Closer interface {
	Close() error
}
