// Package correlator performs FFT-based circular correlation between a
// sampled signal window and a local code replica, the fast path behind
// acquisition search. Tracking computes its early/prompt/late
// correlations directly and does not use this package.
package correlator

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Plan wraps a length-N complex FFT sized once and reused across every
// correlation a channel performs, so the FFT itself is not rebuilt per
// tick. Each Spectrum and Correlate call still allocates its result
// slices.
type Plan struct {
	n   int
	fft *fourier.CmplxFFT
	buf []complex128
}

// NewPlan builds a reusable FFT plan for windows of length n.
func NewPlan(n int) *Plan {
	return &Plan{
		n:   n,
		fft: fourier.NewCmplxFFT(n),
		buf: make([]complex128, n),
	}
}

// Len returns the window length this plan is sized for.
func (p *Plan) Len() int { return p.n }

// Spectrum returns the forward FFT of window as a newly allocated slice,
// leaving window untouched.
func (p *Plan) Spectrum(window []complex128) []complex128 {
	if len(window) != p.n {
		panic(fmt.Sprintf("correlator: window length %d does not match plan length %d", len(window), p.n))
	}
	copy(p.buf, window)
	return p.fft.Coefficients(nil, p.buf)
}

// Correlate returns the circular cross-correlation of window against a
// code replica, given the replica's precomputed spectrum (from
// Plan.Spectrum). The result's index i is the correlation at code-phase
// lag i. window and codeSpectrum must both have length p.Len(); a
// mismatch is a programming error and panics rather than silently
// truncating or zero-padding.
func (p *Plan) Correlate(window []complex128, codeSpectrum []complex128) []complex128 {
	if len(window) != p.n {
		panic(fmt.Sprintf("correlator: window length %d does not match plan length %d", len(window), p.n))
	}
	if len(codeSpectrum) != p.n {
		panic(fmt.Sprintf("correlator: code spectrum length %d does not match plan length %d", len(codeSpectrum), p.n))
	}

	winSpec := p.Spectrum(window)

	product := make([]complex128, p.n)
	for i := range product {
		// winSpec * conj(codeSpectrum), inverse-transformed, puts the peak
		// at the lag the signal is delayed by relative to the code replica.
		c := codeSpectrum[i]
		product[i] = winSpec[i] * complex(real(c), -imag(c))
	}

	out := p.fft.Sequence(nil, product)
	scale := complex(1/float64(p.n), 0)
	for i := range out {
		out[i] *= scale
	}
	return out
}

// Correlate is a convenience one-shot form for callers that do not hold
// a reusable Plan (tests, one-off diagnostics). Production code should
// use Plan.Correlate to avoid re-allocating the FFT on every call.
func Correlate(window []complex128, codeSpectrum []complex128) []complex128 {
	if len(window) != len(codeSpectrum) {
		panic(fmt.Sprintf("correlator: window length %d does not match code spectrum length %d", len(window), len(codeSpectrum)))
	}
	return NewPlan(len(window)).Correlate(window, codeSpectrum)
}

// PeakIndex returns the index and squared magnitude of the
// largest-energy sample in a correlation result, the code-phase lag
// with the most energy. Squared magnitude avoids a sqrt per sample;
// callers wanting C/N0 or amplitude should take the sqrt themselves.
func PeakIndex(corr []complex128) (idx int, magnitudeSq float64) {
	for i, c := range corr {
		m := magSq(c)
		if m > magnitudeSq {
			magnitudeSq = m
			idx = i
		}
	}
	return idx, magnitudeSq
}

func magSq(c complex128) float64 {
	re, im := real(c), imag(c)
	return re*re + im*im
}
