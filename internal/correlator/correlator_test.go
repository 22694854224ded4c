package correlator

import (
	"testing"

	"github.com/gnssrx/gnssrx/internal/gold"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spectrumOf(t *testing.T, p *Plan, samples []complex128) []complex128 {
	t.Helper()
	return p.Spectrum(samples)
}

// TestCorrelatePeakAtZeroLagForExactMatch checks the textbook property:
// correlating a code against itself (no Doppler, no delay) peaks at
// lag zero.
func TestCorrelatePeakAtZeroLagForExactMatch(t *testing.T) {
	chips := gold.Generate(1)
	samples := gold.Upsample(chips, 2)
	p := NewPlan(len(samples))
	spec := spectrumOf(t, p, samples)

	corr := p.Correlate(samples, spec)
	idx, _ := PeakIndex(corr)
	assert.Equal(t, 0, idx)
}

// TestCorrelatePeakTracksShift checks that a signal delayed by N samples
// relative to the code replica correlates with a peak at lag N, the
// mechanism acquisition relies on to recover code phase.
func TestCorrelatePeakTracksShift(t *testing.T) {
	chips := gold.Generate(5)
	code := gold.Upsample(chips, 2)
	n := len(code)
	p := NewPlan(n)
	spec := spectrumOf(t, p, code)

	const delay = 37
	delayed := make([]complex128, n)
	for i := range delayed {
		delayed[i] = code[(i-delay+n)%n]
	}

	corr := p.Correlate(delayed, spec)
	idx, _ := PeakIndex(corr)
	assert.Equal(t, delay, idx)
}

func TestCorrelateLengthMismatchPanics(t *testing.T) {
	a := make([]complex128, 10)
	b := make([]complex128, 11)
	assert.Panics(t, func() { Correlate(a, b) })
}

func TestPlanSpectrumLengthMismatchPanics(t *testing.T) {
	p := NewPlan(10)
	assert.Panics(t, func() { p.Spectrum(make([]complex128, 5)) })
}

func TestPeakIndexEmptyIsZero(t *testing.T) {
	idx, mag := PeakIndex(nil)
	require.Equal(t, 0, idx)
	assert.Equal(t, 0.0, mag)
}

func TestPlanLen(t *testing.T) {
	p := NewPlan(2046)
	assert.Equal(t, 2046, p.Len())
}
