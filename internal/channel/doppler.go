package channel

import (
	"math"
	"math/cmplx"
)

// dopplerShift mixes samples in place against a local oscillator at
// frequencyHz with initial phase phaseCycles (in cycles, not radians --
// matching the FLL/PLL error terms, which are themselves normalized by
// 2π), removing that frequency and phase from the signal. Acquisition
// uses it to wipe off f_IF plus a trial Doppler at zero phase;
// tracking uses it to wipe off the residual Doppler plus the
// accumulated carrier phase.
func dopplerShift(samples []complex128, frequencyHz, phaseCycles, fs float64) {
	for i := range samples {
		t := float64(i) / fs
		angle := 2 * math.Pi * (frequencyHz*t + phaseCycles)
		samples[i] *= cmplx.Rect(1, -angle)
	}
}
