package channel

import "math"

// acquisitionProcess integrates one tick's non-coherent correlation sum
// across every Doppler bin, then -- once enough ticks have accumulated
// -- finds the peak bin/code-phase, estimates C/N0, and transitions to
// Tracking or back to Idle.
func (c *Channel) acquisitionProcess(window []complex128) {
	tail := window[c.codeSP:]
	stepHz := 2 * c.cfg.DopplerSpreadHz / float64(c.cfg.DopplerBins)

	for i := 0; i < c.cfg.DopplerBins; i++ {
		dopplerHz := -c.cfg.DopplerSpreadHz + float64(i)*stepHz
		mag := c.acquisitionIntegrateCorrelation(tail, dopplerHz)
		for j, v := range mag {
			c.acq.sumP[i][j] += v
		}
	}

	c.numAcqSamples++
	if float64(c.numAcqSamples)*c.codeSec < c.cfg.TAcqSec {
		return
	}

	var (
		binIdx        int
		codeOffsetIdx int
		pMax, pPeak   float64
		pTotal        float64
	)
	for i := 0; i < c.cfg.DopplerBins; i++ {
		pSum := sumFloat(c.acq.sumP[i])
		jPeak, vPeak := maxWithIdx(c.acq.sumP[i])
		if pSum > pMax {
			binIdx = i
			pMax = pSum
			pPeak = vPeak
			codeOffsetIdx = jPeak
		}
		pTotal += pSum
	}

	dopplerHz := -c.cfg.DopplerSpreadHz + (float64(binIdx)+0.5)*stepHz
	codeOffSec := float64(codeOffsetIdx) / float64(c.codeSP) * c.codeSec
	pAvg := pTotal / float64(len(c.acq.sumP[binIdx])) / float64(c.cfg.DopplerBins)
	cn0 := 10 * math.Log10((pPeak-pAvg)/pAvg/c.codeSec)

	if cn0 >= c.cfg.CN0Lock {
		c.trackingStart(dopplerHz, cn0, codeOffSec, codeOffsetIdx)
	} else {
		c.idleStart()
	}
	c.acquisitionInit()
}

// acquisitionIntegrateCorrelation mixes window down by f_IF+dopplerHz at
// zero carrier phase, correlates against the precomputed code spectrum,
// and returns the squared-magnitude correlation across all code-phase
// lags.
func (c *Channel) acquisitionIntegrateCorrelation(window []complex128, dopplerHz float64) []float64 {
	mixed := make([]complex128, len(window))
	copy(mixed, window)
	dopplerShift(mixed, c.cfg.FIFHz+dopplerHz, 0, c.cfg.FsHz)

	corr := c.corr.Correlate(mixed, c.codeSpectrum)
	mag := make([]float64, len(corr))
	for i, v := range corr {
		mag[i] = normSq(v)
	}
	return mag
}

func sumFloat(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

func maxWithIdx(v []float64) (int, float64) {
	var max float64
	var idx int
	for i, x := range v {
		if x > max {
			max = x
			idx = i
		}
	}
	return idx, max
}

func normSq(c complex128) float64 {
	re, im := real(c), imag(c)
	return re*re + im*im
}
