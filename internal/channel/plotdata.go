package channel

// PlotSeries is a read-only snapshot of the tracking-loop history a
// diagnostics writer plots: code-phase offset, phase error, and Doppler
// estimate per tick, plus the raw prompt correlations for an I/Q scatter.
// It copies out of History so the diagnostics goroutine never races with
// the tick loop's own writes.
type PlotSeries struct {
	CodePhaseOffsetSec []float64
	PhiError           []float64
	DopplerHz          []float64
	PromptCorr         []complex128
}

// PlotSeries returns a copy of this channel's tracking history for
// diagnostics plotting.
func (c *Channel) PlotSeries() PlotSeries {
	// History keeps the code-phase offset in samples; convert to seconds.
	codeOffSec := make([]float64, len(c.hist.codePhaseOffset))
	for i, v := range c.hist.codePhaseOffset {
		codeOffSec[i] = v / c.cfg.FsHz
	}
	return PlotSeries{
		CodePhaseOffsetSec: codeOffSec,
		PhiError:           append([]float64(nil), c.hist.phiError...),
		DopplerHz:          append([]float64(nil), c.hist.dopplerHz...),
		PromptCorr:         append([]complex128(nil), c.hist.corrP...),
	}
}
