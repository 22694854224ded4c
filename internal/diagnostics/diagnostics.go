// Package diagnostics writes per-SV PNG plots (code-phase offset,
// Doppler, phase error, I/Q scatter) on a fixed interval, purely a
// side-effectful observability aid spec.md §6 leaves unspecified beyond
// naming it. Built on gonum.org/v1/plot, the pack's own
// astrodynamics/numerical examples' plotting counterpart to
// gonum.org/v1/gonum/mat (see DESIGN.md); filenames are timestamped
// with github.com/lestrrat-go/strftime, matching the teacher's own
// xmit.go timestamp-format usage.
package diagnostics

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gnssrx/gnssrx/internal/channel"
)

// Writer renders each registered channel's PlotSeries to PNG files under
// Dir every Interval, until the done channel passed to Run is closed.
type Writer struct {
	Dir      string
	Interval time.Duration

	// FilenamePattern is a strftime pattern (teacher-style) combined
	// with the PRN and plot kind to build each output path.
	FilenamePattern string
}

// NewWriter returns a Writer using the teacher's own log/plot naming
// convention: "sv<prn>_<kind>_<timestamp>.png", with the PRN zero-padded
// to two digits.
func NewWriter(dir string, interval time.Duration) *Writer {
	return &Writer{
		Dir:             dir,
		Interval:        interval,
		FilenamePattern: "%Y%m%d_%H%M%S",
	}
}

// Run renders every channel's plots once per Interval until done is
// closed.
func (w *Writer) Run(done <-chan struct{}, chans []*channel.Channel) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			for _, c := range chans {
				if err := w.renderChannel(c); err != nil {
					log.Warn("diagnostics render failed", "sv", c.PRN(), "err", err)
				}
			}
		}
	}
}

func (w *Writer) renderChannel(c *channel.Channel) error {
	series := c.PlotSeries()
	if len(series.CodePhaseOffsetSec) == 0 {
		return nil
	}

	ts, err := strftime.Format(w.FilenamePattern, time.Now())
	if err != nil {
		return fmt.Errorf("diagnostics: format timestamp: %w", err)
	}

	plots := []struct {
		kind string
		fn   func() (*plot.Plot, error)
	}{
		{"codephase", func() (*plot.Plot, error) { return lineSeries("code phase offset (s)", series.CodePhaseOffsetSec) }},
		{"doppler", func() (*plot.Plot, error) { return lineSeries("doppler (Hz)", series.DopplerHz) }},
		{"phaseerr", func() (*plot.Plot, error) { return lineSeries("phase error (rad)", series.PhiError) }},
		{"iq", func() (*plot.Plot, error) { return iqScatter(series.PromptCorr) }},
	}

	for _, pl := range plots {
		p, err := pl.fn()
		if err != nil {
			return err
		}
		name := fmt.Sprintf("sv%02d_%s_%s.png", c.PRN(), pl.kind, ts)
		if err := p.Save(6*vg.Inch, 4*vg.Inch, filepath.Join(w.Dir, name)); err != nil {
			return fmt.Errorf("diagnostics: save %s: %w", name, err)
		}
	}
	return nil
}

func lineSeries(title string, values []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	p.Add(line)
	return p, nil
}

func iqScatter(corr []complex128) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "prompt I/Q"
	p.X.Label.Text = "I"
	p.Y.Label.Text = "Q"

	pts := make(plotter.XYs, len(corr))
	for i, c := range corr {
		pts[i].X = real(c)
		pts[i].Y = imag(c)
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	p.Add(scatter)
	return p, nil
}
