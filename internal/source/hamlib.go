package source

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	hamlib "github.com/xylo04/goHamlib"
)

// HamlibTuner commands an external rig's local oscillator via Hamlib while
// delegating actual sample I/O to an inner Source (typically a Soundcard
// fed from the rig's IF output, or an RTLSDR used purely as an ADC with
// AutoGain/manual gain left alone). Like WatchUSBHotplug, this is written
// from goHamlib's own API rather than a teacher usage site: the teacher's
// ptt.go talks to rigs through cgo hamlib bindings, not this pure-Go
// wrapper (see DESIGN.md).
type HamlibTuner struct {
	Source
	rig *hamlib.Rig
}

// HamlibConfig selects the rig model and its control port.
type HamlibConfig struct {
	RigModel     int
	Port         string
	CenterFreqHz float64
}

// OpenHamlibTuner opens the rig, tunes it to cfg.CenterFreqHz, and wraps
// inner as the sample source.
func OpenHamlibTuner(cfg HamlibConfig, inner Source) (*HamlibTuner, error) {
	rig := hamlib.RigInit(cfg.RigModel)
	if rig == nil {
		return nil, fmt.Errorf("source: hamlib init model %d failed", cfg.RigModel)
	}
	rig.SetConf("rig_pathname", cfg.Port)

	if err := rig.Open(); err != nil {
		return nil, fmt.Errorf("source: hamlib open: %w", err)
	}
	if err := rig.SetFreq(hamlib.VFOCurr, cfg.CenterFreqHz); err != nil {
		rig.Close()
		return nil, fmt.Errorf("source: hamlib set freq: %w", err)
	}

	log.Info("hamlib tuner opened", "model", cfg.RigModel, "port", cfg.Port, "freq_hz", cfg.CenterFreqHz)
	return &HamlibTuner{Source: inner, rig: rig}, nil
}

// Read delegates to the inner Source; the tuner only affects LO frequency.
func (h *HamlibTuner) Read(ctx context.Context, n int) ([]complex128, error) {
	return h.Source.Read(ctx, n)
}

// Close shuts down the rig control session and, if the inner source is a
// Closer, releases it too.
func (h *HamlibTuner) Close() error {
	h.rig.Close()
	if c, ok := h.Source.(Closer); ok {
		return c.Close()
	}
	return nil
}
