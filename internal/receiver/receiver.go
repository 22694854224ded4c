// Package receiver drives the tick loop spec.md §4.4 describes: a
// rolling two-code-period I/Q buffer pulled from a source.Source, fanned
// out to every channel.Channel in parallel each tick via
// golang.org/x/sync/errgroup, with a periodic attempt at a
// solver.Solver fix once enough channels hold complete ephemerides.
// Generalized from the teacher's one-goroutine-per-independent-unit-of-
// work style (its per-client goroutines in aclients.go are long-lived,
// not tick-synchronized, so there is no literal per-tick barrier to
// copy) into an errgroup-based barrier, the modern idiomatic
// replacement for a bare sync.WaitGroup.
package receiver

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/gnssrx/gnssrx/internal/channel"
	"github.com/gnssrx/gnssrx/internal/navigation"
	"github.com/gnssrx/gnssrx/internal/solver"
	"github.com/gnssrx/gnssrx/internal/source"
	"github.com/gnssrx/gnssrx/internal/telemetry"
)

// FixIntervalSec is spec.md §4.4's T_FIX default: the minimum spacing
// between PVT solve attempts.
const FixIntervalSec = 2.0

// Config configures a Receiver's channel set and fix cadence.
type Config struct {
	ChannelConfig  channel.Config
	SolverConfig   solver.Config
	PRNs           []int
	FixIntervalSec float64
}

// DefaultConfig returns a Receiver configuration searching PRNs 1-32 at
// the standard fix cadence.
func DefaultConfig() Config {
	prns := make([]int, 32)
	for i := range prns {
		prns[i] = i + 1
	}
	return Config{
		ChannelConfig:  channel.DefaultConfig(),
		SolverConfig:   solver.DefaultConfig(),
		PRNs:           prns,
		FixIntervalSec: FixIntervalSec,
	}
}

// Receiver owns the rolling sample buffer, the channel set, the shared
// navigation almanac/iono-UTC stores, and the solver. It is not safe for
// concurrent use by multiple goroutines; Run itself fans channel
// processing out internally and joins before returning.
type Receiver struct {
	cfg Config
	src source.Source
	pub *telemetry.State

	almanac *navigation.AlmanacTable
	ionoUTC *navigation.IonoUTCStore
	chans   []*channel.Channel
	solv    *solver.Solver

	codeSP int // samples per code period, shared by every channel

	buf     []complex128 // rolling two-code-period window
	tailTS  float64      // wall-clock time of buf's last sample
	lastFix float64      // wall-clock time of the last fix attempt
}

// New builds a Receiver reading from src and publishing into pub.
func New(cfg Config, src source.Source, pub *telemetry.State) *Receiver {
	almanac := navigation.NewAlmanacTable()
	ionoUTC := navigation.NewIonoUTCStore()

	chans := make([]*channel.Channel, 0, len(cfg.PRNs))
	for _, prn := range cfg.PRNs {
		chans = append(chans, channel.New(cfg.ChannelConfig, prn, almanac, ionoUTC, pub))
	}

	codeSP := 0
	if len(chans) > 0 {
		codeSP = chans[0].WindowLen() / 2
	}

	return &Receiver{
		cfg:     cfg,
		src:     src,
		pub:     pub,
		almanac: almanac,
		ionoUTC: ionoUTC,
		chans:   chans,
		solv:    solver.New(cfg.SolverConfig),
		codeSP:  codeSP,
	}
}

// Channels returns the receiver's channel set, for collaborators like
// diagnostics.Writer that need read-only access to each channel's state.
func (r *Receiver) Channels() []*channel.Channel {
	return r.chans
}

// Run pulls samples from the source and drives the tick loop until ctx
// is cancelled or the source reports end-of-stream (a clean, non-error
// termination per spec.md §7).
func (r *Receiver) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		window, err := r.fillWindow(ctx)
		if err != nil {
			if errors.Is(err, source.ErrEndOfStream) {
				return nil
			}
			return err
		}

		r.processTick(window)
	}
}

// fillWindow pulls new samples from the source, sliding the rolling
// two-code-period buffer forward by one code period (or filling it from
// scratch on the first call), and returns the whole buffer.
func (r *Receiver) fillWindow(ctx context.Context) ([]complex128, error) {
	pull := r.codeSP
	if len(r.buf) == 0 {
		pull = 2 * r.codeSP
	}

	samples, err := r.src.Read(ctx, pull)
	fsHz := r.cfg.ChannelConfig.FsHz
	r.tailTS += float64(len(samples)) / fsHz

	if len(r.buf) == 0 {
		r.buf = samples
	} else {
		drop := len(r.buf) - r.codeSP
		if drop < 0 {
			drop = 0
		}
		r.buf = append(r.buf[drop:], samples...)
	}

	if err != nil {
		return r.buf, err
	}
	return r.buf, nil
}

// processTick fans window out to every channel in parallel, then
// attempts a fix if the cadence and ephemeris-availability conditions
// are met.
func (r *Receiver) processTick(window []complex128) {
	windowTS := r.tailTS - float64(r.codeSP)/r.cfg.ChannelConfig.FsHz

	var g errgroup.Group
	for _, c := range r.chans {
		c := c
		g.Go(func() error {
			c.Process(window, windowTS)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // channel.Process never returns an error

	r.attemptFix(windowTS)

	r.pub.SetTOW(windowTS)
	r.pub.NotifyUpdated()
}

// attemptFix implements spec.md §4.4's fix cadence: a solve is attempted
// no more than once every FixIntervalSec, and only once at least 4
// channels hold a complete ephemeris.
func (r *Receiver) attemptFix(tsSec float64) {
	if tsSec-r.lastFix < r.cfg.FixIntervalSec {
		return
	}
	r.lastFix = tsSec

	var ephs []navigation.Ephemeris
	for _, c := range r.chans {
		if c.IsEphemerisComplete() {
			ephs = append(ephs, c.Ephemeris())
		}
	}
	if len(ephs) < 4 {
		return
	}

	result, ok := r.solv.Solve(tsSec, ephs)
	if !ok {
		return
	}

	r.pub.SetFix(telemetry.Fix{
		LatDeg:  result.LatLng.Lat.Degrees(),
		LonDeg:  result.LatLng.Lng.Degrees(),
		HeightM: result.HeightM,
		Valid:   true,
	})
	log.Info("fix", "lat_deg", result.LatLng.Lat.Degrees(), "lon_deg", result.LatLng.Lng.Degrees(),
		"height_m", result.HeightM, "n_svs", result.NumSVs, "iterations", result.Iterations)
}

// Close releases the underlying source, if it supports it.
func (r *Receiver) Close() error {
	if c, ok := r.src.(source.Closer); ok {
		return c.Close()
	}
	return nil
}
