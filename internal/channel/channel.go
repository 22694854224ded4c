// Package channel implements one satellite's signal-processing pipeline:
// acquisition over a Doppler/code-phase grid, then FLL/PLL/DLL-steered
// tracking, handing prompt-correlation history off to a navigation
// decoder once tracking stabilizes. Ground-truthed against
// original_source's channel.rs for every state transition, constant,
// and loop-filter formula.
package channel

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/gnssrx/gnssrx/internal/correlator"
	"github.com/gnssrx/gnssrx/internal/gold"
	"github.com/gnssrx/gnssrx/internal/navigation"
	"github.com/gnssrx/gnssrx/internal/telemetry"
)

// Mode is a channel's coarse state.
type Mode int

const (
	Idle Mode = iota
	Acquisition
	Tracking
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Acquisition:
		return "acquisition"
	case Tracking:
		return "tracking"
	default:
		return "unknown"
	}
}

// trackingState holds the loop filters' running state.
type trackingState struct {
	dopplerHz  float64
	codeOffSec float64
	cn0        float64
	adr        float64
	phi        float64
	errPhase   float64
	sumCorrE   float64
	sumCorrL   float64
	sumCorrP   float64
	sumCorrN   float64
}

// acquisitionState is the non-coherent-sum grid, one row per Doppler
// bin, reused across every Acquisition entry rather than reallocated
// (original_source's "Acquisition grid memory" sizing note).
type acquisitionState struct {
	sumP [][]float64
}

func newAcquisitionState(bins, codeSP int) acquisitionState {
	sumP := make([][]float64, bins)
	for i := range sumP {
		sumP[i] = make([]float64, codeSP)
	}
	return acquisitionState{sumP: sumP}
}

func (a *acquisitionState) reset() {
	for i := range a.sumP {
		for j := range a.sumP[i] {
			a.sumP[i][j] = 0
		}
	}
}

// Channel tracks a single PRN end to end: it owns its own reusable FFT
// plan, local code replica, loop-filter state, and a navigation.Decoder
// it feeds every tick but never receives calls back from.
type Channel struct {
	pub *telemetry.State
	cfg Config
	prn int

	codeFreqHz float64 // chip rate, used for carrier-aided code-phase update
	codeSec    float64 // one code period, seconds
	codeLen    int     // chips per code period
	codeSP     int     // samples per upsampled code period

	corr         *correlator.Plan
	code         []complex128 // upsampled local replica, baseband
	codeSpectrum []complex128 // forward FFT of code, precomputed once

	mode Mode

	numAcqSamples  int
	numIdleSamples int
	numTrkSamples  int

	trk trackingState
	acq acquisitionState
	hist History

	almanac *navigation.AlmanacTable
	ionoUTC *navigation.IonoUTCStore
	nav     *navigation.Decoder

	tsSec float64
}

// New builds a Channel for prn, registering it in pub with the
// Acquisition state, so the search begins on the first tick.
func New(cfg Config, prn int, almanac *navigation.AlmanacTable, ionoUTC *navigation.IonoUTCStore, pub *telemetry.State) *Channel {
	if !gold.HasPRN(prn) {
		panic(fmt.Sprintf("channel: unknown PRN %d", prn))
	}

	chips := gold.Generate(prn)
	samplesPerChip := int(math.Round(cfg.FsHz * gold.CodePeriodSec / float64(gold.ChipLen)))
	code := gold.Upsample(chips, samplesPerChip)
	codeSP := len(code)

	corr := correlator.NewPlan(codeSP)
	codeSpectrum := corr.Spectrum(code)

	c := &Channel{
		pub:          pub,
		cfg:          cfg,
		prn:          prn,
		codeFreqHz:   gold.CodeFreqHz,
		codeSec:      gold.CodePeriodSec,
		codeLen:      gold.ChipLen,
		codeSP:       codeSP,
		corr:         corr,
		code:         code,
		codeSpectrum: codeSpectrum,
		mode:         Acquisition,
		acq:          newAcquisitionState(cfg.DopplerBins, codeSP),
		almanac:      almanac,
		ionoUTC:      ionoUTC,
		nav:          navigation.NewDecoder(prn, almanac, ionoUTC),
	}
	c.publish()
	return c
}

// PRN returns the satellite this channel tracks.
func (c *Channel) PRN() int { return c.prn }

// Mode returns the channel's current state.
func (c *Channel) Mode() Mode { return c.mode }

// CN0 returns the most recently smoothed carrier-to-noise density, zero
// outside Tracking.
func (c *Channel) CN0() float64 {
	if c.mode != Tracking {
		return 0
	}
	return c.trk.cn0
}

// Ephemeris returns the navigation decoder's current ephemeris record.
func (c *Channel) Ephemeris() navigation.Ephemeris { return c.nav.Eph }

// IsEphemerisComplete reports whether this channel has decoded enough
// to contribute a pseudorange to the solver.
func (c *Channel) IsEphemerisComplete() bool {
	return c.CN0() >= c.cfg.CN0Lock && c.nav.Eph.IsComplete()
}

// WindowLen is the number of samples Process expects per tick: two code
// periods, so tracking can slide its correlation window by up to one
// full period in either direction.
func (c *Channel) WindowLen() int { return 2 * c.codeSP }

// Process runs one 1 ms tick. window must have length WindowLen();
// tsSec is the receiver's wall-clock time for this tick.
func (c *Channel) Process(window []complex128, tsSec float64) {
	if len(window) != c.WindowLen() {
		panic(fmt.Sprintf("channel: window length %d does not match expected %d", len(window), c.WindowLen()))
	}
	c.tsSec = tsSec

	switch c.mode {
	case Idle:
		c.idleProcess()
	case Acquisition:
		c.acquisitionProcess(window)
	case Tracking:
		c.trackingProcess(window)
	}
}

func (c *Channel) setMode(m Mode) {
	c.mode = m
	c.publish()
}

func (c *Channel) setCN0(cn0 float64) {
	c.trk.cn0 = cn0
	c.publish()
}

func (c *Channel) publish() {
	mode := telemetry.ModeIdle
	switch c.mode {
	case Acquisition:
		mode = telemetry.ModeAcquisition
	case Tracking:
		mode = telemetry.ModeTracking
	}
	c.pub.SetSV(c.prn, telemetry.SVStatus{
		Mode:         mode,
		CN0:          c.trk.cn0,
		DopplerHz:    c.trk.dopplerHz,
		CodeIndex:    int(c.trk.codeOffSec * c.cfg.FsHz),
		CarrierPhase: c.trk.phi,
		HasEphemeris: c.nav.Eph.IsComplete(),
	})
}

func (c *Channel) idleStart() {
	if c.mode == Tracking {
		log.Warn("lock lost", "sv", c.prn, "cn0", c.trk.cn0, "ts_sec", c.tsSec)
	} else {
		log.Info("idle", "sv", c.prn, "cn0", c.trk.cn0, "ts_sec", c.tsSec)
	}
	c.setMode(Idle)
	c.numIdleSamples = 0
	c.numTrkSamples = 0
	c.numAcqSamples = 0
}

func (c *Channel) idleProcess() {
	c.numIdleSamples++
	if float64(c.numIdleSamples)*c.codeSec >= c.cfg.TIdleSec {
		c.acquisitionStart()
	}
}

func (c *Channel) acquisitionInit() {
	c.acq.reset()
	c.numAcqSamples = 0
	c.numIdleSamples = 0
	c.numTrkSamples = 0
}

func (c *Channel) acquisitionStart() {
	c.acquisitionInit()
	c.setMode(Acquisition)
}

func (c *Channel) trackingInit() {
	c.trk = trackingState{}
	c.numTrkSamples = 0
	c.numAcqSamples = 0
	c.numIdleSamples = 0
	c.nav = navigation.NewDecoder(c.prn, c.almanac, c.ionoUTC)
}

func (c *Channel) trackingStart(dopplerHz, cn0, codeOffSec float64, codeOffsetIdx int) {
	log.Warn("lock acquired", "sv", c.prn, "cn0", cn0, "doppler_hz", dopplerHz, "code_off_idx", codeOffsetIdx, "ts_sec", c.tsSec)
	c.trackingInit()
	c.setMode(Tracking)
	c.trk.codeOffSec = codeOffSec
	c.trk.dopplerHz = dopplerHz
	c.setCN0(cn0)
}
