package channel

import (
	"math"
	"math/rand"
	"testing"

	"github.com/gnssrx/gnssrx/internal/gold"
	"github.com/gnssrx/gnssrx/internal/navigation"
	"github.com/gnssrx/gnssrx/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChannel(t *testing.T, prn int) *Channel {
	t.Helper()
	cfg := DefaultConfig()
	return New(cfg, prn, navigation.NewAlmanacTable(), navigation.NewIonoUTCStore(), telemetry.New())
}

// DopplerHz exposes the tracking loop's current Doppler estimate, for
// tests.
func (c *Channel) DopplerHz() float64 { return c.trk.dopplerHz }

// CodePhaseOffsetSec exposes the tracking loop's current code-phase
// offset, for tests.
func (c *Channel) CodePhaseOffsetSec() float64 { return c.trk.codeOffSec }

func TestNewPanicsOnUnknownPRN(t *testing.T) {
	assert.Panics(t, func() {
		New(DefaultConfig(), 999, navigation.NewAlmanacTable(), navigation.NewIonoUTCStore(), telemetry.New())
	})
}

func TestNewStartsInAcquisition(t *testing.T) {
	c := newTestChannel(t, 1)
	assert.Equal(t, Acquisition, c.Mode())
}

// TestIdleToAcquisitionTransitionsAfterExactTicks is the §8 invariant:
// a channel leaves Idle for Acquisition after exactly
// ceil(T_IDLE/T_code) idle ticks, no more, no fewer.
func TestIdleToAcquisitionTransitionsAfterExactTicks(t *testing.T) {
	c := newTestChannel(t, 1)
	c.idleStart()
	require.Equal(t, Idle, c.Mode())

	want := int(math.Ceil(c.cfg.TIdleSec / c.codeSec))
	for i := 0; i < want-1; i++ {
		c.idleProcess()
		require.Equal(t, Idle, c.Mode(), "tick %d should still be idle", i)
	}
	c.idleProcess()
	assert.Equal(t, Acquisition, c.Mode())
}

// TestAcquisitionGridResetsOnEveryEntry is the §8 invariant: P[d][tau]
// is always non-negative, and the accumulator is cleared on every
// transition into Acquisition.
func TestAcquisitionGridResetsOnEveryEntry(t *testing.T) {
	c := newTestChannel(t, 1)
	for i := range c.acq.sumP {
		for j := range c.acq.sumP[i] {
			c.acq.sumP[i][j] = 7.0
			assert.GreaterOrEqual(t, c.acq.sumP[i][j], 0.0)
		}
	}
	c.acquisitionStart()
	for i := range c.acq.sumP {
		for j := range c.acq.sumP[i] {
			assert.Zero(t, c.acq.sumP[i][j])
		}
	}
}

// syntheticAcquisitionTail builds one tick's worth of samples: the
// zero-delay PRN code at a fixed Doppler plus Gaussian noise at the
// given SNR, matching acquisition's per-tick phase-reset convention
// (the local oscillator restarts at phase zero for every tick's
// window, so the synthetic signal does too).
func syntheticAcquisitionTail(rng *rand.Rand, code []complex128, fs, dopplerHz, snrDB float64) []complex128 {
	noisePower := 1.0 / math.Pow(10, snrDB/10)
	stddev := math.Sqrt(noisePower / 2)

	tail := make([]complex128, len(code))
	for i, c := range code {
		t := float64(i) / fs
		rot := complex(math.Cos(2*math.Pi*dopplerHz*t), math.Sin(2*math.Pi*dopplerHz*t))
		noise := complex(rng.NormFloat64()*stddev, rng.NormFloat64()*stddev)
		tail[i] = c*rot + noise
	}
	return tail
}

// TestAcquisitionLocksOntoSyntheticSignal is E2: a 10 ms PRN-5 signal at
// 2500 Hz Doppler and -5 dB SNR must acquire within ±100 Hz of 2500 Hz
// and ±1 sample of zero code phase, with C/N0 >= 40 (spec.md's
// CN0_LOCK of 35 is enforced by construction; we additionally check the
// stronger E2 bound).
func TestAcquisitionLocksOntoSyntheticSignal(t *testing.T) {
	cfg := DefaultConfig()
	c := New(cfg, 5, navigation.NewAlmanacTable(), navigation.NewIonoUTCStore(), telemetry.New())

	code := gold.Upsample(gold.Generate(5), 2)
	require.Len(t, code, c.codeSP)

	rng := rand.New(rand.NewSource(42))
	const trueDopplerHz = 2500.0

	for tick := 0; tick < 10; tick++ {
		tail := syntheticAcquisitionTail(rng, code, cfg.FsHz, trueDopplerHz, -5.0)
		window := make([]complex128, c.WindowLen())
		copy(window[c.codeSP:], tail)
		c.Process(window, float64(tick)*c.codeSec)
	}

	require.Equal(t, Tracking, c.Mode())
	assert.InDelta(t, trueDopplerHz, c.DopplerHz(), 100.0)
	assert.InDelta(t, 0.0, c.CodePhaseOffsetSec(), c.codeSec/float64(c.codeSP))
	assert.GreaterOrEqual(t, c.CN0(), 40.0)
}

// TestGetCodeAndCarrierPhaseWrapsIntoRange is the §8 invariant: after
// Step A, 0 <= tau_c < T_code, even when the previous tick's Doppler
// drives the raw update outside that range.
func TestGetCodeAndCarrierPhaseWrapsIntoRange(t *testing.T) {
	c := newTestChannel(t, 1)
	c.trackingStart(0, 40, 0, 0)
	c.hist.pushCorrP(1 + 0i) // seed history so pop/duplicate has something to act on

	c.trk.dopplerHz = 5e5 // large enough to force a wrap most ticks
	for i := 0; i < 5; i++ {
		c.getCodeAndCarrierPhase()
		assert.GreaterOrEqual(t, c.trk.codeOffSec, 0.0)
		assert.Less(t, c.trk.codeOffSec, c.codeSec)
	}
}

// TestRunPLLErrPhaseBounded is the §8 invariant: |e_phi| <= 0.25, an
// atan on a single quadrant divided by 2*pi.
func TestRunPLLErrPhaseBounded(t *testing.T) {
	c := newTestChannel(t, 1)
	cases := []complex128{1 + 100i, 1 - 100i, 5 + 0.001i, -3 + 2i}
	for _, cp := range cases {
		c.runPLL(cp)
		assert.LessOrEqual(t, math.Abs(c.trk.errPhase), 0.25)
	}
}

func TestIsEphemerisCompleteRequiresLockAndEphemeris(t *testing.T) {
	c := newTestChannel(t, 1)
	assert.False(t, c.IsEphemerisComplete())
}
