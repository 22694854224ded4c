package receiver

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/gnssrx/gnssrx/internal/channel"
	"github.com/gnssrx/gnssrx/internal/gold"
	"github.com/gnssrx/gnssrx/internal/source"
	"github.com/gnssrx/gnssrx/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkSource replays a fixed sequence of sample chunks, one per Read
// call, then reports ErrEndOfStream. It ignores the requested count;
// the tests size chunks to match the receiver's own pull sizes.
type chunkSource struct {
	chunks [][]complex128
	i      int
}

func (s *chunkSource) Read(ctx context.Context, n int) ([]complex128, error) {
	if s.i >= len(s.chunks) {
		return nil, source.ErrEndOfStream
	}
	c := s.chunks[s.i]
	s.i++
	return c, nil
}

// syntheticTail mirrors channel package's own acquisition synthetic
// fixture: zero-delay PRN code at a fixed Doppler plus Gaussian noise,
// with carrier phase reset to zero at the start of the chunk (matching
// acquisitionIntegrateCorrelation's own per-tick phase reset via
// dopplerShift(mixed, freq, 0, fs)).
func syntheticTail(rng *rand.Rand, code []complex128, fs, dopplerHz, snrDB float64) []complex128 {
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

// TestRunLocksChannelOntoSyntheticSignal is the receiver-level analog of
// channel's own E2 test: fed through the real tick loop (fillWindow's
// rolling buffer, the errgroup fan-out, telemetry publication), a
// single PRN-5 channel at 2500 Hz Doppler and -5 dB SNR should reach
// Tracking with C/N0 >= CN0Lock, and the published snapshot should
// reflect it.
func TestRunLocksChannelOntoSyntheticSignal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PRNs = []int{5}
	pub := telemetry.New()

	chanCfg := cfg.ChannelConfig
	code := gold.Upsample(gold.Generate(5), 2)
	codeSP := len(code)

	rng := rand.New(rand.NewSource(42))
	const trueDopplerHz = 2500.0
	const numTicks = 10

	chunks := make([][]complex128, 0, numTicks)
	for tick := 0; tick < numTicks; tick++ {
		tail := syntheticTail(rng, code, chanCfg.FsHz, trueDopplerHz, -5.0)
		if tick == 0 {
			first := make([]complex128, 2*codeSP)
			copy(first[codeSP:], tail)
			chunks = append(chunks, first)
		} else {
			chunks = append(chunks, tail)
		}
	}

	r := New(cfg, &chunkSource{chunks: chunks}, pub)
	require.Equal(t, codeSP, r.codeSP)

	err := r.Run(context.Background())
	require.NoError(t, err)

	snap := pub.Snapshot()
	sv, ok := snap.SVs[5]
	require.True(t, ok)
	assert.Equal(t, telemetry.ModeTracking, sv.Mode)
	assert.GreaterOrEqual(t, sv.CN0, chanCfg.CN0Lock)
}

// TestRunStopsCleanlyOnEndOfStream covers spec.md §4.4/§7's end-of-stream
// loop termination: Run returns a nil error, not source.ErrEndOfStream,
// once the source is exhausted.
func TestRunStopsCleanlyOnEndOfStream(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PRNs = []int{1}
	pub := telemetry.New()

	codeSP := channel.New(cfg.ChannelConfig, 1, nil, nil, telemetry.New()).WindowLen() / 2
	chunks := [][]complex128{
		make([]complex128, 2*codeSP),
		make([]complex128, codeSP),
	}

	r := New(cfg, &chunkSource{chunks: chunks}, pub)
	err := r.Run(context.Background())
	assert.NoError(t, err)
}

// TestRunRespectsContextCancellation covers cancellation as an
// alternative, non-error loop exit.
func TestRunRespectsContextCancellation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PRNs = []int{1}
	pub := telemetry.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(cfg, &chunkSource{chunks: nil}, pub)
	err := r.Run(ctx)
	assert.NoError(t, err)
}

// TestAttemptFixRequiresFourCompleteEphemerides covers spec.md §4.4's
// fix-attempt gate: with fewer than 4 channels holding a complete
// ephemeris, no fix is ever published.
func TestAttemptFixRequiresFourCompleteEphemerides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PRNs = []int{1, 2, 3}
	pub := telemetry.New()
	r := New(cfg, &chunkSource{}, pub)

	r.attemptFix(1000.0)
	assert.False(t, pub.Snapshot().Fix.Valid)
}

// TestAttemptFixRespectsCadence covers spec.md §4.4's "now - last_fix >=
// T_FIX" gate: calling attemptFix twice within the cadence window only
// updates lastFix on the first call that clears the gate.
func TestAttemptFixRespectsCadence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PRNs = []int{1}
	pub := telemetry.New()
	r := New(cfg, &chunkSource{}, pub)
	r.lastFix = 100.0

	r.attemptFix(100.5) // within cadence, should be a no-op
	assert.Equal(t, 100.0, r.lastFix)

	r.attemptFix(103.0) // clears FixIntervalSec, but still < 4 ephemerides
	assert.Equal(t, 103.0, r.lastFix)
}
