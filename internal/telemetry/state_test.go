package telemetry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSVAndSnapshot(t *testing.T) {
	s := New()
	s.SetSV(5, SVStatus{Mode: ModeTracking, CN0: 42.0, DopplerHz: 2500})

	snap := s.Snapshot()
	require.Contains(t, snap.SVs, 5)
	assert.Equal(t, ModeTracking, snap.SVs[5].Mode)
	assert.Equal(t, 42.0, snap.SVs[5].CN0)
}

func TestSnapshotIsACopyNotALiveView(t *testing.T) {
	s := New()
	s.SetSV(1, SVStatus{Mode: ModeIdle})
	snap := s.Snapshot()

	s.SetSV(1, SVStatus{Mode: ModeTracking})
	assert.Equal(t, ModeIdle, snap.SVs[1].Mode, "snapshot must not observe later writes")
}

func TestFixLeftIntactWhenNotOverwritten(t *testing.T) {
	s := New()
	s.SetFix(Fix{LatDeg: 37.4, LonDeg: -122.1, HeightM: 30, Valid: true})

	// Simulate a solver non-convergence tick: no SetFix call.
	s.SetTOW(123456)

	snap := s.Snapshot()
	assert.True(t, snap.Fix.Valid)
	assert.Equal(t, 37.4, snap.Fix.LatDeg)
}

func TestOnUpdateCallbackFiresOnNotify(t *testing.T) {
	s := New()
	var fired bool
	s.OnUpdate(func() { fired = true })

	s.NotifyUpdated()
	assert.True(t, fired)
}

func TestNotifyUpdatedWithNoCallbackIsNoop(t *testing.T) {
	s := New()
	assert.NotPanics(t, func() { s.NotifyUpdated() })
}

// TestConcurrentWritesAreSafe exercises the single-mutex invariant: many
// goroutines writing distinct SV slots and reading snapshots concurrently
// must not race or panic.
func TestConcurrentWritesAreSafe(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for prn := 1; prn <= 32; prn++ {
		wg.Add(1)
		go func(prn int) {
			defer wg.Done()
			s.SetSV(prn, SVStatus{Mode: ModeTracking, CN0: float64(prn)})
			_ = s.Snapshot()
		}(prn)
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Len(t, snap.SVs, 32)
}

func TestSetAdjustmentFlags(t *testing.T) {
	s := New()
	s.SetAdjustmentFlags(true, false)
	snap := s.Snapshot()
	assert.True(t, snap.UTCAdjustPending)
	assert.False(t, snap.IonoAdjustPending)
}
