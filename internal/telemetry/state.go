// Package telemetry holds the single shared publication object the
// signal-processing core writes into and an operator-facing UI (out of
// scope here) would read from: one mutex, field-wise O(1) updates, and
// a repaint callback fired after each tick's updates land.
package telemetry

import "sync"

// Mode mirrors a channel's coarse tracking state for display purposes.
type Mode int

const (
	ModeIdle Mode = iota
	ModeAcquisition
	ModeTracking
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeAcquisition:
		return "acquisition"
	case ModeTracking:
		return "tracking"
	default:
		return "unknown"
	}
}

// SVStatus is one row of the per-satellite display table.
type SVStatus struct {
	Mode         Mode
	CN0          float64
	DopplerHz    float64
	CodeIndex    int
	CarrierPhase float64
	HasEphemeris bool
}

// Fix is the most recently published PVT solution.
type Fix struct {
	LatDeg  float64
	LonDeg  float64
	HeightM float64
	Valid   bool
}

// State is the cyclic shared-mutable-state hub: channels and the solver
// write into it every tick under one mutex; a UI (or a test) reads a
// consistent snapshot through Snapshot.
type State struct {
	mu sync.Mutex

	tow      float64
	svs      map[int]SVStatus
	fix      Fix
	onUpdate func()

	utcAdjustPending   bool
	ionoAdjustPending  bool
}

// New returns an empty State ready for use.
func New() *State {
	return &State{svs: make(map[int]SVStatus)}
}

// OnUpdate registers the no-argument repaint callback invoked once per
// tick after every channel/solver write for that tick has landed. A nil
// fn clears the callback.
func (s *State) OnUpdate(fn func()) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

// SetTOW publishes the current GPS time-of-week.
func (s *State) SetTOW(tow float64) {
	s.mu.Lock()
	s.tow = tow
	s.mu.Unlock()
}

// SetSV publishes one satellite's status row.
func (s *State) SetSV(prn int, status SVStatus) {
	s.mu.Lock()
	s.svs[prn] = status
	s.mu.Unlock()
}

// SetFix publishes a new PVT solution. Callers should not call this on
// solver non-convergence; the previous fix stays published (spec: "the
// previous fix... is left intact").
func (s *State) SetFix(fix Fix) {
	s.mu.Lock()
	s.fix = fix
	s.mu.Unlock()
}

// SetAdjustmentFlags records whether the last navigation decode carried
// fresh UTC/ionosphere corrections, surfaced for the UI to flag.
func (s *State) SetAdjustmentFlags(utc, iono bool) {
	s.mu.Lock()
	s.utcAdjustPending = utc
	s.ionoAdjustPending = iono
	s.mu.Unlock()
}

// NotifyUpdated invokes the registered repaint callback, if any. The
// receiver calls this once per tick after all channel and solver writes
// for that tick have landed.
func (s *State) NotifyUpdated() {
	s.mu.Lock()
	fn := s.onUpdate
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Snapshot is a point-in-time, lock-free-to-read copy of the whole
// published state.
type Snapshot struct {
	TOW               float64
	SVs               map[int]SVStatus
	Fix               Fix
	UTCAdjustPending  bool
	IonoAdjustPending bool
}

// Snapshot copies the current published state under the mutex.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	svs := make(map[int]SVStatus, len(s.svs))
	for prn, st := range s.svs {
		svs[prn] = st
	}
	return Snapshot{
		TOW:               s.tow,
		SVs:               svs,
		Fix:               s.fix,
		UTCAdjustPending:  s.utcAdjustPending,
		IonoAdjustPending: s.ionoAdjustPending,
	}
}
