package navigation

import (
	"sync"

	"github.com/gnssrx/gnssrx/internal/bitfield"
)

// IonoUTC holds the ionospheric correction coefficients and UTC/leap-
// second parameters broadcast on subframe 4 page 18. spec.md's
// distillation notes the decode happens but never names a home for the
// result; this supplements that gap (original_source computes these
// into local variables and discards them).
type IonoUTC struct {
	Alpha [4]float64 // seconds, seconds/semicircle, ...
	Beta  [4]float64

	A0  float64 // clock bias correction, seconds
	A1  float64 // clock drift correction, seconds/second
	Tot uint32  // reference time of UTC parameters, seconds of week
	WNt uint32  // UTC reference week number (mod 256)

	DeltaLS  int32  // current leap seconds
	WNlsf    uint32 // leap-second reference week number
	DN       uint32 // leap-second reference day number
	DeltaLSF int32  // leap seconds effective after WNlsf/DN

	Valid bool
}

func decodeIonoUTC(buf []byte) IonoUTC {
	var u IonoUTC
	u.Alpha[0] = float64(bitfield.GetBits(buf, 68, 8)) * p2p30
	u.Alpha[1] = float64(bitfield.GetBits(buf, 76, 8)) * p2p27
	u.Alpha[2] = float64(bitfield.GetBits(buf, 90, 8)) * p2p24
	u.Alpha[3] = float64(bitfield.GetBits(buf, 98, 8)) * p2p24
	u.Beta[0] = float64(bitfield.GetBits(buf, 106, 8)) * 2048    // 2^11
	u.Beta[1] = float64(bitfield.GetBits(buf, 120, 8)) * 16384   // 2^14
	u.Beta[2] = float64(bitfield.GetBits(buf, 128, 8)) * 65536   // 2^16
	u.Beta[3] = float64(bitfield.GetBits(buf, 136, 8)) * 65536   // 2^16

	u.A0 = float64(bitfield.GetBits2(buf, 180, 24, 210, 8)) * p2p30
	u.A1 = float64(bitfield.GetBits(buf, 150, 24)) * p2p50
	u.Tot = bitfield.GetBitU(buf, 218, 8) * 4096 // 2^12
	u.WNt = bitfield.GetBitU(buf, 226, 8)
	u.DeltaLS = bitfield.GetBits(buf, 234, 8)
	u.WNlsf = bitfield.GetBitU(buf, 242, 8)
	u.DN = bitfield.GetBitU(buf, 250, 8)
	u.DeltaLSF = bitfield.GetBits(buf, 258, 8)
	u.Valid = true
	return u
}

// IonoUTCStore is the process-wide, mutex-guarded holder of the most
// recently decoded IonoUTC page, shared across channels the same way
// AlmanacTable is (spec.md §9 "Global almanac" note, generalized).
type IonoUTCStore struct {
	mu    sync.Mutex
	value IonoUTC
}

// NewIonoUTCStore returns an empty store.
func NewIonoUTCStore() *IonoUTCStore {
	return &IonoUTCStore{}
}

// Set publishes a freshly decoded page.
func (s *IonoUTCStore) Set(v IonoUTC) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

// Get returns the most recently published page, zero-valued if none yet.
func (s *IonoUTCStore) Get() IonoUTC {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}
