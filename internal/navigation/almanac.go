package navigation

import (
	"sync"

	"github.com/gnssrx/gnssrx/internal/bitfield"
)

// Almanac is the coarse orbit/clock data for one SV, decoded from LNAV
// subframes 4/5. Unlike Ephemeris (one per channel), almanac pages
// describe every SV in the constellation and are collected into one
// process-wide table regardless of which channel happened to decode
// them.
type Almanac struct {
	SV       int
	SVHealth uint32
	SVConfig uint32

	A        float64
	Ecc      float64
	Omega0   float64
	Omega    float64
	M0       float64
	OmegaDot float64
	Week     uint32
	Toas     uint32
	F0       float64
	F1       float64
}

func (a *Almanac) decode(buf []byte, svid int) {
	a.SV = svid
	a.Ecc = float64(bitfield.GetBitU(buf, 68, 16)) * p2p21
	a.Toas = bitfield.GetBitU(buf, 90, 8) * 4096
	// delta_i (bits 98, 16) is intentionally not retained: it corrects
	// inclination relative to a reference 0.3*pi that almanac-only
	// tracking never needs (ephemeris carries the real i0/iDot).

	a.OmegaDot = float64(bitfield.GetBitU(buf, 120, 16)) * p2p38 * scToRad
	a.SVHealth = bitfield.GetBitU(buf, 136, 8)
	sqrtA := float64(bitfield.GetBitU(buf, 150, 24)) * p2p11
	a.A = sqrtA * sqrtA
	a.Omega0 = float64(bitfield.GetBitU(buf, 180, 24)) * p2p23 * scToRad
	a.Omega = float64(bitfield.GetBitU(buf, 210, 24)) * p2p23 * scToRad
	a.M0 = float64(bitfield.GetBitU(buf, 240, 24)) * p2p23 * scToRad
	a.F0 = float64(bitfield.GetBitU2(buf, 270, 8, 289, 3)) * p2p20
	a.F1 = float64(bitfield.GetBitU(buf, 278, 11)) * p2p38
}

// AlmanacTable is the process-wide, mutex-guarded store of all 32 GPS
// almanac entries (spec.md §9 "Global almanac" design note), shared
// across every channel's navigation decoder.
type AlmanacTable struct {
	mu      sync.Mutex
	entries [33]Almanac // 1-indexed by SV PRN; index 0 unused
}

// NewAlmanacTable returns an empty, ready-to-use table.
func NewAlmanacTable() *AlmanacTable {
	return &AlmanacTable{}
}

// Get returns a copy of the almanac entry for prn (1..32).
func (t *AlmanacTable) Get(prn int) Almanac {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prn < 1 || prn > 32 {
		return Almanac{}
	}
	return t.entries[prn]
}

// Snapshot returns a copy of all 32 almanac entries, indexed by PRN
// (index 0 is always zero-valued).
func (t *AlmanacTable) Snapshot() [33]Almanac {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries
}

func (t *AlmanacTable) setHealth(prn int, health uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prn < 1 || prn > 32 {
		return
	}
	t.entries[prn].SVHealth = health
}

func (t *AlmanacTable) setConfig(prn int, conf uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prn < 1 || prn > 32 {
		return
	}
	t.entries[prn].SVConfig = conf
}

func (t *AlmanacTable) setWeekToas(prn int, week, toas uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prn < 1 || prn > 32 {
		return
	}
	t.entries[prn].Week = week
	t.entries[prn].Toas = toas
}

func (t *AlmanacTable) decodeInto(prn int, buf []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prn < 1 || prn > 32 {
		return
	}
	t.entries[prn].decode(buf, prn)
}
