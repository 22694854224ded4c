package navigation

import (
	"math"

	"github.com/gnssrx/gnssrx/internal/bitfield"
)

// ICD-200 scale factors. Named after the power of two they represent,
// matching the convention the decoded LNAV fields are specified in.
const (
	p2p5  = 1.0 / 32         // 2^-5
	p2p11 = 1.0 / 2048       // 2^-11
	p2p19 = 1.0 / 524288     // 2^-19
	p2p20 = 1.0 / 1048576    // 2^-20
	p2p21 = 1.0 / 2097152    // 2^-21
	p2p23 = 1.0 / 8388608    // 2^-23
	p2p24 = 1.0 / 16777216   // 2^-24
	p2p27 = 1.0 / 134217728  // 2^-27
	p2p29 = 1.0 / 536870912  // 2^-29
	p2p30 = 1.0 / 1073741824 // 2^-30
	p2p31 = 1.0 / 2147483648 // 2^-31
	p2p33 = p2p31 / 4        // 2^-33
	p2p38 = p2p31 / 128      // 2^-38
	p2p43 = p2p31 / 4096     // 2^-43
	p2p50 = p2p31 / 524288   // 2^-50
	p2p55 = p2p31 / 16777216 // 2^-55
)

// scToRad converts ICD-200 semicircles to radians.
const scToRad = math.Pi

// SecsPerWeek is the number of seconds in a GPS week.
const SecsPerWeek = 7 * 24 * 60 * 60

// Ephemeris holds the Keplerian orbital elements and clock corrections
// decoded from LNAV subframes 1-3 for one SV, plus receiver-side
// bookkeeping needed to turn them into a pseudorange.
type Ephemeris struct {
	PRN int

	TOW uint32 // seconds into week, from the most recently decoded subframe
	TLM uint32 // telemetry word, informational

	CN0        float64 // latest C/N0, refreshed every tracking tick
	CodeOffSec float64 // latest code phase, refreshed every tracking tick
	TSSec      float64 // receiver wall-clock time of the most recently decoded subframe (once Week is known)
	TOWGpst    float64 // GPS-time epoch (seconds) of TOW
	ToeGpst    float64 // GPS-time epoch (seconds) of Toe

	IODE uint32
	IODC uint32
	SVA  uint32
	SVH  uint32
	Week uint32
	Code uint32
	Flag uint32

	TGD float64
	F0  float64
	F1  float64
	F2  float64

	Omega    float64 // argument of perigee
	Omega0   float64 // longitude of ascending node at weekly epoch
	OmegaDot float64 // rate of right ascension
	Cic      float64
	Cis      float64
	Crc      float64
	Crs      float64
	Cuc      float64
	Cus      float64
	IDot     float64
	I0       float64
	M0       float64
	A        float64 // semi-major axis, meters (sqrtA squared)
	Ecc      float64
	DeltaN   float64

	TOC uint32
	Toe uint32
	Fit uint32
}

// IsComplete reports whether eph carries enough data for the solver to
// use: a non-zero week/toe, a plausible semi-major axis, and a receiver
// arrival timestamp.
func (e *Ephemeris) IsComplete() bool {
	return e.Week != 0 && e.Toe != 0 && e.A >= 20_000_000 && e.TSSec != 0
}

// decodeSubframe1 fills in clock-correction fields (tow, week, health,
// IODC, TGD, toc, f0/f1/f2) from a 300-bit subframe buffer.
func (e *Ephemeris) decodeSubframe1(buf []byte) {
	e.TOW = bitfield.GetBitU(buf, 30, 17) * 6
	e.Week = bitfield.GetBitU(buf, 60, 10) + 2048
	e.Code = bitfield.GetBitU(buf, 70, 2)
	e.SVA = bitfield.GetBitU(buf, 72, 4)
	e.SVH = bitfield.GetBitU(buf, 76, 6)

	e.IODC = bitfield.GetBitU2(buf, 82, 2, 210, 8)
	e.Flag = bitfield.GetBitU(buf, 90, 1)
	e.TGD = float64(bitfield.GetBits(buf, 196, 8)) * p2p31
	e.TOC = bitfield.GetBitU(buf, 218, 16) * 16
	e.F2 = float64(bitfield.GetBits(buf, 240, 8)) * p2p55
	e.F1 = float64(bitfield.GetBits(buf, 248, 16)) * p2p43
	e.F0 = float64(bitfield.GetBits(buf, 270, 22)) * p2p31
}

// decodeSubframe2 fills in orbit-shape fields (iode, crs, deltaN, M0,
// cuc/cus, eccentricity, sqrtA, toe, fit).
func (e *Ephemeris) decodeSubframe2(buf []byte) {
	e.TOW = bitfield.GetBitU(buf, 30, 17) * 6
	e.IODE = bitfield.GetBitU(buf, 60, 8)
	e.Crs = float64(bitfield.GetBits(buf, 68, 16)) * p2p5
	e.DeltaN = float64(bitfield.GetBits(buf, 90, 16)) * p2p43 * scToRad
	e.M0 = float64(bitfield.GetBits2(buf, 106, 8, 120, 24)) * p2p31 * scToRad
	e.Ecc = float64(bitfield.GetBitU2(buf, 166, 8, 180, 24)) * p2p33
	e.Cuc = float64(bitfield.GetBits(buf, 150, 16)) * p2p29
	e.Cus = float64(bitfield.GetBits(buf, 210, 16)) * p2p29
	sqrtA := float64(bitfield.GetBitU2(buf, 226, 8, 240, 24)) * p2p19
	e.Toe = bitfield.GetBitU(buf, 270, 16) * 16
	e.Fit = bitfield.GetBitU(buf, 286, 1)
	e.A = sqrtA * sqrtA
}

// decodeSubframe3 fills in orientation fields (cic/cis, Omega0, i0,
// crc, omega, omegaDot, iode, iDot).
func (e *Ephemeris) decodeSubframe3(buf []byte) {
	e.TOW = bitfield.GetBitU(buf, 30, 17) * 6
	e.Cic = float64(bitfield.GetBits(buf, 60, 16)) * p2p29
	e.Cis = float64(bitfield.GetBits(buf, 120, 16)) * p2p29
	e.Omega0 = float64(bitfield.GetBits2(buf, 76, 8, 90, 24)) * p2p31 * scToRad
	e.I0 = float64(bitfield.GetBits2(buf, 136, 8, 150, 24)) * p2p31 * scToRad
	e.Crc = float64(bitfield.GetBits(buf, 180, 16)) * p2p5
	e.Omega = float64(bitfield.GetBits2(buf, 196, 8, 210, 24)) * p2p31 * scToRad
	e.OmegaDot = float64(bitfield.GetBits(buf, 240, 24)) * p2p43 * scToRad
	e.IODE = bitfield.GetBitU(buf, 270, 8)
	e.IDot = float64(bitfield.GetBits(buf, 278, 14)) * p2p43 * scToRad
}
