// Package navigation demodulates the GPS LNAV message from a channel's
// prompt-correlation history: bit synchronization, frame synchronization,
// parity checking, and subframe decoding into Ephemeris/Almanac records.
package navigation

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/gnssrx/gnssrx/internal/bitfield"
)

const (
	maxSyms = 18000 // symbol ring capacity (spec.md's "18 000-bit symbol ring")

	thresholdSync = 0.4  // |mean| to declare initial bit sync
	thresholdLost = 0.03 // |mean| below which bit sync is dropped

	bitsPerSymbol   = 20  // 1 ms prompt samples per 50 bps data bit
	frameBits       = 300 // bits per LNAV frame
	preambleAndGap  = 308 // preamble search window: 300 + next frame's 8-bit preamble
	nextFrameWindow = 6000 // ticks (ms) until the next frame's preamble is expected
)

// SyncState is the frame-level bit polarity once frame sync is achieved.
type SyncState int

const (
	SyncNone SyncState = iota
	SyncNormal
	SyncReversed
)

// PromptHistory is the read-only view a Decoder needs into its owning
// channel's prompt-correlation history: the real part over magnitude of
// each recent prompt correlation, most recent last.
type PromptHistory interface {
	// Len returns how many samples are currently available.
	Len() int
	// NormalizedRealAt returns Re(p)/|p| for the sample `offsetFromEnd`
	// positions before the most recent one (0 = most recent).
	NormalizedRealAt(offsetFromEnd int) float64
}

// Decoder demodulates one SV's LNAV stream. A Channel owns exactly one
// Decoder and feeds it the prompt-correlation history every tick; the
// Decoder never reaches back into the Channel (spec.md §9).
type Decoder struct {
	prn int

	almanac *AlmanacTable
	ionoUTC *IonoUTCStore

	ssync     int
	fsync     int
	syncState SyncState
	syms      []byte // one bit per entry, most recent last

	FramesOK  int
	FramesErr int

	Eph Ephemeris

	freshIonoUTC bool // set by decodeSubframe4 when page 18 lands this frame
}

// ConsumeIonoUTCFresh reports whether the most recently decoded frame
// carried a fresh subframe-4 page-18 ionosphere/UTC page, then clears
// the flag so it is only reported once.
func (d *Decoder) ConsumeIonoUTCFresh() bool {
	fresh := d.freshIonoUTC
	d.freshIonoUTC = false
	return fresh
}

// NewDecoder returns a Decoder for the given PRN, publishing almanac and
// ionosphere/UTC pages into the shared tables.
func NewDecoder(prn int, almanac *AlmanacTable, ionoUTC *IonoUTCStore) *Decoder {
	return &Decoder{
		prn:       prn,
		almanac:   almanac,
		ionoUTC:   ionoUTC,
		syncState: SyncNormal,
		syms:      make([]byte, maxSyms),
		Eph:       Ephemeris{PRN: prn},
	}
}

func (d *Decoder) addSymbol(sym byte) {
	copy(d.syms, d.syms[1:])
	d.syms[len(d.syms)-1] = sym
}

// IsSBAS reports whether prn identifies an SBAS satellite (120-158),
// whose navigation message is out of scope beyond recognition.
func IsSBAS(prn int) bool {
	return prn >= 120 && prn <= 158
}

// Process runs one tick of demodulation. numTrackingTicks is the number
// of 1 ms ticks since the channel entered Tracking; tsSec is the
// receiver wall-clock time of this tick; hist is the channel's prompt
// correlation history. It returns true if a parity-valid frame was
// decoded this tick.
func (d *Decoder) Process(numTrackingTicks int, tsSec float64, hist PromptHistory) bool {
	if IsSBAS(d.prn) {
		log.Warn("sbas frame", "sv", d.prn)
		return false
	}

	if !d.syncSymbol(numTrackingTicks, hist) {
		return false
	}

	if d.fsync > 0 {
		if numTrackingTicks == d.fsync+nextFrameWindow {
			state := d.frameSyncState()
			if state == d.syncState {
				return d.decodeFrame(numTrackingTicks, tsSec, state)
			}
			d.fsync = 0
			d.syncState = SyncNormal
		}
		return false
	}

	if numTrackingTicks >= bitsPerSymbol*preambleAndGap+1000 {
		state := d.frameSyncState()
		if state != SyncNone {
			return d.decodeFrame(numTrackingTicks, tsSec, state)
		}
	}
	return false
}

// syncSymbol implements bit synchronization: establishing the bit
// boundary, then emitting one symbol every bitsPerSymbol ticks.
func (d *Decoder) syncSymbol(numTrackingTicks int, hist PromptHistory) bool {
	if d.ssync == 0 {
		n := 2
		if bitsPerSymbol <= 2 {
			n = 1
		}
		if hist.Len() < 2*n {
			return false
		}
		var p float64
		for i := 0; i < 2*n; i++ {
			code := 1.0
			if i < n {
				code = -1.0
			}
			// offsetFromEnd 0 = most recent; we want samples
			// [len-2n .. len-1], i.e. offsets 2n-1 down to 0.
			offset := 2*n - 1 - i
			p += code * hist.NormalizedRealAt(offset)
		}
		p /= float64(2 * n)

		if math.Abs(p) >= thresholdSync {
			d.ssync = numTrackingTicks - n
			log.Info("bit sync", "sv", d.prn, "p", p, "ssync", d.ssync)
		}
		return false
	}

	if (numTrackingTicks-d.ssync)%bitsPerSymbol != 0 {
		return false
	}

	p := d.meanInPhase(hist, bitsPerSymbol)
	if math.Abs(p) < thresholdLost {
		d.ssync = 0
		d.syncState = SyncNormal
		log.Warn("bit sync lost", "sv", d.prn, "p", p)
		return false
	}

	var sym byte
	if p >= 0 {
		sym = 1
	}
	d.addSymbol(sym)
	return true
}

// meanInPhase averages Re(p)/|p| over the last n prompt samples.
func (d *Decoder) meanInPhase(hist PromptHistory, n int) float64 {
	var p float64
	for i := 0; i < n; i++ {
		c := hist.NormalizedRealAt(i)
		p += (c - p) / (1.0 + float64(i))
	}
	return p
}

func (d *Decoder) frameSyncState() SyncState {
	bits := d.syms[len(d.syms)-preambleAndGap:]
	if matchesNormal(preamble[:], bits[0:8]) && matchesNormal(preamble[:], bits[300:308]) {
		log.Info("frame sync (normal)", "sv", d.prn)
		return SyncNormal
	}
	if matchesReversed(preamble[:], bits[0:8]) && matchesReversed(preamble[:], bits[300:308]) {
		log.Info("frame sync (reversed)", "sv", d.prn)
		return SyncReversed
	}
	return SyncNone
}

func (d *Decoder) decodeFrame(numTrackingTicks int, tsSec float64, state SyncState) bool {
	var rev byte
	if state == SyncReversed {
		rev = 1
	}

	frame := make([]byte, frameBits)
	syms := d.syms[len(d.syms)-preambleAndGap : len(d.syms)-8]
	for i := range frame {
		frame[i] = syms[i] ^ rev
	}

	if !checkParity(frame) {
		d.fsync = 0
		d.syncState = SyncNormal
		d.FramesErr++
		log.Warn("parity error", "sv", d.prn)
		return false
	}

	d.fsync = numTrackingTicks
	d.syncState = state
	d.FramesOK++

	buf := make([]byte, (frameBits+7)/8+1)
	bitfield.PackBits(frame, 0, buf)

	subframeID := bitfield.GetBitU(buf, 49, 3)
	d.Eph.TLM = bitfield.GetBitU(buf, 8, 14)

	switch subframeID {
	case 1:
		d.Eph.decodeSubframe1(buf)
	case 2:
		d.Eph.decodeSubframe2(buf)
	case 3:
		d.Eph.decodeSubframe3(buf)
	case 4:
		d.decodeSubframe4(buf)
	case 5:
		d.decodeSubframe5(buf)
	default:
		log.Warn("invalid subframe id", "sv", d.prn, "id", subframeID)
	}

	if d.Eph.Week != 0 {
		d.Eph.TSSec = tsSec
		weekSecs := float64(d.Eph.Week) * float64(SecsPerWeek)
		d.Eph.TOWGpst = weekSecs + float64(d.Eph.TOW)
		d.Eph.ToeGpst = weekSecs + float64(d.Eph.Toe)
	}

	log.Info("lnav frame decoded", "sv", d.prn, "subframe", subframeID, "hex", hexString(buf, frameBits))
	return true
}

func (d *Decoder) decodeSubframe4(buf []byte) {
	d.Eph.TOW = bitfield.GetBitU(buf, 30, 17) * 6
	dataID := bitfield.GetBitU(buf, 60, 2)
	svid := int(bitfield.GetBitU(buf, 62, 6))

	if dataID != 1 {
		return
	}

	switch {
	case svid >= 25 && svid <= 32:
		d.almanac.decodeInto(svid, buf)
	case svid == 63:
		decodeSubframe4Page25(d.almanac, buf)
	case svid == 56:
		d.ionoUTC.Set(decodeIonoUTC(buf))
		d.freshIonoUTC = true
	}
}

func (d *Decoder) decodeSubframe5(buf []byte) {
	d.Eph.TOW = bitfield.GetBitU(buf, 30, 17) * 6
	dataID := bitfield.GetBitU(buf, 60, 2)
	svid := int(bitfield.GetBitU(buf, 62, 6))

	if dataID != 1 {
		return
	}

	switch {
	case svid >= 1 && svid <= 24:
		d.almanac.decodeInto(svid, buf)
	case svid == 51:
		decodeSubframe5Page25(d.almanac, buf)
	default:
		log.Warn("unknown subframe-5 svid", "sv", d.prn, "svid", svid)
	}
}

// svConfigBitPos is the bit offset of each SV's 4-bit anti-spoof/config
// field within subframe 4 page 25.
var svConfigBitPos = [32]int{
	68, 72, 76, 80, 90, 94, 98, 102, 106, 110, 120, 124, 128, 132, 136, 140,
	150, 154, 158, 162, 166, 170, 180, 184, 188, 192, 196, 200, 210, 214, 218, 222,
}

// svHealthBitPos25 is the bit offset of SV 25-32's 6-bit health field
// within subframe 4 page 25.
var svHealthBitPos25 = [8]int{228, 240, 246, 252, 258, 270, 276, 282}

func decodeSubframe4Page25(table *AlmanacTable, buf []byte) {
	for sv := 1; sv <= 32; sv++ {
		conf := bitfield.GetBitU(buf, svConfigBitPos[sv-1], 4)
		table.setConfig(sv, conf)
	}
	for i, sv := 0, 25; sv <= 32; i, sv = i+1, sv+1 {
		health := bitfield.GetBitU(buf, svHealthBitPos25[i], 6)
		table.setHealth(sv, health)
		if health != 0 {
			log.Warn("sv unhealthy (subframe 4)", "sv", sv)
		}
	}
}

// svHealthBitPos5 is the bit offset of SV 1-24's 6-bit health field
// within subframe 5 page 25.
var svHealthBitPos5 = [24]int{
	90, 96, 102, 108, 120, 126, 132, 138, 150, 156, 162, 168,
	180, 186, 192, 198, 210, 216, 222, 228, 240, 246, 252, 258,
}

func decodeSubframe5Page25(table *AlmanacTable, buf []byte) {
	toas := bitfield.GetBitU(buf, 68, 8) * 4096
	week := bitfield.GetBitU(buf, 76, 8) + 2048

	for i, sv := 0, 1; sv <= 24; i, sv = i+1, sv+1 {
		health := bitfield.GetBitU(buf, svHealthBitPos5[i], 6)
		table.setHealth(sv, health)
		if health != 0 {
			log.Warn("sv unhealthy (subframe 5)", "sv", sv)
		}
	}
	for sv := 1; sv <= 32; sv++ {
		table.setWeekToas(sv, week, toas)
	}
}

func hexString(buf []byte, nbits int) string {
	nbytes := (nbits + 7) / 8
	return fmt.Sprintf("%x", buf[:nbytes])
}
