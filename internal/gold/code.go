// Package gold generates GPS L1 C/A Gold codes: the 1023-chip PRN
// sequences identifying each space vehicle, upsampled to the receiver's
// sampling rate and pre-spectrum-transformed for FFT correlation.
package gold

import "math/cmplx"

// ChipLen is the number of chips in one GPS L1 C/A code period.
const ChipLen = 1023

// CodeFreqHz is the L1 C/A chipping rate.
const CodeFreqHz = 1.023e6

// CodePeriodSec is the duration of one C/A code period.
const CodePeriodSec = float64(ChipLen) / CodeFreqHz

// g2Delay maps a PRN (1-based) to the G2 shift-register delay that
// produces its code, per ICD-200. PRNs 1-32 are the GPS constellation;
// 120-158 are SBAS, included since a channel acquiring an SBAS PRN still
// needs a valid local replica (the SBAS navigation message itself is
// out of scope, see the navigation package).
var g2Delay = [...]int{
	5, 6, 7, 8, 17, 18, 139, 140, 141, 251,
	252, 254, 255, 256, 257, 258, 469, 470, 471, 472,
	473, 474, 509, 512, 513, 514, 515, 516, 859, 860,
	861, 862, 863, 950, 947, 948, 950, 67, 103, 91,
	19, 679, 225, 625, 946, 638, 161, 1001, 554, 280,
	710, 709, 775, 864, 558, 220, 397, 55, 898, 759,
	367, 299, 1018, 729, 695, 780, 801, 788, 732, 34,
	320, 327, 389, 407, 525, 405, 221, 761, 260, 326,
	955, 653, 699, 422, 188, 438, 959, 539, 879, 677,
	586, 153, 792, 814, 446, 264, 1015, 278, 536, 819,
	156, 957, 159, 712, 885, 461, 248, 713, 126, 807,
	279, 122, 197, 693, 632, 771, 467, 647, 203, 145,
	175, 52, 21, 237, 235, 886, 657, 634, 762, 355,
	1012, 176, 603, 130, 359, 595, 68, 386, 797, 456,
	499, 883, 307, 127, 211, 121, 118, 163, 628, 853,
	484, 289, 811, 202, 1021, 463, 568, 904, 670, 230,
	911, 684, 309, 644, 932, 12, 314, 891, 212, 185,
	675, 503, 150, 395, 345, 846, 798, 992, 357, 995,
	877, 112, 144, 476, 193, 109, 445, 291, 87, 399,
	292, 901, 339, 208, 711, 189, 263, 537, 663, 942,
	173, 900, 30, 500, 935, 556, 373, 85, 652, 310,
}

// HasPRN reports whether prn has a known G2 delay in this table.
func HasPRN(prn int) bool {
	return prn >= 1 && prn <= len(g2Delay)
}

// Generate returns the ChipLen-long C/A chip sequence for prn, valued
// {-1, +1}. G1 is a 10-bit LFSR with taps {3, 10}; G2 is a 10-bit LFSR
// with taps {2, 3, 6, 8, 9, 10}. Both start all-ones. The PRN identity is
// folded in by reading G2 through a per-PRN delay instead of selecting
// distinct output taps -- an equivalent, simpler formulation of the
// same ICD-200 code.
func Generate(prn int) []int8 {
	if !HasPRN(prn) {
		panic("gold: unknown PRN")
	}

	var r1, r2 [10]int8
	for i := range r1 {
		r1[i] = -1
		r2[i] = -1
	}

	var g1, g2 [ChipLen]int8
	for i := 0; i < ChipLen; i++ {
		g1[i] = r1[9]
		g2[i] = r2[9]

		c1 := r1[2] * r1[9]
		c2 := r2[1] * r2[2] * r2[5] * r2[7] * r2[8] * r2[9]

		copy(r1[1:], r1[:9])
		copy(r2[1:], r2[:9])
		r1[0], r2[0] = c1, c2
	}

	delay := g2Delay[prn-1]
	j := ChipLen - delay
	chips := make([]int8, ChipLen)
	for i := 0; i < ChipLen; i++ {
		v := -g1[i] * g2[j%ChipLen]
		if v >= 0 {
			chips[i] = 1
		} else {
			chips[i] = -1
		}
		j++
	}
	return chips
}

// Upsample repeats each chip samplesPerChip times and converts it to a
// zero-imaginary complex sample, matching the receiver's sampling rate
// (samplesPerChip = round(fs * CodePeriodSec / ChipLen); 2 at the
// default fs = 2.046 MHz).
func Upsample(chips []int8, samplesPerChip int) []complex128 {
	out := make([]complex128, 0, len(chips)*samplesPerChip)
	for _, c := range chips {
		for i := 0; i < samplesPerChip; i++ {
			out = append(out, complex(float64(c), 0))
		}
	}
	return out
}

// Spectrum returns the forward FFT of an upsampled code, using fft as
// the (already-sized, reusable) transform.
func Spectrum(fft func([]complex128) []complex128, upsampled []complex128) []complex128 {
	buf := make([]complex128, len(upsampled))
	copy(buf, upsampled)
	return fft(buf)
}

// normalize is a test helper retained for round-trip checks against the
// inverse FFT: dividing by N undoes the forward transform's scaling.
func normalize(v []complex128) []complex128 {
	n := complex(float64(len(v)), 0)
	out := make([]complex128, len(v))
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

func magnitude(c complex128) float64 {
	return cmplx.Abs(c)
}
