package navigation

import "github.com/gnssrx/gnssrx/internal/bitfield"

// parityMask is the 6-entry GPS LNAV parity check mask table (ICD-200).
// Each mask is applied to word>>6 after D30-star inversion: bits 0-23
// select data bits D1-D24, and bits 24 and 25 select the previous
// word's D30 and D29.
var parityMask = [6]uint32{
	0x2EC7CD2, 0x1763E69, 0x2BB1F34, 0x15D8F9A, 0x1AEC7CD, 0x22DEA27,
}

// preamble is the 8-bit LNAV telemetry word preamble, 10001011.
var preamble = [8]byte{1, 0, 0, 0, 1, 0, 1, 1}

// checkParity validates all 10 words (300 bits) of a frame, applying
// the D30-star sign-carry from each word to the next. syms holds one
// bit per byte (0 or 1), matching the symbol ring's representation.
func checkParity(syms []byte) bool {
	if len(syms) != 300 {
		panic("navigation: frame must be exactly 300 bits")
	}

	var word uint32
	for i := 0; i < 10; i++ {
		for j := 0; j < 30; j++ {
			word = (word << 1) | uint32(syms[i*30+j])
		}
		if word&(1<<30) != 0 {
			word ^= 0x3FFFFFC0
		}
		for j := 0; j < 6; j++ {
			check := (word >> 6) & parityMask[j]
			want := byte((word >> uint(5-j)) & 1)
			if bitfield.XorBits(check) != want {
				return false
			}
		}
	}
	return true
}

// matchesNormal reports whether bits equals pattern exactly.
func matchesNormal(pattern, bits []byte) bool {
	for i := range pattern {
		if bits[i] != pattern[i] {
			return false
		}
	}
	return true
}

// matchesReversed reports whether bits equals the bitwise complement of
// pattern.
func matchesReversed(pattern, bits []byte) bool {
	for i := range pattern {
		if bits[i] == pattern[i] {
			return false
		}
	}
	return true
}
