package channel

import "math/cmplx"

// historyCap bounds each per-tick history slice to the last 20 s of 1 ms
// ticks (original_source's HISTORY_NUM), trimmed FIFO as new samples
// arrive.
const historyCap = 20000

// History accumulates the per-tick scalars a Channel's tracking loop
// produces, most recent last. It also implements navigation.PromptHistory,
// the read-only view the Decoder needs into the prompt-correlation
// stream -- the only way the Decoder reaches back into its owning
// Channel's state.
type History struct {
	lastLogTS  float64
	lastPlotTS float64

	codePhaseOffset []float64
	phiError        []float64
	dopplerHz       []float64
	corrP           []complex128
}

func (h *History) pushCorrP(c complex128) {
	h.corrP = append(h.corrP, c)
	if len(h.corrP) > historyCap {
		h.corrP = h.corrP[1:]
	}
}

func (h *History) pushPhiError(v float64) {
	h.phiError = append(h.phiError, v)
	if len(h.phiError) > historyCap {
		h.phiError = h.phiError[1:]
	}
}

func (h *History) pushDopplerHz(v float64) {
	h.dopplerHz = append(h.dopplerHz, v)
	if len(h.dopplerHz) > historyCap {
		h.dopplerHz = h.dopplerHz[1:]
	}
}

func (h *History) pushCodePhaseOffset(v float64) {
	h.codePhaseOffset = append(h.codePhaseOffset, v)
	if len(h.codePhaseOffset) > historyCap {
		h.codePhaseOffset = h.codePhaseOffset[1:]
	}
}

func (h *History) lastCodePhaseOffset() float64 {
	if len(h.codePhaseOffset) == 0 {
		return 0
	}
	return h.codePhaseOffset[len(h.codePhaseOffset)-1]
}

// popLastCorrP drops the most recently pushed prompt correlation,
// re-aligning history indices with absolute time when the code phase
// wraps forward by a full code period.
func (h *History) popLastCorrP() {
	if len(h.corrP) == 0 {
		return
	}
	h.corrP = h.corrP[:len(h.corrP)-1]
}

// duplicateLastCorrP re-pushes the most recent prompt correlation,
// re-aligning history indices when the code phase wraps backward.
func (h *History) duplicateLastCorrP() {
	if len(h.corrP) == 0 {
		return
	}
	h.corrP = append(h.corrP, h.corrP[len(h.corrP)-1])
}

func (h *History) corrPAt(i int) complex128 {
	return h.corrP[i]
}

// Len implements navigation.PromptHistory.
func (h *History) Len() int {
	return len(h.corrP)
}

// NormalizedRealAt implements navigation.PromptHistory: Re(p)/|p| for
// the sample offsetFromEnd positions before the most recent one.
func (h *History) NormalizedRealAt(offsetFromEnd int) float64 {
	c := h.corrP[len(h.corrP)-1-offsetFromEnd]
	m := cmplx.Abs(c)
	if m == 0 {
		return 0
	}
	return real(c) / m
}
