package channel

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/charmbracelet/log"
)

// trackingProcess runs one 1 ms tracking tick: code/carrier phase
// update, early/prompt/late/neutral correlation, loop filters, C/N0
// smoothing, and (once pulled in) navigation decoding.
func (c *Channel) trackingProcess(window []complex128) {
	c.getCodeAndCarrierPhase()
	cp, ce, cl, cn := c.trackingComputeCorrelation(window)
	c.hist.pushCorrP(cp)
	c.numTrkSamples++

	if float64(c.numTrkSamples)*c.codeSec < c.cfg.TFPullInSec {
		c.runFLL()
	} else {
		c.runPLL(cp)
	}

	c.runDLL(ce, cl)
	c.updateCN0(cp, cn)

	if float64(c.numTrkSamples)*c.codeSec >= c.cfg.TNPullInSec {
		c.navDecode()
	}

	c.hist.pushDopplerHz(c.trk.dopplerHz)
	c.nav.Eph.CN0 = c.trk.cn0
	c.nav.Eph.CodeOffSec = c.trk.codeOffSec
	c.setCN0(c.trk.cn0)

	if c.trk.cn0 < c.cfg.CN0Lost {
		c.idleStart()
	}
}

// getCodeAndCarrierPhase is Step A: carrier-aided code-phase update from
// the previous tick's Doppler estimate, wrapped into [0, T_code), with
// the prompt-correlation history spliced to stay aligned on a wrap.
func (c *Channel) getCodeAndCarrierPhase() {
	tau := c.codeSec
	fc := c.cfg.FIFHz + c.trk.dopplerHz

	c.trk.adr += c.trk.dopplerHz * tau
	c.trk.codeOffSec -= c.trk.dopplerHz / c.codeFreqHz * tau

	switch {
	case c.trk.codeOffSec >= c.codeSec:
		c.trk.codeOffSec -= c.codeSec
		c.numTrkSamples--
		c.hist.popLastCorrP()
	case c.trk.codeOffSec < 0:
		c.trk.codeOffSec += c.codeSec
		c.numTrkSamples++
		c.hist.duplicateLastCorrP()
	}

	codeOff := c.trk.codeOffSec * c.cfg.FsHz
	c.trk.phi = c.cfg.FIFHz*tau + c.trk.adr + fc*codeOff/c.cfg.FsHz
	c.hist.pushCodePhaseOffset(codeOff)
}

// trackingComputeCorrelation is Step B: early/prompt/late/neutral
// correlation of the de-rotated signal against the local code replica.
func (c *Channel) trackingComputeCorrelation(window []complex128) (prompt, early, late, neutral complex128) {
	n := c.codeSP
	codeIdx := int(c.hist.lastCodePhaseOffset())
	if !(-n < codeIdx && codeIdx < n) {
		panic(fmt.Sprintf("channel: code index %d out of range for window length %d", codeIdx, n))
	}

	lo := codeIdx
	if codeIdx < 0 {
		lo = n + codeIdx
	}
	signal := make([]complex128, n)
	copy(signal, window[lo:lo+n])

	dopplerShift(signal, c.trk.dopplerHz, c.trk.phi, c.cfg.FsHz)

	pos := int(c.cfg.SPChip * c.codeSec * c.cfg.FsHz / float64(c.codeLen))
	const posNeutral = 80

	for j := range signal {
		prompt += signal[j] * c.code[j]
	}
	prompt /= complex(float64(len(signal)), 0)

	for j := 0; j < len(signal)-pos; j++ {
		early += signal[j] * c.code[pos+j]
	}
	early /= complex(float64(len(signal)-pos), 0)

	for j := 0; j < len(signal)-pos; j++ {
		late += signal[pos+j] * c.code[j]
	}
	late /= complex(float64(len(signal)-pos), 0)

	for j := 0; j < len(signal)-posNeutral; j++ {
		neutral += signal[j] * c.code[posNeutral+j]
	}
	neutral /= complex(float64(len(signal)-posNeutral), 0)

	return prompt, early, late, neutral
}

// runFLL is Step C's FLL arm, active during the first T_FPULLIN seconds
// after lock.
func (c *Channel) runFLL() {
	if c.numTrkSamples < 2 || c.hist.Len() < 2 {
		return
	}
	n := c.hist.Len()
	c1 := c.hist.corrPAt(n - 1)
	c2 := c.hist.corrPAt(n - 2)
	dot := real(c1)*real(c2) + imag(c1)*imag(c2)
	cross := real(c1)*imag(c2) - imag(c1)*real(c2)
	if dot == 0 {
		return
	}

	b := c.cfg.BFLLWideHz
	if float64(c.numTrkSamples)*c.codeSec >= c.cfg.TFPullInSec/2 {
		b = c.cfg.BFLLNarrowHz
	}
	errFreq := math.Atan2(cross, dot) / (2 * math.Pi)
	c.trk.dopplerHz -= b / 0.25 * errFreq
}

// runPLL is Step C's PLL arm, active after T_FPULLIN.
func (c *Channel) runPLL(cp complex128) {
	if real(cp) == 0 {
		return
	}
	errPhase := math.Atan(imag(cp)/real(cp)) / (2 * math.Pi)
	w := c.cfg.BPLLHz / 0.53
	c.trk.dopplerHz += 1.4*w*(errPhase-c.trk.errPhase) + w*w*errPhase*c.codeSec
	c.trk.errPhase = errPhase
	c.hist.pushPhiError(errPhase * 2 * math.Pi)
}

// runDLL is Step C's DLL arm, integrating every tick and dumping every
// n = T_DLL/T_code ticks.
func (c *Channel) runDLL(early, late complex128) {
	n := int(c.cfg.TDLLSec / c.codeSec)
	if n < 1 {
		n = 1
	}
	c.trk.sumCorrE += cmplx.Abs(early)
	c.trk.sumCorrL += cmplx.Abs(late)

	if c.numTrkSamples%n == 0 {
		e, l := c.trk.sumCorrE, c.trk.sumCorrL
		errCode := (e - l) / (e + l) / 2 * c.codeSec / float64(c.codeLen)
		c.trk.codeOffSec -= c.cfg.BDLLHz / 0.25 * errCode * c.codeSec * float64(n)
		c.trk.sumCorrE = 0
		c.trk.sumCorrL = 0
	}
}

// updateCN0 is Step D, smoothing the prompt/neutral power ratio every
// T_CN0/T_code ticks.
func (c *Channel) updateCN0(prompt, neutral complex128) {
	c.trk.sumCorrP += normSq(prompt)
	c.trk.sumCorrN += normSq(neutral)

	n := int(c.cfg.TCN0Sec / c.codeSec)
	if n < 1 {
		n = 1
	}
	if c.numTrkSamples%n == 0 {
		if c.trk.sumCorrN > 0 {
			cn0 := 10 * math.Log10(c.trk.sumCorrP/c.trk.sumCorrN/c.codeSec)
			c.trk.cn0 += 0.5 * (cn0 - c.trk.cn0)
		}
		c.trk.sumCorrP = 0
		c.trk.sumCorrN = 0
	}
}

// navDecode is Step E: hand the prompt-correlation history off to the
// navigation decoder once tracking has pulled in.
func (c *Channel) navDecode() {
	if c.nav.Process(c.numTrkSamples, c.tsSec, &c.hist) {
		log.Info("nav frame decoded", "sv", c.prn, "frames_ok", c.nav.FramesOK, "frames_err", c.nav.FramesErr)
		if c.nav.ConsumeIonoUTCFresh() {
			c.pub.SetAdjustmentFlags(true, true)
		}
	}
}
