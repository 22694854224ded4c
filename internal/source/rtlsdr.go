package source

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	rtl "github.com/jpoirier/gortlsdr"
	"github.com/warthog618/go-gpiocdev"
)

// RTLSDR drives a local RTL-SDR dongle via libusb (github.com/jpoirier/gortlsdr),
// decoding its native interleaved uint8 I/Q stream the same way FormatRTLSDR
// decodes a recorded capture of one. Grounded on the ReadSync/ResetBuffer
// call sequence the HackTVLive rtl_tv example uses.
type RTLSDR struct {
	dev     *rtl.Context
	buf     []byte
	biasTee *gpiocdev.Line
}

// RTLSDRConfig configures dongle tuning at open time.
type RTLSDRConfig struct {
	DeviceIndex  int
	CenterFreqHz int
	SampleRateHz int
	TunerGainTds int // tenths of a dB; ignored if AutoGain is true
	AutoGain     bool

	// BiasTeeGPIOChip/Line optionally enable an external LNA's bias-tee
	// power over a GPIO line (e.g. on an RPi carrier board), independent
	// of the dongle's own control path.
	BiasTeeGPIOChip string
	BiasTeeGPIOLine int
}

// OpenRTLSDR opens and tunes device cfg.DeviceIndex.
func OpenRTLSDR(cfg RTLSDRConfig) (*RTLSDR, error) {
	count := rtl.GetDeviceCount()
	if count == 0 {
		return nil, fmt.Errorf("source: no RTL-SDR devices found")
	}

	dev, err := rtl.Open(cfg.DeviceIndex)
	if err != nil {
		return nil, fmt.Errorf("source: open RTL-SDR %d: %w", cfg.DeviceIndex, err)
	}

	if err := dev.SetCenterFreq(cfg.CenterFreqHz); err != nil {
		dev.Close()
		return nil, fmt.Errorf("source: set center freq: %w", err)
	}
	if err := dev.SetSampleRate(cfg.SampleRateHz); err != nil {
		dev.Close()
		return nil, fmt.Errorf("source: set sample rate: %w", err)
	}
	if err := dev.SetTunerGainMode(!cfg.AutoGain); err != nil {
		dev.Close()
		return nil, fmt.Errorf("source: set gain mode: %w", err)
	}
	if !cfg.AutoGain {
		if err := dev.SetTunerGain(cfg.TunerGainTds); err != nil {
			dev.Close()
			return nil, fmt.Errorf("source: set tuner gain: %w", err)
		}
	}
	if err := dev.ResetBuffer(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("source: reset buffer: %w", err)
	}

	r := &RTLSDR{dev: dev, buf: make([]byte, rtl.DefaultBufLength)}

	if cfg.BiasTeeGPIOChip != "" {
		line, err := gpiocdev.RequestLine(cfg.BiasTeeGPIOChip, cfg.BiasTeeGPIOLine,
			gpiocdev.AsOutput(1))
		if err != nil {
			dev.Close()
			return nil, fmt.Errorf("source: bias-tee GPIO request: %w", err)
		}
		r.biasTee = line
		log.Info("bias-tee enabled", "chip", cfg.BiasTeeGPIOChip, "line", cfg.BiasTeeGPIOLine)
	}

	log.Info("RTL-SDR opened", "index", cfg.DeviceIndex, "center_hz", cfg.CenterFreqHz, "rate_hz", cfg.SampleRateHz)
	return r, nil
}

// Read implements Source, decoding the dongle's native interleaved uint8
// I/Q samples (offset 127, scale 1/128) identically to FormatRTLSDR.
func (r *RTLSDR) Read(ctx context.Context, n int) ([]complex128, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	need := n * 2
	if cap(r.buf) < need {
		r.buf = make([]byte, need)
	}
	buf := r.buf[:need]

	nRead, err := r.dev.ReadSync(buf, need)
	if err != nil {
		return nil, fmt.Errorf("source: RTL-SDR read: %w", err)
	}

	got := nRead / 2
	out := make([]complex128, got)
	for i := 0; i < got; i++ {
		iv := (float64(buf[i*2]) - 127.0) / 128.0
		qv := (float64(buf[i*2+1]) - 127.0) / 128.0
		out[i] = complex(iv, qv)
	}
	if got < n {
		return out, ErrEndOfStream
	}
	return out, nil
}

// Close releases the GPIO line (if held) and the dongle.
func (r *RTLSDR) Close() error {
	if r.biasTee != nil {
		r.biasTee.SetValue(0)
		r.biasTee.Close()
	}
	return r.dev.Close()
}
