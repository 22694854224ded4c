package channel

// Config holds the tunable constants driving acquisition and tracking,
// ground-truthed against original_source's channel.rs defaults except
// where noted (Doppler bin count, CN0 thresholds picked from spec.md's
// allowed ranges).
type Config struct {
	FsHz  float64 // sampling rate
	FIFHz float64 // intermediate frequency

	TIdleSec    float64 // idle dwell before re-attempting acquisition
	TAcqSec     float64 // non-coherent integration time for acquisition
	TFPullInSec float64 // FLL pull-in duration before switching to PLL
	TNPullInSec float64 // tracking duration before navigation hand-off
	TDLLSec     float64 // non-coherent integration time for the DLL
	TCN0Sec     float64 // averaging time for C/N0

	BFLLWideHz   float64 // FLL bandwidth during the first half of pull-in
	BFLLNarrowHz float64 // FLL bandwidth during the second half
	BPLLHz       float64 // PLL bandwidth
	BDLLHz       float64 // DLL bandwidth

	SPChip float64 // early/late correlator spacing, in chips

	DopplerSpreadHz float64 // acquisition search half-range
	DopplerBins     int     // number of Doppler bins across the full range

	CN0Lock float64 // dB-Hz threshold to declare acquisition lock
	CN0Lost float64 // dB-Hz threshold below which tracking drops to idle
}

// DefaultConfig returns the receiver's default channel tuning.
func DefaultConfig() Config {
	return Config{
		FsHz:  2.046e6,
		FIFHz: 0,

		TIdleSec:    3.0,
		TAcqSec:     0.01,
		TFPullInSec: 1.0,
		TNPullInSec: 1.5,
		TDLLSec:     0.01,
		TCN0Sec:     1.0,

		BFLLWideHz:   10.0,
		BFLLNarrowHz: 2.0,
		BPLLHz:       10.0,
		BDLLHz:       0.5,

		SPChip: 0.5,

		DopplerSpreadHz: 8000.0,
		DopplerBins:     160,

		CN0Lock: 35.0,
		CN0Lost: 29.0,
	}
}
