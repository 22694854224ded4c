// Command gnssrx is the receiver's command-line entry point: it binds a
// sample source (file, sound card, RTL-SDR, or network daemon), an
// optional diagnostics writer, and receiver.Config to a
// receiver.Receiver and runs it to completion. The Hamlib tuner in
// package source is not selectable here; any other source kind is
// rejected. Flags merely bind
// collaborators to the core, mirroring cmd/direwolf/main.go's own scope.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gnssrx/gnssrx/internal/config"
	"github.com/gnssrx/gnssrx/internal/diagnostics"
	"github.com/gnssrx/gnssrx/internal/receiver"
	"github.com/gnssrx/gnssrx/internal/solver"
	"github.com/gnssrx/gnssrx/internal/source"
	"github.com/gnssrx/gnssrx/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal("config load failed", "err", err)
	}

	src, err := openSource(cfg.Source)
	if err != nil {
		log.Fatal("failed to open sample source", "err", err)
	}
	if c, ok := src.(source.Closer); ok {
		defer c.Close()
	}

	pub := telemetry.New()
	pub.OnUpdate(func() {
		snap := pub.Snapshot()
		log.Info("tick", "tow", snap.TOW, "fix_valid", snap.Fix.Valid,
			"fix_lat", snap.Fix.LatDeg, "fix_lon", snap.Fix.LonDeg)
	})

	rcvCfg := receiver.DefaultConfig()
	if len(cfg.PRNs) > 0 {
		rcvCfg.PRNs = cfg.PRNs
	}
	rcvCfg.FixIntervalSec = cfg.FixIntervalSec
	rcvCfg.SolverConfig = solver.Config{BaseDelaySec: cfg.SolverBaseDelaySec}

	rcv := receiver.New(rcvCfg, src, pub)
	defer rcv.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if cfg.DiagnosticsDir != "" {
		if err := os.MkdirAll(cfg.DiagnosticsDir, 0o755); err != nil {
			log.Fatal("failed to create diagnostics directory", "err", err)
		}
		interval := time.Duration(cfg.DiagnosticsIntervalSec * float64(time.Second))
		writer := diagnostics.NewWriter(cfg.DiagnosticsDir, interval)
		done := make(chan struct{})
		defer close(done)
		go writer.Run(done, rcv.Channels())
	}

	log.Info("receiver starting", "source_kind", cfg.Source.Kind, "prns", rcvCfg.PRNs)
	if err := rcv.Run(ctx); err != nil {
		log.Fatal("receiver exited with error", "err", err)
	}
	log.Info("receiver stopped")
}

func openSource(cfg config.Source) (source.Source, error) {
	switch cfg.Kind {
	case "file", "":
		f, err := os.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open recording %s: %w", cfg.Path, err)
		}
		return source.NewFile(f, source.Format(cfg.Format))
	case "soundcard":
		return source.OpenSoundcard(cfg.SampleRateHz, 4096)
	case "rtlsdr":
		return source.OpenRTLSDR(source.RTLSDRConfig{
			DeviceIndex:  cfg.DeviceIndex,
			CenterFreqHz: int(cfg.CenterFreqHz),
			SampleRateHz: int(cfg.SampleRateHz),
			AutoGain:     cfg.AutoGain,
		})
	case "network":
		addr := cfg.Addr
		if addr == "" {
			discovered, err := source.Discover(context.Background(), 5*time.Second)
			if err != nil {
				return nil, err
			}
			addr = discovered
		}
		return source.DialNetwork(source.NetworkConfig{
			Addr:         addr,
			CenterFreqHz: uint32(cfg.CenterFreqHz),
			SampleRateHz: uint32(cfg.SampleRateHz),
			AGC:          cfg.AutoGain,
		})
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
