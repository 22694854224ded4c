package source

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/jochenvg/go-udev"
)

// WatchUSBHotplug runs until ctx is cancelled, calling onChange whenever a
// USB device is added or removed, so a caller can re-probe for an RTL-SDR
// dongle that was plugged in or unplugged after startup. The teacher's own
// USB device handling (cm108.go) goes through cgo libudev bindings rather
// than this pure-Go wrapper; this is written from go-udev's own API rather
// than a teacher usage site (see DESIGN.md).
func WatchUSBHotplug(ctx context.Context, onChange func(action string)) error {
	u := udev.Udev{}
	monitor := u.NewMonitorFromNetlink("udev")
	if err := monitor.FilterAddMatchSubsystem("usb"); err != nil {
		return err
	}

	ch, errCh, err := monitor.DeviceChan(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			log.Warn("udev monitor error", "err", err)
		case dev := <-ch:
			if dev == nil {
				continue
			}
			onChange(dev.Action())
		}
	}
}
