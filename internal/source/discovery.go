package source

import (
	"context"
	"fmt"
	"time"

	"github.com/brutella/dnssd"
)

// DNSSDServiceType is the service type Network daemons advertise
// themselves under, repurposing the teacher's AX.25-over-IP peer
// discovery type (src/dns_sd.go's DNS_SD_SERVICE) for SDR-daemon
// discovery instead.
const DNSSDServiceType = "_gnssrx-sdr._tcp"

// Discover browses the local network for DNSSDServiceType instances for
// timeout and returns the first host:port found, for use as
// NetworkConfig.Addr when no explicit address is configured. The
// teacher's own dns_sd.go only announces a service (server side); this
// is the client-side browse/lookup counterpart, built from dnssd's own
// API rather than a teacher usage site (see DESIGN.md).
func Discover(ctx context.Context, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	found := make(chan string, 1)

	addFn := func(e dnssd.BrowseEntry) {
		for _, ip := range e.IPs {
			select {
			case found <- fmt.Sprintf("%s:%d", ip.String(), e.Port):
			default:
			}
			return
		}
	}
	rmvFn := func(e dnssd.BrowseEntry) {}

	go func() {
		_ = dnssd.LookupType(ctx, DNSSDServiceType, addFn, rmvFn)
	}()

	select {
	case addr := <-found:
		return addr, nil
	case <-ctx.Done():
		return "", fmt.Errorf("source: no %s service found within %s", DNSSDServiceType, timeout)
	}
}
