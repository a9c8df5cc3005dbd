package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/openiio/goiio/internal/logging"
)

// iiodServiceType is the DNS-SD service name IIOD advertises over
// mDNS, per spec §4.9.
const iiodServiceType = "_iio._tcp"

// BrowseTimeout bounds how long the ip: discoverer waits for mDNS
// responses before returning what it has.
var BrowseTimeout = 2 * time.Second

func init() {
	Register("ip", DiscovererFunc(discoverIP))
}

// discoverIP browses for _iio._tcp services and deduplicates entries
// that answer on more than one network interface down to one Result
// per host:port, per spec §4.9 ("same host appearing on multiple
// interfaces collapses to one entry").
func discoverIP(ctx context.Context, arg string) ([]Result, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("scan: ip: new resolver: %w", err)
	}

	browseCtx, cancel := context.WithTimeout(ctx, BrowseTimeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 16)
	seen := make(map[string]bool)
	var out []Result

	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			uri := fmt.Sprintf("ip:%s:%d", entry.HostName, entry.Port)
			if seen[uri] {
				continue
			}
			seen[uri] = true
			desc := entry.Instance
			if desc == "" {
				desc = entry.HostName
			}
			out = append(out, Result{URI: uri, Description: desc})
		}
	}()

	if err := resolver.Browse(browseCtx, iiodServiceType, "local.", entries); err != nil {
		logging.Default().Warn("scan: ip: browse failed", "error", err)
		return nil, err
	}
	<-browseCtx.Done()
	<-done

	return out, nil
}
