// Package scan implements the discovery aggregator (spec §4.9, C9): a
// filter string ("local,usb=VID:PID,ip") fans out to one Discoverer
// per named backend, merging and de-duplicating their results by URI.
// A failing backend never aborts the whole scan, only its own
// contribution, mirroring the teacher's per-queue isolation in its
// device cleanup loops (one misbehaving hardware queue never takes
// down the rest of the device).
package scan

import (
	"context"
	"strings"
	"sync"

	"github.com/openiio/goiio/internal/logging"
)

// Result is one discovered context endpoint: the URI CreateContext
// would dial, and a human-readable description.
type Result struct {
	URI         string
	Description string
}

// Discoverer is the per-backend discovery hook a scan filter segment
// invokes. arg is the text after "=" in that segment, or "" if there
// was none (e.g. "usb=0456:b212" -> arg "0456:b212").
type Discoverer interface {
	Discover(ctx context.Context, arg string) ([]Result, error)
}

// DiscovererFunc adapts a plain function to a Discoverer.
type DiscovererFunc func(ctx context.Context, arg string) ([]Result, error)

func (f DiscovererFunc) Discover(ctx context.Context, arg string) ([]Result, error) { return f(ctx, arg) }

var (
	registryMu sync.RWMutex
	registry   = map[string]Discoverer{}
)

// Register adds a Discoverer under a filter-segment name ("local",
// "usb", "ip"). Called from each discovery hook's init().
func Register(name string, d Discoverer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = d
}

func lookup(name string) (Discoverer, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[name]
	return d, ok
}

// Aggregate runs every backend named in filter and merges their
// results, de-duplicated by URI, in the order backends were listed
// (spec §4.9). An empty filter scans every registered backend.
func Aggregate(ctx context.Context, filter string) []Result {
	names := strings.Split(filter, ",")
	if filter == "" {
		registryMu.RLock()
		names = names[:0]
		for n := range registry {
			names = append(names, n)
		}
		registryMu.RUnlock()
	}

	seen := make(map[string]bool)
	var out []Result
	for _, seg := range names {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		name, arg, _ := strings.Cut(seg, "=")

		d, ok := lookup(name)
		if !ok {
			logging.Default().Warn("scan: no discoverer registered", "backend", name)
			continue
		}
		results, err := d.Discover(ctx, arg)
		if err != nil {
			logging.Default().Warn("scan: backend failed, continuing", "backend", name, "error", err)
			continue
		}
		for _, r := range results {
			if seen[r.URI] {
				continue
			}
			seen[r.URI] = true
			out = append(out, r)
		}
	}
	return out
}
