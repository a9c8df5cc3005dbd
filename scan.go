package iio

import (
	"context"

	"github.com/openiio/goiio/internal/scan"
)

// ScanResult is one endpoint the discovery aggregator found: a URI
// CreateContext can dial, and a human-readable description.
type ScanResult struct {
	URI         string
	Description string
}

// ScanContexts runs the discovery aggregator (spec §4.9, C9) and
// returns every endpoint found, de-duplicated by URI. filter selects
// which backends to probe as comma-separated segments, each optionally
// carrying a "=arg" ("local,usb=0456:b212,ip"); an empty filter probes
// every registered backend.
func ScanContexts(filter string) ([]ScanResult, error) {
	return ScanContextsContext(context.Background(), filter)
}

// ScanContextsContext is ScanContexts with a caller-supplied context,
// bounding how long the slowest backend (typically ip:'s mDNS browse)
// is allowed to block.
func ScanContextsContext(ctx context.Context, filter string) ([]ScanResult, error) {
	results := scan.Aggregate(ctx, filter)
	out := make([]ScanResult, len(results))
	for i, r := range results {
		out[i] = ScanResult{URI: r.URI, Description: r.Description}
	}
	return out, nil
}

// SetUSBEnumerator installs the production USB discovery hook used by
// the usb: scan segment, mirroring backend/usbb's EndpointOpener
// pattern: the library ships no libusb binding, so callers wire their
// own.
func SetUSBEnumerator(e func(ctx context.Context, vidPidFilter string) ([]ScanResult, error)) {
	if e == nil {
		scan.SetUSBEnumerator(nil)
		return
	}
	scan.SetUSBEnumerator(func(ctx context.Context, filter string) ([]scan.Result, error) {
		results, err := e(ctx, filter)
		if err != nil {
			return nil, err
		}
		out := make([]scan.Result, len(results))
		for i, r := range results {
			out[i] = scan.Result{URI: r.URI, Description: r.Description}
		}
		return out, nil
	})
}
