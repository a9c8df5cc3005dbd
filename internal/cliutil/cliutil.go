// Package cliutil holds the flag set and context-resolution logic
// shared by every cmd/iio_* tool, so each binary's main.go stays a
// thin wrapper around the library the way the teacher's cmd/ublk-mem
// stays a thin wrapper around package ublk.
package cliutil

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	goiio "github.com/openiio/goiio"
)

// Version is the CLI surface's reported version string.
const Version = "0.1.0"

// ErrScanPrinted is returned by OpenContext when -S printed the scan
// results and no context was opened; the caller should exit 0.
var ErrScanPrinted = errors.New("cliutil: scan results printed, no context opened")

// CommonFlags holds the flag values every iio_* tool accepts, per
// spec's "-u <uri>, -a[scan], -S[scan], -T <timeout>, -h, -V".
type CommonFlags struct {
	URI     string
	Scan    bool
	ScanArg string
	Timeout time.Duration
	Version bool
}

// Register adds the common flags to fs, returning the values they'll
// be populated into once fs.Parse runs.
func Register(fs *flag.FlagSet) *CommonFlags {
	cf := &CommonFlags{}
	fs.StringVar(&cf.URI, "u", "", "context URI (local:, ip:host, usb:..., serial:..., xml:path)")
	fs.BoolVar(&cf.Scan, "a", false, "auto-select the first context the scan finds")
	fs.StringVar(&cf.ScanArg, "S", "", "scan available contexts (optional backend filter) and print them")
	fs.DurationVar(&cf.Timeout, "T", 0, "per-operation timeout (e.g. 500ms, 2s); 0 = no timeout")
	fs.BoolVar(&cf.Version, "V", false, "print version and exit")
	return cf
}

// MaybePrintVersion prints the CLI version if -V was given and reports
// whether it did; it does not exit the process, so callers return from
// main when it reports true.
func (cf *CommonFlags) MaybePrintVersion(prog string) bool {
	if !cf.Version {
		return false
	}
	fmt.Printf("%s %s\n", prog, Version)
	return true
}

// ResolveURI picks the context URI to dial, in priority order: the -u
// flag, LIBIIO_BACKEND (forces a specific backend, chiefly for tests),
// IIOD_REMOTE (the operator's configured default), falling back to
// "local:" (spec §6 environment).
func ResolveURI(cf *CommonFlags) string {
	if cf.URI != "" {
		return cf.URI
	}
	if v := os.Getenv("LIBIIO_BACKEND"); v != "" {
		return v
	}
	if v := os.Getenv("IIOD_REMOTE"); v != "" {
		return "ip:" + v
	}
	return "local:"
}

// OpenContext resolves -a/-S scan requests, then -u/env URI resolution,
// and dials the result. When -a or -S is given, a scan error or an empty
// scan result is returned as an error; ResolveURI is used only when
// neither flag is set.
func OpenContext(cf *CommonFlags) (*goiio.Context, error) {
	if cf.Scan || cf.ScanArg != "" {
		results, err := goiio.ScanContexts(cf.ScanArg)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("scan: no contexts found")
		}
		if cf.Scan {
			return dial(results[0].URI, cf.Timeout)
		}
		for _, r := range results {
			fmt.Printf("%s\t%s\n", r.URI, r.Description)
		}
		return nil, ErrScanPrinted
	}
	return dial(ResolveURI(cf), cf.Timeout)
}

func dial(uri string, timeout time.Duration) (*goiio.Context, error) {
	opts := goiio.DefaultOptions()
	if timeout > 0 {
		opts.Timeout = timeout
	}
	return goiio.CreateContextWithOptions(uri, opts)
}

// Fatalf prints msg to stderr and exits with status 1, the pattern
// every iio_* main uses on an unrecoverable error.
func Fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
