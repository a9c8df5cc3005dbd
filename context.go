package iio

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/openiio/goiio/internal/backend"

	_ "github.com/openiio/goiio/internal/backend/local"
	_ "github.com/openiio/goiio/internal/backend/netb"
	_ "github.com/openiio/goiio/internal/backend/serialb"
	_ "github.com/openiio/goiio/internal/backend/usbb"
	_ "github.com/openiio/goiio/internal/backend/xmlb"
)

// Options configures a Context at creation time, mirroring the
// teacher's ublk.Options: a dial/op timeout and a pluggable Observer,
// with a NoOpObserver default so callers that don't care about
// metrics pay nothing for them.
type Options struct {
	// Timeout bounds every attribute round trip and control command
	// issued through this Context; zero means infinite, per spec §5.
	Timeout time.Duration

	// Observer receives per-operation metrics. Defaults to
	// NoOpObserver.
	Observer Observer
}

// DefaultOptions returns the zero-value-safe Options a caller gets by
// calling CreateContext instead of CreateContextWithOptions.
func DefaultOptions() Options {
	return Options{Timeout: DefaultOpTimeout, Observer: NoOpObserver{}}
}

// Context represents one connection to an IIOD-speaking endpoint: the
// backend handle, the ordered device graph it built, and metadata
// (uri, description) queryable as protocol attributes. Every Device,
// Channel, Attribute, Buffer, and EventStream obtained from a Context
// is a handle scoped to it and becomes invalid the instant Destroy
// runs; Go has no borrow checker to enforce this statically, so every
// handle instead carries back a pointer to its Context and panics on
// use after destruction rather than risk silent memory corruption.
type Context struct {
	be      backend.Backend
	inner   *backend.Context
	uri     string
	opts    Options
	metrics *Metrics

	destroyed atomic.Bool
}

func parseScheme(uri string) (scheme string, err error) {
	scheme, _, ok := strings.Cut(uri, ":")
	if !ok || scheme == "" {
		return "", NewError("CreateContext", KindBadArgument, fmt.Sprintf("malformed uri %q: missing scheme", uri))
	}
	return scheme, nil
}

// CreateContext resolves uri's scheme to a backend, dials it with
// default options, and builds the object graph. Supported schemes:
// local:, ip:, usb:, serial:, xml: (spec §4.4).
func CreateContext(uri string) (*Context, error) {
	return CreateContextWithOptions(uri, DefaultOptions())
}

// CreateContextWithOptions is CreateContext with caller-supplied
// Options.
func CreateContextWithOptions(uri string, opts Options) (*Context, error) {
	if opts.Observer == nil {
		opts.Observer = NoOpObserver{}
	}
	scheme, err := parseScheme(uri)
	if err != nil {
		return nil, err
	}
	be, err := backend.Lookup(scheme)
	if err != nil {
		return nil, NewError("CreateContext", KindNotSupported, err.Error())
	}

	dialCtx, cancel := context.Background(), func() {}
	if opts.Timeout > 0 {
		dialCtx, cancel = context.WithTimeout(context.Background(), opts.Timeout)
	}
	defer cancel()

	inner, err := be.OpenContext(dialCtx, backend.OpenParams{Timeout: int(opts.Timeout / time.Millisecond)}, uri)
	if err != nil {
		return nil, WrapError("CreateContext", err)
	}

	return &Context{be: be, inner: inner, uri: uri, opts: opts, metrics: NewMetrics()}, nil
}

// CreateLocalContext opens the local: backend against the running
// kernel's sysfs IIO bus.
func CreateLocalContext() (*Context, error) { return CreateContext("local:") }

// CreateNetworkContext opens an ip: context against host (host:port,
// or bare host to use DefaultIIODPort).
func CreateNetworkContext(host string) (*Context, error) {
	return CreateContext("ip:" + host)
}

// CreateXMLContext builds a read-only context from a captured XML
// document, either a filesystem path or an inline "<?xml..." string.
func CreateXMLContext(pathOrDocument string) (*Context, error) {
	return CreateContext("xml:" + pathOrDocument)
}

func (c *Context) checkAlive(op string) error {
	if c.destroyed.Load() {
		return NewError(op, KindBadState, "context already destroyed")
	}
	return nil
}

// mustAlive panics with a descriptive message on use-after-destroy,
// the debug-mode substitute for Go's lack of a borrow checker (spec
// §9 "Cyclic ownership"): a dangling Device/Channel/Attribute handle
// fails loudly in tests instead of reading freed backend state.
func (c *Context) mustAlive(op string) {
	if c.destroyed.Load() {
		panic(fmt.Sprintf("iio: %s called on a Context already destroyed", op))
	}
}

// URI returns the URI this Context was created from.
func (c *Context) URI() string { return c.uri }

// Name is the context's protocol-level name (e.g. "local", or the
// IIOD server's advertised name for remote contexts).
func (c *Context) Name() string { return c.inner.Graph.Name }

// Description is the context's protocol-level description string.
func (c *Context) Description() string { return c.inner.Graph.Description }

// DeviceCount returns the number of devices in the graph. Stable
// across calls per spec's append-only invariant.
func (c *Context) DeviceCount() int { return len(c.inner.Graph.Devices) }

// DeviceAt returns the device at index idx, in [0, DeviceCount).
func (c *Context) DeviceAt(idx int) (*Device, error) {
	c.mustAlive("DeviceAt")
	if idx < 0 || idx >= len(c.inner.Graph.Devices) {
		return nil, NewError("DeviceAt", KindNotFound, fmt.Sprintf("device index %d out of range", idx))
	}
	return &Device{ctx: c, idx: idx}, nil
}

// Devices returns every device in the graph, in stable index order.
func (c *Context) Devices() []*Device {
	c.mustAlive("Devices")
	out := make([]*Device, len(c.inner.Graph.Devices))
	for i := range out {
		out[i] = &Device{ctx: c, idx: i}
	}
	return out
}

// FindDevice resolves a device by id, label, or name (first match, in
// that order), per spec §4.3.
func (c *Context) FindDevice(needle string) (*Device, error) {
	c.mustAlive("FindDevice")
	idx, ok := c.inner.Graph.FindDevice(needle)
	if !ok {
		return nil, NewError("FindDevice", KindNotFound, fmt.Sprintf("no device matching %q", needle))
	}
	return &Device{ctx: c, idx: idx}, nil
}

// XML returns the context description as an XML document, the same
// payload IIOD's PRINT/XML command returns.
func (c *Context) XML() (string, error) {
	c.mustAlive("XML")
	xmlStr, err := c.be.GetXML(c.inner)
	if err != nil {
		return "", WrapError("XML", err)
	}
	return xmlStr, nil
}

// SetTimeout bounds how long the backend waits on subsequent blocking
// operations through this Context, per spec §4.2's mandatory "TIMEOUT
// ms" command; backends without a meaningful notion of this (e.g.
// xml:) return NotSupported.
func (c *Context) SetTimeout(d time.Duration) error {
	c.mustAlive("SetTimeout")
	return WrapError("SetTimeout", c.be.SetTimeout(c.inner, int(d/time.Millisecond)))
}

// Clone opens a fresh Context against the same endpoint. Returns
// NotSupported if the backend can't (spec §4.4: "optional; absent ⇒
// NotSupported").
func (c *Context) Clone() (*Context, error) {
	c.mustAlive("Clone")
	inner, err := c.be.Clone(c.inner)
	if err != nil {
		return nil, WrapError("Clone", err)
	}
	return &Context{be: c.be, inner: inner, uri: c.uri, opts: c.opts, metrics: NewMetrics()}, nil
}

// Destroy cancels and frees every descendant the Context ever handed
// out, per spec §3. Idempotent.
func (c *Context) Destroy() error {
	if !c.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	c.metrics.Stop()
	return WrapError("Destroy", c.be.DestroyContext(c.inner))
}

// Metrics returns this Context's live metrics snapshot.
func (c *Context) Metrics() MetricsSnapshot { return c.metrics.Snapshot() }

// ContextInfo is a plain, JSON-serializable snapshot of a Context, the
// teacher's Info() convenience pattern, for general diagnostics; none of
// the cmd tools prints it.
type ContextInfo struct {
	URI         string       `json:"uri"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Devices     []DeviceInfo `json:"devices"`
}

// Info snapshots the whole context graph into a JSON-friendly struct.
func (c *Context) Info() ContextInfo {
	c.mustAlive("Info")
	info := ContextInfo{URI: c.uri, Name: c.Name(), Description: c.Description()}
	for _, d := range c.Devices() {
		info.Devices = append(info.Devices, d.Info())
	}
	return info
}
