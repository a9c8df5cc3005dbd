package iio

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/openiio/goiio/internal/backend"
)

// attrRef builds the backend-level reference for a device or
// channel-scoped attribute; chanIdx -1 means a device attribute.
func attrRef(devIdx, chanIdx int, debug bool) backend.AttrRef {
	return backend.AttrRef{DeviceIdx: devIdx, ChannelIdx: chanIdx, IsDebug: debug}
}

// Attribute is a named, string-valued control/status handle bound to
// a device, channel, or buffer. Numeric accessors parse/print through
// strconv, which — unlike C's libc — is always locale-independent, so
// the C-locale requirement of spec §9 is satisfied without extra
// plumbing.
type Attribute struct {
	ctx  *Context
	ref  backend.AttrRef
	name string
}

// Name returns the attribute's name.
func (a *Attribute) Name() string { return a.name }

func (a *Attribute) opContext() (context.Context, context.CancelFunc) {
	if a.ctx.opts.Timeout <= 0 {
		return context.Background(), func() {}
	}
	return context.WithTimeout(context.Background(), a.ctx.opts.Timeout)
}

func (a *Attribute) read(op string) (string, error) {
	a.ctx.mustAlive(op)
	ref := a.ref
	ref.Name = a.name
	ctx, cancel := a.opContext()
	defer cancel()
	start := time.Now()
	val, err := a.ctx.be.ReadAttr(ctx, a.ctx.inner, ref)
	a.ctx.opts.Observer.ObserveAttrRead(uint64(len(val)), uint64(time.Since(start)), err == nil)
	if err != nil {
		return "", WrapError(op, err)
	}
	return val, nil
}

func (a *Attribute) write(op, value string) error {
	a.ctx.mustAlive(op)
	ref := a.ref
	ref.Name = a.name
	ctx, cancel := a.opContext()
	defer cancel()
	start := time.Now()
	err := a.ctx.be.WriteAttr(ctx, a.ctx.inner, ref, value)
	a.ctx.opts.Observer.ObserveAttrWrite(uint64(len(value)), uint64(time.Since(start)), err == nil)
	return WrapError(op, err)
}

// ReadRaw reads the attribute's raw string value. Per spec §9's
// preserved open question, a zero-length v0 reply is returned as the
// empty string, not an error — remote IIOD servers disagree on
// whether that means "empty string" or "error code 0", and this
// client deliberately does not resolve the ambiguity in either
// direction.
func (a *Attribute) ReadRaw() (string, error) { return a.read("Attribute.ReadRaw") }

// WriteRaw writes the attribute's raw string value.
func (a *Attribute) WriteRaw(value string) error { return a.write("Attribute.WriteRaw", value) }

// ReadBool parses the attribute as a boolean ("0"/"1" or
// "false"/"true").
func (a *Attribute) ReadBool() (bool, error) {
	s, err := a.ReadRaw()
	if err != nil {
		return false, err
	}
	switch s {
	case "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	default:
		return false, NewError("Attribute.ReadBool", KindBadArgument, fmt.Sprintf("not a bool: %q", s))
	}
}

// WriteBool writes the attribute as "1" or "0".
func (a *Attribute) WriteBool(v bool) error {
	if v {
		return a.WriteRaw("1")
	}
	return a.WriteRaw("0")
}

// ReadLong parses the attribute as a signed 64-bit integer.
func (a *Attribute) ReadLong() (int64, error) {
	s, err := a.ReadRaw()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, NewError("Attribute.ReadLong", KindBadArgument, err.Error())
	}
	return n, nil
}

// WriteLong writes the attribute as a base-10 integer.
func (a *Attribute) WriteLong(v int64) error {
	return a.WriteRaw(strconv.FormatInt(v, 10))
}

// ReadDouble parses the attribute as a float, always using '.' as the
// decimal point regardless of the host's locale.
func (a *Attribute) ReadDouble() (float64, error) {
	s, err := a.ReadRaw()
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, NewError("Attribute.ReadDouble", KindBadArgument, err.Error())
	}
	return f, nil
}

// WriteDouble writes the attribute as a '.'-decimal float.
func (a *Attribute) WriteDouble(v float64) error {
	return a.WriteRaw(strconv.FormatFloat(v, 'g', -1, 64))
}
