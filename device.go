package iio

import (
	"context"
	"fmt"
	"strings"

	"github.com/openiio/goiio/internal/constants"
	"github.com/openiio/goiio/internal/mask"
)

// Device is a handle to one IIO device, hwmon device, or trigger in a
// Context's object graph. Device is a thin `{ctx, idx}` value; it is
// only valid for the lifetime of its Context.
type Device struct {
	ctx *Context
	idx int
}

// ID is the device's backend-unique, stable identifier (e.g.
// "iio:device0", "trigger0", "hwmon0").
func (d *Device) ID() string {
	d.ctx.mustAlive("Device.ID")
	return d.ctx.inner.Graph.Devices[d.idx].ID
}

// Name is the device's kernel-reported name, may be empty.
func (d *Device) Name() string {
	d.ctx.mustAlive("Device.Name")
	return d.ctx.inner.Graph.Devices[d.idx].Name
}

// Label is the device's optional human-readable label, may be empty.
func (d *Device) Label() string {
	d.ctx.mustAlive("Device.Label")
	return d.ctx.inner.Graph.Devices[d.idx].Label
}

// IsTrigger reports whether this device's role is to drive the
// sampling clock of another device (spec §3: discriminator "trigger"
// id prefix).
func (d *Device) IsTrigger() bool {
	d.ctx.mustAlive("Device.IsTrigger")
	return d.ctx.inner.Graph.Devices[d.idx].IsTrigger
}

// IsHwmon reports whether this device is a hardware-monitor device
// rather than an ordinary IIO data device (spec §3: discriminator
// "hwmon" id prefix).
func (d *Device) IsHwmon() bool {
	d.ctx.mustAlive("Device.IsHwmon")
	return strings.HasPrefix(d.ID(), "hwmon")
}

// ChannelCount returns the number of channels this device owns.
func (d *Device) ChannelCount() int {
	d.ctx.mustAlive("Device.ChannelCount")
	return len(d.ctx.inner.Graph.Devices[d.idx].Channels)
}

// ChannelAt returns the channel at idx, in [0, ChannelCount), in the
// order the backend built the device's channel list; channels are not
// re-sorted by scan index.
func (d *Device) ChannelAt(idx int) (*Channel, error) {
	d.ctx.mustAlive("Device.ChannelAt")
	if idx < 0 || idx >= d.ChannelCount() {
		return nil, NewDeviceError("Device.ChannelAt", d.ID(), KindNotFound, fmt.Sprintf("channel index %d out of range", idx))
	}
	return &Channel{dev: d, idx: idx}, nil
}

// Channels returns every channel owned by this device.
func (d *Device) Channels() []*Channel {
	d.ctx.mustAlive("Device.Channels")
	out := make([]*Channel, d.ChannelCount())
	for i := range out {
		out[i] = &Channel{dev: d, idx: i}
	}
	return out
}

// FindChannel resolves a channel by id or label, matching direction
// (output) to disambiguate same-named input/output pairs, per spec
// §4.3.
func (d *Device) FindChannel(name string, output bool) (*Channel, error) {
	d.ctx.mustAlive("Device.FindChannel")
	idx, ok := d.ctx.inner.Graph.FindChannel(d.idx, name, output)
	if !ok {
		return nil, NewDeviceError("Device.FindChannel", d.ID(), KindNotFound, fmt.Sprintf("no channel matching %q", name))
	}
	return &Channel{dev: d, idx: idx}, nil
}

// AttributeCount returns the number of device-level (non-debug)
// attributes.
func (d *Device) AttributeCount() int {
	d.ctx.mustAlive("Device.AttributeCount")
	return len(d.ctx.inner.Graph.Devices[d.idx].Attributes)
}

// Attributes returns every device-level attribute, sorted by name.
func (d *Device) Attributes() []*Attribute {
	d.ctx.mustAlive("Device.Attributes")
	n := d.AttributeCount()
	out := make([]*Attribute, n)
	for i := range out {
		out[i] = &Attribute{ctx: d.ctx, ref: attrRef(d.idx, -1, false), name: d.ctx.inner.Graph.Devices[d.idx].Attributes[i].Name}
	}
	return out
}

// DebugAttributes returns every attribute in the device's debugfs
// namespace, sorted by name.
func (d *Device) DebugAttributes() []*Attribute {
	d.ctx.mustAlive("Device.DebugAttributes")
	attrs := d.ctx.inner.Graph.Devices[d.idx].DebugAttrs
	out := make([]*Attribute, len(attrs))
	for i := range out {
		out[i] = &Attribute{ctx: d.ctx, ref: attrRef(d.idx, -1, true), name: attrs[i].Name}
	}
	return out
}

// FindAttr resolves a device-level attribute by exact name.
func (d *Device) FindAttr(name string) (*Attribute, error) {
	d.ctx.mustAlive("Device.FindAttr")
	if _, ok := d.ctx.inner.Graph.FindAttr(d.idx, name); !ok {
		return nil, NewDeviceError("Device.FindAttr", d.ID(), KindNotFound, fmt.Sprintf("no attribute %q", name))
	}
	return &Attribute{ctx: d.ctx, ref: attrRef(d.idx, -1, false), name: name}, nil
}

// GetTrigger returns the device currently driving this device's
// sampling clock, or ok=false if none is set. Fails with BadState if
// called on a trigger device itself (spec §3: "a trigger device ...
// rejects set_trigger/get_trigger on itself").
func (d *Device) GetTrigger() (trig *Device, ok bool, err error) {
	d.ctx.mustAlive("Device.GetTrigger")
	if d.IsTrigger() {
		return nil, false, NewDeviceError("Device.GetTrigger", d.ID(), KindBadState, "get_trigger not valid on a trigger device")
	}
	idx, has, err := d.ctx.be.GetTrigger(d.ctx.inner, d.idx)
	if err != nil {
		return nil, false, WrapError("Device.GetTrigger", err)
	}
	if !has {
		return nil, false, nil
	}
	return &Device{ctx: d.ctx, idx: idx}, true, nil
}

// SetTrigger links trig as the device driving this device's sampling
// clock, or clears the link if trig is nil.
func (d *Device) SetTrigger(trig *Device) error {
	d.ctx.mustAlive("Device.SetTrigger")
	if d.IsTrigger() {
		return NewDeviceError("Device.SetTrigger", d.ID(), KindBadState, "set_trigger not valid on a trigger device")
	}
	if trig == nil {
		return WrapError("Device.SetTrigger", d.ctx.be.SetTrigger(d.ctx.inner, d.idx, 0, false))
	}
	return WrapError("Device.SetTrigger", d.ctx.be.SetTrigger(d.ctx.inner, d.idx, trig.idx, true))
}

// RegRead performs a raw register peek via the backend's debugfs
// direct_reg_access path. Returns NotSupported on backends that don't
// advertise CapRegisterAccess.
func (d *Device) RegRead(addr uint32) (uint32, error) {
	d.ctx.mustAlive("Device.RegRead")
	v, err := d.ctx.be.RegRead(d.ctx.inner, d.idx, addr)
	return v, WrapError("Device.RegRead", err)
}

// RegWrite performs a raw register poke.
func (d *Device) RegWrite(addr, value uint32) error {
	d.ctx.mustAlive("Device.RegWrite")
	return WrapError("Device.RegWrite", d.ctx.be.RegWrite(d.ctx.inner, d.idx, addr, value))
}

// NewChannelsMask allocates a ChannelsMask sized to this device's
// channel count, the request set CreateBuffer consumes.
func (d *Device) NewChannelsMask() *ChannelsMask {
	d.ctx.mustAlive("Device.NewChannelsMask")
	return &ChannelsMask{inner: mask.New(d.ChannelCount())}
}

// CreateBuffer opens a Buffer against this device under m, per spec
// §4.7. cyclic selects whether the hardware replays the single
// enqueued block's contents indefinitely. The hardware ring is sized
// to constants.DefaultBufferLength samples; use CreateBufferN for
// explicit control.
func (d *Device) CreateBuffer(ctx context.Context, m *ChannelsMask, cyclic bool) (*Buffer, error) {
	d.ctx.mustAlive("Device.CreateBuffer")
	return newBuffer(ctx, d.ctx, d.idx, m, constants.DefaultBufferLength, cyclic)
}

// CreateBufferN is CreateBuffer with an explicit hardware sample
// count: the OPEN command's <samples> field for remote backends, and
// the kernel ring buffer length for local ones. samplesCount <= 0
// falls back to constants.DefaultBufferLength.
func (d *Device) CreateBufferN(ctx context.Context, m *ChannelsMask, cyclic bool, samplesCount int) (*Buffer, error) {
	d.ctx.mustAlive("Device.CreateBufferN")
	if samplesCount <= 0 {
		samplesCount = constants.DefaultBufferLength
	}
	return newBuffer(ctx, d.ctx, d.idx, m, samplesCount, cyclic)
}

// SetBuffersCount resizes this device's kernel buffer ring to count
// buffers, per spec §4.2's "SET <dev> BUFFERS_COUNT <n>" command.
func (d *Device) SetBuffersCount(count int) error {
	d.ctx.mustAlive("Device.SetBuffersCount")
	return WrapError("Device.SetBuffersCount", d.ctx.be.SetBuffersCount(d.ctx.inner, d.idx, count))
}

// CreateEventStream opens this device's hardware event queue.
func (d *Device) CreateEventStream() (*EventStream, error) {
	d.ctx.mustAlive("Device.CreateEventStream")
	return newEventStream(d.ctx, d.idx)
}

// DeviceInfo is a plain, JSON-serializable snapshot of a Device.
type DeviceInfo struct {
	ID         string        `json:"id"`
	Name       string        `json:"name,omitempty"`
	Label      string        `json:"label,omitempty"`
	IsTrigger  bool          `json:"is_trigger"`
	IsHwmon    bool          `json:"is_hwmon"`
	Channels   []ChannelInfo `json:"channels,omitempty"`
	Attributes []string      `json:"attributes,omitempty"`
}

// Info snapshots this device and its channels.
func (d *Device) Info() DeviceInfo {
	info := DeviceInfo{ID: d.ID(), Name: d.Name(), Label: d.Label(), IsTrigger: d.IsTrigger(), IsHwmon: d.IsHwmon()}
	for _, ch := range d.Channels() {
		info.Channels = append(info.Channels, ch.Info())
	}
	for _, a := range d.Attributes() {
		info.Attributes = append(info.Attributes, a.Name())
	}
	return info
}
