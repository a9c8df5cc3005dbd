package iio

import (
	"fmt"

	"github.com/openiio/goiio/internal/model"
)

// DataFormat describes how raw buffer samples for a channel are laid
// out: signedness, bit width, storage stride, endianness, the
// right-shift applied when converting raw to cooked values, and the
// repeat count of sub-samples per channel (spec §3).
type DataFormat struct {
	IsSigned bool
	Bits     int
	Storage  int
	Shift    int
	IsBE     bool
	Repeat   int
}

func newDataFormat(f model.DataFormat) DataFormat {
	return DataFormat{IsSigned: f.Sign, Bits: f.Bits, Storage: f.Storage, Shift: f.Shift, IsBE: f.BigEndian, Repeat: f.Repeat}
}

// Channel is a handle to one logical data lane of a Device.
type Channel struct {
	dev *Device
	idx int
}

func (c *Channel) model() *model.Channel {
	return &c.dev.ctx.inner.Graph.Devices[c.dev.idx].Channels[c.idx]
}

// Index is this channel's position in its device's channel list, the
// order it's walked in for lookup and demuxing.
func (c *Channel) Index() int { return c.idx }

// ID is the channel's backend-unique identifier within its device.
func (c *Channel) ID() string {
	c.dev.ctx.mustAlive("Channel.ID")
	return c.model().ID
}

// Label is the channel's optional human-readable name, may be empty.
func (c *Channel) Label() string {
	c.dev.ctx.mustAlive("Channel.Label")
	return c.model().Label
}

// IsOutput reports the channel's direction: true for output, false
// for input.
func (c *Channel) IsOutput() bool {
	c.dev.ctx.mustAlive("Channel.IsOutput")
	return c.model().Output
}

// IsScanElement reports whether this channel participates in
// buffered capture (has a buffer scan index).
func (c *Channel) IsScanElement() bool {
	c.dev.ctx.mustAlive("Channel.IsScanElement")
	return c.model().ScanIndex >= 0
}

// ScanIndex is this channel's position within an enabled-channel
// sample set, or -1 if it's not a scan element. This is the index
// ChannelsMask.Enable expects.
func (c *Channel) ScanIndex() int {
	c.dev.ctx.mustAlive("Channel.ScanIndex")
	return c.model().ScanIndex
}

// Format is the channel's data layout for buffered samples.
func (c *Channel) Format() DataFormat {
	c.dev.ctx.mustAlive("Channel.Format")
	return newDataFormat(c.model().Format)
}

// Device returns the device this channel belongs to.
func (c *Channel) Device() *Device { return c.dev }

// AttributeCount returns the number of attributes on this channel.
func (c *Channel) AttributeCount() int {
	c.dev.ctx.mustAlive("Channel.AttributeCount")
	return len(c.model().Attributes)
}

// Attributes returns every attribute on this channel, sorted by name.
func (c *Channel) Attributes() []*Attribute {
	c.dev.ctx.mustAlive("Channel.Attributes")
	attrs := c.model().Attributes
	out := make([]*Attribute, len(attrs))
	for i := range out {
		out[i] = &Attribute{ctx: c.dev.ctx, ref: attrRef(c.dev.idx, c.idx, false), name: attrs[i].Name}
	}
	return out
}

// FindAttr resolves a channel attribute by exact name.
func (c *Channel) FindAttr(name string) (*Attribute, error) {
	c.dev.ctx.mustAlive("Channel.FindAttr")
	if _, ok := c.dev.ctx.inner.Graph.FindChannelAttr(c.dev.idx, c.idx, name); !ok {
		return nil, NewChannelError("Channel.FindAttr", c.dev.ID(), c.ID(), KindNotFound, fmt.Sprintf("no attribute %q", name))
	}
	return &Attribute{ctx: c.dev.ctx, ref: attrRef(c.dev.idx, c.idx, false), name: name}, nil
}

// ChannelInfo is a plain, JSON-serializable snapshot of a Channel.
type ChannelInfo struct {
	ID         string   `json:"id"`
	Label      string   `json:"label,omitempty"`
	Output     bool     `json:"output"`
	ScanIndex  int      `json:"scan_index"`
	Attributes []string `json:"attributes,omitempty"`
}

// Info snapshots this channel.
func (c *Channel) Info() ChannelInfo {
	info := ChannelInfo{ID: c.ID(), Label: c.Label(), Output: c.IsOutput(), ScanIndex: c.ScanIndex()}
	for _, a := range c.Attributes() {
		info.Attributes = append(info.Attributes, a.Name())
	}
	return info
}
