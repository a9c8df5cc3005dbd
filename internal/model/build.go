package model

import (
	"strconv"
	"strings"

	"github.com/openiio/goiio/internal/wire"
)

// FromXML builds a Graph from a decoded IIOD XML context document,
// the path used by network, USB, serial, and XML-file backends.
func FromXML(ctx *wire.XMLContext) *Graph {
	g := &Graph{Name: ctx.Name, Description: ctx.Description}

	for _, xd := range ctx.Devices {
		dev := Device{
			ID:        xd.ID,
			Name:      xd.Name,
			IsTrigger: strings.HasPrefix(xd.ID, "trigger"),
		}
		for _, xa := range xd.Attributes {
			dev.Attributes = append(dev.Attributes, Attribute{Name: xa.Name, Filename: xa.Filename})
		}
		for _, xa := range xd.DebugAttrs {
			dev.DebugAttrs = append(dev.DebugAttrs, Attribute{Name: xa.Name, Filename: xa.Filename})
		}
		for _, xc := range xd.Channels {
			ch := Channel{
				ID:        xc.ID,
				Label:     xc.Name,
				Output:    xc.Type == "output",
				ScanIndex: -1,
			}
			if xc.ScanHasIdx {
				ch.ScanIndex = xc.ScanIndex
			}
			for _, xa := range xc.Attributes {
				ch.Attributes = append(ch.Attributes, Attribute{Name: xa.Name, Filename: xa.Filename})
			}
			dev.Channels = append(dev.Channels, ch)
		}
		g.Devices = append(g.Devices, dev)
	}

	g.Normalize()
	return g
}

// ParseDataFormat decodes a scan-element format string of the form
// "<endian>:<sign><bits>/<storage>><<shift>", e.g. "le:s24/32>>0",
// per spec's channel-format grammar.
func ParseDataFormat(s string) DataFormat {
	var f DataFormat
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return f
	}
	f.BigEndian = parts[0] == "be"

	rest := parts[1]
	shiftParts := strings.SplitN(rest, ">>", 2)
	if len(shiftParts) == 2 {
		f.Shift, _ = strconv.Atoi(shiftParts[1])
		rest = shiftParts[0]
	}

	signBits, storage, hasStorage := strings.Cut(rest, "/")
	if signBits == "" {
		return f
	}
	f.Sign = signBits[0] == 's'
	bitsStr := signBits
	if f.Sign || signBits[0] == 'u' {
		bitsStr = signBits[1:]
	}
	f.Bits, _ = strconv.Atoi(bitsStr)
	if hasStorage {
		f.Storage, _ = strconv.Atoi(storage)
	} else {
		f.Storage = f.Bits
	}
	return f
}
