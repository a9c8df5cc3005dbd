// Package model holds the immutable, append-only IIO object graph:
// Context -> Device -> Channel -> Attribute. Every handle the public
// iio package hands out is an index into the slices built here;
// nothing in this package is mutated after a Graph is built.
package model

import (
	"sort"
	"strings"
)

// Attribute is one named, file-backed value under a device, channel,
// or the device's debug namespace.
type Attribute struct {
	Name     string
	Filename string // sysfs leaf name or IIOD attribute code, backend-specific
}

// DataFormat describes how raw buffer samples for a channel are laid
// out, per spec's scan-element format grammar ("le:s24/32>>0").
type DataFormat struct {
	Sign      bool
	Bits      int
	Storage   int // storage width in bits, e.g. 32 for a 24-in-32 sample
	Shift     int
	BigEndian bool
	Repeat    int
}

// Channel is one input/output/debug signal path on a Device.
type Channel struct {
	ID         string
	Label      string // optional human name, may be empty
	Output     bool
	ScanIndex  int // -1 if the channel has no buffer scan element
	Format     DataFormat
	Attributes []Attribute
}

func (c *Channel) attrIndex(name string) int {
	i := sort.Search(len(c.Attributes), func(i int) bool { return c.Attributes[i].Name >= name })
	if i < len(c.Attributes) && c.Attributes[i].Name == name {
		return i
	}
	return -1
}

// Device is one IIO device (a sensor, DAC, or trigger) in the graph.
type Device struct {
	ID         string
	Name       string
	Label      string
	Channels   []Channel
	Attributes []Attribute
	DebugAttrs []Attribute
	IsTrigger  bool
}

func (d *Device) attrIndex(name string) int {
	i := sort.Search(len(d.Attributes), func(i int) bool { return d.Attributes[i].Name >= name })
	if i < len(d.Attributes) && d.Attributes[i].Name == name {
		return i
	}
	return -1
}

// Graph is the full, immutable object model for one Context.
type Graph struct {
	Name        string
	Description string
	Devices     []Device
}

// FindDevice resolves a device by id, then label, then name, the
// fallback order spec's object model mandates.
func (g *Graph) FindDevice(key string) (int, bool) {
	for i := range g.Devices {
		if g.Devices[i].ID == key {
			return i, true
		}
	}
	for i := range g.Devices {
		if g.Devices[i].Label != "" && g.Devices[i].Label == key {
			return i, true
		}
	}
	for i := range g.Devices {
		if g.Devices[i].Name == key {
			return i, true
		}
	}
	return 0, false
}

// FindChannel resolves a channel within device index devIdx by id,
// then label, matching direction (input/output) when both a plain
// and directional channel could otherwise collide.
func (g *Graph) FindChannel(devIdx int, key string, output bool) (int, bool) {
	dev := &g.Devices[devIdx]
	for i := range dev.Channels {
		ch := &dev.Channels[i]
		if ch.Output != output {
			continue
		}
		if ch.ID == key || (ch.Label != "" && ch.Label == key) {
			return i, true
		}
	}
	// Fall back to direction-agnostic match if no directional match
	// exists, since not every device labels channels with distinct
	// input/output variants.
	for i := range dev.Channels {
		ch := &dev.Channels[i]
		if ch.ID == key || (ch.Label != "" && ch.Label == key) {
			return i, true
		}
	}
	return 0, false
}

// FindAttr resolves a device-level attribute by name via binary
// search; Attributes must be sorted by Name (Normalize does this).
func (g *Graph) FindAttr(devIdx int, name string) (int, bool) {
	i := g.Devices[devIdx].attrIndex(name)
	return i, i >= 0
}

// FindChannelAttr resolves a channel-level attribute by name.
func (g *Graph) FindChannelAttr(devIdx, chIdx int, name string) (int, bool) {
	i := g.Devices[devIdx].Channels[chIdx].attrIndex(name)
	return i, i >= 0
}

// MatchWildcard returns the names of attributes in attrs whose name
// matches a simple glob pattern using '*' wildcards, e.g. "*raw*"
// matches "in_voltage0_raw". Used by the CLI's attribute filters.
func MatchWildcard(attrs []Attribute, pattern string) []string {
	var out []string
	for _, a := range attrs {
		if wildcardMatch(pattern, a.Name) {
			out = append(out, a.Name)
		}
	}
	return out
}

func wildcardMatch(pattern, s string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == s
	}

	if parts[0] != "" && !strings.HasPrefix(s, parts[0]) {
		return false
	}
	if last := parts[len(parts)-1]; last != "" && !strings.HasSuffix(s, last) {
		return false
	}

	rest := s[len(parts[0]):]
	for _, p := range parts[1 : len(parts)-1] {
		if p == "" {
			continue
		}
		idx := strings.Index(rest, p)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(p):]
	}
	return true
}

// sortAttrs sorts a slice of Attribute by Name in place, the
// precondition FindAttr's binary search relies on.
func sortAttrs(attrs []Attribute) {
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })
}

// Normalize sorts every attribute slice in the graph by name. Builders
// must call this once after populating a Graph and before handing it
// to a Context.
func (g *Graph) Normalize() {
	for di := range g.Devices {
		sortAttrs(g.Devices[di].Attributes)
		sortAttrs(g.Devices[di].DebugAttrs)
		for ci := range g.Devices[di].Channels {
			sortAttrs(g.Devices[di].Channels[ci].Attributes)
		}
	}
}
