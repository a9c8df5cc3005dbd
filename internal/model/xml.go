package model

import (
	"fmt"
	"strings"
)

var xmlAttrReplacer = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
)

func xmlAttr(name, value string) string {
	return fmt.Sprintf(` %s="%s"`, name, xmlAttrReplacer.Replace(value))
}

// ToXML serializes the graph into the same <context> document grammar
// ParseXMLContext decodes (FromXML's inverse), so every backend can
// answer get_xml, not just ones that started from a parsed document.
func (g *Graph) ToXML() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteByte('\n')
	b.WriteString("<context")
	b.WriteString(xmlAttr("name", g.Name))
	b.WriteString(xmlAttr("description", g.Description))
	b.WriteString(">\n")

	for _, dev := range g.Devices {
		b.WriteString("  <device")
		b.WriteString(xmlAttr("id", dev.ID))
		b.WriteString(xmlAttr("name", dev.Name))
		b.WriteString(">\n")

		for _, ch := range dev.Channels {
			dir := "input"
			if ch.Output {
				dir = "output"
			}
			b.WriteString("    <channel")
			b.WriteString(xmlAttr("id", ch.ID))
			b.WriteString(xmlAttr("type", dir))
			b.WriteString(xmlAttr("name", ch.Label))
			if ch.ScanIndex >= 0 {
				b.WriteString(xmlAttr("scan_index", fmt.Sprintf("%d", ch.ScanIndex)))
			}
			b.WriteString(">\n")
			for _, a := range ch.Attributes {
				b.WriteString("      <attribute")
				b.WriteString(xmlAttr("name", a.Name))
				b.WriteString(xmlAttr("filename", a.Filename))
				b.WriteString(" />\n")
			}
			b.WriteString("    </channel>\n")
		}

		for _, a := range dev.Attributes {
			b.WriteString("    <attribute")
			b.WriteString(xmlAttr("name", a.Name))
			b.WriteString(xmlAttr("filename", a.Filename))
			b.WriteString(" />\n")
		}

		if len(dev.DebugAttrs) > 0 {
			b.WriteString("    <debug>\n")
			for _, a := range dev.DebugAttrs {
				b.WriteString("      <attribute")
				b.WriteString(xmlAttr("name", a.Name))
				b.WriteString(xmlAttr("filename", a.Filename))
				b.WriteString(" />\n")
			}
			b.WriteString("    </debug>\n")
		}

		b.WriteString("  </device>\n")
	}

	b.WriteString("</context>\n")
	return b.String()
}
