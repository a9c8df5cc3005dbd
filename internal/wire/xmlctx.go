package wire

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// XMLAttribute is one <attribute name="..."/> element, device-, channel-,
// or debug-scoped depending on its parent.
type XMLAttribute struct {
	Name     string
	Filename string
}

// XMLChannel is one <channel id="..."> element.
type XMLChannel struct {
	ID         string
	Type       string // "input" or "output"
	Name       string
	ScanIndex  int
	ScanHasIdx bool
	Attributes []XMLAttribute
}

// XMLDevice is one <device id="..."> element.
type XMLDevice struct {
	ID         string
	Name       string
	Channels   []XMLChannel
	Attributes []XMLAttribute
	DebugAttrs []XMLAttribute
}

// XMLContext is the fully decoded <context> document returned by
// PRINT/the v0 startup banner.
type XMLContext struct {
	Name        string
	Description string
	Devices     []XMLDevice
}

// ParseXMLContext decodes an IIOD XML context document using a
// streaming token parse, grounded on
// other_examples' iiod-connect.go parseDeviceInfoFromXML: a
// xml.Decoder token loop building nested Device/Channel/Attribute
// structs, rather than a DOM unmarshal. A truncated or malformed
// document fails with the decoder's error instead of yielding a
// partial context.
func ParseXMLContext(data []byte) (*XMLContext, error) {
	dec := xml.NewDecoder(strings.NewReader(string(data)))

	ctx := &XMLContext{}
	var curDevice *XMLDevice
	var curChannel *XMLChannel
	inDebug := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("wire: parse xml context: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "context":
				ctx.Name = attrVal(t, "name")
				ctx.Description = attrVal(t, "description")
			case "device":
				d := XMLDevice{ID: attrVal(t, "id"), Name: attrVal(t, "name")}
				curDevice = &d
			case "channel":
				if curDevice == nil {
					continue
				}
				ch := XMLChannel{
					ID:   attrVal(t, "id"),
					Type: attrVal(t, "type"),
					Name: attrVal(t, "name"),
				}
				if si := attrVal(t, "scan_index"); si != "" {
					if n, err := strconv.Atoi(si); err == nil {
						ch.ScanIndex = n
						ch.ScanHasIdx = true
					}
				}
				curChannel = &ch
			case "debug":
				inDebug = true
			case "attribute":
				a := XMLAttribute{Name: attrVal(t, "name"), Filename: attrVal(t, "filename")}
				switch {
				case inDebug && curDevice != nil:
					curDevice.DebugAttrs = append(curDevice.DebugAttrs, a)
				case curChannel != nil:
					curChannel.Attributes = append(curChannel.Attributes, a)
				case curDevice != nil:
					curDevice.Attributes = append(curDevice.Attributes, a)
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "channel":
				if curDevice != nil && curChannel != nil {
					curDevice.Channels = append(curDevice.Channels, *curChannel)
				}
				curChannel = nil
			case "debug":
				inDebug = false
			case "device":
				if curDevice != nil {
					ctx.Devices = append(ctx.Devices, *curDevice)
				}
				curDevice = nil
			}
		}
	}

	if len(ctx.Devices) == 0 && ctx.Name == "" {
		return nil, fmt.Errorf("wire: no <context> element found in XML document")
	}
	return ctx, nil
}

func attrVal(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
