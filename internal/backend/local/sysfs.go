package local

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/openiio/goiio/internal/model"
)

const sysfsRoot = "/sys/bus/iio/devices"

// buildGraph walks /sys/bus/iio/devices and constructs the object
// graph the way the kernel lays it out: one iio:deviceN or
// trigger N directory per device, scan_elements/ and in_*/out_* leaf
// files for channels and attributes.
func buildGraph(root string) (*model.Graph, error) {
	if root == "" {
		root = sysfsRoot
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	g := &model.Graph{Name: "local"}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "iio:device") && !strings.HasPrefix(e.Name(), "trigger") {
			continue
		}
		devPath := filepath.Join(root, e.Name())
		dev := buildDevice(devPath, e.Name())
		g.Devices = append(g.Devices, dev)
	}
	g.Normalize()
	return g, nil
}

func buildDevice(path, id string) model.Device {
	dev := model.Device{ID: id}
	if name, err := readTrimmed(filepath.Join(path, "name")); err == nil {
		dev.Name = name
	}
	dev.IsTrigger = strings.HasPrefix(id, "trigger")

	files, err := os.ReadDir(path)
	if err != nil {
		return dev
	}

	channelFiles := map[string][]string{} // channel key -> attribute leaf names
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		switch {
		case name == "name" || name == "uevent" || name == "dev":
			continue
		case strings.HasPrefix(name, "in_") || strings.HasPrefix(name, "out_"):
			chanKey, attrName, ok := splitChannelAttr(name)
			if ok {
				channelFiles[chanKey] = append(channelFiles[chanKey], attrName)
			} else {
				dev.Attributes = append(dev.Attributes, model.Attribute{Name: name, Filename: name})
			}
		default:
			dev.Attributes = append(dev.Attributes, model.Attribute{Name: name, Filename: name})
		}
	}

	keys := make([]string, 0, len(channelFiles))
	for k := range channelFiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	scanElements := readScanElements(filepath.Join(path, "scan_elements"))

	for _, key := range keys {
		output := strings.HasPrefix(key, "out_")
		ch := model.Channel{ID: key, Output: output, ScanIndex: -1}
		for _, attr := range channelFiles[key] {
			filename := key + "_" + attr
			ch.Attributes = append(ch.Attributes, model.Attribute{Name: attr, Filename: filename})
		}
		if se, ok := scanElements[key]; ok {
			ch.ScanIndex = se.index
			ch.Format = se.format
		}
		dev.Channels = append(dev.Channels, ch)
	}

	return dev
}

// splitChannelAttr splits a sysfs leaf like "in_voltage0_raw" into
// channel key "in_voltage0" and attribute name "raw". Leaves with no
// trailing attribute component (e.g. "in_voltage0_en" handled
// separately via scan_elements) still split on the last underscore
// group that isn't part of the channel type/index.
func splitChannelAttr(name string) (chanKey, attr string, ok bool) {
	parts := strings.SplitN(name, "_", 3)
	if len(parts) < 3 {
		return "", "", false
	}
	return parts[0] + "_" + parts[1], parts[2], true
}

type scanElement struct {
	index  int
	format model.DataFormat
}

func readScanElements(dir string) map[string]scanElement {
	out := map[string]scanElement{}
	files, err := os.ReadDir(dir)
	if err != nil {
		return out
	}
	for _, f := range files {
		name := f.Name()
		if !strings.HasSuffix(name, "_index") {
			continue
		}
		chanKey := strings.TrimSuffix(name, "_index")
		idxStr, err := readTrimmed(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			continue
		}
		se := scanElement{index: idx}
		if fmtStr, err := readTrimmed(filepath.Join(dir, chanKey+"_type")); err == nil {
			se.format = parseTypeString(fmtStr)
		}
		out[chanKey] = se
	}
	return out
}

// parseTypeString decodes a scan_elements/*_type string of the form
// "le:s24/32>>0" by delegating to model.ParseDataFormat, which parses
// the same grammar for XML-sourced format strings.
func parseTypeString(s string) model.DataFormat {
	return model.ParseDataFormat(s)
}

func readTrimmed(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
