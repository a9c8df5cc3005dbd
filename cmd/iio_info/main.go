// Command iio_info prints the device graph of a context: its devices,
// channels, and attributes, mirroring libiio's iio_info.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	goiio "github.com/openiio/goiio"
	"github.com/openiio/goiio/internal/cliutil"
)

func main() {
	fs := flag.NewFlagSet("iio_info", flag.ExitOnError)
	cf := cliutil.Register(fs)
	fs.Parse(os.Args[1:])

	if cf.MaybePrintVersion("iio_info") {
		return
	}

	ctx, err := cliutil.OpenContext(cf)
	if err != nil {
		if errors.Is(err, cliutil.ErrScanPrinted) {
			return
		}
		cliutil.Fatalf("iio_info: %v", err)
	}
	defer ctx.Destroy()

	fmt.Printf("IIO context: %s\n", ctx.URI())
	if name := ctx.Name(); name != "" {
		fmt.Printf("  name: %s\n", name)
	}
	if desc := ctx.Description(); desc != "" {
		fmt.Printf("  description: %s\n", desc)
	}
	fmt.Printf("%d device(s) found:\n", ctx.DeviceCount())

	for _, dev := range ctx.Devices() {
		printDevice(dev)
	}
}

func printDevice(dev *goiio.Device) {
	label := dev.Name()
	if dev.Label() != "" {
		label += " (" + dev.Label() + ")"
	}
	fmt.Printf("\t%s: %s", dev.ID(), label)
	if dev.IsTrigger() {
		fmt.Printf(" [trigger]")
	}
	fmt.Println()

	for _, ch := range dev.Channels() {
		dir := "input"
		if ch.IsOutput() {
			dir = "output"
		}
		fmt.Printf("\t\t%s: %s (%s", ch.ID(), ch.Label(), dir)
		if ch.IsScanElement() {
			fmt.Printf(", index: %d, format: %s", ch.ScanIndex(), formatString(ch.Format()))
		}
		fmt.Printf(")\n")
		for _, a := range ch.Attributes() {
			fmt.Printf("\t\t\t%s\n", a.Name())
		}
	}
	for _, a := range dev.Attributes() {
		fmt.Printf("\t\tattr: %s\n", a.Name())
	}
}

func formatString(f goiio.DataFormat) string {
	sign := "u"
	if f.IsSigned {
		sign = "s"
	}
	end := "le"
	if f.IsBE {
		end = "be"
	}
	return fmt.Sprintf("%s:%s%d/%d>>%d", end, sign, f.Bits, f.Storage, f.Shift)
}
