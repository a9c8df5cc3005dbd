// Command iio_attr reads and writes device, channel, and debug
// attributes, and offers an interactive (-i) REPL for issuing several
// in one session, mirroring libiio's iio_attr.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/shlex"

	goiio "github.com/openiio/goiio"
	"github.com/openiio/goiio/internal/cliutil"
)

func main() {
	fs := flag.NewFlagSet("iio_attr", flag.ExitOnError)
	cf := cliutil.Register(fs)
	device := fs.String("d", "", "device id, name, or label")
	channel := fs.String("c", "", "channel id or label")
	output := fs.Bool("o", false, "the channel named by -c is an output channel")
	debugAttr := fs.Bool("D", false, "the attribute is in the device's debug namespace")
	interactive := fs.Bool("i", false, "interactive mode: read commands from stdin")
	fs.Parse(os.Args[1:])

	if cf.MaybePrintVersion("iio_attr") {
		return
	}

	ctx, err := cliutil.OpenContext(cf)
	if err != nil {
		if errors.Is(err, cliutil.ErrScanPrinted) {
			return
		}
		cliutil.Fatalf("iio_attr: %v", err)
	}
	defer ctx.Destroy()

	if *interactive {
		runREPL(ctx)
		return
	}

	args := fs.Args()
	if len(args) == 0 {
		cliutil.Fatalf("iio_attr: need an attribute name (or -i for interactive mode)")
	}
	name := args[0]

	attr, err := resolveAttr(ctx, *device, *channel, *output, *debugAttr, name)
	if err != nil {
		cliutil.Fatalf("iio_attr: %v", err)
	}

	if len(args) == 1 {
		val, err := attr.ReadRaw()
		if err != nil {
			cliutil.Fatalf("iio_attr: read %s: %v", name, err)
		}
		fmt.Println(val)
		return
	}

	if err := attr.WriteRaw(args[1]); err != nil {
		cliutil.Fatalf("iio_attr: write %s: %v", name, err)
	}
}

// resolveAttr finds the named attribute under the given device/channel
// scope; an empty device means "device-less" is not valid, a filled
// device with an empty channel means a device-level (or debug)
// attribute.
func resolveAttr(ctx *goiio.Context, deviceSel, channelSel string, output, debug bool, name string) (*goiio.Attribute, error) {
	if deviceSel == "" {
		return nil, fmt.Errorf("need -d <device>")
	}
	dev, err := ctx.FindDevice(deviceSel)
	if err != nil {
		return nil, err
	}
	if channelSel != "" {
		ch, err := dev.FindChannel(channelSel, output)
		if err != nil {
			return nil, err
		}
		return ch.FindAttr(name)
	}
	if debug {
		for _, a := range dev.DebugAttributes() {
			if a.Name() == name {
				return a, nil
			}
		}
		return nil, fmt.Errorf("no debug attribute %q", name)
	}
	return dev.FindAttr(name)
}

// runREPL reads whitespace/quote-tokenized commands from stdin until
// EOF: "read <dev> [chan] <attr>", "write <dev> [chan] <attr> <value>",
// "quit". A bare attr name with no channel reads/writes a device
// attribute.
func runREPL(ctx *goiio.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tokens, err := shlex.Split(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "iio_attr: parse error: %v\n", err)
			continue
		}
		if len(tokens) == 0 {
			continue
		}
		switch tokens[0] {
		case "quit", "exit":
			return
		case "read":
			handleREPLRead(ctx, tokens[1:])
		case "write":
			handleREPLWrite(ctx, tokens[1:])
		default:
			fmt.Fprintf(os.Stderr, "iio_attr: unknown command %q (expected read/write/quit)\n", tokens[0])
		}
	}
}

func handleREPLRead(ctx *goiio.Context, args []string) {
	dev, chanSel, name, ok := splitREPLArgs(args)
	if !ok {
		fmt.Fprintln(os.Stderr, "iio_attr: usage: read <device> [channel] <attr>")
		return
	}
	attr, err := resolveAttr(ctx, dev, chanSel, false, false, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "iio_attr: %v\n", err)
		return
	}
	val, err := attr.ReadRaw()
	if err != nil {
		fmt.Fprintf(os.Stderr, "iio_attr: %v\n", err)
		return
	}
	fmt.Println(val)
}

func handleREPLWrite(ctx *goiio.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "iio_attr: usage: write <device> [channel] <attr> <value>")
		return
	}
	value := args[len(args)-1]
	dev, chanSel, name, ok := splitREPLArgs(args[:len(args)-1])
	if !ok {
		fmt.Fprintln(os.Stderr, "iio_attr: usage: write <device> [channel] <attr> <value>")
		return
	}
	attr, err := resolveAttr(ctx, dev, chanSel, false, false, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "iio_attr: %v\n", err)
		return
	}
	if err := attr.WriteRaw(value); err != nil {
		fmt.Fprintf(os.Stderr, "iio_attr: %v\n", err)
	}
}

func splitREPLArgs(args []string) (device, channel, name string, ok bool) {
	switch len(args) {
	case 2:
		return args[0], "", args[1], true
	case 3:
		return args[0], args[1], args[2], true
	default:
		return "", "", "", false
	}
}
