// Command iio_reg peeks or pokes a device's debugfs direct_reg_access
// register, mirroring libiio's iio_reg.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/openiio/goiio/internal/cliutil"
)

func main() {
	fs := flag.NewFlagSet("iio_reg", flag.ExitOnError)
	cf := cliutil.Register(fs)
	device := fs.String("d", "", "device id, name, or label")
	fs.Parse(os.Args[1:])

	if cf.MaybePrintVersion("iio_reg") {
		return
	}
	if *device == "" {
		cliutil.Fatalf("iio_reg: need -d <device>")
	}

	args := fs.Args()
	if len(args) < 1 || len(args) > 2 {
		cliutil.Fatalf("iio_reg: usage: iio_reg -d <device> <address> [value]")
	}

	addr, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		cliutil.Fatalf("iio_reg: bad address %q: %v", args[0], err)
	}

	ctx, err := cliutil.OpenContext(cf)
	if err != nil {
		if errors.Is(err, cliutil.ErrScanPrinted) {
			return
		}
		cliutil.Fatalf("iio_reg: %v", err)
	}
	defer ctx.Destroy()

	dev, err := ctx.FindDevice(*device)
	if err != nil {
		cliutil.Fatalf("iio_reg: %v", err)
	}

	if len(args) == 1 {
		v, err := dev.RegRead(uint32(addr))
		if err != nil {
			cliutil.Fatalf("iio_reg: read: %v", err)
		}
		fmt.Printf("0x%x\n", v)
		return
	}

	value, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		cliutil.Fatalf("iio_reg: bad value %q: %v", args[1], err)
	}
	if err := dev.RegWrite(uint32(addr), uint32(value)); err != nil {
		cliutil.Fatalf("iio_reg: write: %v", err)
	}
}
