// Command iio_genxml dumps a context's XML description to stdout or a
// file, the document an xml: context can later replay offline,
// mirroring libiio's iio_genxml.
package main

import (
	"errors"
	"flag"
	"os"

	"github.com/openiio/goiio/internal/cliutil"
)

func main() {
	fs := flag.NewFlagSet("iio_genxml", flag.ExitOnError)
	cf := cliutil.Register(fs)
	output := fs.String("o", "", "output file; empty = stdout")
	fs.Parse(os.Args[1:])

	if cf.MaybePrintVersion("iio_genxml") {
		return
	}

	ctx, err := cliutil.OpenContext(cf)
	if err != nil {
		if errors.Is(err, cliutil.ErrScanPrinted) {
			return
		}
		cliutil.Fatalf("iio_genxml: %v", err)
	}
	defer ctx.Destroy()

	xmlStr, err := ctx.XML()
	if err != nil {
		cliutil.Fatalf("iio_genxml: %v", err)
	}

	if *output == "" {
		os.Stdout.WriteString(xmlStr)
		return
	}
	if err := os.WriteFile(*output, []byte(xmlStr), 0o644); err != nil {
		cliutil.Fatalf("iio_genxml: write %s: %v", *output, err)
	}
}
