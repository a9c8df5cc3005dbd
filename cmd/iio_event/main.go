// Command iio_event prints hardware events from a device's event queue
// as they arrive, until interrupted, mirroring libiio's iio_event.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goiio "github.com/openiio/goiio"
	"github.com/openiio/goiio/internal/cliutil"
)

func main() {
	fs := flag.NewFlagSet("iio_event", flag.ExitOnError)
	cf := cliutil.Register(fs)
	device := fs.String("d", "", "device id, name, or label")
	fs.Parse(os.Args[1:])

	if cf.MaybePrintVersion("iio_event") {
		return
	}
	if *device == "" {
		cliutil.Fatalf("iio_event: need -d <device>")
	}

	ctx, err := cliutil.OpenContext(cf)
	if err != nil {
		if errors.Is(err, cliutil.ErrScanPrinted) {
			return
		}
		cliutil.Fatalf("iio_event: %v", err)
	}
	defer ctx.Destroy()

	dev, err := ctx.FindDevice(*device)
	if err != nil {
		cliutil.Fatalf("iio_event: %v", err)
	}

	es, err := dev.CreateEventStream()
	if err != nil {
		cliutil.Fatalf("iio_event: %v", err)
	}
	defer es.Destroy()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		es.Destroy()
	}()

	bg := context.Background()
	for {
		ev, err := es.ReadEvent(bg, false)
		if err != nil {
			if goiio.IsKind(err, goiio.KindCancelled) {
				return
			}
			cliutil.Fatalf("iio_event: %v", err)
		}
		printEvent(es, ev)
	}
}

func printEvent(es *goiio.EventStream, ev goiio.Event) {
	chanDesc := "?"
	if ch, err := es.Channel(ev); err == nil {
		chanDesc = ch.ID()
	}
	fmt.Printf("%d\ttype=%d dir=%d channel=%s\n", ev.TimestampNs, ev.Type, ev.Direction, chanDesc)
}
