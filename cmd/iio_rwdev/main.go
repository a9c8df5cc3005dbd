// Command iio_rwdev streams buffered samples to or from a device: read
// mode dumps raw frames to stdout, write mode feeds stdin into the
// hardware, mirroring libiio's iio_rwdev.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	goiio "github.com/openiio/goiio"
	"github.com/openiio/goiio/internal/cliutil"
)

func main() {
	fs := flag.NewFlagSet("iio_rwdev", flag.ExitOnError)
	cf := cliutil.Register(fs)
	device := fs.String("d", "", "device id, name, or label")
	channels := fs.String("c", "", "comma-separated channel ids/labels to enable; empty = all scan elements")
	write := fs.Bool("w", false, "write mode: stream stdin into the device instead of reading")
	cyclic := fs.Bool("C", false, "cyclic mode: replay one buffer indefinitely (write mode only)")
	samples := fs.Int("n", 0, "sample count per block; 0 = 256")
	blocks := fs.Int("b", 4, "number of prefetch blocks")
	fs.Parse(os.Args[1:])

	if cf.MaybePrintVersion("iio_rwdev") {
		return
	}
	if *device == "" {
		cliutil.Fatalf("iio_rwdev: need -d <device>")
	}

	ctx, err := cliutil.OpenContext(cf)
	if err != nil {
		if errors.Is(err, cliutil.ErrScanPrinted) {
			return
		}
		cliutil.Fatalf("iio_rwdev: %v", err)
	}
	defer ctx.Destroy()

	dev, err := ctx.FindDevice(*device)
	if err != nil {
		cliutil.Fatalf("iio_rwdev: %v", err)
	}

	m := dev.NewChannelsMask()
	if *channels == "" {
		for _, ch := range dev.Channels() {
			if ch.IsScanElement() {
				m.Enable(ch)
			}
		}
	} else {
		for _, name := range strings.Split(*channels, ",") {
			ch, err := dev.FindChannel(strings.TrimSpace(name), *write)
			if err != nil {
				cliutil.Fatalf("iio_rwdev: %v", err)
			}
			m.Enable(ch)
		}
	}

	samplesPerBlock := *samples
	if samplesPerBlock <= 0 {
		samplesPerBlock = 256
	}

	buf, err := dev.CreateBuffer(context.Background(), m, *cyclic)
	if err != nil {
		cliutil.Fatalf("iio_rwdev: create buffer: %v", err)
	}
	defer buf.Close()

	sigCh := make(chan os.Signal, 1)
	cancelled := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		buf.Cancel()
		close(cancelled)
	}()

	ctxBg := context.Background()
	if *write && *cyclic {
		// A cyclic buffer only ever takes one block: the backend
		// replays it until the buffer is cancelled, so there is no
		// per-block loop to run.
		runWriteCyclic(ctxBg, buf, buf.FrameSize()*samplesPerBlock, cancelled)
		return
	}

	stream, err := buf.CreateStream(*blocks, samplesPerBlock)
	if err != nil {
		cliutil.Fatalf("iio_rwdev: create stream: %v", err)
	}
	defer stream.Close()

	if *write {
		runWrite(ctxBg, stream)
	} else {
		runRead(ctxBg, stream)
	}
}

func runRead(ctx context.Context, stream *goiio.Stream) {
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	for {
		blk, err := stream.Next(ctx)
		if err != nil {
			if goiio.IsKind(err, goiio.KindCancelled) {
				return
			}
			cliutil.Fatalf("iio_rwdev: %v", err)
		}
		if _, err := out.Write(blk.Data()); err != nil {
			cliutil.Fatalf("iio_rwdev: write stdout: %v", err)
		}
	}
}

// runWrite streams stdin through a non-cyclic Stream. Each Next call
// enqueues the block filled on the previous iteration, so the last
// fully-filled block is flushed by the following iteration's Next
// before the loop sees EOF and stops.
func runWrite(ctx context.Context, stream *goiio.Stream) {
	in := bufio.NewReader(os.Stdin)
	for {
		blk, err := stream.Next(ctx)
		if err != nil {
			if goiio.IsKind(err, goiio.KindCancelled) {
				return
			}
			cliutil.Fatalf("iio_rwdev: %v", err)
		}
		n, err := io.ReadFull(in, blk.Data())
		if n == 0 && err != nil {
			return
		}
	}
}

func runWriteCyclic(ctx context.Context, buf *goiio.Buffer, size int, cancelled <-chan struct{}) {
	blk := buf.NewBlock(size)
	n, err := io.ReadFull(bufio.NewReader(os.Stdin), blk.Data())
	if n == 0 {
		cliutil.Fatalf("iio_rwdev: cyclic mode needs sample data from stdin: %v", err)
	}
	if err := blk.Enqueue(ctx, 0, true); err != nil {
		cliutil.Fatalf("iio_rwdev: enqueue cyclic block: %v", err)
	}
	<-cancelled
}
