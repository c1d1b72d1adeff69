package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"camstream"
	"camstream/internal/event"
	"camstream/internal/source"
)

// Populated via -ldflags="-X ...".
var GitRevisionId string

func main() {
	flag.Parse()

	if flagHelp {
		help()
		os.Exit(0)
	}
	if flagVersion {
		version()
		os.Exit(0)
	}

	src, err := source.Open(flagSource)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer src.Close()

	c := camstream.New(camstream.Config{
		Callbacks: camstream.Callbacks{
			OnVideoFrame: func(f *event.VideoFrame) {
				fmt.Printf("video frame: %6d bytes @ %dms\n", f.SizeBytes, f.TimestampMs)
			},
			OnStateChange: func(s *event.StateChange) {
				fmt.Printf("state: %s\n", s.State)
			},
			OnRecordingTick: func(t *event.RecordingTick) {
				fmt.Printf("recording: %s\n", t.Formatted)
			},
		},
		OnTransportError: func(id camstream.ChannelID, message string) {
			fmt.Fprintf(os.Stderr, "transport error on %s: %s\n", id, message)
		},
	})
	defer c.Close()

	primary := c.Channel(camstream.Primary)

	if flagSink != "" {
		// Forward encoded records to a remote consumer instead of
		// dispatching locally.
		sink, err := camstream.NewWebsocketSink(flagSink, primary)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer sink.Close()
	} else {
		primary.Subscribe()
	}

	if err := primary.SetRateLimit(flagRate); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	primary.SetSizeLimit(uint32(flagSizeLimit))

	if err := src.Start(func(payload []byte, timestampMs uint64) {
		c.PushVideoFrame(event.TagH264, payload, timestampMs)
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Run until interrupted.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	src.Stop()
	stats := primary.Stats()
	fmt.Printf("emitted %d, dropped %d (rate) + %d (size)\n",
		stats.Emitted, stats.DroppedRate, stats.DroppedSize)
}
