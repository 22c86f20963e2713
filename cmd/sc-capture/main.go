// Command sc-capture records serial bus traffic into a pcap capture file.
//
// Usage:
//
//	sc-capture [flags] <output.pcap>
//
// Either two dedicated wires are monitored (-ctrl and/or -node), or a single
// tag-muxed wire carrying both directions (-mux). Ctrl-C stops the session
// cleanly: producers are cancelled first, the queue drains, and the final
// open run is flushed before exit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"SerialScope/internal/config"
	"SerialScope/internal/core/model"
	"SerialScope/internal/probe"
	"SerialScope/internal/recorder"
	"SerialScope/internal/source"
	"SerialScope/internal/stats"
	"SerialScope/pkg/capture"
)

type producer interface {
	Run(ctx context.Context, q *recorder.Queue) error
}

func main() {
	configPath := flag.String("config", "", "Optional YAML config file path.")
	ctrlDev := flag.String("ctrl", "", "Serial device of the controller-side wire.")
	nodeDev := flag.String("node", "", "Serial device of the node-side wire.")
	muxDev := flag.String("mux", "", "Serial device of a single muxed wire carrying both channels.")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sc-capture [flags] <output.pcap>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	outPath := flag.Arg(0)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	window, err := cfg.Capture.Window()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *muxDev != "" && (*ctrlDev != "" || *nodeDev != "") {
		log.Fatalf("-mux cannot be combined with -ctrl or -node")
	}
	if *muxDev == "" && *ctrlDev == "" && *nodeDev == "" {
		log.Fatalf("no input: use -ctrl/-node or -mux")
	}

	w, err := capture.NewWriter(outPath)
	if err != nil {
		log.Fatalf("Failed to create capture writer: %v", err)
	}

	session := stats.NewSession()
	if cfg.API.Enabled {
		srv := stats.NewServer(cfg.API.ListenAddr, session)
		srv.Start()
		defer srv.Stop()
	}

	rec := recorder.New(w, window)
	rec.Session = session
	if cfg.Probe.Enabled {
		pub, err := probe.NewPublisher(cfg.Probe)
		if err != nil {
			log.Fatalf("Failed to connect probe publisher: %v", err)
		}
		defer pub.Close()
		rec.Sink = pub
	}

	// Producers: one task per opened device.
	var (
		producers []producer
		ports     []io.Closer
	)
	openPort := func(path string) io.ReadCloser {
		port, err := source.OpenPort(path, cfg.Serial)
		if err != nil {
			for _, p := range ports {
				p.Close()
			}
			log.Fatalf("Failed to open device: %v", err)
		}
		ports = append(ports, port)
		return port
	}
	stagingCap := cfg.Capture.StagingCapacity
	if *ctrlDev != "" {
		producers = append(producers, source.NewUART(*ctrlDev, openPort(*ctrlDev), model.ChannelCtrl, stagingCap, session))
	}
	if *nodeDev != "" {
		producers = append(producers, source.NewUART(*nodeDev, openPort(*nodeDev), model.ChannelNode, stagingCap, session))
	}
	if *muxDev != "" {
		producers = append(producers, source.NewMux(*muxDev, openPort(*muxDev), stagingCap, session))
	}

	q := recorder.NewQueue()

	rootCtx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutdown signal received, draining...")
		cancel()
	}()

	g, ctx := errgroup.WithContext(rootCtx)
	for _, p := range producers {
		p := p
		g.Go(func() error { return p.Run(ctx, q) })
	}
	// Closing the ports unblocks any pending serial read once the producers
	// are cancelled.
	go func() {
		<-ctx.Done()
		for _, p := range ports {
			p.Close()
		}
	}()

	log.Printf("Capture started, writing to %s (flush window %s)", outPath, window)

	producerErr, writeErr := drive(cancel, g, rec, q)

	if err := w.Close(); err != nil {
		log.Printf("Error closing capture file: %v", err)
	}

	if writeErr != nil {
		log.Fatalf("Capture failed: %v", writeErr)
	}
	if producerErr != nil && !errors.Is(producerErr, context.Canceled) {
		log.Fatalf("Capture failed: %v", producerErr)
	}

	sum := session.Snapshot()
	log.Printf("Capture complete: %d records (%d ctrl bytes, %d node bytes)",
		sum.Records, sum.BytesCtrl, sum.BytesNode)
}

// drive runs the consumer beside the producer group and reports both
// results. A consumer that stops before the producers do has hit a fatal
// write error; cancelling the group releases their blocked serial reads so
// the session winds down instead of buffering into a dead queue.
func drive(cancel context.CancelFunc, g *errgroup.Group, rec *recorder.Recorder, q *recorder.Queue) (producerErr, writeErr error) {
	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- rec.Run(q)
		cancel()
	}()

	producerErr = g.Wait()
	q.Close()
	writeErr = <-consumerErr
	return producerErr, writeErr
}
