// Command smartportd emulates two SmartPort mass-storage devices backed by
// host disk images, running the realtime bus engine and the command
// supervisor as a pair of goroutines over a shared mailbox.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/rhughes99/smartport/internal/busengine"
	"github.com/rhughes99/smartport/internal/busio/gpio"
	"github.com/rhughes99/smartport/internal/diskimage"
	"github.com/rhughes99/smartport/internal/mailbox"
	"github.com/rhughes99/smartport/internal/supervisor"
)

func main() {
	handshakeFlag := flag.String("handshake", "skip", "WRITEBLOCK handshake variant: skip or zero")
	metricsAddr := flag.String("metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")
	logLevel := flag.String("log-level", "info", "logrus level: trace, debug, info, warn, error")
	saveDir := flag.String("save-dir", ".", "directory whose Saved/ subdirectory receives dirty images at shutdown")
	flag.Parse()

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warnf("unrecognized -log-level %q, defaulting to info", *logLevel)
	}

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: smartportd [flags] <image1> <image2>")
		os.Exit(2)
	}
	image1, image2 := flag.Arg(0), flag.Arg(1)

	handshake, err := parseHandshake(*handshakeFlag)
	if err != nil {
		log.Fatal(err)
	}

	store, loadErrs := diskimage.LoadStore(image1, image2)
	for _, e := range loadErrs {
		log.Warn(e)
	}

	lines, err := gpio.Open(defaultPins)
	if err != nil {
		log.Fatalf("smartportd: failed to open bus lines: %v", err)
	}

	region := mailbox.New()
	engSide, supSide := mailbox.Sides(region)

	super := supervisor.New(supSide, store, handshake, log)
	eng := busengine.New(lines, engSide)

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(super.Metrics())
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			log.Warnf("metrics server exited: %v", http.ListenAndServe(*metricsAddr, mux))
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTSTP)

	go eng.Run(ctx)
	go super.Run(ctx)

	log.Info("smartportd running")

	for sig := range sigCh {
		switch sig {
		case syscall.SIGTSTP:
			super.DumpReceived()
		case syscall.SIGINT:
			log.Info("shutting down")
			cancel()
			if errs := store.SaveAll(*saveDir); len(errs) != 0 {
				for _, e := range errs {
					log.Warn(e)
				}
			}
			return
		}
	}
}

func parseHandshake(s string) (mailbox.HandshakeMode, error) {
	switch s {
	case "skip":
		return mailbox.HandshakeSkip, nil
	case "zero":
		return mailbox.HandshakeZeroByte, nil
	default:
		return 0, fmt.Errorf("smartportd: unrecognized -handshake %q (want skip or zero)", s)
	}
}
