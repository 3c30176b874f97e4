// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// wesense samples WSEN sensors on an I²C bus.
//
// Usage:
//
//	wesense [flags] read|watch|plot|publish|serve
//
// read prints the samples, watch draws them as terminal gauges, plot writes a
// PNG chart once done, publish sends them to MQTT and serve exports them on a
// Prometheus endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/wsen/internal/config"
	"github.com/GermanBionicSystems/wsen/internal/gauge"
	"github.com/GermanBionicSystems/wsen/internal/metrics"
	"github.com/GermanBionicSystems/wsen/internal/plot"
	"github.com/GermanBionicSystems/wsen/internal/publish"
	"github.com/GermanBionicSystems/wsen/internal/station"
	"github.com/dustin/go-humanize"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"bus":      "BUS",
	"sensors":  "SENSORS",
	"interval": "INTERVAL",
	"n":        "COUNT",
	"out":      "OUT",
	"broker":   "MQTT_BROKER",
	"topic":    "MQTT_TOPIC_PREFIX",
	"listen":   "LISTEN",
}

func newFlagSet() *flag.FlagSet {
	d := config.Default()
	fs := flag.NewFlagSet("wesense", flag.ContinueOnError)
	fs.String("config", "", "KEY=VALUE configuration file")
	fs.String("bus", d.Bus, "I²C bus to use")
	fs.String("sensors", d.Sensors, "comma separated sensors, kind[@addr][:variant] with kind one of "+strings.Join(station.Kinds, ", "))
	fs.Duration("interval", d.Interval, "sampling interval")
	fs.Int("n", d.Count, "samples per sensor, 0 runs until interrupted (read defaults to 1)")
	fs.String("out", d.Out, "PNG file written by plot")
	fs.String("broker", d.MQTTBroker, "MQTT broker used by publish")
	fs.String("topic", d.MQTTTopicPrefix, "MQTT topic prefix used by publish")
	fs.String("listen", d.Listen, "address of the metrics endpoint used by serve")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: wesense [flags] read|watch|plot|publish|serve\n")
		fs.PrintDefaults()
	}
	return fs
}

// parseArgs returns the configuration and the command. Flags set on the
// command line override the configuration file.
func parseArgs(args []string) (*config.Config, string, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	cfg := config.Default()
	if path := fs.Lookup("config").Value.String(); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, "", err
		}
	}
	var err error
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && err == nil {
			if err = cfg.Set(key, f.Value.String()); err != nil {
				err = fmt.Errorf("-%s: %w", f.Name, err)
			}
		}
	})
	if err != nil {
		return nil, "", err
	}
	cmd := "read"
	switch fs.NArg() {
	case 0:
	case 1:
		cmd = fs.Arg(0)
	default:
		return nil, "", fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args()[1:], " "))
	}
	switch cmd {
	case "read":
		if cfg.Count == 0 {
			cfg.Count = 1
		}
	case "watch", "plot", "publish", "serve":
	default:
		return nil, "", fmt.Errorf("unknown command %q", cmd)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, cmd, nil
}

// counter cancels once every source made n read attempts. A failed read is
// an attempt too, so a broken sensor cannot keep the run going forever.
type counter struct {
	mu       sync.Mutex
	n        int
	attempts []int
	cancel   context.CancelFunc
}

func newCounter(n int, cancel context.CancelFunc) *counter {
	return &counter{n: n, cancel: cancel}
}

// wrap returns sources that report every read to c.
func (c *counter) wrap(sources []station.Source) []station.Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]station.Source, len(sources))
	for i, src := range sources {
		out[i] = &countedSource{Source: src, c: c, i: len(c.attempts)}
		c.attempts = append(c.attempts, 0)
	}
	return out
}

func (c *counter) attempt(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts[i]++
	for _, a := range c.attempts {
		if a < c.n {
			return
		}
	}
	c.cancel()
}

type countedSource struct {
	station.Source
	c *counter
	i int
}

func (s *countedSource) Read() (station.Sample, error) {
	smp, err := s.Source.Read()
	s.c.attempt(s.i)
	return smp, err
}

// printer writes one line per sample.
type printer struct {
	w io.Writer
}

func (p *printer) Write(s station.Sample) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", s.Time.Format(time.RFC3339), s.Sensor)
	for _, f := range s.Fields {
		fmt.Fprintf(&b, " %s=%s%s", f.Name, humanize.FtoaWithDigits(f.Value, 3), f.Unit)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(p.w, b.String())
	return err
}

func mainImpl() error {
	cfg, cmd, err := parseArgs(os.Args[1:])
	if err != nil {
		return err
	}
	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return err
	}
	defer bus.Close()
	sources, err := station.OpenAll(bus, cfg.Sensors)
	if err != nil {
		return err
	}
	defer func() {
		if err := station.HaltAll(sources); err != nil {
			log.Printf("halt: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	onError := func(err error) { log.Printf("%v", err) }
	var sinks []station.Sink
	run := sources
	if cfg.Count > 0 {
		run = newCounter(cfg.Count, cancel).wrap(sources)
	}
	var rec *plot.Recorder
	switch cmd {
	case "read":
		sinks = append(sinks, &printer{w: os.Stdout})
	case "watch":
		g := gauge.New(nil)
		defer g.Halt()
		sinks = append(sinks, g)
	case "plot":
		rec = &plot.Recorder{}
		sinks = append(sinks, rec, &printer{w: os.Stdout})
	case "publish":
		p, err := publish.Dial(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
		if err != nil {
			return err
		}
		defer p.Close()
		log.Printf("publishing to %s under %s/", cfg.MQTTBroker, cfg.MQTTTopicPrefix)
		sinks = append(sinks, p)
	case "serve":
		c := metrics.New()
		onError = func(err error) {
			c.Error(err)
			log.Printf("%v", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", c.Handler())
		srv := &http.Server{Addr: cfg.Listen, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics: %v", err)
				cancel()
			}
		}()
		defer srv.Close()
		log.Printf("serving metrics on %s/metrics", cfg.Listen)
		sinks = append(sinks, c)
	}
	if err := station.Run(ctx, run, cfg.Interval, onError, sinks...); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if rec != nil {
		f, err := os.Create(cfg.Out)
		if err != nil {
			return err
		}
		if err := plot.Render(f, rec.Samples(), nil); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("wrote %s", cfg.Out)
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "wesense: %s.\n", err)
		os.Exit(1)
	}
}
