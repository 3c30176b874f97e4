// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package station samples a set of sensors on a ticker and hands every
// sample to a list of sinks.
package station

import (
	"context"
	"time"

	"go.uber.org/multierr"
)

// Field is one named value of a sample, with the range a display should use
// to scale it.
type Field struct {
	Name  string  `json:"name"`
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
	Min   float64 `json:"-"`
	Max   float64 `json:"-"`
}

// Sample is one reading of a sensor.
type Sample struct {
	Sensor string    `json:"sensor"`
	Time   time.Time `json:"time"`
	Fields []Field   `json:"fields"`
}

// Source is a sensor that can be sampled.
type Source interface {
	Name() string
	Read() (Sample, error)
	Halt() error
}

// Sink consumes samples.
type Sink interface {
	Write(Sample) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Sample) error

// Write calls f.
func (f SinkFunc) Write(s Sample) error {
	return f(s)
}

// Run reads every source once immediately and then on every tick of
// interval, writing each sample to all sinks. Read and sink errors are passed
// to onError, which may be nil, and the loop carries on. Run returns
// ctx.Err() once ctx is done.
func Run(ctx context.Context, sources []Source, interval time.Duration, onError func(error), sinks ...Sink) error {
	if onError == nil {
		onError = func(error) {}
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, src := range sources {
			s, err := src.Read()
			if err != nil {
				onError(err)
				continue
			}
			for _, sink := range sinks {
				if err := sink.Write(s); err != nil {
					onError(err)
				}
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// HaltAll halts every source and combines the errors.
func HaltAll(sources []Source) error {
	var err error
	for _, src := range sources {
		err = multierr.Append(err, src.Halt())
	}
	return err
}
