// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package metrics exports samples as Prometheus gauges.
package metrics

import (
	"net/http"

	"github.com/GermanBionicSystems/wsen/internal/station"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is a station.Sink keeping the last value of every field.
type Collector struct {
	reg     *prometheus.Registry
	reading *prometheus.GaugeVec
	samples *prometheus.CounterVec
	errors  prometheus.Counter
}

// New returns a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		reading: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wsen_reading",
				Help: "Last value read from a sensor field.",
			},
			[]string{"sensor", "field", "unit"},
		),
		samples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wsen_samples_total",
				Help: "Samples read per sensor.",
			},
			[]string{"sensor"},
		),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wsen_errors_total",
			Help: "Failed sensor reads and sink writes.",
		}),
	}
	c.reg = prometheus.NewRegistry()
	c.reg.MustRegister(c.reading, c.samples, c.errors)
	return c
}

// Write implements station.Sink.
func (c *Collector) Write(s station.Sample) error {
	for _, f := range s.Fields {
		c.reading.With(prometheus.Labels{"sensor": s.Sensor, "field": f.Name, "unit": f.Unit}).Set(f.Value)
	}
	c.samples.With(prometheus.Labels{"sensor": s.Sensor}).Inc()
	return nil
}

// Error counts a failure reported by station.Run.
func (c *Collector) Error(error) {
	c.errors.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

var _ station.Sink = &Collector{}
