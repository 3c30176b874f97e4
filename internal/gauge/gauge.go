// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gauge draws samples as colored bar gauges on an ANSI terminal.
//
// Every field of every sensor gets one line. The whole block is redrawn in
// place on each sample.
package gauge

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"sync"
	"time"

	"github.com/GermanBionicSystems/wsen/internal/station"
	"github.com/dustin/go-humanize"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for the gauge.
type Opts struct {
	// Width is the number of cells of a bar. Defaults to 40.
	Width   int
	Palette *ansi256.Palette
	// W defaults to a color capable stdout.
	W io.Writer

	_ struct{}
}

// Dev renders samples to a terminal.
type Dev struct {
	w       io.Writer
	width   int
	palette ansi256.Palette
	now     func() time.Time

	mu    sync.Mutex
	order []string
	last  map[string]station.Sample
	drawn int
	buf   bytes.Buffer
}

// New returns a Dev writing to opts.W.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	width := opts.Width
	if width <= 0 {
		width = 40
	}
	return &Dev{w: w, width: width, palette: *p, now: time.Now, last: map[string]station.Sample{}}
}

func (d *Dev) String() string {
	return "Gauge"
}

// Halt resets the terminal colors.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drawn = 0
	_, err := io.WriteString(d.w, "\033[0m")
	return err
}

// Write implements station.Sink.
func (d *Dev) Write(s station.Sample) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.last[s.Sensor]; !ok {
		d.order = append(d.order, s.Sensor)
	}
	d.last[s.Sensor] = s
	return d.refresh()
}

func (d *Dev) refresh() error {
	d.buf.Reset()
	if d.drawn > 0 {
		fmt.Fprintf(&d.buf, "\033[%dA", d.drawn)
	}
	now := d.now()
	lines := 0
	for _, name := range d.order {
		s := d.last[name]
		age := humanize.RelTime(s.Time, now, "ago", "from now")
		for _, f := range s.Fields {
			fmt.Fprintf(&d.buf, "\r\033[0m\033[K%-18s %-12s ", s.Sensor, f.Name)
			d.bar(Fill(f))
			fmt.Fprintf(&d.buf, "\033[0m %s %s  %s\n", humanize.FtoaWithDigits(f.Value, 3), f.Unit, age)
			lines++
		}
	}
	d.drawn = lines
	_, err := d.buf.WriteTo(d.w)
	return err
}

func (d *Dev) bar(fill float64) {
	n := int(math.Round(fill * float64(d.width)))
	for i := 0; i < d.width; i++ {
		c := color.NRGBA{40, 40, 40, 255}
		if i < n {
			c = Ramp(i, d.width)
		}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
}

// Fill returns where f.Value sits between f.Min and f.Max, clamped to
// [0, 1]. A field without a range is empty.
func Fill(f station.Field) float64 {
	if f.Max <= f.Min || math.IsNaN(f.Value) {
		return 0
	}
	v := (f.Value - f.Min) / (f.Max - f.Min)
	return math.Max(0, math.Min(1, v))
}

// Ramp returns the color of cell i of a bar of width cells, green at the
// low end to red at the high end.
func Ramp(i, width int) color.NRGBA {
	if width <= 1 {
		return color.NRGBA{0, 255, 0, 255}
	}
	r := byte(255 * i / (width - 1))
	return color.NRGBA{r, 255 - r, 0, 255}
}

var _ station.Sink = &Dev{}
var _ fmt.Stringer = &Dev{}
