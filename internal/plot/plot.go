// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package plot renders recorded samples as a PNG line chart, one panel per
// sensor field.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"sync"
	"time"

	"github.com/GermanBionicSystems/wsen/internal/station"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// Opts represents the chart geometry.
type Opts struct {
	Width       int
	PanelHeight int
}

// DefaultOpts draws 800 pixel wide panels.
var DefaultOpts = Opts{Width: 800, PanelHeight: 160}

// ErrEmpty is returned when there is nothing to draw.
var ErrEmpty = errors.New("plot: no samples")

// Point is one value of a series.
type Point struct {
	T time.Time
	V float64
}

// Series is the history of one field of one sensor.
type Series struct {
	Sensor string
	Field  string
	Unit   string
	Points []Point
}

// Title is the panel label.
func (s *Series) Title() string {
	return fmt.Sprintf("%s %s (%s)", s.Sensor, s.Field, s.Unit)
}

// Bounds returns the value range of the series, widened when flat.
func (s *Series) Bounds() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range s.Points {
		lo = math.Min(lo, p.V)
		hi = math.Max(hi, p.V)
	}
	if hi-lo < 1e-9 {
		lo--
		hi++
	}
	return lo, hi
}

// Group splits samples into series, in order of first appearance.
func Group(samples []station.Sample) []*Series {
	var out []*Series
	index := map[string]*Series{}
	for _, s := range samples {
		for _, f := range s.Fields {
			key := s.Sensor + "\x00" + f.Name
			ser := index[key]
			if ser == nil {
				ser = &Series{Sensor: s.Sensor, Field: f.Name, Unit: f.Unit}
				index[key] = ser
				out = append(out, ser)
			}
			ser.Points = append(ser.Points, Point{T: s.Time, V: f.Value})
		}
	}
	return out
}

// Render draws samples and writes the PNG to w.
func Render(w io.Writer, samples []station.Sample, opts *Opts) error {
	if opts == nil {
		opts = &DefaultOpts
	}
	series := Group(samples)
	if len(series) == 0 {
		return ErrEmpty
	}
	t0, t1 := samples[0].Time, samples[0].Time
	for _, s := range samples {
		if s.Time.Before(t0) {
			t0 = s.Time
		}
		if s.Time.After(t1) {
			t1 = s.Time
		}
	}
	span := t1.Sub(t0).Seconds()
	if span <= 0 {
		span = 1
	}

	dc := gg.NewContext(opts.Width, opts.PanelHeight*len(series))
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetFontFace(face())
	const margin = 48.0
	for i, ser := range series {
		top := float64(i * opts.PanelHeight)
		x0, x1 := margin, float64(opts.Width)-margin/2
		y0, y1 := top+margin/2, top+float64(opts.PanelHeight)-margin/2
		lo, hi := ser.Bounds()

		dc.SetColor(color.Gray{Y: 200})
		dc.SetLineWidth(1)
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Stroke()

		dc.SetColor(color.Black)
		dc.DrawStringAnchored(ser.Title(), x0, top+margin/4, 0, 0.5)
		dc.DrawStringAnchored(fmt.Sprintf("%.4g", hi), x0-4, y0, 1, 0.5)
		dc.DrawStringAnchored(fmt.Sprintf("%.4g", lo), x0-4, y1, 1, 0.5)

		dc.SetRGB(0.1, 0.4, 0.8)
		dc.SetLineWidth(2)
		for j, p := range ser.Points {
			x := x0 + (x1-x0)*p.T.Sub(t0).Seconds()/span
			y := y1 - (y1-y0)*(p.V-lo)/(hi-lo)
			if j == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
	}
	return dc.EncodePNG(w)
}

var (
	faceOnce sync.Once
	faceVal  font.Face
)

func face() font.Face {
	faceOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			faceVal = basicfont.Face7x13
			return
		}
		faceVal = truetype.NewFace(f, &truetype.Options{Size: 11})
	})
	return faceVal
}

// Recorder is a station.Sink keeping every sample in memory.
type Recorder struct {
	mu      sync.Mutex
	samples []station.Sample
}

// Write implements station.Sink.
func (r *Recorder) Write(s station.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
	return nil
}

// Samples returns a copy of the recorded samples.
func (r *Recorder) Samples() []station.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]station.Sample(nil), r.samples...)
}
