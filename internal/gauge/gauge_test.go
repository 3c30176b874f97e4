// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gauge

import (
	"bytes"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/wsen/internal/station"
)

func TestFill(t *testing.T) {
	for _, tc := range []struct {
		f    station.Field
		want float64
	}{
		{station.Field{Value: 5, Min: 0, Max: 10}, 0.5},
		{station.Field{Value: -50, Min: -40, Max: 85}, 0},
		{station.Field{Value: 900, Min: 0, Max: 100}, 1},
		{station.Field{Value: 1, Min: -2, Max: 2}, 0.75},
		{station.Field{Value: 3}, 0},
	} {
		if got := Fill(tc.f); got != tc.want {
			t.Errorf("Fill(%+v)=%g expected %g", tc.f, got, tc.want)
		}
	}
}

func TestRamp(t *testing.T) {
	if c := Ramp(0, 10); c != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("first cell %v", c)
	}
	if c := Ramp(9, 10); c != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("last cell %v", c)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	d := New(&Opts{Width: 8, W: &buf})
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return at.Add(5 * time.Second) }

	s := station.Sample{Sensor: "pads@0x5d", Time: at, Fields: []station.Field{
		{Name: "pressure", Unit: "hPa", Value: 1013.25, Min: 260, Max: 1260},
		{Name: "temperature", Unit: "°C", Value: 21.5, Min: -40, Max: 85},
	}}
	if err := d.Write(s); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "\033[2A") {
		t.Error("first draw must not move the cursor up")
	}
	for _, want := range []string{"pads@0x5d", "pressure", "1013.25 hPa", "21.5 °C", "5 seconds ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 2 {
		t.Errorf("%d lines expected 2", n)
	}

	buf.Reset()
	s.Sensor = "tids@0x3f"
	s.Fields = s.Fields[1:]
	if err := d.Write(s); err != nil {
		t.Fatal(err)
	}
	out = buf.String()
	if !strings.HasPrefix(out, "\033[2A") {
		t.Errorf("redraw must start by moving up 2 lines: %q", out)
	}
	if n := strings.Count(out, "\n"); n != 3 {
		t.Errorf("%d lines expected 3", n)
	}

	buf.Reset()
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\033[0m" {
		t.Errorf("halt wrote %q", buf.String())
	}
}
