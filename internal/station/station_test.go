// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package station

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GermanBionicSystems/wsen/pdus"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

type fakeSource struct {
	name   string
	reads  int
	err    error
	halted bool
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Read() (Sample, error) {
	f.reads++
	if f.err != nil {
		return Sample{}, f.err
	}
	return Sample{Sensor: f.name, Fields: []Field{{Name: "n", Value: float64(f.reads)}}}, nil
}

func (f *fakeSource) Halt() error {
	f.halted = true
	return f.err
}

func TestRun(t *testing.T) {
	bad := errors.New("bus error")
	good := &fakeSource{name: "good"}
	broken := &fakeSource{name: "broken", err: bad}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []Sample
	var errs []error
	sink := SinkFunc(func(s Sample) error {
		got = append(got, s)
		if len(got) == 3 {
			cancel()
		}
		return nil
	})
	err := Run(ctx, []Source{good, broken}, time.Millisecond, func(err error) { errs = append(errs, err) }, sink)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d samples expected 3", len(got))
	}
	for i, s := range got {
		if s.Sensor != "good" || s.Fields[0].Value != float64(i+1) {
			t.Errorf("sample %d: %+v", i, s)
		}
	}
	if len(errs) != 3 || !errors.Is(errs[0], bad) {
		t.Errorf("errors: %v", errs)
	}
}

func TestRunSinkError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bad := errors.New("disk full")
	var errs []error
	err := Run(ctx, []Source{&fakeSource{name: "a"}}, time.Hour, func(err error) {
		errs = append(errs, err)
		cancel()
	}, SinkFunc(func(Sample) error { return bad }))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(errs) != 1 || !errors.Is(errs[0], bad) {
		t.Errorf("errors: %v", errs)
	}
}

func TestHaltAll(t *testing.T) {
	bad := errors.New("nack")
	a := &fakeSource{name: "a"}
	b := &fakeSource{name: "b", err: bad}
	if err := HaltAll([]Source{a, b}); !errors.Is(err, bad) {
		t.Errorf("expected %v, got %v", bad, err)
	}
	if !a.halted || !b.halted {
		t.Error("not all sources halted")
	}
}

func TestOpenInvalid(t *testing.T) {
	pb := &i2ctest.Playback{DontPanic: true}
	for _, spec := range []string{
		"",
		"bme280",
		"pads@0xzz",
		"pads@0x100",
		"tids:fast",
		"pdus:pdus9",
		"pdus:x",
		"pdus",
		"pdus@0x78",
	} {
		if _, err := Open(pb, spec); !errors.Is(err, ErrSpec) {
			t.Errorf("Open(%q): expected ErrSpec, got %v", spec, err)
		}
	}
	if _, err := OpenAll(pb, " , "); !errors.Is(err, ErrSpec) {
		t.Errorf("OpenAll: expected ErrSpec, got %v", err)
	}
}

func TestParseSensorType(t *testing.T) {
	for in, want := range map[string]pdus.SensorType{"pdus0": pdus.PDUS0, "PDUS4": pdus.PDUS4, "5": pdus.PDUS5} {
		got, err := ParseSensorType(in)
		if err != nil {
			t.Errorf("%q: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("%q: got %s expected %s", in, got, want)
		}
	}
	if _, err := ParseSensorType("6"); !errors.Is(err, pdus.ErrSensorType) {
		t.Errorf("expected ErrSensorType, got %v", err)
	}
}

func TestOpenPDUS(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return at }
	defer func() { now = time.Now }()

	pb := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x28, R: []byte{0x10, 0xb5, 0x33, 0x88}}},
		DontPanic: true,
	}
	src, err := Open(pb, "pdus@0x28:pdus3")
	if err != nil {
		t.Fatal(err)
	}
	if src.Name() != "pdus@0x28:pdus3" {
		t.Errorf("name=%q", src.Name())
	}
	s, err := src.Read()
	if err != nil {
		t.Fatal(err)
	}
	want := Sample{
		Sensor: "pdus@0x28:pdus3",
		Time:   at,
		Fields: []Field{
			{Name: "pressure", Unit: "kPa", Value: 3.815, Min: 0, Max: 100},
			{Name: "temperature", Unit: "°C", Value: 21.36, Min: -40, Max: 85},
		},
	}
	if diff := cmp.Diff(want, s, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("sample mismatch (-want +got):\n%s", diff)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}

func TestAxisFields(t *testing.T) {
	f := axisFields("acc", "g", 0.5, -1, 0, 2)
	if len(f) != 3 || f[1].Name != "acc_y" || f[1].Min != -2 || f[2].Max != 2 {
		t.Errorf("unexpected fields %+v", f)
	}
}
