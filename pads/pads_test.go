// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pads

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

const addr = DefaultAddress

func initOps(ctrl1 byte) []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: addr, W: []byte{regDeviceID}, R: []byte{DeviceIDValue}},
		{Addr: addr, W: []byte{regCtrl2}, R: []byte{0x10}},
		{Addr: addr, W: []byte{regCtrl2, 0x12}},
		{Addr: addr, W: []byte{regCtrl1}, R: []byte{0x00}},
		{Addr: addr, W: []byte{regCtrl1, ctrl1}},
	}
}

// 1013.25 hPa, 23.45 °C
var sample = []byte{0x00, 0x54, 0x3f, 0x29, 0x09}

func TestSense(t *testing.T) {
	ops := append(initOps(0x22),
		i2ctest.IO{Addr: addr, W: []byte{regDataP}, R: sample},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1}, R: []byte{0x22}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1, 0x02}},
	)
	pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
	dev, err := NewI2C(pb, addr, nil)
	if err != nil {
		t.Fatal(err)
	}
	env := physic.Env{}
	if err := dev.Sense(&env); err != nil {
		t.Fatal(err)
	}
	if env.Pressure != 101325*physic.Pascal {
		t.Errorf("pressure=%s expected 101325Pa", env.Pressure)
	}
	if env.Temperature != physic.ZeroCelsius+23450*physic.MilliKelvin {
		t.Errorf("temperature=%s expected 23.45°C", env.Temperature)
	}
	if err := dev.Halt(); err != nil {
		t.Error(err)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}

func TestUnexpectedDevice(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: addr, W: []byte{regDeviceID}, R: []byte{0x00}}},
		DontPanic: true,
	}
	if _, err := NewI2C(pb, addr, nil); !errors.Is(err, ErrUnexpectedDevice) {
		t.Errorf("expected ErrUnexpectedDevice, got %v", err)
	}
}

func TestSenseOneShot(t *testing.T) {
	ops := append(initOps(0x02),
		i2ctest.IO{Addr: addr, W: []byte{regCtrl2}, R: []byte{0x12}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl2, 0x13}},
		i2ctest.IO{Addr: addr, W: []byte{regStatus}, R: []byte{0x01}},
		i2ctest.IO{Addr: addr, W: []byte{regStatus}, R: []byte{0x03}},
		i2ctest.IO{Addr: addr, W: []byte{regDataP}, R: sample},
	)
	pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
	opts := DefaultOpts
	opts.OutputDataRate = ODRPowerDown
	dev, err := NewI2C(pb, addr, &opts)
	if err != nil {
		t.Fatal(err)
	}
	env := physic.Env{}
	if err := dev.Sense(&env); err != nil {
		t.Fatal(err)
	}
	if env.Pressure != 101325*physic.Pascal {
		t.Errorf("pressure=%s expected 101325Pa", env.Pressure)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}

func TestRawToPressure(t *testing.T) {
	var tests = []struct {
		raw      int32
		expected physic.Pressure
	}{
		{raw: 4096, expected: 100 * physic.Pascal},
		{raw: -4096, expected: -100 * physic.Pascal},
		{raw: 0, expected: 0},
		{raw: 4150272, expected: 101325 * physic.Pascal},
	}
	for _, test := range tests {
		if p := RawToPressure(test.raw); p != test.expected {
			t.Errorf("RawToPressure(%d)=%s expected %s", test.raw, p, test.expected)
		}
	}
}

func TestContinuousMode(t *testing.T) {
	ops := append(initOps(0x02),
		i2ctest.IO{Addr: addr, W: []byte{regCtrl2}, R: []byte{0x10}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl2, 0x12}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1}, R: []byte{0x02}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1, 0x46}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1}, R: []byte{0x46}},
	)
	pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
	defer pb.Close()
	opts := DefaultOpts
	opts.OutputDataRate = ODRPowerDown
	dev, err := NewI2C(pb, addr, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.SetContinuousMode(ODR50Hz); err != nil {
		t.Fatal(err)
	}
	if odr, err := dev.OutputDataRate(); err != nil || odr != ODR50Hz {
		t.Errorf("OutputDataRate()=%d, %v", odr, err)
	}
}

func TestFifo(t *testing.T) {
	ops := append(initOps(0x22),
		i2ctest.IO{Addr: addr, W: []byte{regFifoCtrl}, R: []byte{0x00}},
		i2ctest.IO{Addr: addr, W: []byte{regFifoCtrl}, R: []byte{0x00}},
		i2ctest.IO{Addr: addr, W: []byte{regFifoCtrl, 0x02}},
		i2ctest.IO{Addr: addr, W: []byte{regFifoWtm}, R: []byte{0x00}},
		i2ctest.IO{Addr: addr, W: []byte{regFifoWtm, 0x20}},
		i2ctest.IO{Addr: addr, W: []byte{regFifoStatus1}, R: []byte{0x05, 0xa0}},
		i2ctest.IO{Addr: addr, W: []byte{regFifoStatus1}, R: []byte{0x02}},
		i2ctest.IO{Addr: addr, W: []byte{regFifoDataP}, R: sample},
		i2ctest.IO{Addr: addr, W: []byte{regFifoDataP}, R: []byte{0x00, 0x10, 0x00, 0x00, 0x00}},
	)
	pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
	defer pb.Close()
	dev, err := NewI2C(pb, addr, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m, err := dev.FifoMode(); err != nil || m != FifoBypass {
		t.Errorf("FifoMode()=%d, %v", m, err)
	}
	if err := dev.SetFifoMode(FifoContinuous); err != nil {
		t.Error(err)
	}
	if err := dev.SetFifoWatermark(32); err != nil {
		t.Error(err)
	}
	s, err := dev.FifoStatus()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(FifoStatus{Level: 5, Full: true, Watermark: true}, s); diff != "" {
		t.Errorf("fifo status mismatch (-want +got):\n%s", diff)
	}
	samples, err := dev.ReadFifo(3)
	if err != nil {
		t.Fatal(err)
	}
	expected := []Sample{
		{Pressure: 101325 * physic.Pascal, Temperature: physic.ZeroCelsius + 23450*physic.MilliKelvin},
		{Pressure: 100 * physic.Pascal, Temperature: physic.ZeroCelsius},
	}
	if diff := cmp.Diff(expected, samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestThreshold(t *testing.T) {
	ops := append(initOps(0x22),
		i2ctest.IO{Addr: addr, W: []byte{regThreshold, 0xa0, 0x00}},
		i2ctest.IO{Addr: addr, W: []byte{regThreshold}, R: []byte{0xa0, 0x80}},
		i2ctest.IO{Addr: addr, W: []byte{regIntSource}, R: []byte{0x05}},
		i2ctest.IO{Addr: addr, W: []byte{regIntCfg}, R: []byte{0x00}},
		i2ctest.IO{Addr: addr, W: []byte{regIntCfg, 0x20}},
	)
	pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
	defer pb.Close()
	dev, err := NewI2C(pb, addr, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.SetThreshold(1000 * physic.Pascal); err != nil {
		t.Error(err)
	}
	if p, err := dev.Threshold(); err != nil || p != 1000*physic.Pascal {
		t.Errorf("Threshold()=%s, %v expected 1kPa", p, err)
	}
	src, err := dev.InterruptSource()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(InterruptSource{PressureHigh: true, Active: true}, src); diff != "" {
		t.Errorf("interrupt source mismatch (-want +got):\n%s", diff)
	}
	if err := dev.SetAutoZero(true); err != nil {
		t.Error(err)
	}
	if err := dev.SetThresholdRaw(0x8000); err == nil {
		t.Error("expected error for 16 bit threshold")
	}
}

func TestDifferentialInterrupt(t *testing.T) {
	ops := append(initOps(0x22),
		i2ctest.IO{Addr: addr, W: []byte{regIntCfg}, R: []byte{0x01}},
		i2ctest.IO{Addr: addr, W: []byte{regIntCfg, 0x09}},
		i2ctest.IO{Addr: addr, W: []byte{regIntCfg}, R: []byte{0x09}},
		i2ctest.IO{Addr: addr, W: []byte{regIntCfg}, R: []byte{0x09}},
		i2ctest.IO{Addr: addr, W: []byte{regIntCfg, 0x01}},
	)
	pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
	dev, err := NewI2C(pb, addr, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.SetDifferentialInterrupt(true); err != nil {
		t.Fatal(err)
	}
	if on, err := dev.DifferentialInterrupt(); err != nil || !on {
		t.Errorf("DifferentialInterrupt()=%t, %v expected true", on, err)
	}
	if err := dev.SetDifferentialInterrupt(false); err != nil {
		t.Fatal(err)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}
