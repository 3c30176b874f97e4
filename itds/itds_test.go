// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package itds

import (
	"errors"
	"testing"

	"github.com/GermanBionicSystems/wsen/common"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

const addr = DefaultAddress

// sample holds X=1000, Y=-2000 and Z=16400 counts.
var sample = []byte{0xe8, 0x03, 0x30, 0xf8, 0x10, 0x40}

func initOps() []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: addr, W: []byte{regDeviceID}, R: []byte{DeviceIDValue}},
		{Addr: addr, W: []byte{regCtrl2}, R: []byte{0x00}},
		{Addr: addr, W: []byte{regCtrl2, 0x0c}},
		{Addr: addr, W: []byte{regCtrl1}, R: []byte{0x00}},
		{Addr: addr, W: []byte{regCtrl1, 0x55}},
		{Addr: addr, W: []byte{regCtrl6}, R: []byte{0x00}},
		{Addr: addr, W: []byte{regCtrl6, 0x00}},
	}
}

func newDev(t *testing.T, ops ...i2ctest.IO) (*Dev, *i2ctest.Playback) {
	t.Helper()
	pb := &i2ctest.Playback{Ops: append(initOps(), ops...), DontPanic: true}
	dev, err := NewI2C(pb, addr, nil)
	if err != nil {
		t.Fatal(err)
	}
	return dev, pb
}

func TestNewI2C(t *testing.T) {
	dev, pb := newDev(t)
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
	t.Log(dev.String())
}

func TestUnexpectedDevice(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: addr, W: []byte{regDeviceID}, R: []byte{0x6a}}},
		DontPanic: true,
	}
	if _, err := NewI2C(pb, addr, nil); !errors.Is(err, ErrUnexpectedDevice) {
		t.Errorf("expected ErrUnexpectedDevice, got %v", err)
	}
}

func TestAcceleration(t *testing.T) {
	dev, pb := newDev(t,
		i2ctest.IO{Addr: addr, W: []byte{regOutX}, R: sample},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl6}, R: []byte{0x00}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl6, 0x20}},
		i2ctest.IO{Addr: addr, W: []byte{regOutX}, R: sample},
	)
	defer pb.Close()
	a, err := dev.Acceleration()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(common.Acceleration{X: 61, Y: -122, Z: 1000}, a); diff != "" {
		t.Errorf("acceleration mismatch (-want +got):\n%s", diff)
	}
	if err := dev.SetFullScale(FullScale8G); err != nil {
		t.Fatal(err)
	}
	if a, err = dev.Acceleration(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(common.Acceleration{X: 244, Y: -488, Z: 4001}, a); diff != "" {
		t.Errorf("acceleration mismatch (-want +got):\n%s", diff)
	}
}

func TestSingleConversion(t *testing.T) {
	dev, pb := newDev(t,
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1}, R: []byte{0x55}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1, 0x59}},
		i2ctest.IO{Addr: addr, W: []byte{regStatus}, R: []byte{0x00}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl3}, R: []byte{0x00}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl3, 0x03}},
		i2ctest.IO{Addr: addr, W: []byte{regStatus}, R: []byte{0x00}},
		i2ctest.IO{Addr: addr, W: []byte{regStatus}, R: []byte{0x01}},
		i2ctest.IO{Addr: addr, W: []byte{regOutX}, R: sample},
	)
	a, err := dev.SingleConversion()
	if err != nil {
		t.Fatal(err)
	}
	if a.X != 61 {
		t.Errorf("x=%d expected 61", a.X)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}

func TestSingleConversionDiscardsStaleSample(t *testing.T) {
	dev, pb := newDev(t,
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1}, R: []byte{0x55}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1, 0x59}},
		i2ctest.IO{Addr: addr, W: []byte{regStatus}, R: []byte{0x01}},
		i2ctest.IO{Addr: addr, W: []byte{regOutX}, R: []byte{0, 0, 0, 0, 0, 0}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl3}, R: []byte{0x00}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl3, 0x03}},
		i2ctest.IO{Addr: addr, W: []byte{regStatus}, R: []byte{0x01}},
		i2ctest.IO{Addr: addr, W: []byte{regOutX}, R: sample},
	)
	a, err := dev.SingleConversion()
	if err != nil {
		t.Fatal(err)
	}
	if a.X != 61 || a.Z != 1000 {
		t.Errorf("got %s expected the new sample", a)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}

func TestModes(t *testing.T) {
	dev, pb := newDev(t,
		// Low power at 12.5 Hz.
		i2ctest.IO{Addr: addr, W: []byte{regCtrl2}, R: []byte{0x0c}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl2, 0x0c}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1}, R: []byte{0x55}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1, 0x20}},
		// Normal at 200 Hz.
		i2ctest.IO{Addr: addr, W: []byte{regCtrl2}, R: []byte{0x0c}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl2, 0x0c}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1}, R: []byte{0x20}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1, 0x61}},
		// Power down.
		i2ctest.IO{Addr: addr, W: []byte{regCtrl2}, R: []byte{0x0c}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl2, 0x0c}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1}, R: []byte{0x61}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl1, 0x01}},
	)
	if err := dev.SetLowPowerMode(ODR12_5Hz); err != nil {
		t.Fatal(err)
	}
	if err := dev.SetNormalMode(ODR200Hz); err != nil {
		t.Fatal(err)
	}
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}

func TestTemperature(t *testing.T) {
	dev, pb := newDev(t,
		i2ctest.IO{Addr: addr, W: []byte{regTempOutL}, R: []byte{0x00, 0x05}},
		i2ctest.IO{Addr: addr, W: []byte{regTempOut8}, R: []byte{0xfb}},
	)
	defer pb.Close()
	temp, err := dev.Temperature()
	if err != nil {
		t.Fatal(err)
	}
	if want := physic.ZeroCelsius + 30*physic.Kelvin; temp != want {
		t.Errorf("temperature=%s expected %s", temp, want)
	}
	if temp, err = dev.Temperature8(); err != nil {
		t.Fatal(err)
	}
	if want := physic.ZeroCelsius + 20*physic.Kelvin; temp != want {
		t.Errorf("temperature=%s expected %s", temp, want)
	}
	if got, want := Temperature12(-128), physic.ZeroCelsius+24500*physic.MilliKelvin; got != want {
		t.Errorf("Temperature12(-128)=%s expected %s", got, want)
	}
}

func TestFifo(t *testing.T) {
	dev, pb := newDev(t,
		i2ctest.IO{Addr: addr, W: []byte{regFifoCtrl}, R: []byte{0x00}},
		i2ctest.IO{Addr: addr, W: []byte{regFifoCtrl, 0xc0}},
		i2ctest.IO{Addr: addr, W: []byte{regFifoSamples}, R: []byte{0x42}},
		i2ctest.IO{Addr: addr, W: []byte{regOutX}, R: sample},
		i2ctest.IO{Addr: addr, W: []byte{regOutX}, R: []byte{0, 0, 0, 0, 0, 0}},
	)
	defer pb.Close()
	if err := dev.SetFifoMode(FifoContinuous); err != nil {
		t.Fatal(err)
	}
	got, err := dev.ReadFifo(5)
	if err != nil {
		t.Fatal(err)
	}
	want := []common.Acceleration{{X: 61, Y: -122, Z: 1000}, {}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fifo mismatch (-want +got):\n%s", diff)
	}
}

func TestEvents(t *testing.T) {
	dev, pb := newDev(t,
		i2ctest.IO{Addr: addr, W: []byte{regFreeFall}, R: []byte{0x00}},
		i2ctest.IO{Addr: addr, W: []byte{regFreeFall, 0x0b}},
		i2ctest.IO{Addr: addr, W: []byte{regWakeUpDur}, R: []byte{0x00}},
		i2ctest.IO{Addr: addr, W: []byte{regWakeUpDur, 0x80}},
		i2ctest.IO{Addr: addr, W: []byte{regCtrl4, 0x30}},
		i2ctest.IO{Addr: addr, W: []byte{regTapEvent}, R: []byte{0x7c}},
	)
	defer pb.Close()
	if err := dev.SetFreeFall(FreeFall312mg, 0x21); err != nil {
		t.Fatal(err)
	}
	if err := dev.SetFreeFall(FreeFall312mg, 0x40); !errors.Is(err, common.ErrFieldRange) {
		t.Errorf("expected ErrFieldRange, got %v", err)
	}
	if err := dev.SetInt0Routing(Int0FreeFall | Int0WakeUp); err != nil {
		t.Fatal(err)
	}
	ev, err := dev.TapEvent()
	if err != nil {
		t.Fatal(err)
	}
	want := TapEvent{Axes: AxisX, Negative: true, Tap: true, SingleTap: true, DoubleTap: true}
	if diff := cmp.Diff(want, ev); diff != "" {
		t.Errorf("tap event mismatch (-want +got):\n%s", diff)
	}
}
