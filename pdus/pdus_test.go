// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pdus

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

const addr = DefaultAddress

func TestPressure(t *testing.T) {
	var tests = []struct {
		typ      SensorType
		raw      uint16
		expected physic.Pressure
	}{
		{typ: PDUS0, raw: pressureMin, expected: -100 * physic.Pascal},
		{typ: PDUS1, raw: pressureMin, expected: -physic.KiloPascal},
		{typ: PDUS1, raw: pressureMin + 1000, expected: 76300*physic.MilliPascal - physic.KiloPascal},
		{typ: PDUS2, raw: pressureMin + 13107, expected: 13107*763*physic.MilliPascal - 10*physic.KiloPascal},
		{typ: PDUS3, raw: pressureMin + 1000, expected: 3815 * physic.Pascal},
		{typ: PDUS3, raw: 0x8000 | (pressureMin + 1000), expected: 3815 * physic.Pascal},
		{typ: PDUS4, raw: pressureMin, expected: -100 * physic.KiloPascal},
		{typ: PDUS5, raw: pressureMin + 100, expected: 5722 * physic.Pascal},
	}
	for _, test := range tests {
		p, err := test.typ.Pressure(test.raw)
		if err != nil {
			t.Error(err)
			continue
		}
		if p != test.expected {
			t.Errorf("%s.Pressure(%d)=%s expected %s", test.typ, test.raw, p, test.expected)
		}
	}
	if _, err := SensorType(6).Pressure(0); !errors.Is(err, ErrSensorType) {
		t.Errorf("expected ErrSensorType, got %v", err)
	}
	lo, hi, err := PDUS4.Range()
	if err != nil || lo != -100*physic.KiloPascal || hi != 1000*physic.KiloPascal {
		t.Errorf("Range()=%s, %s, %v", lo, hi, err)
	}
}

func TestTemperature(t *testing.T) {
	if v := RawToTemperature(temperatureMin); v != physic.ZeroCelsius {
		t.Errorf("RawToTemperature(%d)=%s expected 0°C", temperatureMin, v)
	}
	if v := RawToTemperature(temperatureMin + 5000); v != physic.ZeroCelsius+21360*physic.MilliKelvin {
		t.Errorf("RawToTemperature()=%s expected 21.36°C", v)
	}
	if v := RawToTemperature(temperatureMin - 1000); v != physic.ZeroCelsius-4272*physic.MilliKelvin {
		t.Errorf("RawToTemperature()=%s expected -4.272°C", v)
	}
}

func TestSense(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: addr, R: []byte{0x10, 0xb5, 0x33, 0x88}},
			{Addr: addr, R: []byte{0x10, 0xb5}},
		},
		DontPanic: true,
	}
	dev, err := NewI2C(pb, addr, &Opts{SensorType: PDUS3})
	if err != nil {
		t.Fatal(err)
	}
	env := physic.Env{}
	if err := dev.Sense(&env); err != nil {
		t.Fatal(err)
	}
	if env.Pressure != 3815*physic.Pascal {
		t.Errorf("pressure=%s expected 3.815kPa", env.Pressure)
	}
	if env.Temperature != physic.ZeroCelsius+21360*physic.MilliKelvin {
		t.Errorf("temperature=%s expected 21.36°C", env.Temperature)
	}
	raw, err := dev.RawPressure()
	if err != nil || raw != 4277 {
		t.Errorf("RawPressure()=%d, %v expected 4277", raw, err)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
	t.Log(dev.String())
}

func TestSenseError(t *testing.T) {
	pb := &i2ctest.Playback{DontPanic: true}
	dev, err := NewI2C(pb, addr, &Opts{SensorType: PDUS0})
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.Sense(&physic.Env{}); err == nil {
		t.Error("expected error from empty bus")
	}
}

func TestNewI2C(t *testing.T) {
	if _, err := NewI2C(&i2ctest.Playback{}, addr, nil); err == nil {
		t.Error("expected error without opts")
	}
	if _, err := NewI2C(&i2ctest.Playback{}, addr, &Opts{SensorType: 9}); !errors.Is(err, ErrSensorType) {
		t.Errorf("expected ErrSensorType, got %v", err)
	}
}

func TestSenseContinuous(t *testing.T) {
	ops := make([]i2ctest.IO, 0)
	for i := 0; i < 3; i++ {
		ops = append(ops, i2ctest.IO{Addr: addr, R: []byte{0x10, 0xb5, 0x33, 0x88}})
	}
	pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
	dev, err := NewI2C(pb, addr, &Opts{SensorType: PDUS3})
	if err != nil {
		t.Fatal(err)
	}
	ch, err := dev.SenseContinuous(10 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if env := <-ch; env.Pressure != 3815*physic.Pascal {
			t.Errorf("pressure=%s expected 3.815kPa", env.Pressure)
		}
	}
	if err := dev.Halt(); err != nil {
		t.Error(err)
	}
	for range ch {
	}
}
