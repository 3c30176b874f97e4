// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pdus provides a driver for the Würth Elektronik WSEN-PDUS
// (25131308xxx01) differential pressure sensors.
//
// The sensor has no register map. Any read returns the latest pressure and
// temperature words, most significant byte first. The pressure range depends
// on the ordered part and must be selected with Opts.SensorType.
//
// Datasheet
//
//	https://www.we-online.com/components/products/datasheet/2513130810401.pdf
package pdus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/wsen/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddress is the fixed I²C address of the sensor.
const DefaultAddress uint16 = 0x78

const (
	// pressureMin is the output at the lower end of the pressure range.
	pressureMin = 3277
	// temperatureMin is the output at 0 °C.
	temperatureMin = 8192
	// temperatureStep is the temperature change per count.
	temperatureStep = 4272 * physic.MicroKelvin
	dataMask        = 0x7fff

	minSampleDuration = time.Millisecond
)

// SensorType identifies the pressure range of a part.
type SensorType byte

const (
	// PDUS0 is 2513130810001, -0.1 to +0.1 kPa.
	PDUS0 SensorType = iota
	// PDUS1 is 2513130810101, -1 to +1 kPa.
	PDUS1
	// PDUS2 is 2513130810201, -10 to +10 kPa.
	PDUS2
	// PDUS3 is 2513130810301, 0 to 100 kPa.
	PDUS3
	// PDUS4 is 2513130810401, -100 to +1000 kPa.
	PDUS4
	// PDUS5 is 2513130815401, 0 to 1500 kPa.
	PDUS5
)

type pressureScale struct {
	step   physic.Pressure
	offset physic.Pressure
	min    physic.Pressure
	max    physic.Pressure
}

var scales = [...]pressureScale{
	PDUS0: {step: 7_630_000 * physic.NanoPascal, offset: 100 * physic.Pascal, min: -100 * physic.Pascal, max: 100 * physic.Pascal},
	PDUS1: {step: 76_300_000 * physic.NanoPascal, offset: physic.KiloPascal, min: -physic.KiloPascal, max: physic.KiloPascal},
	PDUS2: {step: 763 * physic.MilliPascal, offset: 10 * physic.KiloPascal, min: -10 * physic.KiloPascal, max: 10 * physic.KiloPascal},
	PDUS3: {step: 3815 * physic.MilliPascal, min: 0, max: 100 * physic.KiloPascal},
	PDUS4: {step: 41960 * physic.MilliPascal, offset: 100 * physic.KiloPascal, min: -100 * physic.KiloPascal, max: 1000 * physic.KiloPascal},
	PDUS5: {step: 57220 * physic.MilliPascal, min: 0, max: 1500 * physic.KiloPascal},
}

// ErrSensorType is returned for an unknown SensorType.
var ErrSensorType = errors.New("pdus: unknown sensor type")

func (s SensorType) String() string {
	if int(s) < len(scales) {
		return fmt.Sprintf("PDUS%d", byte(s))
	}
	return fmt.Sprintf("SensorType(%d)", byte(s))
}

// Range returns the pressure range of the part.
func (s SensorType) Range() (lo, hi physic.Pressure, err error) {
	if int(s) >= len(scales) {
		return 0, 0, ErrSensorType
	}
	return scales[s].min, scales[s].max, nil
}

// Pressure converts a raw pressure word.
func (s SensorType) Pressure(raw uint16) (physic.Pressure, error) {
	if int(s) >= len(scales) {
		return 0, ErrSensorType
	}
	sc := scales[s]
	return physic.Pressure(int64(raw&dataMask)-pressureMin)*sc.step - sc.offset, nil
}

// RawToTemperature converts a raw temperature word.
func RawToTemperature(raw uint16) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(int64(raw&dataMask)-temperatureMin)*temperatureStep
}

// Opts holds the part selection.
type Opts struct {
	SensorType SensorType
}

// Dev is a handle to a WSEN-PDUS sensor.
type Dev struct {
	r        *common.Regs
	typ      SensorType
	mu       sync.Mutex
	shutdown chan struct{}
}

// NewI2C returns a handle to the WSEN-PDUS at addr on bus b. The sensor
// cannot be identified, so opts must name the part.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if opts == nil {
		return nil, errors.New("pdus: opts with SensorType required")
	}
	if int(opts.SensorType) >= len(scales) {
		return nil, ErrSensorType
	}
	return &Dev{r: common.NewRegs(b, addr), typ: opts.SensorType}, nil
}

// EnableDebug traces the bus traffic with f.
func (dev *Dev) EnableDebug(f common.DebugF) {
	dev.r.EnableDebug(f)
}

// SensorType returns the configured part.
func (dev *Dev) SensorType() SensorType {
	return dev.typ
}

// RawPressureAndTemperature reads the pressure and temperature words.
func (dev *Dev) RawPressureAndTemperature() (pressure, temperature uint16, err error) {
	b, err := dev.r.ReadRaw(4)
	if err != nil {
		return 0, 0, fmt.Errorf("pdus: error reading device %w", err)
	}
	return common.Uint16BE(b) & dataMask, common.Uint16BE(b[2:]) & dataMask, nil
}

// RawPressure reads only the pressure word.
func (dev *Dev) RawPressure() (uint16, error) {
	b, err := dev.r.ReadRaw(2)
	if err != nil {
		return 0, fmt.Errorf("pdus: error reading device %w", err)
	}
	return common.Uint16BE(b) & dataMask, nil
}

// PressureAndTemperature reads and converts both outputs.
func (dev *Dev) PressureAndTemperature() (physic.Pressure, physic.Temperature, error) {
	rp, rt, err := dev.RawPressureAndTemperature()
	if err != nil {
		return 0, 0, err
	}
	p, err := dev.typ.Pressure(rp)
	if err != nil {
		return 0, 0, err
	}
	return p, RawToTemperature(rt), nil
}

// Sense reads the differential pressure and temperature. Implements
// physic.SenseEnv.
func (dev *Dev) Sense(env *physic.Env) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	p, t, err := dev.PressureAndTemperature()
	if err != nil {
		return err
	}
	env.Pressure = p
	env.Temperature = t
	env.Humidity = 0
	return nil
}

// SenseContinuous continuously reads from the device and sends the output
// to the returned channel. To terminate the read, call Dev.Halt()
func (dev *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		return nil, errors.New("pdus: SenseContinuous already running")
	}
	if interval < minSampleDuration {
		return nil, errors.New("pdus: sample interval is < device sample rate")
	}
	dev.shutdown = make(chan struct{})
	return common.SenseLoop(interval, dev.shutdown, dev.Sense), nil
}

// Precision returns the pressure step of the part and the temperature step.
func (dev *Dev) Precision(env *physic.Env) {
	env.Temperature = temperatureStep
	env.Pressure = scales[dev.typ].step
	env.Humidity = 0
}

// Halt stops a running SenseContinuous. The sensor has no power down mode.
// Implements conn.Resource.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		close(dev.shutdown)
		dev.shutdown = nil
	}
	return nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("pdus: %s %s", dev.typ, dev.r)
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
