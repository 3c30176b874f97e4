// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hids provides a driver for the Würth Elektronik WSEN-HIDS
// (2523020210001) humidity and temperature sensor.
//
// The sensor has no fixed conversion formula. Each part carries two factory
// calibration points for humidity and two for temperature, and readings are
// linearly interpolated between them.
//
// Datasheet
//
//	https://www.we-online.com/components/products/datasheet/2523020210001.pdf
package hids

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

const (
	// DefaultAddress is the fixed I²C address of the sensor.
	DefaultAddress uint16 = 0x5f
	// DeviceIDValue is the content of the DEVICE_ID register.
	DeviceIDValue byte = 0xbc

	regDeviceID    byte = 0x0f
	regAverage     byte = 0x10
	regCtrl1       byte = 0x20
	regCtrl2       byte = 0x21
	regCtrl3       byte = 0x22
	regStatus      byte = 0x27
	regHumidityOut byte = 0x28
	regTempOut     byte = 0x2a
	regCalibration byte = 0x30

	// The register address MSB enables auto increment of the address.
	autoIncrement byte = 0x80

	minSampleDuration = 80 * time.Millisecond
	pollInterval      = 5 * time.Millisecond
)

var (
	fieldAvgHumidity    = common.Field{Reg: regAverage, Mask: 0x07}
	fieldAvgTemperature = common.Field{Reg: regAverage, Mask: 0x38}
	fieldODR            = common.Field{Reg: regCtrl1, Mask: 0x03}
	fieldBDU            = common.Bit(regCtrl1, 2)
	fieldPowerDown      = common.Bit(regCtrl1, 7)
	fieldOneShot        = common.Bit(regCtrl2, 0)
	fieldHeater         = common.Bit(regCtrl2, 1)
	fieldBoot           = common.Bit(regCtrl2, 7)
	fieldDataReadyEn    = common.Bit(regCtrl3, 2)
	fieldPinType        = common.Bit(regCtrl3, 6)
	fieldIntLevel       = common.Bit(regCtrl3, 7)
)

var (
	// ErrUnexpectedDevice is returned when the DEVICE_ID register does not
	// identify a WSEN-HIDS.
	ErrUnexpectedDevice = errors.New("hids: unexpected device id")
	// ErrInvalidCalibration is returned when both calibration points of a
	// quantity read the same output, which would make interpolation divide
	// by zero.
	ErrInvalidCalibration = errors.New("hids: invalid calibration")
	// ErrTimeout is returned when a one-shot conversion does not complete in
	// time.
	ErrTimeout = errors.New("hids: conversion timeout")
)

// OutputDataRate is the rate at which the sensor updates its output in
// continuous mode.
type OutputDataRate byte

const (
	// ODROneShot disables continuous conversion. Conversions are started with
	// TriggerOneShot.
	ODROneShot OutputDataRate = iota
	ODR1Hz
	ODR7Hz
	ODR12_5Hz
)

// HumidityAverage is the number of internal samples averaged into one
// humidity output.
type HumidityAverage byte

const (
	HumidityAvg4 HumidityAverage = iota
	HumidityAvg8
	HumidityAvg16
	HumidityAvg32
	HumidityAvg64
	HumidityAvg128
	HumidityAvg256
	HumidityAvg512
)

// TemperatureAverage is the number of internal samples averaged into one
// temperature output.
type TemperatureAverage byte

const (
	TemperatureAvg2 TemperatureAverage = iota
	TemperatureAvg4
	TemperatureAvg8
	TemperatureAvg16
	TemperatureAvg32
	TemperatureAvg64
	TemperatureAvg128
	TemperatureAvg256
)

// PowerMode is the power state of the sensor.
type PowerMode byte

const (
	PowerDown PowerMode = iota
	Active
)

// InterruptPinType is the output stage of the data ready pin.
type InterruptPinType byte

const (
	PushPull InterruptPinType = iota
	OpenDrain
)

// InterruptLevel is the active level of the data ready pin.
type InterruptLevel byte

const (
	ActiveHigh InterruptLevel = iota
	ActiveLow
)

// Status is the content of the STATUS register.
type Status struct {
	TemperatureAvailable bool
	HumidityAvailable    bool
}

// Opts holds the configuration applied by NewI2C.
type Opts struct {
	OutputDataRate     OutputDataRate
	HumidityAverage    HumidityAverage
	TemperatureAverage TemperatureAverage
	// ConversionTimeout bounds the wait for a one-shot conversion.
	ConversionTimeout time.Duration
}

// DefaultOpts is the recommended configuration: 1 Hz continuous conversion
// with the power on averaging settings of the part.
var DefaultOpts = Opts{
	OutputDataRate:     ODR1Hz,
	HumidityAverage:    HumidityAvg32,
	TemperatureAverage: TemperatureAvg16,
	ConversionTimeout:  time.Second,
}

// Dev is a handle to a WSEN-HIDS sensor.
type Dev struct {
	r        *common.Regs
	opts     Opts
	cal      Calibration
	mu       sync.Mutex
	shutdown chan struct{}
}

// NewI2C returns a handle to the WSEN-HIDS at addr on bus b. The device id is
// verified, the calibration is read and opts is applied. A nil opts uses
// DefaultOpts.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	r := common.NewRegs(b, addr)
	r.AutoIncrement = autoIncrement
	dev := &Dev{r: r, opts: *opts}
	if dev.opts.ConversionTimeout == 0 {
		dev.opts.ConversionTimeout = DefaultOpts.ConversionTimeout
	}
	return dev, dev.start()
}

func (dev *Dev) start() error {
	id, err := dev.DeviceID()
	if err != nil {
		return err
	}
	if id != DeviceIDValue {
		return fmt.Errorf("%w 0x%02x", ErrUnexpectedDevice, id)
	}
	if dev.cal, err = dev.Calibration(); err != nil {
		return err
	}
	err = dev.r.Update(regAverage, func(v byte) (byte, error) {
		v, err := fieldAvgHumidity.Insert(v, byte(dev.opts.HumidityAverage))
		if err != nil {
			return v, err
		}
		return fieldAvgTemperature.Insert(v, byte(dev.opts.TemperatureAverage))
	})
	if err != nil {
		return fmt.Errorf("hids: %w", err)
	}
	return dev.SetContinuousMode(dev.opts.OutputDataRate)
}

// EnableDebug traces the register traffic with f.
func (dev *Dev) EnableDebug(f common.DebugF) {
	dev.r.EnableDebug(f)
}

// DeviceID reads the DEVICE_ID register.
func (dev *Dev) DeviceID() (byte, error) {
	id, err := dev.r.ReadUint8(regDeviceID)
	if err != nil {
		return 0, fmt.Errorf("hids: error reading device id %w", err)
	}
	return id, nil
}

// SetHumidityAverage sets the number of averaged humidity samples.
func (dev *Dev) SetHumidityAverage(avg HumidityAverage) error {
	return dev.r.SetField(fieldAvgHumidity, byte(avg))
}

// HumidityAverage returns the number of averaged humidity samples.
func (dev *Dev) HumidityAverage() (HumidityAverage, error) {
	v, err := dev.r.Field(fieldAvgHumidity)
	return HumidityAverage(v), err
}

// SetTemperatureAverage sets the number of averaged temperature samples.
func (dev *Dev) SetTemperatureAverage(avg TemperatureAverage) error {
	return dev.r.SetField(fieldAvgTemperature, byte(avg))
}

// TemperatureAverage returns the number of averaged temperature samples.
func (dev *Dev) TemperatureAverage() (TemperatureAverage, error) {
	v, err := dev.r.Field(fieldAvgTemperature)
	return TemperatureAverage(v), err
}

// SetOutputDataRate sets the output data rate. With ODROneShot, Sense
// triggers a conversion before reading.
func (dev *Dev) SetOutputDataRate(odr OutputDataRate) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.r.SetField(fieldODR, byte(odr)); err != nil {
		return err
	}
	dev.opts.OutputDataRate = odr
	return nil
}

// OutputDataRate returns the output data rate.
func (dev *Dev) OutputDataRate() (OutputDataRate, error) {
	v, err := dev.r.Field(fieldODR)
	return OutputDataRate(v), err
}

// SetBlockDataUpdate enables or disables block data update. When enabled the
// output registers are not updated until both bytes have been read.
func (dev *Dev) SetBlockDataUpdate(on bool) error {
	return dev.r.SetFlag(fieldBDU, on)
}

// BlockDataUpdate returns the block data update state.
func (dev *Dev) BlockDataUpdate() (bool, error) {
	return dev.r.Flag(fieldBDU)
}

// SetPowerMode puts the sensor in power down or active mode.
func (dev *Dev) SetPowerMode(mode PowerMode) error {
	return dev.r.SetField(fieldPowerDown, byte(mode))
}

// PowerMode returns the power state.
func (dev *Dev) PowerMode() (PowerMode, error) {
	v, err := dev.r.Field(fieldPowerDown)
	return PowerMode(v), err
}

// TriggerOneShot starts a single conversion.
func (dev *Dev) TriggerOneShot() error {
	return dev.r.SetFlag(fieldOneShot, true)
}

// OneShotPending reports whether a one-shot conversion is still running.
func (dev *Dev) OneShotPending() (bool, error) {
	return dev.r.Flag(fieldOneShot)
}

// SetHeater switches the internal heater on or off.
func (dev *Dev) SetHeater(on bool) error {
	return dev.r.SetFlag(fieldHeater, on)
}

// Heater returns the heater state.
func (dev *Dev) Heater() (bool, error) {
	return dev.r.Flag(fieldHeater)
}

// RebootMemory reloads the calibration from the internal memory.
func (dev *Dev) RebootMemory() error {
	return dev.r.SetFlag(fieldBoot, true)
}

// Rebooting reports whether the memory reboot is still running.
func (dev *Dev) Rebooting() (bool, error) {
	return dev.r.Flag(fieldBoot)
}

// SetDataReadyInterrupt enables the data ready signal on the DRDY pin.
func (dev *Dev) SetDataReadyInterrupt(on bool) error {
	return dev.r.SetFlag(fieldDataReadyEn, on)
}

// DataReadyInterrupt returns whether the data ready signal is enabled.
func (dev *Dev) DataReadyInterrupt() (bool, error) {
	return dev.r.Flag(fieldDataReadyEn)
}

// SetInterruptPinType selects push-pull or open drain for the DRDY pin.
func (dev *Dev) SetInterruptPinType(t InterruptPinType) error {
	return dev.r.SetField(fieldPinType, byte(t))
}

// InterruptPinType returns the DRDY pin output stage.
func (dev *Dev) InterruptPinType() (InterruptPinType, error) {
	v, err := dev.r.Field(fieldPinType)
	return InterruptPinType(v), err
}

// SetInterruptLevel selects the active level of the DRDY pin.
func (dev *Dev) SetInterruptLevel(l InterruptLevel) error {
	return dev.r.SetField(fieldIntLevel, byte(l))
}

// InterruptLevel returns the active level of the DRDY pin.
func (dev *Dev) InterruptLevel() (InterruptLevel, error) {
	v, err := dev.r.Field(fieldIntLevel)
	return InterruptLevel(v), err
}

// Status reads the data available flags.
func (dev *Dev) Status() (Status, error) {
	v, err := dev.r.ReadUint8(regStatus)
	if err != nil {
		return Status{}, err
	}
	return Status{TemperatureAvailable: v&0x01 != 0, HumidityAvailable: v&0x02 != 0}, nil
}

// RawHumidity reads the H_OUT register.
func (dev *Dev) RawHumidity() (int16, error) {
	return dev.r.ReadInt16(regHumidityOut)
}

// RawTemperature reads the T_OUT register.
func (dev *Dev) RawTemperature() (int16, error) {
	return dev.r.ReadInt16(regTempOut)
}

// SetContinuousMode enables block data update, sets the output data rate and
// powers the sensor up.
func (dev *Dev) SetContinuousMode(odr OutputDataRate) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	err := dev.r.Update(regCtrl1, func(v byte) (byte, error) {
		v, err := fieldODR.Insert(v, byte(odr))
		if err != nil {
			return v, err
		}
		v, _ = fieldBDU.Insert(v, 1)
		return fieldPowerDown.Insert(v, byte(Active))
	})
	if err != nil {
		return fmt.Errorf("hids: %w", err)
	}
	dev.opts.OutputDataRate = odr
	return nil
}

// SetSingleConversion switches to one-shot mode and starts a conversion.
func (dev *Dev) SetSingleConversion() error {
	if err := dev.SetContinuousMode(ODROneShot); err != nil {
		return err
	}
	return dev.TriggerOneShot()
}

// waitReady polls STATUS until both outputs are available.
func (dev *Dev) waitReady() error {
	deadline := time.Now().Add(dev.opts.ConversionTimeout)
	for {
		s, err := dev.Status()
		if err != nil {
			return err
		}
		if s.HumidityAvailable && s.TemperatureAvailable {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(pollInterval)
	}
}

// Sense reads humidity and temperature. In one-shot mode a conversion is
// started and awaited first. Implements physic.SenseEnv.
func (dev *Dev) Sense(env *physic.Env) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	env.Pressure = 0
	if dev.opts.OutputDataRate == ODROneShot {
		if err := dev.TriggerOneShot(); err != nil {
			return fmt.Errorf("hids: error triggering conversion %w", err)
		}
		if err := dev.waitReady(); err != nil {
			return fmt.Errorf("hids: %w", err)
		}
	}
	b, err := dev.r.Read(regHumidityOut, 4)
	if err != nil {
		return fmt.Errorf("hids: error reading device %w", err)
	}
	h, err := dev.cal.Humidity(common.Int16LE(b[0:]))
	if err != nil {
		return err
	}
	t, err := dev.cal.Temperature(common.Int16LE(b[2:]))
	if err != nil {
		return err
	}
	env.Humidity = h
	env.Temperature = t
	return nil
}

// SenseContinuous continuously reads from the device and sends the output
// to the returned channel. To terminate the read, call Dev.Halt()
func (dev *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		return nil, errors.New("hids: SenseContinuous already running")
	}
	if interval < minSampleDuration {
		return nil, errors.New("hids: sample interval is < device sample rate")
	}
	dev.shutdown = make(chan struct{})
	return common.SenseLoop(interval, dev.shutdown, dev.Sense), nil
}

// Precision returns the resolution of the outputs.
func (dev *Dev) Precision(env *physic.Env) {
	env.Temperature = physic.Kelvin / 64
	env.Humidity = physic.PercentRH / 128
	env.Pressure = 0
}

// Halt stops a running SenseContinuous and powers the sensor down.
// Implements conn.Resource.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		close(dev.shutdown)
		dev.shutdown = nil
	}
	if err := dev.SetPowerMode(PowerDown); err != nil {
		return fmt.Errorf("hids: error halting %w", err)
	}
	return nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("hids: %s", dev.r)
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
