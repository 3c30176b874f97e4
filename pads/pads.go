// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pads provides a driver for the Würth Elektronik WSEN-PADS
// (2511020213301) absolute pressure sensor.
//
// The sensor measures 26 to 126 kPa with a 24 bit output and carries a
// temperature sensor and a 128 sample FIFO.
//
// Datasheet
//
//	https://www.we-online.com/components/products/datasheet/2511020213301.pdf
package pads

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
	// DefaultAddress is the address with the SAO pin pulled high.
	DefaultAddress uint16 = 0x5d
	// AlternateAddress is the address with the SAO pin pulled low.
	AlternateAddress uint16 = 0x5c
	// DeviceIDValue is the content of the DEVICE_ID register.
	DeviceIDValue byte = 0xb3

	regIntCfg      byte = 0x0b
	regThreshold   byte = 0x0c
	regDeviceID    byte = 0x0f
	regCtrl1       byte = 0x10
	regCtrl2       byte = 0x11
	regCtrl3       byte = 0x12
	regFifoCtrl    byte = 0x13
	regFifoWtm     byte = 0x14
	regRefP        byte = 0x15
	regOpcP        byte = 0x18
	regIntSource   byte = 0x24
	regFifoStatus1 byte = 0x25
	regFifoStatus2 byte = 0x26
	regStatus      byte = 0x27
	regDataP       byte = 0x28
	regDataT       byte = 0x2b
	regFifoDataP   byte = 0x78

	pollInterval      = 2 * time.Millisecond
	minSampleDuration = 5 * time.Millisecond
)

var (
	fieldBDU        = common.Bit(regCtrl1, 1)
	fieldLPFConfig  = common.Bit(regCtrl1, 2)
	fieldLPFEnable  = common.Bit(regCtrl1, 3)
	fieldODR        = common.Field{Reg: regCtrl1, Mask: 0x70}
	fieldOneShot    = common.Bit(regCtrl2, 0)
	fieldLowNoise   = common.Bit(regCtrl2, 1)
	fieldSoftReset  = common.Bit(regCtrl2, 2)
	fieldAutoInc    = common.Bit(regCtrl2, 4)
	fieldPinType    = common.Bit(regCtrl2, 5)
	fieldIntLevel   = common.Bit(regCtrl2, 6)
	fieldBoot       = common.Bit(regCtrl2, 7)
	fieldIntEvent   = common.Field{Reg: regCtrl3, Mask: 0x03}
	fieldDRDYInt    = common.Bit(regCtrl3, 2)
	fieldFifoOvrInt = common.Bit(regCtrl3, 3)
	fieldFifoWtmInt = common.Bit(regCtrl3, 4)
	fieldFifoFull   = common.Bit(regCtrl3, 5)
)

var (
	// ErrUnexpectedDevice is returned when the DEVICE_ID register does not
	// identify a WSEN-PADS.
	ErrUnexpectedDevice = errors.New("pads: unexpected device id")
	// ErrTimeout is returned when a one-shot conversion does not complete in
	// time.
	ErrTimeout = errors.New("pads: conversion timeout")
)

// OutputDataRate is the conversion rate in continuous mode.
type OutputDataRate byte

const (
	// ODRPowerDown stops continuous conversion. Conversions are then
	// started with TriggerOneShot.
	ODRPowerDown OutputDataRate = iota
	ODR1Hz
	ODR10Hz
	ODR25Hz
	ODR50Hz
	ODR75Hz
	ODR100Hz
	ODR200Hz
)

// PowerMode selects between current consumption and noise.
type PowerMode byte

const (
	LowPower PowerMode = iota
	LowNoise
)

// LowPassFilter is the bandwidth of the optional pressure low pass filter.
type LowPassFilter byte

const (
	// LowPassOff bypasses the filter.
	LowPassOff LowPassFilter = iota
	// LowPassODR9 filters with a bandwidth of ODR/9.
	LowPassODR9
	// LowPassODR20 filters with a bandwidth of ODR/20.
	LowPassODR20
)

// InterruptPinType is the output stage of the INT pin.
type InterruptPinType byte

const (
	PushPull InterruptPinType = iota
	OpenDrain
)

// InterruptLevel is the active level of the INT pin.
type InterruptLevel byte

const (
	ActiveHigh InterruptLevel = iota
	ActiveLow
)

// Status is the content of the STATUS register.
type Status struct {
	PressureAvailable    bool
	TemperatureAvailable bool
	PressureOverrun      bool
	TemperatureOverrun   bool
}

// Opts holds the configuration applied by NewI2C.
type Opts struct {
	OutputDataRate  OutputDataRate
	PowerMode       PowerMode
	LowPassFilter   LowPassFilter
	BlockDataUpdate bool
	// ConversionTimeout bounds the wait for a one-shot conversion.
	ConversionTimeout time.Duration
}

// DefaultOpts runs continuous low noise conversion at 10 Hz.
var DefaultOpts = Opts{
	OutputDataRate:    ODR10Hz,
	PowerMode:         LowNoise,
	LowPassFilter:     LowPassOff,
	BlockDataUpdate:   true,
	ConversionTimeout: 100 * time.Millisecond,
}

// Dev is a handle to a WSEN-PADS sensor.
type Dev struct {
	r        *common.Regs
	opts     Opts
	mu       sync.Mutex
	shutdown chan struct{}
}

// NewI2C returns a handle to the WSEN-PADS at addr on bus b. A nil opts uses
// DefaultOpts.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	dev := &Dev{r: common.NewRegs(b, addr), opts: *opts}
	if dev.opts.ConversionTimeout == 0 {
		dev.opts.ConversionTimeout = DefaultOpts.ConversionTimeout
	}
	id, err := dev.DeviceID()
	if err != nil {
		return nil, err
	}
	if id != DeviceIDValue {
		return nil, fmt.Errorf("%w 0x%02x", ErrUnexpectedDevice, id)
	}
	err = dev.r.Update(regCtrl2, func(v byte) (byte, error) {
		v |= fieldAutoInc.Mask
		return fieldLowNoise.Insert(v, byte(dev.opts.PowerMode))
	})
	if err != nil {
		return nil, fmt.Errorf("pads: %w", err)
	}
	err = dev.r.Update(regCtrl1, func(v byte) (byte, error) {
		v, err := fieldODR.Insert(v, byte(dev.opts.OutputDataRate))
		if err != nil {
			return v, err
		}
		v &^= fieldBDU.Mask | fieldLPFEnable.Mask | fieldLPFConfig.Mask
		if dev.opts.BlockDataUpdate {
			v |= fieldBDU.Mask
		}
		return insertLowPass(v, dev.opts.LowPassFilter), nil
	})
	if err != nil {
		return nil, fmt.Errorf("pads: %w", err)
	}
	return dev, nil
}

func insertLowPass(v byte, f LowPassFilter) byte {
	switch f {
	case LowPassODR9:
		v |= fieldLPFEnable.Mask
	case LowPassODR20:
		v |= fieldLPFEnable.Mask | fieldLPFConfig.Mask
	}
	return v
}

// EnableDebug traces the register traffic with f.
func (dev *Dev) EnableDebug(f common.DebugF) {
	dev.r.EnableDebug(f)
}

// DeviceID reads the DEVICE_ID register.
func (dev *Dev) DeviceID() (byte, error) {
	id, err := dev.r.ReadUint8(regDeviceID)
	if err != nil {
		return 0, fmt.Errorf("pads: error reading device id %w", err)
	}
	return id, nil
}

// SetOutputDataRate sets the continuous conversion rate.
func (dev *Dev) SetOutputDataRate(odr OutputDataRate) error {
	if err := dev.r.SetField(fieldODR, byte(odr)); err != nil {
		return err
	}
	dev.opts.OutputDataRate = odr
	return nil
}

// OutputDataRate returns the continuous conversion rate.
func (dev *Dev) OutputDataRate() (OutputDataRate, error) {
	v, err := dev.r.Field(fieldODR)
	return OutputDataRate(v), err
}

// SetPowerMode selects low power or low noise operation. The mode must only
// be changed while powered down.
func (dev *Dev) SetPowerMode(mode PowerMode) error {
	return dev.r.SetField(fieldLowNoise, byte(mode))
}

// PowerMode returns the power mode.
func (dev *Dev) PowerMode() (PowerMode, error) {
	v, err := dev.r.Field(fieldLowNoise)
	return PowerMode(v), err
}

// SetLowPassFilter enables the pressure low pass filter with the given
// bandwidth, or disables it.
func (dev *Dev) SetLowPassFilter(f LowPassFilter) error {
	return dev.r.Update(regCtrl1, func(v byte) (byte, error) {
		return insertLowPass(v&^(fieldLPFEnable.Mask|fieldLPFConfig.Mask), f), nil
	})
}

// LowPassFilter returns the low pass filter configuration.
func (dev *Dev) LowPassFilter() (LowPassFilter, error) {
	v, err := dev.r.ReadUint8(regCtrl1)
	if err != nil {
		return 0, err
	}
	switch {
	case v&fieldLPFEnable.Mask == 0:
		return LowPassOff, nil
	case v&fieldLPFConfig.Mask == 0:
		return LowPassODR9, nil
	}
	return LowPassODR20, nil
}

// SetBlockDataUpdate enables or disables block data update.
func (dev *Dev) SetBlockDataUpdate(on bool) error {
	return dev.r.SetFlag(fieldBDU, on)
}

// BlockDataUpdate returns the block data update state.
func (dev *Dev) BlockDataUpdate() (bool, error) {
	return dev.r.Flag(fieldBDU)
}

// SetAutoIncrement enables register address auto increment.
func (dev *Dev) SetAutoIncrement(on bool) error {
	return dev.r.SetFlag(fieldAutoInc, on)
}

// AutoIncrement returns the auto increment state.
func (dev *Dev) AutoIncrement() (bool, error) {
	return dev.r.Flag(fieldAutoInc)
}

// TriggerOneShot starts a single conversion.
func (dev *Dev) TriggerOneShot() error {
	return dev.r.Update(regCtrl2, func(v byte) (byte, error) {
		return v | fieldAutoInc.Mask | fieldOneShot.Mask, nil
	})
}

// OneShot returns the state of the one-shot bit.
func (dev *Dev) OneShot() (bool, error) {
	return dev.r.Flag(fieldOneShot)
}

// SoftReset resets the user registers. The bit clears itself when done.
func (dev *Dev) SoftReset() error {
	return dev.r.SetFlag(fieldSoftReset, true)
}

// SoftResetState reports whether the soft reset is still running.
func (dev *Dev) SoftResetState() (bool, error) {
	return dev.r.Flag(fieldSoftReset)
}

// Reboot reloads the trimming parameters from the internal memory.
func (dev *Dev) Reboot() error {
	return dev.r.SetFlag(fieldBoot, true)
}

// Rebooting reports whether the reboot is still running.
func (dev *Dev) Rebooting() (bool, error) {
	return dev.r.Flag(fieldBoot)
}

// SetInterruptPinType selects push-pull or open drain for the INT pin.
func (dev *Dev) SetInterruptPinType(t InterruptPinType) error {
	return dev.r.SetField(fieldPinType, byte(t))
}

// InterruptPinType returns the INT pin output stage.
func (dev *Dev) InterruptPinType() (InterruptPinType, error) {
	v, err := dev.r.Field(fieldPinType)
	return InterruptPinType(v), err
}

// SetInterruptLevel selects the active level of the INT pin.
func (dev *Dev) SetInterruptLevel(l InterruptLevel) error {
	return dev.r.SetField(fieldIntLevel, byte(l))
}

// InterruptLevel returns the active level of the INT pin.
func (dev *Dev) InterruptLevel() (InterruptLevel, error) {
	v, err := dev.r.Field(fieldIntLevel)
	return InterruptLevel(v), err
}

// PowerDown stops continuous conversion and enables block data update.
func (dev *Dev) PowerDown() error {
	err := dev.r.Update(regCtrl1, func(v byte) (byte, error) {
		v |= fieldBDU.Mask
		return fieldODR.Insert(v, byte(ODRPowerDown))
	})
	if err != nil {
		return fmt.Errorf("pads: error powering down %w", err)
	}
	dev.opts.OutputDataRate = ODRPowerDown
	return nil
}

// SetSingleConversion powers down and triggers one conversion. Subsequent
// Sense calls trigger their own conversion.
func (dev *Dev) SetSingleConversion() error {
	if err := dev.PowerDown(); err != nil {
		return err
	}
	return dev.TriggerOneShot()
}

// SetContinuousMode selects low noise operation with the ODR/20 low pass
// configuration and starts continuous conversion at odr.
func (dev *Dev) SetContinuousMode(odr OutputDataRate) error {
	if err := dev.SetPowerMode(LowNoise); err != nil {
		return fmt.Errorf("pads: %w", err)
	}
	err := dev.r.Update(regCtrl1, func(v byte) (byte, error) {
		return fieldODR.Insert(v|fieldLPFConfig.Mask, byte(odr))
	})
	if err != nil {
		return fmt.Errorf("pads: %w", err)
	}
	dev.opts.OutputDataRate = odr
	return nil
}

// Status reads the STATUS register.
func (dev *Dev) Status() (Status, error) {
	v, err := dev.r.ReadUint8(regStatus)
	if err != nil {
		return Status{}, err
	}
	return Status{
		PressureAvailable:    v&0x01 != 0,
		TemperatureAvailable: v&0x02 != 0,
		PressureOverrun:      v&0x10 != 0,
		TemperatureOverrun:   v&0x20 != 0,
	}, nil
}

// RawPressure reads the 24 bit pressure output.
func (dev *Dev) RawPressure() (int32, error) {
	b, err := dev.r.Read(regDataP, 3)
	if err != nil {
		return 0, err
	}
	return common.Int24LE(b), nil
}

// RawTemperature reads the temperature output in 0.01 °C.
func (dev *Dev) RawTemperature() (int16, error) {
	return dev.r.ReadInt16(regDataT)
}

// Pressure reads the pressure output.
func (dev *Dev) Pressure() (physic.Pressure, error) {
	raw, err := dev.RawPressure()
	if err != nil {
		return 0, fmt.Errorf("pads: error reading device %w", err)
	}
	return RawToPressure(raw), nil
}

// Temperature reads the temperature output.
func (dev *Dev) Temperature() (physic.Temperature, error) {
	raw, err := dev.RawTemperature()
	if err != nil {
		return 0, fmt.Errorf("pads: error reading device %w", err)
	}
	return common.CentiCelsius(int32(raw)), nil
}

// RawToPressure converts a 24 bit pressure output in 1/4096 hPa.
func RawToPressure(raw int32) physic.Pressure {
	return physic.Pressure(int64(raw) * int64(100*physic.Pascal) / 4096)
}

func (dev *Dev) waitReady() error {
	deadline := time.Now().Add(dev.opts.ConversionTimeout)
	for {
		s, err := dev.Status()
		if err != nil {
			return err
		}
		if s.PressureAvailable && s.TemperatureAvailable {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(pollInterval)
	}
}

// Sense reads pressure and temperature. When powered down a conversion is
// triggered and awaited first. Implements physic.SenseEnv.
func (dev *Dev) Sense(env *physic.Env) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	env.Humidity = 0
	if dev.opts.OutputDataRate == ODRPowerDown {
		if err := dev.TriggerOneShot(); err != nil {
			return fmt.Errorf("pads: error triggering conversion %w", err)
		}
		if err := dev.waitReady(); err != nil {
			return fmt.Errorf("pads: %w", err)
		}
	}
	b, err := dev.r.Read(regDataP, 5)
	if err != nil {
		return fmt.Errorf("pads: error reading device %w", err)
	}
	env.Pressure = RawToPressure(common.Int24LE(b))
	env.Temperature = common.CentiCelsius(int32(common.Int16LE(b[3:])))
	return nil
}

// SenseContinuous continuously reads from the device and sends the output
// to the returned channel. To terminate the read, call Dev.Halt()
func (dev *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		return nil, errors.New("pads: SenseContinuous already running")
	}
	if interval < minSampleDuration {
		return nil, errors.New("pads: sample interval is < device sample rate")
	}
	dev.shutdown = make(chan struct{})
	return common.SenseLoop(interval, dev.shutdown, dev.Sense), nil
}

// Precision returns the resolution of the outputs.
func (dev *Dev) Precision(env *physic.Env) {
	env.Temperature = 10 * physic.MilliKelvin
	env.Pressure = 100 * physic.Pascal / 4096
	env.Humidity = 0
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
	return dev.PowerDown()
}

func (dev *Dev) String() string {
	return fmt.Sprintf("pads: %s", dev.r)
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
