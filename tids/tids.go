// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tids provides a driver for the Würth Elektronik WSEN-TIDS
// (2521020222501) digital temperature sensor.
//
// Datasheet
//
//	https://www.we-online.com/components/products/datasheet/2521020222501.pdf
package tids

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
	// DefaultAddress is the address with the SAO pin pulled low.
	DefaultAddress uint16 = 0x3f
	// AlternateAddress is the address with the SAO pin pulled high.
	AlternateAddress uint16 = 0x38
	// DeviceIDValue is the content of the DEVICE_ID register.
	DeviceIDValue byte = 0xa0

	regDeviceID  byte = 0x01
	regHighLimit byte = 0x02
	regLowLimit  byte = 0x03
	regCtrl      byte = 0x04
	regStatus    byte = 0x05
	regData      byte = 0x06
	regSoftReset byte = 0x0c

	softResetDelay    = 12 * time.Millisecond
	pollInterval      = 5 * time.Millisecond
	minSampleDuration = 5 * time.Millisecond

	// limitOffset is the register value of 0 °C in the limit registers.
	limitOffset = 63
	// limitStep is the temperature step of the limit registers.
	limitStep = 640 * physic.MilliKelvin
)

var (
	fieldOneShot     = common.Bit(regCtrl, 0)
	fieldTimeoutDis  = common.Bit(regCtrl, 1)
	fieldFreeRun     = common.Bit(regCtrl, 2)
	fieldAutoInc     = common.Bit(regCtrl, 3)
	fieldODR         = common.Field{Reg: regCtrl, Mask: 0x30}
	fieldBDU         = common.Bit(regCtrl, 6)
	fieldLowODRStart = common.Bit(regCtrl, 7)
	fieldSoftReset   = common.Bit(regSoftReset, 1)
)

var (
	// ErrUnexpectedDevice is returned when the DEVICE_ID register does not
	// identify a WSEN-TIDS.
	ErrUnexpectedDevice = errors.New("tids: unexpected device id")
	// ErrTimeout is returned when a one-shot conversion does not complete in
	// time.
	ErrTimeout = errors.New("tids: conversion timeout")
	// ErrLimitRange is returned for limits outside what the limit registers
	// can hold.
	ErrLimitRange = errors.New("tids: limit out of range")
)

// OutputDataRate is the conversion rate in continuous mode.
type OutputDataRate byte

const (
	ODR25Hz OutputDataRate = iota
	ODR50Hz
	ODR100Hz
	ODR200Hz
	// ODR1Hz uses the low ODR start mode.
	ODR1Hz
)

func (o OutputDataRate) String() string {
	switch o {
	case ODR25Hz:
		return "25Hz"
	case ODR50Hz:
		return "50Hz"
	case ODR100Hz:
		return "100Hz"
	case ODR200Hz:
		return "200Hz"
	case ODR1Hz:
		return "1Hz"
	}
	return fmt.Sprintf("OutputDataRate(%d)", byte(o))
}

// Status is the content of the STATUS register.
type Status struct {
	Busy bool
	// OverHighLimit is set while the temperature exceeds the high limit.
	OverHighLimit bool
	// UnderLowLimit is set while the temperature is below the low limit.
	UnderLowLimit bool
}

// Opts holds the configuration applied by NewI2C.
type Opts struct {
	OutputDataRate OutputDataRate
	// OneShot leaves the sensor powered down between readings. Each Sense
	// then triggers a single conversion.
	OneShot bool
	// ConversionTimeout bounds the wait for a one-shot conversion.
	ConversionTimeout time.Duration
}

// DefaultOpts runs continuous conversion at 25 Hz.
var DefaultOpts = Opts{
	OutputDataRate:    ODR25Hz,
	ConversionTimeout: 100 * time.Millisecond,
}

// Dev is a handle to a WSEN-TIDS sensor.
type Dev struct {
	r        *common.Regs
	opts     Opts
	mu       sync.Mutex
	shutdown chan struct{}
}

// NewI2C returns a handle to the WSEN-TIDS at addr on bus b. A nil opts uses
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
	if dev.opts.OneShot {
		err = dev.PowerDown()
	} else {
		err = dev.SetContinuousMode(dev.opts.OutputDataRate)
	}
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// EnableDebug traces the register traffic with f.
func (dev *Dev) EnableDebug(f common.DebugF) {
	dev.r.EnableDebug(f)
}

// DeviceID reads the DEVICE_ID register.
func (dev *Dev) DeviceID() (byte, error) {
	id, err := dev.r.ReadUint8(regDeviceID)
	if err != nil {
		return 0, fmt.Errorf("tids: error reading device id %w", err)
	}
	return id, nil
}

// SetOutputDataRate sets the rate used in continuous mode.
func (dev *Dev) SetOutputDataRate(odr OutputDataRate) error {
	return dev.r.Update(regCtrl, func(v byte) (byte, error) {
		return insertODR(v, odr)
	})
}

func insertODR(v byte, odr OutputDataRate) (byte, error) {
	if odr == ODR1Hz {
		return fieldLowODRStart.Insert(v, 1)
	}
	v, _ = fieldLowODRStart.Insert(v, 0)
	return fieldODR.Insert(v, byte(odr))
}

// OutputDataRate returns the rate used in continuous mode.
func (dev *Dev) OutputDataRate() (OutputDataRate, error) {
	v, err := dev.r.ReadUint8(regCtrl)
	if err != nil {
		return 0, err
	}
	if fieldLowODRStart.Extract(v) != 0 {
		return ODR1Hz, nil
	}
	return OutputDataRate(fieldODR.Extract(v)), nil
}

// SetContinuous starts or stops continuous conversion (FREERUN).
func (dev *Dev) SetContinuous(on bool) error {
	return dev.r.SetFlag(fieldFreeRun, on)
}

// Continuous reports whether continuous conversion is running.
func (dev *Dev) Continuous() (bool, error) {
	return dev.r.Flag(fieldFreeRun)
}

// TriggerOneShot starts a single conversion with block data update and
// auto increment enabled.
func (dev *Dev) TriggerOneShot() error {
	return dev.r.Update(regCtrl, func(v byte) (byte, error) {
		return v | fieldBDU.Mask | fieldAutoInc.Mask | fieldOneShot.Mask, nil
	})
}

// OneShot returns the state of the one-shot bit.
func (dev *Dev) OneShot() (bool, error) {
	return dev.r.Flag(fieldOneShot)
}

// SetBlockDataUpdate enables or disables block data update.
func (dev *Dev) SetBlockDataUpdate(on bool) error {
	return dev.r.SetFlag(fieldBDU, on)
}

// BlockDataUpdate returns the block data update state.
func (dev *Dev) BlockDataUpdate() (bool, error) {
	return dev.r.Flag(fieldBDU)
}

// SetAutoIncrement enables register address auto increment for multi-byte
// reads.
func (dev *Dev) SetAutoIncrement(on bool) error {
	return dev.r.SetFlag(fieldAutoInc, on)
}

// AutoIncrement returns the auto increment state.
func (dev *Dev) AutoIncrement() (bool, error) {
	return dev.r.Flag(fieldAutoInc)
}

// SetTimeoutDisabled disables the SMBus timeout.
func (dev *Dev) SetTimeoutDisabled(on bool) error {
	return dev.r.SetFlag(fieldTimeoutDis, on)
}

// TimeoutDisabled returns whether the SMBus timeout is disabled.
func (dev *Dev) TimeoutDisabled() (bool, error) {
	return dev.r.Flag(fieldTimeoutDis)
}

// SetSoftReset sets or clears the soft reset bit.
func (dev *Dev) SetSoftReset(on bool) error {
	return dev.r.SetFlag(fieldSoftReset, on)
}

// SoftResetState returns the state of the soft reset bit.
func (dev *Dev) SoftResetState() (bool, error) {
	return dev.r.Flag(fieldSoftReset)
}

// SoftReset resets the sensor logic. The reset bit is held for a while and
// released again.
func (dev *Dev) SoftReset() error {
	if err := dev.SetSoftReset(true); err != nil {
		return fmt.Errorf("tids: error resetting %w", err)
	}
	time.Sleep(softResetDelay)
	if err := dev.SetSoftReset(false); err != nil {
		return fmt.Errorf("tids: error resetting %w", err)
	}
	time.Sleep(softResetDelay)
	return nil
}

// PowerDown stops continuous conversion, enabling block data update and auto
// increment for later reads.
func (dev *Dev) PowerDown() error {
	err := dev.r.Update(regCtrl, func(v byte) (byte, error) {
		return (v | fieldBDU.Mask | fieldAutoInc.Mask) &^ fieldFreeRun.Mask, nil
	})
	if err != nil {
		return fmt.Errorf("tids: error powering down %w", err)
	}
	return nil
}

// SetContinuousMode powers down, resets the sensor and restarts continuous
// conversion at odr.
func (dev *Dev) SetContinuousMode(odr OutputDataRate) error {
	if err := dev.PowerDown(); err != nil {
		return err
	}
	if err := dev.SoftReset(); err != nil {
		return err
	}
	err := dev.r.Update(regCtrl, func(v byte) (byte, error) {
		v, err := insertODR(v|fieldBDU.Mask|fieldAutoInc.Mask, odr)
		return v | fieldFreeRun.Mask, err
	})
	if err != nil {
		return fmt.Errorf("tids: %w", err)
	}
	dev.opts.OutputDataRate = odr
	dev.opts.OneShot = false
	return nil
}

// SetSingleConversion powers down, resets the sensor and triggers one
// conversion. Subsequent Sense calls trigger their own conversion.
func (dev *Dev) SetSingleConversion() error {
	if err := dev.PowerDown(); err != nil {
		return err
	}
	if err := dev.SoftReset(); err != nil {
		return err
	}
	dev.opts.OneShot = true
	return dev.TriggerOneShot()
}

// Status reads the STATUS register.
func (dev *Dev) Status() (Status, error) {
	v, err := dev.r.ReadUint8(regStatus)
	if err != nil {
		return Status{}, err
	}
	return Status{Busy: v&0x01 != 0, OverHighLimit: v&0x02 != 0, UnderLowLimit: v&0x04 != 0}, nil
}

// Busy reports whether a conversion is running.
func (dev *Dev) Busy() (bool, error) {
	s, err := dev.Status()
	return s.Busy, err
}

// RawTemperature reads the temperature output in 0.01 °C.
func (dev *Dev) RawTemperature() (int16, error) {
	return dev.r.ReadInt16(regData)
}

// Temperature reads the temperature output.
func (dev *Dev) Temperature() (physic.Temperature, error) {
	raw, err := dev.RawTemperature()
	if err != nil {
		return 0, fmt.Errorf("tids: error reading device %w", err)
	}
	return common.CentiCelsius(int32(raw)), nil
}

func (dev *Dev) waitReady() error {
	deadline := time.Now().Add(dev.opts.ConversionTimeout)
	for {
		time.Sleep(pollInterval)
		busy, err := dev.Busy()
		if err != nil {
			return err
		}
		if !busy {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
	}
}

// Sense reads the temperature. In one-shot mode a conversion is triggered
// and awaited first. Implements physic.SenseEnv.
func (dev *Dev) Sense(env *physic.Env) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	env.Humidity = 0
	env.Pressure = 0
	if dev.opts.OneShot {
		if err := dev.TriggerOneShot(); err != nil {
			return fmt.Errorf("tids: error triggering conversion %w", err)
		}
		if err := dev.waitReady(); err != nil {
			return fmt.Errorf("tids: %w", err)
		}
	}
	t, err := dev.Temperature()
	if err != nil {
		return err
	}
	env.Temperature = t
	return nil
}

// SenseContinuous continuously reads from the device and sends the output
// to the returned channel. To terminate the read, call Dev.Halt()
func (dev *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		return nil, errors.New("tids: SenseContinuous already running")
	}
	if interval < minSampleDuration {
		return nil, errors.New("tids: sample interval is < device sample rate")
	}
	dev.shutdown = make(chan struct{})
	return common.SenseLoop(interval, dev.shutdown, dev.Sense), nil
}

// Precision returns the 0.01 °C resolution of the output.
func (dev *Dev) Precision(env *physic.Env) {
	env.Temperature = 10 * physic.MilliKelvin
	env.Humidity = 0
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
	return dev.PowerDown()
}

func (dev *Dev) String() string {
	return fmt.Sprintf("tids: %s", dev.r)
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
