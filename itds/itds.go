// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package itds provides a driver for the Würth Elektronik WSEN-ITDS
// (2533020201601) three axis accelerometer.
//
// Besides acceleration the part has a temperature sensor, a 32 sample FIFO
// and embedded tap, free-fall, wake-up and 6D detection.
//
// Datasheet
//
//	https://www.we-online.com/components/products/datasheet/2533020201601.pdf
package itds

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
	DefaultAddress uint16 = 0x19
	// AlternateAddress is the address with the SAO pin pulled low.
	AlternateAddress uint16 = 0x18
	// DeviceIDValue is the content of the DEVICE_ID register.
	DeviceIDValue byte = 0x44

	regTempOutL  byte = 0x0d
	regDeviceID  byte = 0x0f
	regCtrl1     byte = 0x20
	regCtrl2     byte = 0x21
	regCtrl3     byte = 0x22
	regCtrl4     byte = 0x23
	regCtrl5     byte = 0x24
	regCtrl6     byte = 0x25
	regTempOut8  byte = 0x26
	regStatus    byte = 0x27
	regOutX      byte = 0x28
	regStatusDet byte = 0x37
	regOffsetX   byte = 0x3c
	regCtrl7     byte = 0x3f
)

const (
	conversionPoll    = time.Millisecond
	conversionTimeout = 100 * time.Millisecond
)

var (
	fieldPowerMode  = common.Field{Reg: regCtrl1, Mask: 0x03}
	fieldOpMode     = common.Field{Reg: regCtrl1, Mask: 0x0c}
	fieldODR        = common.Field{Reg: regCtrl1, Mask: 0xf0}
	fieldAutoInc    = common.Bit(regCtrl2, 2)
	fieldBDU        = common.Bit(regCtrl2, 3)
	fieldSoftReset  = common.Bit(regCtrl2, 6)
	fieldBoot       = common.Bit(regCtrl2, 7)
	fieldSlpMode1   = common.Bit(regCtrl3, 0)
	fieldSlpModeSel = common.Bit(regCtrl3, 1)
	fieldIntLevel   = common.Bit(regCtrl3, 3)
	fieldLatched    = common.Bit(regCtrl3, 4)
	fieldPinType    = common.Bit(regCtrl3, 5)
	fieldSelfTest   = common.Field{Reg: regCtrl3, Mask: 0xc0}
	fieldLowNoise   = common.Bit(regCtrl6, 2)
	fieldFilterPath = common.Bit(regCtrl6, 3)
	fieldFullScale  = common.Field{Reg: regCtrl6, Mask: 0x30}
	fieldBandwidth  = common.Field{Reg: regCtrl6, Mask: 0xc0}
	fieldTempReady  = common.Bit(regStatusDet, 6)
	fieldOffsetWt   = common.Bit(regCtrl7, 2)
	fieldOffsetWU   = common.Bit(regCtrl7, 3)
	fieldOffsetOut  = common.Bit(regCtrl7, 4)
	fieldIntEnable  = common.Bit(regCtrl7, 5)
	fieldInt1OnInt0 = common.Bit(regCtrl7, 6)
	fieldDRDYPulsed = common.Bit(regCtrl7, 7)
)

var (
	// ErrUnexpectedDevice is returned when the DEVICE_ID register does not
	// identify a WSEN-ITDS.
	ErrUnexpectedDevice = errors.New("itds: unexpected device id")
	// ErrTimeout is returned when a single conversion does not complete in
	// time.
	ErrTimeout = errors.New("itds: conversion timeout")
)

// OutputDataRate is the acceleration sampling rate. The rates in low power
// mode differ from high performance mode where noted.
type OutputDataRate byte

const (
	ODRPowerDown OutputDataRate = iota
	// ODR1_6Hz is 1.6 Hz in low power mode and 12.5 Hz in high performance
	// mode.
	ODR1_6Hz
	ODR12_5Hz
	ODR25Hz
	ODR50Hz
	ODR100Hz
	ODR200Hz
	// ODR400Hz is 200 Hz in low power mode.
	ODR400Hz
	// ODR800Hz is 200 Hz in low power mode.
	ODR800Hz
	// ODR1600Hz is 200 Hz in low power mode.
	ODR1600Hz
)

// OperatingMode is the CTRL_1 operating mode.
type OperatingMode byte

const (
	NormalOrLowPower OperatingMode = iota
	HighPerformance
	SingleConversion
)

// PowerMode is the CTRL_1 power mode, used in NormalOrLowPower and
// SingleConversion operation.
type PowerMode byte

const (
	LowPower PowerMode = iota
	Normal
)

// FullScale is the measurement range.
type FullScale byte

const (
	FullScale2G FullScale = iota
	FullScale4G
	FullScale8G
	FullScale16G
)

// Sensitivity returns the acceleration per count as num/den mg.
func (fs FullScale) Sensitivity() (num, den int32) {
	return [...]int32{61, 122, 244, 488}[fs&3], 1000
}

// Bandwidth is the digital filter cutoff relative to the output data rate.
type Bandwidth byte

const (
	BandwidthODR2 Bandwidth = iota
	BandwidthODR4
	BandwidthODR10
	BandwidthODR20
)

// FilterPath selects the filter applied to the output.
type FilterPath byte

const (
	LowPass FilterPath = iota
	HighPass
)

// SelfTest is the self test stimulus.
type SelfTest byte

const (
	SelfTestOff SelfTest = iota
	SelfTestPositive
	SelfTestNegative
)

// InterruptPinType is the output stage of the interrupt pins.
type InterruptPinType byte

const (
	PushPull InterruptPinType = iota
	OpenDrain
)

// InterruptLevel is the active level of the interrupt pins.
type InterruptLevel byte

const (
	ActiveHigh InterruptLevel = iota
	ActiveLow
)

// Status is the content of the STATUS register.
type Status struct {
	DataReady     bool
	FreeFall      bool
	SixD          bool
	SingleTap     bool
	DoubleTap     bool
	Sleep         bool
	WakeUp        bool
	FifoThreshold bool
}

// Opts holds the configuration applied by NewI2C.
type Opts struct {
	OutputDataRate OutputDataRate
	OperatingMode  OperatingMode
	PowerMode      PowerMode
	FullScale      FullScale
}

// DefaultOpts samples at 100 Hz in high performance mode with ±2 g range.
var DefaultOpts = Opts{
	OutputDataRate: ODR100Hz,
	OperatingMode:  HighPerformance,
	PowerMode:      Normal,
	FullScale:      FullScale2G,
}

// Dev is a handle to a WSEN-ITDS sensor.
type Dev struct {
	r  *common.Regs
	mu sync.Mutex
	// fs is the last full scale written or read, used for conversions.
	fs FullScale
}

// NewI2C returns a handle to the WSEN-ITDS at addr on bus b. A nil opts uses
// DefaultOpts.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	dev := &Dev{r: common.NewRegs(b, addr)}
	id, err := dev.DeviceID()
	if err != nil {
		return nil, err
	}
	if id != DeviceIDValue {
		return nil, fmt.Errorf("%w 0x%02x", ErrUnexpectedDevice, id)
	}
	if err := dev.setMode(opts.OutputDataRate, opts.OperatingMode, opts.PowerMode); err != nil {
		return nil, err
	}
	if err := dev.SetFullScale(opts.FullScale); err != nil {
		return nil, fmt.Errorf("itds: %w", err)
	}
	return dev, nil
}

// setMode enables block data update and auto increment, then writes the
// rate and modes in one CTRL_1 update.
func (dev *Dev) setMode(odr OutputDataRate, op OperatingMode, pm PowerMode) error {
	err := dev.r.Update(regCtrl2, func(v byte) (byte, error) {
		return v | fieldBDU.Mask | fieldAutoInc.Mask, nil
	})
	if err != nil {
		return fmt.Errorf("itds: %w", err)
	}
	err = dev.r.Update(regCtrl1, func(v byte) (byte, error) {
		v, err := fieldODR.Insert(v, byte(odr))
		if err != nil {
			return v, err
		}
		if v, err = fieldOpMode.Insert(v, byte(op)); err != nil {
			return v, err
		}
		return fieldPowerMode.Insert(v, byte(pm))
	})
	if err != nil {
		return fmt.Errorf("itds: %w", err)
	}
	return nil
}

// EnableDebug traces the register traffic with f.
func (dev *Dev) EnableDebug(f common.DebugF) {
	dev.r.EnableDebug(f)
}

// DeviceID reads the DEVICE_ID register.
func (dev *Dev) DeviceID() (byte, error) {
	id, err := dev.r.ReadUint8(regDeviceID)
	if err != nil {
		return 0, fmt.Errorf("itds: error reading device id %w", err)
	}
	return id, nil
}

// SetHighPerformanceMode samples at odr in high performance mode.
func (dev *Dev) SetHighPerformanceMode(odr OutputDataRate) error {
	return dev.setMode(odr, HighPerformance, Normal)
}

// SetNormalMode samples at odr in normal mode.
func (dev *Dev) SetNormalMode(odr OutputDataRate) error {
	return dev.setMode(odr, NormalOrLowPower, Normal)
}

// SetLowPowerMode samples at odr in low power mode.
func (dev *Dev) SetLowPowerMode(odr OutputDataRate) error {
	return dev.setMode(odr, NormalOrLowPower, LowPower)
}

// PowerDown stops sampling, keeping block data update and auto increment
// enabled.
func (dev *Dev) PowerDown() error {
	err := dev.r.Update(regCtrl2, func(v byte) (byte, error) {
		return v | fieldBDU.Mask | fieldAutoInc.Mask, nil
	})
	if err != nil {
		return fmt.Errorf("itds: %w", err)
	}
	return dev.SetOutputDataRate(ODRPowerDown)
}

// SetOutputDataRate sets the sampling rate.
func (dev *Dev) SetOutputDataRate(odr OutputDataRate) error {
	return dev.r.SetField(fieldODR, byte(odr))
}

// OutputDataRate returns the sampling rate.
func (dev *Dev) OutputDataRate() (OutputDataRate, error) {
	v, err := dev.r.Field(fieldODR)
	return OutputDataRate(v), err
}

// SetOperatingMode sets the operating mode.
func (dev *Dev) SetOperatingMode(m OperatingMode) error {
	return dev.r.SetField(fieldOpMode, byte(m))
}

// OperatingMode returns the operating mode.
func (dev *Dev) OperatingMode() (OperatingMode, error) {
	v, err := dev.r.Field(fieldOpMode)
	return OperatingMode(v), err
}

// SetPowerMode sets the power mode.
func (dev *Dev) SetPowerMode(m PowerMode) error {
	return dev.r.SetField(fieldPowerMode, byte(m))
}

// PowerMode returns the power mode.
func (dev *Dev) PowerMode() (PowerMode, error) {
	v, err := dev.r.Field(fieldPowerMode)
	return PowerMode(v), err
}

// SetFullScale sets the measurement range.
func (dev *Dev) SetFullScale(fs FullScale) error {
	if err := dev.r.SetField(fieldFullScale, byte(fs)); err != nil {
		return err
	}
	dev.mu.Lock()
	dev.fs = fs
	dev.mu.Unlock()
	return nil
}

// FullScale reads the measurement range.
func (dev *Dev) FullScale() (FullScale, error) {
	v, err := dev.r.Field(fieldFullScale)
	if err != nil {
		return 0, err
	}
	dev.mu.Lock()
	dev.fs = FullScale(v)
	dev.mu.Unlock()
	return FullScale(v), nil
}

// SetBandwidth sets the digital filter cutoff.
func (dev *Dev) SetBandwidth(bw Bandwidth) error {
	return dev.r.SetField(fieldBandwidth, byte(bw))
}

// Bandwidth returns the digital filter cutoff.
func (dev *Dev) Bandwidth() (Bandwidth, error) {
	v, err := dev.r.Field(fieldBandwidth)
	return Bandwidth(v), err
}

// SetFilterPath selects the low pass or high pass output path.
func (dev *Dev) SetFilterPath(p FilterPath) error {
	return dev.r.SetField(fieldFilterPath, byte(p))
}

// FilterPath returns the output filter path.
func (dev *Dev) FilterPath() (FilterPath, error) {
	v, err := dev.r.Field(fieldFilterPath)
	return FilterPath(v), err
}

// SetLowNoise enables the low noise configuration.
func (dev *Dev) SetLowNoise(on bool) error {
	return dev.r.SetFlag(fieldLowNoise, on)
}

// LowNoise returns the low noise state.
func (dev *Dev) LowNoise() (bool, error) {
	return dev.r.Flag(fieldLowNoise)
}

// SetSelfTest applies a self test stimulus.
func (dev *Dev) SetSelfTest(st SelfTest) error {
	return dev.r.SetField(fieldSelfTest, byte(st))
}

// SelfTest returns the self test stimulus.
func (dev *Dev) SelfTest() (SelfTest, error) {
	v, err := dev.r.Field(fieldSelfTest)
	return SelfTest(v), err
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

// SoftReset resets the configuration registers. The bit clears itself.
func (dev *Dev) SoftReset() error {
	return dev.r.SetFlag(fieldSoftReset, true)
}

// SoftResetState reports whether the soft reset is still running.
func (dev *Dev) SoftResetState() (bool, error) {
	return dev.r.Flag(fieldSoftReset)
}

// Reboot reloads the trimming parameters.
func (dev *Dev) Reboot() error {
	return dev.r.SetFlag(fieldBoot, true)
}

// Rebooting reports whether the reboot is still running.
func (dev *Dev) Rebooting() (bool, error) {
	return dev.r.Flag(fieldBoot)
}

// SetInterruptPinType selects push-pull or open drain for the interrupt
// pins.
func (dev *Dev) SetInterruptPinType(t InterruptPinType) error {
	return dev.r.SetField(fieldPinType, byte(t))
}

// SetInterruptLevel selects the active level of the interrupt pins.
func (dev *Dev) SetInterruptLevel(l InterruptLevel) error {
	return dev.r.SetField(fieldIntLevel, byte(l))
}

// SetLatchedInterrupt latches event interrupts until their source register
// is read.
func (dev *Dev) SetLatchedInterrupt(on bool) error {
	return dev.r.SetFlag(fieldLatched, on)
}

// SetInterruptsEnabled enables the embedded function interrupts.
func (dev *Dev) SetInterruptsEnabled(on bool) error {
	return dev.r.SetFlag(fieldIntEnable, on)
}

// SetInt1OnInt0 routes all INT_1 signals to INT_0.
func (dev *Dev) SetInt1OnInt0(on bool) error {
	return dev.r.SetFlag(fieldInt1OnInt0, on)
}

// SetDataReadyPulsed makes data ready a pulse instead of a latched level.
func (dev *Dev) SetDataReadyPulsed(on bool) error {
	return dev.r.SetFlag(fieldDRDYPulsed, on)
}

// Status reads the STATUS register.
func (dev *Dev) Status() (Status, error) {
	v, err := dev.r.ReadUint8(regStatus)
	if err != nil {
		return Status{}, err
	}
	return Status{
		DataReady:     v&0x01 != 0,
		FreeFall:      v&0x02 != 0,
		SixD:          v&0x04 != 0,
		SingleTap:     v&0x08 != 0,
		DoubleTap:     v&0x10 != 0,
		Sleep:         v&0x20 != 0,
		WakeUp:        v&0x40 != 0,
		FifoThreshold: v&0x80 != 0,
	}, nil
}

// DataReady reports whether a new acceleration sample is available.
func (dev *Dev) DataReady() (bool, error) {
	s, err := dev.Status()
	return s.DataReady, err
}

// TemperatureReady reports whether a new temperature sample is available.
func (dev *Dev) TemperatureReady() (bool, error) {
	return dev.r.Flag(fieldTempReady)
}

// RawAcceleration reads the output registers of the three axes.
func (dev *Dev) RawAcceleration() (common.Axes, error) {
	b, err := dev.r.Read(regOutX, 6)
	if err != nil {
		return common.Axes{}, fmt.Errorf("itds: error reading acceleration %w", err)
	}
	return common.ReadAxes(b), nil
}

// Acceleration reads the acceleration converted with the current full scale.
func (dev *Dev) Acceleration() (common.Acceleration, error) {
	raw, err := dev.RawAcceleration()
	if err != nil {
		return common.Acceleration{}, err
	}
	return dev.convert(raw), nil
}

func (dev *Dev) convert(raw common.Axes) common.Acceleration {
	dev.mu.Lock()
	num, den := dev.fs.Sensitivity()
	dev.mu.Unlock()
	return raw.Acceleration(num, den)
}

// SingleConversion triggers one conversion in single conversion mode and
// returns the result. A sample left unread from before is discarded first so
// its data ready flag is not taken for the new conversion.
func (dev *Dev) SingleConversion() (common.Acceleration, error) {
	if err := dev.SetOperatingMode(SingleConversion); err != nil {
		return common.Acceleration{}, fmt.Errorf("itds: %w", err)
	}
	stale, err := dev.DataReady()
	if err != nil {
		return common.Acceleration{}, fmt.Errorf("itds: %w", err)
	}
	if stale {
		if _, err := dev.RawAcceleration(); err != nil {
			return common.Acceleration{}, fmt.Errorf("itds: %w", err)
		}
	}
	err = dev.r.Update(regCtrl3, func(v byte) (byte, error) {
		return v | fieldSlpModeSel.Mask | fieldSlpMode1.Mask, nil
	})
	if err != nil {
		return common.Acceleration{}, fmt.Errorf("itds: error triggering conversion %w", err)
	}
	deadline := time.Now().Add(conversionTimeout)
	for {
		ready, err := dev.DataReady()
		if err != nil {
			return common.Acceleration{}, fmt.Errorf("itds: %w", err)
		}
		if ready {
			break
		}
		if time.Now().After(deadline) {
			return common.Acceleration{}, ErrTimeout
		}
		time.Sleep(conversionPoll)
	}
	return dev.Acceleration()
}

// RawTemperature12 reads the 12 bit temperature output, left aligned.
func (dev *Dev) RawTemperature12() (int16, error) {
	return dev.r.ReadInt16(regTempOutL)
}

// RawTemperature8 reads the 8 bit temperature output.
func (dev *Dev) RawTemperature8() (int8, error) {
	v, err := dev.r.ReadUint8(regTempOut8)
	return int8(v), err
}

// Temperature reads the 12 bit temperature output.
func (dev *Dev) Temperature() (physic.Temperature, error) {
	raw, err := dev.RawTemperature12()
	if err != nil {
		return 0, fmt.Errorf("itds: error reading temperature %w", err)
	}
	return Temperature12(raw), nil
}

// Temperature8 reads the 8 bit temperature output, 1 °C resolution.
func (dev *Dev) Temperature8() (physic.Temperature, error) {
	raw, err := dev.RawTemperature8()
	if err != nil {
		return 0, fmt.Errorf("itds: error reading temperature %w", err)
	}
	return Temperature8(raw), nil
}

// Temperature12 converts the 12 bit output: 256 counts per °C, 0 at 25 °C.
func Temperature12(raw int16) physic.Temperature {
	return physic.ZeroCelsius + 25*physic.Kelvin + physic.Temperature(raw)*physic.Kelvin/256
}

// Temperature8 converts the 8 bit output: 1 count per °C, 0 at 25 °C.
func Temperature8(raw int8) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(25+int64(raw))*physic.Kelvin
}

// Halt powers the sensor down. Implements conn.Resource.
func (dev *Dev) Halt() error {
	return dev.PowerDown()
}

func (dev *Dev) String() string {
	return fmt.Sprintf("itds: %s", dev.r)
}

var _ conn.Resource = &Dev{}
