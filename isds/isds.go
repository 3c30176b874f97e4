// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package isds provides a driver for the Würth Elektronik WSEN-ISDS
// (2536030320001) six axis inertial measurement unit.
//
// The part combines an accelerometer, a gyroscope and a temperature sensor
// with a 4 kB FIFO, a timestamp counter and embedded tap, free-fall,
// wake-up, 6D and tilt detection.
//
// Datasheet
//
//	https://www.we-online.com/components/products/datasheet/2536030320001.pdf
package isds

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/wsen/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	// DefaultAddress is the address with the SAO pin pulled low.
	DefaultAddress uint16 = 0x6a
	// AlternateAddress is the address with the SAO pin pulled high.
	AlternateAddress uint16 = 0x6b
	// DeviceIDValue is the content of the DEVICE_ID register.
	DeviceIDValue byte = 0x6a

	regDrdyPulseCfg byte = 0x0b
	regInt0Ctrl     byte = 0x0d
	regInt1Ctrl     byte = 0x0e
	regDeviceID     byte = 0x0f
	regCtrl1        byte = 0x10
	regCtrl2        byte = 0x11
	regCtrl3        byte = 0x12
	regCtrl4        byte = 0x13
	regCtrl5        byte = 0x14
	regCtrl6        byte = 0x15
	regCtrl7        byte = 0x16
	regCtrl8        byte = 0x17
	regCtrl10       byte = 0x19
	regStatus       byte = 0x1e
	regOutTemp      byte = 0x20
	regOutGyro      byte = 0x22
	regOutAcc       byte = 0x28
)

var (
	fieldAccAnalogBW   = common.Bit(regCtrl1, 0)
	fieldAccLPF1BW     = common.Bit(regCtrl1, 1)
	fieldAccFullScale  = common.Field{Reg: regCtrl1, Mask: 0x0c}
	fieldAccODR        = common.Field{Reg: regCtrl1, Mask: 0xf0}
	fieldGyroFullScale = common.Field{Reg: regCtrl2, Mask: 0x0e}
	fieldGyroODR       = common.Field{Reg: regCtrl2, Mask: 0xf0}
	fieldSoftReset     = common.Bit(regCtrl3, 0)
	fieldAutoInc       = common.Bit(regCtrl3, 2)
	fieldPinType       = common.Bit(regCtrl3, 4)
	fieldIntLevel      = common.Bit(regCtrl3, 5)
	fieldBDU           = common.Bit(regCtrl3, 6)
	fieldBoot          = common.Bit(regCtrl3, 7)
	fieldI2CDisable    = common.Bit(regCtrl4, 2)
	fieldDrdyMask      = common.Bit(regCtrl4, 3)
	fieldInt1OnInt0    = common.Bit(regCtrl4, 5)
	fieldGyroSleep     = common.Bit(regCtrl4, 6)
	fieldAccSelfTest   = common.Field{Reg: regCtrl5, Mask: 0x03}
	fieldGyroSelfTest  = common.Field{Reg: regCtrl5, Mask: 0x0c}
	fieldRounding      = common.Field{Reg: regCtrl5, Mask: 0xe0}
	fieldAccHPDisable  = common.Bit(regCtrl6, 4)
	fieldGyroHPDisable = common.Bit(regCtrl7, 7)
	fieldDrdyPulsed    = common.Bit(regDrdyPulseCfg, 7)
)

var (
	// ErrUnexpectedDevice is returned when the DEVICE_ID register does not
	// identify a WSEN-ISDS.
	ErrUnexpectedDevice = errors.New("isds: unexpected device id")
	// ErrFullScale is returned for a full scale value the part does not
	// define.
	ErrFullScale = errors.New("isds: invalid full scale")
)

// OutputDataRate is the sampling rate of the accelerometer, the gyroscope or
// the FIFO.
type OutputDataRate byte

const (
	ODROff OutputDataRate = iota
	ODR12_5Hz
	ODR26Hz
	ODR52Hz
	ODR104Hz
	ODR208Hz
	ODR416Hz
	ODR833Hz
	ODR1660Hz
	ODR3330Hz
	ODR6660Hz
	// ODR1_6Hz is only available for the accelerometer in low power mode.
	ODR1_6Hz
)

// AccFullScale is the accelerometer measurement range. The register
// encoding is not monotonic.
type AccFullScale byte

const (
	FullScale2G  AccFullScale = 0
	FullScale16G AccFullScale = 1
	FullScale4G  AccFullScale = 2
	FullScale8G  AccFullScale = 3
)

// GyroFullScale is the gyroscope measurement range.
type GyroFullScale byte

const (
	FullScale250dps  GyroFullScale = 0
	FullScale125dps  GyroFullScale = 1
	FullScale500dps  GyroFullScale = 2
	FullScale1000dps GyroFullScale = 4
	FullScale2000dps GyroFullScale = 6
)

// PerformanceMode is a preset for both sensors, see SetPerformanceMode.
type PerformanceMode byte

const (
	LowPower PerformanceMode = iota
	Normal
	HighPerformance
)

// AccSelfTest is the accelerometer self test stimulus.
type AccSelfTest byte

const (
	AccSelfTestOff AccSelfTest = iota
	AccSelfTestPositive
	AccSelfTestNegative
)

// GyroSelfTest is the gyroscope self test stimulus.
type GyroSelfTest byte

const (
	GyroSelfTestOff      GyroSelfTest = 0
	GyroSelfTestPositive GyroSelfTest = 1
	GyroSelfTestNegative GyroSelfTest = 3
)

// Rounding selects which output registers a burst read wraps around.
type Rounding byte

const (
	NoRounding Rounding = iota
	RoundingAcc
	RoundingGyro
	RoundingGyroAndAcc
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
	AccDataReady         bool
	GyroDataReady        bool
	TemperatureDataReady bool
}

// Measurement is one burst read of all output registers.
type Measurement struct {
	Temperature  physic.Temperature
	AngularRate  common.AngularRate
	Acceleration common.Acceleration
}

// Opts holds the configuration applied by NewI2C.
type Opts struct {
	AccOutputDataRate  OutputDataRate
	GyroOutputDataRate OutputDataRate
	AccFullScale       AccFullScale
	GyroFullScale      GyroFullScale
}

// DefaultOpts samples both sensors at 104 Hz with ±2 g and ±250 dps range.
var DefaultOpts = Opts{
	AccOutputDataRate:  ODR104Hz,
	GyroOutputDataRate: ODR104Hz,
	AccFullScale:       FullScale2G,
	GyroFullScale:      FullScale250dps,
}

// Dev is a handle to a WSEN-ISDS sensor.
type Dev struct {
	r *common.Regs

	mu sync.Mutex
	// Full scales last written or read, used for conversions.
	accFS  AccFullScale
	gyroFS GyroFullScale
}

// NewI2C returns a handle to the WSEN-ISDS at addr on bus b. A nil opts uses
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
	if err := dev.enableBurstReads(); err != nil {
		return nil, err
	}
	if err := dev.setAcc(opts.AccOutputDataRate, opts.AccFullScale); err != nil {
		return nil, err
	}
	if err := dev.setGyro(opts.GyroOutputDataRate, opts.GyroFullScale); err != nil {
		return nil, err
	}
	return dev, nil
}

func (dev *Dev) enableBurstReads() error {
	err := dev.r.Update(regCtrl3, func(v byte) (byte, error) {
		return v | fieldBDU.Mask | fieldAutoInc.Mask, nil
	})
	if err != nil {
		return fmt.Errorf("isds: %w", err)
	}
	return nil
}

func (dev *Dev) setAcc(odr OutputDataRate, fs AccFullScale) error {
	err := dev.r.Update(regCtrl1, func(v byte) (byte, error) {
		v, err := fieldAccODR.Insert(v, byte(odr))
		if err != nil {
			return v, err
		}
		return fieldAccFullScale.Insert(v, byte(fs))
	})
	if err != nil {
		return fmt.Errorf("isds: accelerometer %w", err)
	}
	dev.mu.Lock()
	dev.accFS = fs
	dev.mu.Unlock()
	return nil
}

func (dev *Dev) setGyro(odr OutputDataRate, fs GyroFullScale) error {
	if _, _, err := fs.Sensitivity(); err != nil {
		return err
	}
	err := dev.r.Update(regCtrl2, func(v byte) (byte, error) {
		v, err := fieldGyroODR.Insert(v, byte(odr))
		if err != nil {
			return v, err
		}
		return fieldGyroFullScale.Insert(v, byte(fs))
	})
	if err != nil {
		return fmt.Errorf("isds: gyroscope %w", err)
	}
	dev.mu.Lock()
	dev.gyroFS = fs
	dev.mu.Unlock()
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
		return 0, fmt.Errorf("isds: error reading device id %w", err)
	}
	return id, nil
}

// SetPerformanceMode enables block data update and auto increment, selects
// ±16 g and ±2000 dps and runs both sensors at 52 Hz in LowPower mode or at
// 208 Hz otherwise. Only HighPerformance keeps the high performance
// circuitry enabled.
func (dev *Dev) SetPerformanceMode(m PerformanceMode) error {
	if err := dev.enableBurstReads(); err != nil {
		return err
	}
	odr := ODR208Hz
	if m == LowPower {
		odr = ODR52Hz
	}
	if err := dev.setAcc(odr, FullScale16G); err != nil {
		return err
	}
	if err := dev.setGyro(odr, FullScale2000dps); err != nil {
		return err
	}
	disable := m != HighPerformance
	if err := dev.r.SetFlag(fieldAccHPDisable, disable); err != nil {
		return fmt.Errorf("isds: %w", err)
	}
	if err := dev.r.SetFlag(fieldGyroHPDisable, disable); err != nil {
		return fmt.Errorf("isds: %w", err)
	}
	return nil
}

// PowerDown disables block data update and stops both sensors.
func (dev *Dev) PowerDown() error {
	if err := dev.r.SetFlag(fieldBDU, false); err != nil {
		return fmt.Errorf("isds: %w", err)
	}
	if err := dev.SetAccOutputDataRate(ODROff); err != nil {
		return fmt.Errorf("isds: %w", err)
	}
	if err := dev.SetGyroOutputDataRate(ODROff); err != nil {
		return fmt.Errorf("isds: %w", err)
	}
	return nil
}

// SetAccOutputDataRate sets the accelerometer sampling rate.
func (dev *Dev) SetAccOutputDataRate(odr OutputDataRate) error {
	return dev.r.SetField(fieldAccODR, byte(odr))
}

// AccOutputDataRate returns the accelerometer sampling rate.
func (dev *Dev) AccOutputDataRate() (OutputDataRate, error) {
	v, err := dev.r.Field(fieldAccODR)
	return OutputDataRate(v), err
}

// SetGyroOutputDataRate sets the gyroscope sampling rate.
func (dev *Dev) SetGyroOutputDataRate(odr OutputDataRate) error {
	if odr == ODR1_6Hz {
		return fmt.Errorf("isds: %w: gyroscope rate %d", common.ErrFieldRange, odr)
	}
	return dev.r.SetField(fieldGyroODR, byte(odr))
}

// GyroOutputDataRate returns the gyroscope sampling rate.
func (dev *Dev) GyroOutputDataRate() (OutputDataRate, error) {
	v, err := dev.r.Field(fieldGyroODR)
	return OutputDataRate(v), err
}

// SetAccFullScale sets the accelerometer range.
func (dev *Dev) SetAccFullScale(fs AccFullScale) error {
	if err := dev.r.SetField(fieldAccFullScale, byte(fs)); err != nil {
		return err
	}
	dev.mu.Lock()
	dev.accFS = fs
	dev.mu.Unlock()
	return nil
}

// AccFullScale reads the accelerometer range.
func (dev *Dev) AccFullScale() (AccFullScale, error) {
	v, err := dev.r.Field(fieldAccFullScale)
	if err != nil {
		return 0, err
	}
	dev.mu.Lock()
	dev.accFS = AccFullScale(v)
	dev.mu.Unlock()
	return AccFullScale(v), nil
}

// SetGyroFullScale sets the gyroscope range.
func (dev *Dev) SetGyroFullScale(fs GyroFullScale) error {
	if _, _, err := fs.Sensitivity(); err != nil {
		return err
	}
	if err := dev.r.SetField(fieldGyroFullScale, byte(fs)); err != nil {
		return err
	}
	dev.mu.Lock()
	dev.gyroFS = fs
	dev.mu.Unlock()
	return nil
}

// GyroFullScale reads the gyroscope range.
func (dev *Dev) GyroFullScale() (GyroFullScale, error) {
	v, err := dev.r.Field(fieldGyroFullScale)
	if err != nil {
		return 0, err
	}
	fs := GyroFullScale(v)
	if _, _, err := fs.Sensitivity(); err != nil {
		return 0, err
	}
	dev.mu.Lock()
	dev.gyroFS = fs
	dev.mu.Unlock()
	return fs, nil
}

// SetAccHighPerformanceDisabled turns off the accelerometer high
// performance mode.
func (dev *Dev) SetAccHighPerformanceDisabled(off bool) error {
	return dev.r.SetFlag(fieldAccHPDisable, off)
}

// AccHighPerformanceDisabled reports whether the accelerometer high
// performance mode is off.
func (dev *Dev) AccHighPerformanceDisabled() (bool, error) {
	return dev.r.Flag(fieldAccHPDisable)
}

// SetGyroHighPerformanceDisabled turns off the gyroscope high performance
// mode.
func (dev *Dev) SetGyroHighPerformanceDisabled(off bool) error {
	return dev.r.SetFlag(fieldGyroHPDisable, off)
}

// GyroHighPerformanceDisabled reports whether the gyroscope high
// performance mode is off.
func (dev *Dev) GyroHighPerformanceDisabled() (bool, error) {
	return dev.r.Flag(fieldGyroHPDisable)
}

// SetGyroSleep puts the gyroscope in sleep mode.
func (dev *Dev) SetGyroSleep(on bool) error {
	return dev.r.SetFlag(fieldGyroSleep, on)
}

// GyroSleep returns the gyroscope sleep state.
func (dev *Dev) GyroSleep() (bool, error) {
	return dev.r.Flag(fieldGyroSleep)
}

// SetAccAnalogBandwidth400Hz selects the 400 Hz analog chain bandwidth
// instead of 1.5 kHz. It only applies at rates of 1.66 kHz and above.
func (dev *Dev) SetAccAnalogBandwidth400Hz(on bool) error {
	return dev.r.SetFlag(fieldAccAnalogBW, on)
}

// SetAccLPF1BandwidthODR4 selects ODR/4 instead of ODR/2 for the
// accelerometer LPF1.
func (dev *Dev) SetAccLPF1BandwidthODR4(on bool) error {
	return dev.r.SetFlag(fieldAccLPF1BW, on)
}

// SetAccSelfTest applies an accelerometer self test stimulus.
func (dev *Dev) SetAccSelfTest(st AccSelfTest) error {
	return dev.r.SetField(fieldAccSelfTest, byte(st))
}

// AccSelfTest returns the accelerometer self test stimulus.
func (dev *Dev) AccSelfTest() (AccSelfTest, error) {
	v, err := dev.r.Field(fieldAccSelfTest)
	return AccSelfTest(v), err
}

// SetGyroSelfTest applies a gyroscope self test stimulus.
func (dev *Dev) SetGyroSelfTest(st GyroSelfTest) error {
	return dev.r.SetField(fieldGyroSelfTest, byte(st))
}

// GyroSelfTest returns the gyroscope self test stimulus.
func (dev *Dev) GyroSelfTest() (GyroSelfTest, error) {
	v, err := dev.r.Field(fieldGyroSelfTest)
	return GyroSelfTest(v), err
}

// SetRounding selects the burst read wrap-around pattern.
func (dev *Dev) SetRounding(r Rounding) error {
	return dev.r.SetField(fieldRounding, byte(r))
}

// Rounding returns the burst read wrap-around pattern.
func (dev *Dev) Rounding() (Rounding, error) {
	v, err := dev.r.Field(fieldRounding)
	return Rounding(v), err
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

// SetI2CDisabled disables the I²C interface, leaving only SPI. The device
// stops answering on the bus afterwards.
func (dev *Dev) SetI2CDisabled(off bool) error {
	return dev.r.SetFlag(fieldI2CDisable, off)
}

// SetDataReadyMask masks data ready until the filters settled.
func (dev *Dev) SetDataReadyMask(on bool) error {
	return dev.r.SetFlag(fieldDrdyMask, on)
}

// SetDataReadyPulsed makes data ready a 75 µs pulse instead of a latched
// level.
func (dev *Dev) SetDataReadyPulsed(on bool) error {
	return dev.r.SetFlag(fieldDrdyPulsed, on)
}

// SetInt1OnInt0 ORs all interrupt signals onto INT_0.
func (dev *Dev) SetInt1OnInt0(on bool) error {
	return dev.r.SetFlag(fieldInt1OnInt0, on)
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

// Status reads the STATUS register.
func (dev *Dev) Status() (Status, error) {
	v, err := dev.r.ReadUint8(regStatus)
	if err != nil {
		return Status{}, err
	}
	return Status{
		AccDataReady:         v&0x01 != 0,
		GyroDataReady:        v&0x02 != 0,
		TemperatureDataReady: v&0x04 != 0,
	}, nil
}

// RawAcceleration reads the accelerometer output registers.
func (dev *Dev) RawAcceleration() (common.Axes, error) {
	b, err := dev.r.Read(regOutAcc, 6)
	if err != nil {
		return common.Axes{}, fmt.Errorf("isds: error reading acceleration %w", err)
	}
	return common.ReadAxes(b), nil
}

// Acceleration reads the acceleration converted with the cached full scale.
func (dev *Dev) Acceleration() (common.Acceleration, error) {
	raw, err := dev.RawAcceleration()
	if err != nil {
		return common.Acceleration{}, err
	}
	return dev.acceleration(raw), nil
}

// RawAngularRate reads the gyroscope output registers.
func (dev *Dev) RawAngularRate() (common.Axes, error) {
	b, err := dev.r.Read(regOutGyro, 6)
	if err != nil {
		return common.Axes{}, fmt.Errorf("isds: error reading angular rate %w", err)
	}
	return common.ReadAxes(b), nil
}

// AngularRate reads the angular rate converted with the cached full scale.
func (dev *Dev) AngularRate() (common.AngularRate, error) {
	raw, err := dev.RawAngularRate()
	if err != nil {
		return common.AngularRate{}, err
	}
	return dev.angularRate(raw), nil
}

// RawTemperature reads the temperature output.
func (dev *Dev) RawTemperature() (int16, error) {
	return dev.r.ReadInt16(regOutTemp)
}

// Temperature reads the die temperature.
func (dev *Dev) Temperature() (physic.Temperature, error) {
	raw, err := dev.RawTemperature()
	if err != nil {
		return 0, fmt.Errorf("isds: error reading temperature %w", err)
	}
	return Temperature(raw), nil
}

// Measure reads temperature, angular rate and acceleration in one burst.
func (dev *Dev) Measure() (Measurement, error) {
	b, err := dev.r.Read(regOutTemp, 14)
	if err != nil {
		return Measurement{}, fmt.Errorf("isds: error reading outputs %w", err)
	}
	return Measurement{
		Temperature:  Temperature(common.Int16LE(b)),
		AngularRate:  dev.angularRate(common.ReadAxes(b[2:])),
		Acceleration: dev.acceleration(common.ReadAxes(b[8:])),
	}, nil
}

func (dev *Dev) acceleration(raw common.Axes) common.Acceleration {
	dev.mu.Lock()
	num, den := dev.accFS.Sensitivity()
	dev.mu.Unlock()
	return raw.Acceleration(num, den)
}

func (dev *Dev) angularRate(raw common.Axes) common.AngularRate {
	dev.mu.Lock()
	num, den, _ := dev.gyroFS.Sensitivity()
	dev.mu.Unlock()
	return raw.AngularRate(num, den)
}

// Halt powers both sensors down. Implements conn.Resource.
func (dev *Dev) Halt() error {
	return dev.PowerDown()
}

func (dev *Dev) String() string {
	return fmt.Sprintf("isds: %s", dev.r)
}

var _ conn.Resource = &Dev{}
