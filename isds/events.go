// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package isds

import (
	"fmt"

	"github.com/GermanBionicSystems/wsen/common"
)

const (
	regWakeUpEvent byte = 0x1b
	regTapEvent    byte = 0x1c
	reg6DEvent     byte = 0x1d
	regFuncSrc1    byte = 0x53
	regTapCfg      byte = 0x58
	regTapThs6D    byte = 0x59
	regIntDur2     byte = 0x5a
	regWakeUpThs   byte = 0x5b
	regFreeFall    byte = 0x5d
	regMD1Cfg      byte = 0x5e
	regMD2Cfg      byte = 0x5f
	regOffsetX     byte = 0x73
)

var (
	fieldLatched      = common.Bit(regTapCfg, 0)
	fieldTapAxes      = common.Field{Reg: regTapCfg, Mask: 0x0e}
	fieldActivityHP   = common.Bit(regTapCfg, 4)
	fieldInactivity   = common.Field{Reg: regTapCfg, Mask: 0x60}
	fieldIntEnable    = common.Bit(regTapCfg, 7)
	fieldTapThs       = common.Field{Reg: regTapThs6D, Mask: 0x1f}
	field6DThs        = common.Field{Reg: regTapThs6D, Mask: 0x60}
	field4D           = common.Bit(regTapThs6D, 7)
	fieldShock        = common.Field{Reg: regIntDur2, Mask: 0x03}
	fieldQuiet        = common.Field{Reg: regIntDur2, Mask: 0x0c}
	fieldLatency      = common.Field{Reg: regIntDur2, Mask: 0xf0}
	fieldWakeUpThs    = common.Field{Reg: regWakeUpThs, Mask: 0x3f}
	fieldDoubleTap    = common.Bit(regWakeUpThs, 7)
	fieldSleepDur     = common.Field{Reg: regWakeUpDur, Mask: 0x0f}
	fieldWakeUpDur    = common.Field{Reg: regWakeUpDur, Mask: 0x60}
	fieldFreeFallDur5 = common.Bit(regWakeUpDur, 7)
	fieldFreeFallThs  = common.Field{Reg: regFreeFall, Mask: 0x07}
	fieldFreeFallDur  = common.Field{Reg: regFreeFall, Mask: 0xf8}
	fieldEmbedded     = common.Bit(regCtrl10, 2)
	fieldTilt         = common.Bit(regCtrl10, 3)
	fieldOffsetWeight = common.Bit(regCtrl6, 3)
)

// DataSignal is a set of data and FIFO signals routed by INT0_CTRL or
// INT1_CTRL. Boot is only available on INT_0, temperature data ready only on
// INT_1.
type DataSignal byte

const (
	SignalAccDataReady DataSignal = 1 << iota
	SignalGyroDataReady
	// SignalBootOrTemperature is boot status on INT_0 and temperature data
	// ready on INT_1.
	SignalBootOrTemperature
	SignalFifoThreshold
	SignalFifoOverrun
	SignalFifoFull
)

// Function is a set of embedded functions routed by MD1_CFG or MD2_CFG.
// FunctionTimer is only available on INT_0.
type Function byte

const (
	FunctionTimer Function = 1 << iota
	FunctionTilt
	Function6D
	FunctionDoubleTap
	FunctionFreeFall
	FunctionWakeUp
	FunctionSingleTap
	FunctionInactivity
)

// Axis flags used by the tap configuration and the event sources.
type Axis byte

const (
	AxisZ Axis = 1 << iota
	AxisY
	AxisX
)

// Inactivity selects what happens to the sensors during inactivity.
type Inactivity byte

const (
	InactivityDisabled Inactivity = iota
	// InactivityGyroUnchanged drops the accelerometer to 12.5 Hz.
	InactivityGyroUnchanged
	// InactivityGyroSleep drops the accelerometer to 12.5 Hz and puts the
	// gyroscope to sleep.
	InactivityGyroSleep
	// InactivityGyroPowerDown drops the accelerometer to 12.5 Hz and powers
	// the gyroscope down.
	InactivityGyroPowerDown
)

// FreeFallThreshold is the free-fall detection threshold.
type FreeFallThreshold byte

const (
	FreeFall156mg FreeFallThreshold = iota
	FreeFall219mg
	FreeFall250mg
	FreeFall312mg
	FreeFall344mg
	FreeFall406mg
	FreeFall469mg
	FreeFall500mg
)

// WakeUpEvent is the content of the WAKE_UP_SRC register.
type WakeUpEvent struct {
	Axes     Axis
	WakeUp   bool
	Sleep    bool
	FreeFall bool
}

// TapEvent is the content of the TAP_SRC register.
type TapEvent struct {
	Axes Axis
	// Negative is set when the tap was in the negative direction.
	Negative  bool
	DoubleTap bool
	SingleTap bool
	Tap       bool
}

// OrientationEvent is the content of the D6D_SRC register.
type OrientationEvent struct {
	XLow, XHigh bool
	YLow, YHigh bool
	ZLow, ZHigh bool
	Changed     bool
}

// SetInt0Signals routes the signals in s to INT_0 and removes the others.
func (dev *Dev) SetInt0Signals(s DataSignal) error {
	return dev.r.Write(regInt0Ctrl, byte(s))
}

// Int0Signals returns the signals routed to INT_0.
func (dev *Dev) Int0Signals() (DataSignal, error) {
	v, err := dev.r.ReadUint8(regInt0Ctrl)
	return DataSignal(v), err
}

// SetInt1Signals routes the signals in s to INT_1 and removes the others.
func (dev *Dev) SetInt1Signals(s DataSignal) error {
	return dev.r.Write(regInt1Ctrl, byte(s))
}

// Int1Signals returns the signals routed to INT_1.
func (dev *Dev) Int1Signals() (DataSignal, error) {
	v, err := dev.r.ReadUint8(regInt1Ctrl)
	return DataSignal(v), err
}

// SetInt0Functions routes the embedded functions in f to INT_0.
func (dev *Dev) SetInt0Functions(f Function) error {
	return dev.r.Write(regMD1Cfg, byte(f))
}

// Int0Functions returns the embedded functions routed to INT_0.
func (dev *Dev) Int0Functions() (Function, error) {
	v, err := dev.r.ReadUint8(regMD1Cfg)
	return Function(v), err
}

// SetInt1Functions routes the embedded functions in f to INT_1.
func (dev *Dev) SetInt1Functions(f Function) error {
	if f&FunctionTimer != 0 {
		return fmt.Errorf("isds: %w: timer can not be routed to INT_1", common.ErrFieldRange)
	}
	return dev.r.Write(regMD2Cfg, byte(f))
}

// Int1Functions returns the embedded functions routed to INT_1.
func (dev *Dev) Int1Functions() (Function, error) {
	v, err := dev.r.ReadUint8(regMD2Cfg)
	return Function(v), err
}

// SetInterruptsEnabled enables the basic interrupts: 6D/4D, free-fall,
// wake-up, tap and inactivity.
func (dev *Dev) SetInterruptsEnabled(on bool) error {
	return dev.r.SetFlag(fieldIntEnable, on)
}

// SetLatchedInterrupt latches event interrupts until their source register
// is read.
func (dev *Dev) SetLatchedInterrupt(on bool) error {
	return dev.r.SetFlag(fieldLatched, on)
}

// SetEmbeddedFunctions enables the embedded functions and the accelerometer
// filters they use.
func (dev *Dev) SetEmbeddedFunctions(on bool) error {
	return dev.r.SetFlag(fieldEmbedded, on)
}

// SetTilt enables tilt detection. Embedded functions must be enabled too.
func (dev *Dev) SetTilt(on bool) error {
	return dev.r.SetFlag(fieldTilt, on)
}

// SetTapAxes enables tap detection on the axes in a.
func (dev *Dev) SetTapAxes(a Axis) error {
	return dev.r.SetField(fieldTapAxes, byte(a&7))
}

// TapAxes returns the axes with tap detection enabled.
func (dev *Dev) TapAxes() (Axis, error) {
	v, err := dev.r.Field(fieldTapAxes)
	return Axis(v), err
}

// SetTapThreshold sets the 5 bit tap threshold in steps of full scale / 32.
func (dev *Dev) SetTapThreshold(v byte) error {
	return dev.r.SetField(fieldTapThs, v)
}

// SetTapTiming sets the shock, quiet and latency windows of tap detection.
// Shock and quiet are 2 bit values, latency is 4 bit.
func (dev *Dev) SetTapTiming(shock, quiet, latency byte) error {
	return dev.r.Update(regIntDur2, func(v byte) (byte, error) {
		v, err := fieldShock.Insert(v, shock)
		if err != nil {
			return v, err
		}
		if v, err = fieldQuiet.Insert(v, quiet); err != nil {
			return v, err
		}
		return fieldLatency.Insert(v, latency)
	})
}

// SetDoubleTap enables double tap detection alongside single tap.
func (dev *Dev) SetDoubleTap(on bool) error {
	return dev.r.SetFlag(fieldDoubleTap, on)
}

// Set6DThreshold sets the 6D threshold: 0 is 80°, 1 is 70°, 2 is 60° and 3
// is 50°.
func (dev *Dev) Set6DThreshold(v byte) error {
	return dev.r.SetField(field6DThs, v)
}

// Set4D restricts orientation detection to portrait and landscape.
func (dev *Dev) Set4D(on bool) error {
	return dev.r.SetFlag(field4D, on)
}

// SetWakeUpThreshold sets the 6 bit wake-up threshold in steps of full
// scale / 64.
func (dev *Dev) SetWakeUpThreshold(v byte) error {
	return dev.r.SetField(fieldWakeUpThs, v)
}

// SetWakeUpDuration sets the 2 bit wake-up duration in samples.
func (dev *Dev) SetWakeUpDuration(v byte) error {
	return dev.r.SetField(fieldWakeUpDur, v)
}

// SetSleepDuration sets the 4 bit inactivity duration, in 512 samples.
func (dev *Dev) SetSleepDuration(v byte) error {
	return dev.r.SetField(fieldSleepDur, v)
}

// SetInactivity selects the inactivity behavior.
func (dev *Dev) SetInactivity(i Inactivity) error {
	return dev.r.SetField(fieldInactivity, byte(i))
}

// SetActivityHighPass applies the high pass filter instead of the slope
// filter to wake-up and activity detection.
func (dev *Dev) SetActivityHighPass(on bool) error {
	return dev.r.SetFlag(fieldActivityHP, on)
}

// SetFreeFall configures free-fall detection. duration is 6 bit, in samples.
func (dev *Dev) SetFreeFall(th FreeFallThreshold, duration byte) error {
	if duration > 0x3f {
		return fmt.Errorf("isds: %w: free-fall duration %d", common.ErrFieldRange, duration)
	}
	err := dev.r.Update(regFreeFall, func(v byte) (byte, error) {
		v, err := fieldFreeFallThs.Insert(v, byte(th))
		if err != nil {
			return v, err
		}
		return fieldFreeFallDur.Insert(v, duration&0x1f)
	})
	if err != nil {
		return fmt.Errorf("isds: %w", err)
	}
	return dev.r.SetFlag(fieldFreeFallDur5, duration&0x20 != 0)
}

// SetOffsets writes the accelerometer user offset of each axis.
func (dev *Dev) SetOffsets(x, y, z int8) error {
	return dev.r.Write(regOffsetX, byte(x), byte(y), byte(z))
}

// Offsets reads the accelerometer user offset of each axis.
func (dev *Dev) Offsets() (x, y, z int8, err error) {
	b, err := dev.r.Read(regOffsetX, 3)
	if err != nil {
		return 0, 0, 0, err
	}
	return int8(b[0]), int8(b[1]), int8(b[2]), nil
}

// SetOffsetWeight selects 2^-6 g per count when coarse is true and 2^-10 g
// otherwise.
func (dev *Dev) SetOffsetWeight(coarse bool) error {
	return dev.r.SetFlag(fieldOffsetWeight, coarse)
}

// WakeUpEvent reads WAKE_UP_SRC.
func (dev *Dev) WakeUpEvent() (WakeUpEvent, error) {
	v, err := dev.r.ReadUint8(regWakeUpEvent)
	if err != nil {
		return WakeUpEvent{}, err
	}
	return WakeUpEvent{
		Axes:     Axis(v & 7),
		WakeUp:   v&0x08 != 0,
		Sleep:    v&0x10 != 0,
		FreeFall: v&0x20 != 0,
	}, nil
}

// TapEvent reads TAP_SRC.
func (dev *Dev) TapEvent() (TapEvent, error) {
	v, err := dev.r.ReadUint8(regTapEvent)
	if err != nil {
		return TapEvent{}, err
	}
	return TapEvent{
		Axes:      Axis(v & 7),
		Negative:  v&0x08 != 0,
		DoubleTap: v&0x10 != 0,
		SingleTap: v&0x20 != 0,
		Tap:       v&0x40 != 0,
	}, nil
}

// OrientationEvent reads D6D_SRC.
func (dev *Dev) OrientationEvent() (OrientationEvent, error) {
	v, err := dev.r.ReadUint8(reg6DEvent)
	if err != nil {
		return OrientationEvent{}, err
	}
	return OrientationEvent{
		XLow: v&0x01 != 0, XHigh: v&0x02 != 0,
		YLow: v&0x04 != 0, YHigh: v&0x08 != 0,
		ZLow: v&0x10 != 0, ZHigh: v&0x20 != 0,
		Changed: v&0x40 != 0,
	}, nil
}

// TiltEvent reports whether a tilt was detected.
func (dev *Dev) TiltEvent() (bool, error) {
	v, err := dev.r.ReadUint8(regFuncSrc1)
	return v&0x20 != 0, err
}
