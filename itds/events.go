// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package itds

import (
	"fmt"

	"github.com/GermanBionicSystems/wsen/common"
)

const (
	regTapXThs     byte = 0x30
	regTapYThs     byte = 0x31
	regTapZThs     byte = 0x32
	regIntDur      byte = 0x33
	regWakeUpThs   byte = 0x34
	regWakeUpDur   byte = 0x35
	regFreeFall    byte = 0x36
	regWakeUpEvent byte = 0x38
	regTapEvent    byte = 0x39
	reg6DEvent     byte = 0x3a
	regAllEvents   byte = 0x3b
)

var (
	fieldTapThsX     = common.Field{Reg: regTapXThs, Mask: 0x1f}
	field6DThs       = common.Field{Reg: regTapXThs, Mask: 0x60}
	field4D          = common.Bit(regTapXThs, 7)
	fieldTapThsY     = common.Field{Reg: regTapYThs, Mask: 0x1f}
	fieldTapPriority = common.Field{Reg: regTapYThs, Mask: 0xe0}
	fieldTapThsZ     = common.Field{Reg: regTapZThs, Mask: 0x1f}
	fieldShock       = common.Field{Reg: regIntDur, Mask: 0x03}
	fieldQuiet       = common.Field{Reg: regIntDur, Mask: 0x0c}
	fieldLatency     = common.Field{Reg: regIntDur, Mask: 0xf0}
	fieldWakeUpThs   = common.Field{Reg: regWakeUpThs, Mask: 0x3f}
	fieldSleepOn     = common.Bit(regWakeUpThs, 6)
	fieldDoubleTap   = common.Bit(regWakeUpThs, 7)
	fieldSleepDur    = common.Field{Reg: regWakeUpDur, Mask: 0x0f}
	fieldStationary  = common.Bit(regWakeUpDur, 4)
	fieldWakeUpDur   = common.Field{Reg: regWakeUpDur, Mask: 0x60}
	fieldFreeFallDur = common.Bit(regWakeUpDur, 7)
	fieldFreeFallThs = common.Field{Reg: regFreeFall, Mask: 0x07}
	fieldFreeFallLow = common.Field{Reg: regFreeFall, Mask: 0xf8}
)

// Int0Signal is a set of signals routed to the INT_0 pin.
type Int0Signal byte

const (
	Int0DataReady Int0Signal = 1 << iota
	Int0FifoThreshold
	Int0FifoFull
	Int0DoubleTap
	Int0FreeFall
	Int0WakeUp
	Int0SingleTap
	Int06D
)

// Int1Signal is a set of signals routed to the INT_1 pin.
type Int1Signal byte

const (
	Int1DataReady Int1Signal = 1 << iota
	Int1FifoThreshold
	Int1FifoFull
	Int1FifoOverrun
	Int1TemperatureReady
	Int1Boot
	Int1SleepChange
	Int1SleepState
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

// TapPriority is the axis order used when a tap is seen on several axes.
type TapPriority byte

const (
	TapPriorityXYZ TapPriority = iota
	TapPriorityYXZ
	TapPriorityXZY
	TapPriorityZYX
	_
	TapPriorityYZX
	_
	TapPriorityZXY
)

// Axis flags used by TapAxes and the event sources.
type Axis byte

const (
	AxisZ Axis = 1 << iota
	AxisY
	AxisX
)

// WakeUpEvent is the content of the WAKE_UP_EVENT register.
type WakeUpEvent struct {
	Axes       Axis
	WakeUp     bool
	SleepState bool
	FreeFall   bool
}

// TapEvent is the content of the TAP_EVENT register.
type TapEvent struct {
	Axes Axis
	// Negative is set when the tap was in the negative direction.
	Negative  bool
	Tap       bool
	SingleTap bool
	DoubleTap bool
}

// OrientationEvent is the content of the SIXD_EVENT register. Each field is
// set when the axis is over the 6D threshold in that direction.
type OrientationEvent struct {
	XLow, XHigh bool
	YLow, YHigh bool
	ZLow, ZHigh bool
	Changed     bool
}

// AllEvents is the content of the ALL_INT_EVENT register.
type AllEvents struct {
	FreeFall    bool
	WakeUp      bool
	SingleTap   bool
	DoubleTap   bool
	SixD        bool
	SleepChange bool
}

// SetInt0Routing routes the signals in s to INT_0 and removes the others.
func (dev *Dev) SetInt0Routing(s Int0Signal) error {
	return dev.r.Write(regCtrl4, byte(s))
}

// Int0Routing returns the signals routed to INT_0.
func (dev *Dev) Int0Routing() (Int0Signal, error) {
	v, err := dev.r.ReadUint8(regCtrl4)
	return Int0Signal(v), err
}

// SetInt1Routing routes the signals in s to INT_1 and removes the others.
func (dev *Dev) SetInt1Routing(s Int1Signal) error {
	return dev.r.Write(regCtrl5, byte(s))
}

// Int1Routing returns the signals routed to INT_1.
func (dev *Dev) Int1Routing() (Int1Signal, error) {
	v, err := dev.r.ReadUint8(regCtrl5)
	return Int1Signal(v), err
}

// SetTapThresholds sets the 5 bit tap threshold of each axis, in steps of
// full scale / 32.
func (dev *Dev) SetTapThresholds(x, y, z byte) error {
	for _, t := range []struct {
		f common.Field
		v byte
	}{{fieldTapThsX, x}, {fieldTapThsY, y}, {fieldTapThsZ, z}} {
		if err := dev.r.SetField(t.f, t.v); err != nil {
			return fmt.Errorf("itds: tap threshold %w", err)
		}
	}
	return nil
}

// SetTapAxes enables tap detection on the axes in a.
func (dev *Dev) SetTapAxes(a Axis) error {
	return dev.r.Update(regTapZThs, func(v byte) (byte, error) {
		return v&^0xe0 | byte(a&7)<<5, nil
	})
}

// TapAxes returns the axes with tap detection enabled.
func (dev *Dev) TapAxes() (Axis, error) {
	v, err := dev.r.ReadUint8(regTapZThs)
	return Axis(v >> 5), err
}

// SetTapPriority sets the axis order for tap detection.
func (dev *Dev) SetTapPriority(p TapPriority) error {
	return dev.r.SetField(fieldTapPriority, byte(p))
}

// SetTapTiming sets the shock, quiet and latency windows of tap detection.
// Shock and quiet are 2 bit values, latency is 4 bit.
func (dev *Dev) SetTapTiming(shock, quiet, latency byte) error {
	return dev.r.Update(regIntDur, func(v byte) (byte, error) {
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

// Set4D restricts orientation detection to the X and Y axes.
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

// SetSleep enables the inactivity detection.
func (dev *Dev) SetSleep(on bool) error {
	return dev.r.SetFlag(fieldSleepOn, on)
}

// SetSleepDuration sets the 4 bit inactivity duration, in 512 samples.
func (dev *Dev) SetSleepDuration(v byte) error {
	return dev.r.SetField(fieldSleepDur, v)
}

// SetStationary keeps the output data rate during inactivity.
func (dev *Dev) SetStationary(on bool) error {
	return dev.r.SetFlag(fieldStationary, on)
}

// SetFreeFall configures free-fall detection. duration is 6 bit, in samples.
func (dev *Dev) SetFreeFall(th FreeFallThreshold, duration byte) error {
	if duration > 0x3f {
		return fmt.Errorf("itds: %w: free-fall duration %d", common.ErrFieldRange, duration)
	}
	err := dev.r.Update(regFreeFall, func(v byte) (byte, error) {
		v, err := fieldFreeFallThs.Insert(v, byte(th))
		if err != nil {
			return v, err
		}
		return fieldFreeFallLow.Insert(v, duration&0x1f)
	})
	if err != nil {
		return fmt.Errorf("itds: %w", err)
	}
	return dev.r.SetFlag(fieldFreeFallDur, duration&0x20 != 0)
}

// SetOffsets writes the user offset of each axis. The weight is 0.977 mg per
// count or 15.6 mg per count, see SetOffsetWeight.
func (dev *Dev) SetOffsets(x, y, z int8) error {
	return dev.r.Write(regOffsetX, byte(x), byte(y), byte(z))
}

// Offsets reads the user offset of each axis.
func (dev *Dev) Offsets() (x, y, z int8, err error) {
	b, err := dev.r.Read(regOffsetX, 3)
	if err != nil {
		return 0, 0, 0, err
	}
	return int8(b[0]), int8(b[1]), int8(b[2]), nil
}

// SetOffsetWeight selects 15.6 mg per count when coarse is true.
func (dev *Dev) SetOffsetWeight(coarse bool) error {
	return dev.r.SetFlag(fieldOffsetWt, coarse)
}

// SetOffsetOnOutput applies the user offsets to the output registers.
func (dev *Dev) SetOffsetOnOutput(on bool) error {
	return dev.r.SetFlag(fieldOffsetOut, on)
}

// SetOffsetOnWakeUp applies the user offsets to wake-up detection.
func (dev *Dev) SetOffsetOnWakeUp(on bool) error {
	return dev.r.SetFlag(fieldOffsetWU, on)
}

// WakeUpEvent reads WAKE_UP_EVENT.
func (dev *Dev) WakeUpEvent() (WakeUpEvent, error) {
	v, err := dev.r.ReadUint8(regWakeUpEvent)
	if err != nil {
		return WakeUpEvent{}, err
	}
	return WakeUpEvent{
		Axes:       Axis(v & 7),
		WakeUp:     v&0x08 != 0,
		SleepState: v&0x10 != 0,
		FreeFall:   v&0x20 != 0,
	}, nil
}

// TapEvent reads TAP_EVENT.
func (dev *Dev) TapEvent() (TapEvent, error) {
	v, err := dev.r.ReadUint8(regTapEvent)
	if err != nil {
		return TapEvent{}, err
	}
	return TapEvent{
		Axes:      Axis(v & 7),
		Negative:  v&0x08 != 0,
		Tap:       v&0x10 != 0,
		SingleTap: v&0x20 != 0,
		DoubleTap: v&0x40 != 0,
	}, nil
}

// OrientationEvent reads SIXD_EVENT.
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

// AllEvents reads ALL_INT_EVENT. Reading it clears latched interrupts.
func (dev *Dev) AllEvents() (AllEvents, error) {
	v, err := dev.r.ReadUint8(regAllEvents)
	if err != nil {
		return AllEvents{}, err
	}
	return AllEvents{
		FreeFall:    v&0x01 != 0,
		WakeUp:      v&0x02 != 0,
		SingleTap:   v&0x04 != 0,
		DoubleTap:   v&0x08 != 0,
		SixD:        v&0x10 != 0,
		SleepChange: v&0x20 != 0,
	}, nil
}
