// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tids

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// The limit registers hold (T / 0.64 °C) + 63. A register value of 0 disables
// the limit.

// SetHighLimitRaw writes the T_H_LIMIT register.
func (dev *Dev) SetHighLimitRaw(v byte) error {
	return dev.r.Write(regHighLimit, v)
}

// HighLimitRaw reads the T_H_LIMIT register.
func (dev *Dev) HighLimitRaw() (byte, error) {
	return dev.r.ReadUint8(regHighLimit)
}

// SetLowLimitRaw writes the T_L_LIMIT register.
func (dev *Dev) SetLowLimitRaw(v byte) error {
	return dev.r.Write(regLowLimit, v)
}

// LowLimitRaw reads the T_L_LIMIT register.
func (dev *Dev) LowLimitRaw() (byte, error) {
	return dev.r.ReadUint8(regLowLimit)
}

// SetHighLimit sets the temperature above which OverHighLimit is reported.
func (dev *Dev) SetHighLimit(t physic.Temperature) error {
	v, err := TemperatureToLimit(t)
	if err != nil {
		return err
	}
	return dev.SetHighLimitRaw(v)
}

// HighLimit returns the high limit. ok is false when the limit is disabled.
func (dev *Dev) HighLimit() (t physic.Temperature, ok bool, err error) {
	v, err := dev.HighLimitRaw()
	if err != nil {
		return 0, false, err
	}
	return LimitToTemperature(v), v != 0, nil
}

// SetLowLimit sets the temperature below which UnderLowLimit is reported.
func (dev *Dev) SetLowLimit(t physic.Temperature) error {
	v, err := TemperatureToLimit(t)
	if err != nil {
		return err
	}
	return dev.SetLowLimitRaw(v)
}

// LowLimit returns the low limit. ok is false when the limit is disabled.
func (dev *Dev) LowLimit() (t physic.Temperature, ok bool, err error) {
	v, err := dev.LowLimitRaw()
	if err != nil {
		return 0, false, err
	}
	return LimitToTemperature(v), v != 0, nil
}

// DisableLimits clears both limit registers.
func (dev *Dev) DisableLimits() error {
	if err := dev.SetHighLimitRaw(0); err != nil {
		return err
	}
	return dev.SetLowLimitRaw(0)
}

// LimitToTemperature converts a limit register value.
func LimitToTemperature(v byte) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(int(v)-limitOffset)*limitStep
}

// TemperatureToLimit converts a temperature to the nearest limit register
// value. Temperatures that would encode as 0 or above 255 are rejected.
func TemperatureToLimit(t physic.Temperature) (byte, error) {
	d := t - physic.ZeroCelsius
	steps := d / limitStep
	if rem := d % limitStep; rem >= limitStep/2 {
		steps++
	} else if rem <= -limitStep/2 {
		steps--
	}
	v := int64(steps) + limitOffset
	if v < 1 || v > 255 {
		return 0, fmt.Errorf("%w: %s", ErrLimitRange, t)
	}
	return byte(v), nil
}
