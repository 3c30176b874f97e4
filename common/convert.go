// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Int16LE assembles a signed value from the low byte b[0] and high byte b[1].
func Int16LE(b []byte) int16 {
	return int16(Uint16LE(b))
}

// Uint16LE assembles an unsigned value from the low byte b[0] and high byte
// b[1].
func Uint16LE(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

// Uint16BE assembles an unsigned value from the high byte b[0] and low byte
// b[1].
func Uint16BE(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

// Int24LE assembles a sign extended 24 bit value from three bytes, least
// significant first.
func Int24LE(b []byte) int32 {
	v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	return v << 8 >> 8
}

// Scale returns raw*num/den, truncated toward zero.
func Scale(raw int16, num, den int32) int32 {
	return int32(raw) * num / den
}

// CentiCelsius converts a value in hundredths of a degree Celsius.
func CentiCelsius(v int32) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(v)*10*physic.MilliKelvin
}

// Acceleration is a three axis acceleration in mg.
type Acceleration struct {
	X, Y, Z int16
}

// G returns the acceleration in units of standard gravity.
func (a Acceleration) G() (x, y, z float32) {
	return float32(a.X) / 1000, float32(a.Y) / 1000, float32(a.Z) / 1000
}

func (a Acceleration) String() string {
	return fmt.Sprintf("X:%dmg Y:%dmg Z:%dmg", a.X, a.Y, a.Z)
}

// AngularRate is a three axis angular rate in mdps (millidegrees per second).
type AngularRate struct {
	X, Y, Z int32
}

// DPS returns the angular rate in degrees per second.
func (r AngularRate) DPS() (x, y, z float32) {
	return float32(r.X) / 1000, float32(r.Y) / 1000, float32(r.Z) / 1000
}

func (r AngularRate) String() string {
	return fmt.Sprintf("X:%dmdps Y:%dmdps Z:%dmdps", r.X, r.Y, r.Z)
}

// Axes is a raw three axis sample, as read from the output registers.
type Axes struct {
	X, Y, Z int16
}

// ReadAxes decodes six bytes of little endian X, Y and Z values.
func ReadAxes(b []byte) Axes {
	return Axes{X: Int16LE(b[0:]), Y: Int16LE(b[2:]), Z: Int16LE(b[4:])}
}

// Acceleration scales raw axes by num/den into mg.
func (a Axes) Acceleration(num, den int32) Acceleration {
	return Acceleration{
		X: int16(Scale(a.X, num, den)),
		Y: int16(Scale(a.Y, num, den)),
		Z: int16(Scale(a.Z, num, den)),
	}
}

// AngularRate scales raw axes by num/den into mdps.
func (a Axes) AngularRate(num, den int32) AngularRate {
	return AngularRate{
		X: Scale(a.X, num, den),
		Y: Scale(a.Y, num, den),
		Z: Scale(a.Z, num, den),
	}
}
