// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hids

import (
	"fmt"

	"github.com/GermanBionicSystems/wsen/common"
	"periph.io/x/conn/v3/physic"
)

// Calibration holds the two factory calibration points of each quantity.
type Calibration struct {
	// H0RHx2 and H1RHx2 are the humidity calibration points in 0.5 %RH.
	H0RHx2, H1RHx2 uint8
	// T0DegCx8 and T1DegCx8 are the temperature calibration points in
	// 0.125 °C, 10 bits.
	T0DegCx8, T1DegCx8 uint16
	// Raw outputs measured at the calibration points.
	H0T0Out, H1T0Out int16
	T0Out, T1Out     int16
}

// Calibration reads the calibration registers.
func (dev *Dev) Calibration() (Calibration, error) {
	b, err := dev.r.Read(regCalibration, 16)
	if err != nil {
		return Calibration{}, fmt.Errorf("hids: error reading calibration %w", err)
	}
	return parseCalibration(b), nil
}

func parseCalibration(b []byte) Calibration {
	msb := uint16(b[5])
	return Calibration{
		H0RHx2:   b[0],
		H1RHx2:   b[1],
		T0DegCx8: uint16(b[2]) | (msb&0x03)<<8,
		T1DegCx8: uint16(b[3]) | (msb&0x0c)<<6,
		H0T0Out:  common.Int16LE(b[6:]),
		H1T0Out:  common.Int16LE(b[10:]),
		T0Out:    common.Int16LE(b[12:]),
		T1Out:    common.Int16LE(b[14:]),
	}
}

// Humidity converts a raw humidity output, clamped to 0..100 %RH.
func (c *Calibration) Humidity(raw int16) (physic.RelativeHumidity, error) {
	if c.H1T0Out == c.H0T0Out {
		return 0, ErrInvalidCalibration
	}
	h0 := int64(c.H0RHx2) * int64(physic.PercentRH) / 2
	h1 := int64(c.H1RHx2) * int64(physic.PercentRH) / 2
	h := h0 + (h1-h0)*(int64(raw)-int64(c.H0T0Out))/(int64(c.H1T0Out)-int64(c.H0T0Out))
	if h < 0 {
		h = 0
	}
	if h > int64(100*physic.PercentRH) {
		h = int64(100 * physic.PercentRH)
	}
	return physic.RelativeHumidity(h), nil
}

// Temperature converts a raw temperature output.
func (c *Calibration) Temperature(raw int16) (physic.Temperature, error) {
	if c.T1Out == c.T0Out {
		return 0, ErrInvalidCalibration
	}
	t0 := int64(c.T0DegCx8) * int64(physic.Kelvin) / 8
	t1 := int64(c.T1DegCx8) * int64(physic.Kelvin) / 8
	t := t0 + (t1-t0)*(int64(raw)-int64(c.T0Out))/(int64(c.T1Out)-int64(c.T0Out))
	return physic.ZeroCelsius + physic.Temperature(t), nil
}
