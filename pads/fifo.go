// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pads

import (
	"fmt"

	"github.com/GermanBionicSystems/wsen/common"
	"periph.io/x/conn/v3/physic"
)

// FifoCapacity is the number of samples the FIFO holds.
const FifoCapacity = 128

var (
	fieldFifoMode  = common.Field{Reg: regFifoCtrl, Mask: 0x07}
	fieldStopOnWtm = common.Bit(regFifoCtrl, 3)
	fieldWatermark = common.Field{Reg: regFifoWtm, Mask: 0x7f}
)

// FifoMode is the FIFO operating mode.
type FifoMode byte

const (
	// FifoBypass disables the FIFO.
	FifoBypass FifoMode = 0
	// FifoStopWhenFull collects samples until the FIFO is full.
	FifoStopWhenFull FifoMode = 1
	// FifoContinuous overwrites the oldest samples when full.
	FifoContinuous FifoMode = 2
	// FifoBypassToFifo switches from bypass to FIFO mode on a trigger event.
	FifoBypassToFifo FifoMode = 5
	// FifoBypassToContinuous switches from bypass to continuous mode on a
	// trigger event.
	FifoBypassToContinuous FifoMode = 6
	// FifoContinuousToFifo switches from continuous to FIFO mode on a trigger
	// event.
	FifoContinuousToFifo FifoMode = 7
)

// FifoStatus is the content of the FIFO_STATUS registers.
type FifoStatus struct {
	// Level is the number of unread samples.
	Level     int
	Full      bool
	Overrun   bool
	Watermark bool
}

// Sample is one pressure and temperature pair read from the FIFO.
type Sample struct {
	Pressure    physic.Pressure
	Temperature physic.Temperature
}

// SetFifoMode selects the FIFO operating mode.
func (dev *Dev) SetFifoMode(m FifoMode) error {
	return dev.r.SetField(fieldFifoMode, byte(m))
}

// FifoMode returns the FIFO operating mode.
func (dev *Dev) FifoMode() (FifoMode, error) {
	v, err := dev.r.Field(fieldFifoMode)
	return FifoMode(v), err
}

// SetStopOnWatermark limits the FIFO depth to the watermark level.
func (dev *Dev) SetStopOnWatermark(on bool) error {
	return dev.r.SetFlag(fieldStopOnWtm, on)
}

// StopOnWatermark returns whether the FIFO depth is limited to the
// watermark level.
func (dev *Dev) StopOnWatermark() (bool, error) {
	return dev.r.Flag(fieldStopOnWtm)
}

// SetFifoWatermark sets the FIFO watermark level, 0 to 127.
func (dev *Dev) SetFifoWatermark(level byte) error {
	return dev.r.SetField(fieldWatermark, level)
}

// FifoWatermark returns the FIFO watermark level.
func (dev *Dev) FifoWatermark() (byte, error) {
	return dev.r.Field(fieldWatermark)
}

// FifoStatus reads the FIFO fill level and flags.
func (dev *Dev) FifoStatus() (FifoStatus, error) {
	b, err := dev.r.Read(regFifoStatus1, 2)
	if err != nil {
		return FifoStatus{}, err
	}
	return FifoStatus{
		Level:     int(b[0]),
		Full:      b[1]&0x20 != 0,
		Overrun:   b[1]&0x40 != 0,
		Watermark: b[1]&0x80 != 0,
	}, nil
}

// FifoLevel returns the number of unread samples.
func (dev *Dev) FifoLevel() (int, error) {
	v, err := dev.r.ReadUint8(regFifoStatus1)
	return int(v), err
}

// ReadFifo reads up to n samples from the FIFO. Fewer samples are returned
// when the FIFO holds less than n.
func (dev *Dev) ReadFifo(n int) ([]Sample, error) {
	level, err := dev.FifoLevel()
	if err != nil {
		return nil, fmt.Errorf("pads: error reading fifo level %w", err)
	}
	if n > level {
		n = level
	}
	out := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		b, err := dev.r.Read(regFifoDataP, 5)
		if err != nil {
			return out, fmt.Errorf("pads: error reading fifo %w", err)
		}
		out = append(out, Sample{
			Pressure:    RawToPressure(common.Int24LE(b)),
			Temperature: common.CentiCelsius(int32(common.Int16LE(b[3:]))),
		})
	}
	return out, nil
}
