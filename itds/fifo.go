// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package itds

import (
	"fmt"

	"github.com/GermanBionicSystems/wsen/common"
)

// FifoCapacity is the number of samples the FIFO holds.
const FifoCapacity = 32

const (
	regFifoCtrl    byte = 0x2e
	regFifoSamples byte = 0x2f
)

var (
	fieldFifoThreshold = common.Field{Reg: regFifoCtrl, Mask: 0x1f}
	fieldFifoMode      = common.Field{Reg: regFifoCtrl, Mask: 0xe0}
)

// FifoMode is the FIFO operating mode.
type FifoMode byte

const (
	// FifoBypass disables the FIFO.
	FifoBypass FifoMode = 0
	// FifoStopWhenFull collects samples until the FIFO is full.
	FifoStopWhenFull FifoMode = 1
	// FifoContinuousToFifo switches from continuous to FIFO mode on an event.
	FifoContinuousToFifo FifoMode = 3
	// FifoBypassToContinuous switches from bypass to continuous mode on an
	// event.
	FifoBypassToContinuous FifoMode = 4
	// FifoContinuous overwrites the oldest samples when full.
	FifoContinuous FifoMode = 6
)

// FifoStatus is the content of the FIFO_SAMPLES register.
type FifoStatus struct {
	// Level is the number of unread samples.
	Level     int
	Overrun   bool
	Threshold bool
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

// SetFifoThreshold sets the FIFO threshold level, 0 to 31.
func (dev *Dev) SetFifoThreshold(level byte) error {
	return dev.r.SetField(fieldFifoThreshold, level)
}

// FifoThreshold returns the FIFO threshold level.
func (dev *Dev) FifoThreshold() (byte, error) {
	return dev.r.Field(fieldFifoThreshold)
}

// FifoStatus reads the FIFO fill level and flags.
func (dev *Dev) FifoStatus() (FifoStatus, error) {
	v, err := dev.r.ReadUint8(regFifoSamples)
	if err != nil {
		return FifoStatus{}, err
	}
	return FifoStatus{
		Level:     int(v & 0x3f),
		Overrun:   v&0x40 != 0,
		Threshold: v&0x80 != 0,
	}, nil
}

// ReadFifo reads up to n samples from the FIFO, converted with the current
// full scale. Fewer samples are returned when the FIFO holds less than n.
func (dev *Dev) ReadFifo(n int) ([]common.Acceleration, error) {
	st, err := dev.FifoStatus()
	if err != nil {
		return nil, fmt.Errorf("itds: error reading fifo level %w", err)
	}
	n = min(n, st.Level)
	out := make([]common.Acceleration, 0, n)
	for i := 0; i < n; i++ {
		raw, err := dev.RawAcceleration()
		if err != nil {
			return out, err
		}
		out = append(out, dev.convert(raw))
	}
	return out, nil
}
