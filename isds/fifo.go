// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package isds

import (
	"fmt"
	"time"

	"github.com/GermanBionicSystems/wsen/common"
)

const (
	regFifoCtrl1   byte = 0x06
	regFifoCtrl2   byte = 0x07
	regFifoCtrl3   byte = 0x08
	regFifoCtrl4   byte = 0x09
	regFifoCtrl5   byte = 0x0a
	regFifoStatus1 byte = 0x3a
	regFifoData    byte = 0x3e
	regTimestamp   byte = 0x40
	regTimestamp2  byte = 0x42
	regWakeUpDur   byte = 0x5c

	// FifoThresholdMax is the largest FIFO threshold, in 16 bit words.
	FifoThresholdMax = 0x7ff
	// timestampReset written to TIMESTAMP2 clears the counter.
	timestampReset = 0xaa
)

var (
	fieldFifoTemp       = common.Bit(regFifoCtrl2, 3)
	fieldFifoTimestamp  = common.Bit(regFifoCtrl2, 7)
	fieldAccDecimation  = common.Field{Reg: regFifoCtrl3, Mask: 0x07}
	fieldGyroDecimation = common.Field{Reg: regFifoCtrl3, Mask: 0x38}
	fieldDecimation3    = common.Field{Reg: regFifoCtrl4, Mask: 0x07}
	fieldDecimation4    = common.Field{Reg: regFifoCtrl4, Mask: 0x38}
	fieldOnlyHighData   = common.Bit(regFifoCtrl4, 6)
	fieldStopOnThs      = common.Bit(regFifoCtrl4, 7)
	fieldFifoMode       = common.Field{Reg: regFifoCtrl5, Mask: 0x07}
	fieldFifoODR        = common.Field{Reg: regFifoCtrl5, Mask: 0x78}
	fieldTimestampRes   = common.Bit(regWakeUpDur, 4)
	fieldTimestampEn    = common.Bit(regCtrl10, 5)
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

// Decimation is the FIFO decimation of one data set.
type Decimation byte

const (
	// NotInFifo leaves the data set out of the FIFO.
	NotInFifo Decimation = iota
	NoDecimation
	Decimation2
	Decimation3
	Decimation4
	Decimation8
	Decimation16
	Decimation32
)

// FifoStatus is the content of the four FIFO_STATUS registers.
type FifoStatus struct {
	// Level is the number of unread 16 bit words.
	Level int
	Empty bool
	// Full is set when the FIFO will be full at the next sample.
	Full      bool
	Overrun   bool
	Threshold bool
	// Pattern is the position of the next word in the data set sequence.
	Pattern int
}

// SetFifoThreshold sets the 11 bit FIFO threshold, in 16 bit words.
func (dev *Dev) SetFifoThreshold(words uint16) error {
	if words > FifoThresholdMax {
		return fmt.Errorf("isds: %w: fifo threshold %d", common.ErrFieldRange, words)
	}
	if err := dev.r.Write(regFifoCtrl1, byte(words)); err != nil {
		return err
	}
	return dev.r.Update(regFifoCtrl2, func(v byte) (byte, error) {
		return v&^0x07 | byte(words>>8), nil
	})
}

// FifoThreshold returns the FIFO threshold.
func (dev *Dev) FifoThreshold() (uint16, error) {
	b, err := dev.r.Read(regFifoCtrl1, 2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1]&0x07)<<8, nil
}

// SetFifoTemperature stores temperature as the third FIFO data set.
func (dev *Dev) SetFifoTemperature(on bool) error {
	return dev.r.SetFlag(fieldFifoTemp, on)
}

// SetFifoTimestamp stores the timestamp as the fourth FIFO data set.
func (dev *Dev) SetFifoTimestamp(on bool) error {
	return dev.r.SetFlag(fieldFifoTimestamp, on)
}

// SetFifoDecimation sets the decimation of the four data sets: gyroscope,
// accelerometer, third and fourth.
func (dev *Dev) SetFifoDecimation(gyro, acc, third, fourth Decimation) error {
	err := dev.r.Update(regFifoCtrl3, func(v byte) (byte, error) {
		v, err := fieldAccDecimation.Insert(v, byte(acc))
		if err != nil {
			return v, err
		}
		return fieldGyroDecimation.Insert(v, byte(gyro))
	})
	if err != nil {
		return fmt.Errorf("isds: %w", err)
	}
	err = dev.r.Update(regFifoCtrl4, func(v byte) (byte, error) {
		v, err := fieldDecimation3.Insert(v, byte(third))
		if err != nil {
			return v, err
		}
		return fieldDecimation4.Insert(v, byte(fourth))
	})
	if err != nil {
		return fmt.Errorf("isds: %w", err)
	}
	return nil
}

// FifoDecimation returns the decimation of the four data sets.
func (dev *Dev) FifoDecimation() (gyro, acc, third, fourth Decimation, err error) {
	b, err := dev.r.Read(regFifoCtrl3, 2)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return Decimation(fieldGyroDecimation.Extract(b[0])), Decimation(fieldAccDecimation.Extract(b[0])),
		Decimation(fieldDecimation3.Extract(b[1])), Decimation(fieldDecimation4.Extract(b[1])), nil
}

// SetFifoOnlyHighData stores only the MSB of each sample in the FIFO.
func (dev *Dev) SetFifoOnlyHighData(on bool) error {
	return dev.r.SetFlag(fieldOnlyHighData, on)
}

// SetFifoStopOnThreshold limits the FIFO depth to the threshold.
func (dev *Dev) SetFifoStopOnThreshold(on bool) error {
	return dev.r.SetFlag(fieldStopOnThs, on)
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

// SetFifoOutputDataRate sets the rate samples are written to the FIFO.
func (dev *Dev) SetFifoOutputDataRate(odr OutputDataRate) error {
	if odr > ODR6660Hz {
		return fmt.Errorf("isds: %w: fifo rate %d", common.ErrFieldRange, odr)
	}
	return dev.r.SetField(fieldFifoODR, byte(odr))
}

// FifoOutputDataRate returns the FIFO rate.
func (dev *Dev) FifoOutputDataRate() (OutputDataRate, error) {
	v, err := dev.r.Field(fieldFifoODR)
	return OutputDataRate(v), err
}

// FifoStatus reads the FIFO fill level, flags and pattern.
func (dev *Dev) FifoStatus() (FifoStatus, error) {
	b, err := dev.r.Read(regFifoStatus1, 4)
	if err != nil {
		return FifoStatus{}, err
	}
	return FifoStatus{
		Level:     int(b[0]) | int(b[1]&0x07)<<8,
		Empty:     b[1]&0x10 != 0,
		Full:      b[1]&0x20 != 0,
		Overrun:   b[1]&0x40 != 0,
		Threshold: b[1]&0x80 != 0,
		Pattern:   int(b[2]) | int(b[3]&0x03)<<8,
	}, nil
}

// ReadFifo reads n raw 16 bit words from the FIFO. Use the pattern of
// FifoStatus to know which data set the first word belongs to.
func (dev *Dev) ReadFifo(n int) ([]int16, error) {
	b, err := dev.r.Read(regFifoData, 2*n)
	if err != nil {
		return nil, fmt.Errorf("isds: error reading fifo %w", err)
	}
	out := make([]int16, n)
	for i := range out {
		out[i] = common.Int16LE(b[2*i:])
	}
	return out, nil
}

// SetTimestamp enables the timestamp counter.
func (dev *Dev) SetTimestamp(on bool) error {
	return dev.r.SetFlag(fieldTimestampEn, on)
}

// SetTimestampFine selects 25 µs per count instead of 6.4 ms.
func (dev *Dev) SetTimestampFine(on bool) error {
	return dev.r.SetFlag(fieldTimestampRes, on)
}

// TimestampRaw reads the 24 bit timestamp counter.
func (dev *Dev) TimestampRaw() (uint32, error) {
	b, err := dev.r.Read(regTimestamp, 3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

// Timestamp reads the timestamp counter scaled by its resolution.
func (dev *Dev) Timestamp() (time.Duration, error) {
	fine, err := dev.r.Flag(fieldTimestampRes)
	if err != nil {
		return 0, err
	}
	raw, err := dev.TimestampRaw()
	if err != nil {
		return 0, err
	}
	step := 6400 * time.Microsecond
	if fine {
		step = 25 * time.Microsecond
	}
	return time.Duration(raw) * step, nil
}

// ResetTimestamp clears the timestamp counter.
func (dev *Dev) ResetTimestamp() error {
	return dev.r.Write(regTimestamp2, timestampReset)
}
