// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pads

import (
	"fmt"

	"github.com/GermanBionicSystems/wsen/common"
	"periph.io/x/conn/v3/physic"
)

var (
	fieldPressureHigh = common.Bit(regIntCfg, 0)
	fieldPressureLow  = common.Bit(regIntCfg, 1)
	fieldLatched      = common.Bit(regIntCfg, 2)
	fieldDiffEn       = common.Bit(regIntCfg, 3)
	fieldResetAZ      = common.Bit(regIntCfg, 4)
	fieldAutoZero     = common.Bit(regIntCfg, 5)
	fieldResetARP     = common.Bit(regIntCfg, 6)
	fieldAutoRefP     = common.Bit(regIntCfg, 7)
)

// thresholdStep is the pressure step of the threshold register, 1/16 hPa.
const thresholdStep = 100 * physic.Pascal / 16

// InterruptEvent selects what drives the INT pin.
type InterruptEvent byte

const (
	// EventDataSignal routes the data ready and FIFO signals.
	EventDataSignal InterruptEvent = iota
	EventPressureHigh
	EventPressureLow
	EventPressureHighOrLow
)

// InterruptSource is the content of the INT_SOURCE register.
type InterruptSource struct {
	PressureHigh bool
	PressureLow  bool
	Active       bool
	BootRunning  bool
}

// SetInterruptEvent selects what drives the INT pin.
func (dev *Dev) SetInterruptEvent(e InterruptEvent) error {
	return dev.r.SetField(fieldIntEvent, byte(e))
}

// InterruptEvent returns what drives the INT pin.
func (dev *Dev) InterruptEvent() (InterruptEvent, error) {
	v, err := dev.r.Field(fieldIntEvent)
	return InterruptEvent(v), err
}

// SetDataReadyInterrupt routes the data ready signal to the INT pin.
func (dev *Dev) SetDataReadyInterrupt(on bool) error {
	return dev.r.SetFlag(fieldDRDYInt, on)
}

// DataReadyInterrupt returns whether data ready is routed to the INT pin.
func (dev *Dev) DataReadyInterrupt() (bool, error) {
	return dev.r.Flag(fieldDRDYInt)
}

// SetFifoOverrunInterrupt routes the FIFO overrun flag to the INT pin.
func (dev *Dev) SetFifoOverrunInterrupt(on bool) error {
	return dev.r.SetFlag(fieldFifoOvrInt, on)
}

// SetFifoWatermarkInterrupt routes the FIFO watermark flag to the INT pin.
func (dev *Dev) SetFifoWatermarkInterrupt(on bool) error {
	return dev.r.SetFlag(fieldFifoWtmInt, on)
}

// SetFifoFullInterrupt routes the FIFO full flag to the INT pin.
func (dev *Dev) SetFifoFullInterrupt(on bool) error {
	return dev.r.SetFlag(fieldFifoFull, on)
}

// SetPressureHighEvent enables the interrupt on pressure above the
// threshold.
func (dev *Dev) SetPressureHighEvent(on bool) error {
	return dev.r.SetFlag(fieldPressureHigh, on)
}

// SetPressureLowEvent enables the interrupt on pressure below the negative
// threshold.
func (dev *Dev) SetPressureLowEvent(on bool) error {
	return dev.r.SetFlag(fieldPressureLow, on)
}

// SetDifferentialInterrupt enables interrupt generation on the pressure
// threshold events. The high and low events have no effect while it is off.
func (dev *Dev) SetDifferentialInterrupt(on bool) error {
	return dev.r.SetFlag(fieldDiffEn, on)
}

// DifferentialInterrupt returns whether threshold interrupts are enabled.
func (dev *Dev) DifferentialInterrupt() (bool, error) {
	return dev.r.Flag(fieldDiffEn)
}

// SetLatchedInterrupt latches the pressure events until INT_SOURCE is read.
func (dev *Dev) SetLatchedInterrupt(on bool) error {
	return dev.r.SetFlag(fieldLatched, on)
}

// LatchedInterrupt returns whether pressure events are latched.
func (dev *Dev) LatchedInterrupt() (bool, error) {
	return dev.r.Flag(fieldLatched)
}

// SetAutoZero enables AUTOZERO mode: the current pressure is stored in REF_P
// and subtracted from the output.
func (dev *Dev) SetAutoZero(on bool) error {
	return dev.r.SetFlag(fieldAutoZero, on)
}

// ResetAutoZero leaves AUTOZERO mode.
func (dev *Dev) ResetAutoZero() error {
	return dev.r.SetFlag(fieldResetAZ, true)
}

// SetAutoRefP enables AUTOREFP mode: the current pressure is stored in REF_P
// and used only for the threshold events.
func (dev *Dev) SetAutoRefP(on bool) error {
	return dev.r.SetFlag(fieldAutoRefP, on)
}

// ResetAutoRefP leaves AUTOREFP mode.
func (dev *Dev) ResetAutoRefP() error {
	return dev.r.SetFlag(fieldResetARP, true)
}

// SetThresholdRaw writes the 15 bit threshold in 1/16 hPa.
func (dev *Dev) SetThresholdRaw(v uint16) error {
	if v > 0x7fff {
		return fmt.Errorf("pads: %w: threshold %d", common.ErrFieldRange, v)
	}
	return dev.r.Write(regThreshold, byte(v), byte(v>>8))
}

// ThresholdRaw reads the threshold in 1/16 hPa.
func (dev *Dev) ThresholdRaw() (uint16, error) {
	v, err := dev.r.ReadUint16(regThreshold)
	return v & 0x7fff, err
}

// SetThreshold sets the pressure event threshold.
func (dev *Dev) SetThreshold(p physic.Pressure) error {
	if p < 0 {
		return fmt.Errorf("pads: %w: threshold %s", common.ErrFieldRange, p)
	}
	return dev.SetThresholdRaw(uint16(min(int64(p/thresholdStep), 0x8000)))
}

// Threshold returns the pressure event threshold.
func (dev *Dev) Threshold() (physic.Pressure, error) {
	v, err := dev.ThresholdRaw()
	return physic.Pressure(v) * thresholdStep, err
}

// InterruptSource reads and clears the INT_SOURCE register.
func (dev *Dev) InterruptSource() (InterruptSource, error) {
	v, err := dev.r.ReadUint8(regIntSource)
	if err != nil {
		return InterruptSource{}, err
	}
	return InterruptSource{
		PressureHigh: v&0x01 != 0,
		PressureLow:  v&0x02 != 0,
		Active:       v&0x04 != 0,
		BootRunning:  v&0x80 != 0,
	}, nil
}

// ReferencePressureRaw reads REF_P, the pressure captured by AUTOZERO or
// AUTOREFP.
func (dev *Dev) ReferencePressureRaw() (int16, error) {
	return dev.r.ReadInt16(regRefP)
}

// SetPressureOffsetRaw writes the one point calibration offset OPC_P.
func (dev *Dev) SetPressureOffsetRaw(v int16) error {
	return dev.r.Write(regOpcP, byte(v), byte(uint16(v)>>8))
}

// PressureOffsetRaw reads the one point calibration offset OPC_P.
func (dev *Dev) PressureOffsetRaw() (int16, error) {
	return dev.r.ReadInt16(regOpcP)
}
