// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package isds

import "github.com/GermanBionicSystems/wsen/common"

var (
	fieldGyroLPF1        = common.Bit(regCtrl4, 1)
	fieldGyroLPF1BW      = common.Field{Reg: regCtrl6, Mask: 0x03}
	fieldGyroHPCutoff    = common.Field{Reg: regCtrl7, Mask: 0x30}
	fieldGyroHP          = common.Bit(regCtrl7, 6)
	fieldLowPass6D       = common.Bit(regCtrl8, 0)
	fieldHPSlope         = common.Bit(regCtrl8, 2)
	fieldInputComposite  = common.Bit(regCtrl8, 3)
	fieldHPRefMode       = common.Bit(regCtrl8, 4)
	fieldAccFilterConfig = common.Field{Reg: regCtrl8, Mask: 0x60}
	fieldAccLPF2         = common.Bit(regCtrl8, 7)
)

// GyroHighPassCutoff is the gyroscope high pass filter cutoff.
type GyroHighPassCutoff byte

const (
	GyroHighPass16mHz GyroHighPassCutoff = iota
	GyroHighPass65mHz
	GyroHighPass260mHz
	GyroHighPass1_04Hz
)

// AccFilterConfig is the LPF2 or high pass cutoff, as a divider of the
// output data rate. The meaning depends on the selected path.
//
//	value  low pass  high pass
//	0      ODR/50    ODR/4 (slope)
//	1      ODR/100   ODR/100
//	2      ODR/9     ODR/9
//	3      ODR/400   ODR/400
type AccFilterConfig byte

// SetGyroLPF1 enables the gyroscope digital low pass filter.
func (dev *Dev) SetGyroLPF1(on bool) error {
	return dev.r.SetFlag(fieldGyroLPF1, on)
}

// GyroLPF1 returns the gyroscope low pass filter state.
func (dev *Dev) GyroLPF1() (bool, error) {
	return dev.r.Flag(fieldGyroLPF1)
}

// SetGyroLPF1Bandwidth selects one of the four gyroscope LPF1 bandwidths.
// The cutoff depends on the output data rate, see the datasheet table.
func (dev *Dev) SetGyroLPF1Bandwidth(v byte) error {
	return dev.r.SetField(fieldGyroLPF1BW, v)
}

// GyroLPF1Bandwidth returns the gyroscope LPF1 bandwidth selection.
func (dev *Dev) GyroLPF1Bandwidth() (byte, error) {
	return dev.r.Field(fieldGyroLPF1BW)
}

// SetGyroHighPass enables the gyroscope high pass filter. It only applies in
// high performance mode.
func (dev *Dev) SetGyroHighPass(on bool) error {
	return dev.r.SetFlag(fieldGyroHP, on)
}

// GyroHighPass returns the gyroscope high pass filter state.
func (dev *Dev) GyroHighPass() (bool, error) {
	return dev.r.Flag(fieldGyroHP)
}

// SetGyroHighPassCutoff sets the gyroscope high pass cutoff.
func (dev *Dev) SetGyroHighPassCutoff(c GyroHighPassCutoff) error {
	return dev.r.SetField(fieldGyroHPCutoff, byte(c))
}

// GyroHighPassCutoff returns the gyroscope high pass cutoff.
func (dev *Dev) GyroHighPassCutoff() (GyroHighPassCutoff, error) {
	v, err := dev.r.Field(fieldGyroHPCutoff)
	return GyroHighPassCutoff(v), err
}

// SetAccLPF2 selects the accelerometer LPF2.
func (dev *Dev) SetAccLPF2(on bool) error {
	return dev.r.SetFlag(fieldAccLPF2, on)
}

// AccLPF2 returns the accelerometer LPF2 selection.
func (dev *Dev) AccLPF2() (bool, error) {
	return dev.r.Flag(fieldAccLPF2)
}

// SetAccHighPassPath selects the high pass (or slope) path of the composite
// filter instead of the low pass path.
func (dev *Dev) SetAccHighPassPath(on bool) error {
	return dev.r.SetFlag(fieldHPSlope, on)
}

// AccHighPassPath returns whether the high pass path is selected.
func (dev *Dev) AccHighPassPath() (bool, error) {
	return dev.r.Flag(fieldHPSlope)
}

// SetCompositeInputODR4 feeds the composite filter with ODR/4 instead of
// ODR/2 low pass filtered data.
func (dev *Dev) SetCompositeInputODR4(on bool) error {
	return dev.r.SetFlag(fieldInputComposite, on)
}

// SetHighPassReferenceMode enables the high pass reference mode. The first
// sample after enabling must be discarded.
func (dev *Dev) SetHighPassReferenceMode(on bool) error {
	return dev.r.SetFlag(fieldHPRefMode, on)
}

// SetAccFilterConfig sets the LPF2 or high pass cutoff.
func (dev *Dev) SetAccFilterConfig(c AccFilterConfig) error {
	return dev.r.SetField(fieldAccFilterConfig, byte(c))
}

// AccFilterConfig returns the LPF2 or high pass cutoff.
func (dev *Dev) AccFilterConfig() (AccFilterConfig, error) {
	v, err := dev.r.Field(fieldAccFilterConfig)
	return AccFilterConfig(v), err
}

// SetLowPass6D feeds LPF2 output to the 6D function.
func (dev *Dev) SetLowPass6D(on bool) error {
	return dev.r.SetFlag(fieldLowPass6D, on)
}
