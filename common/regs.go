// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains the register map access shared by the Würth
// Elektronik WSEN drivers: register reads and writes over I²C, bit field
// read-modify-write and the byte assembly used by the sensor outputs.
package common

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"

	"periph.io/x/conn/v3/i2c"
)

// DebugF the debug function type.
type DebugF func(string, ...interface{})

var (
	// ErrFieldRange is returned when a value does not fit in a register field.
	ErrFieldRange = errors.New("value out of range for register field")
	// ErrZeroLength is returned for register transfers of no bytes.
	ErrZeroLength = errors.New("zero length register transfer")
)

// Field is a bit field inside an 8 bit register. Mask selects the bits of the
// field, which must be contiguous.
type Field struct {
	Reg  byte
	Mask byte
}

// Bit returns the single bit field n of register reg.
func Bit(reg byte, n uint) Field {
	return Field{Reg: reg, Mask: 1 << n}
}

func (f Field) shift() uint {
	return uint(bits.TrailingZeros8(f.Mask))
}

// Max returns the largest value the field can hold.
func (f Field) Max() byte {
	return f.Mask >> f.shift()
}

// Extract returns the field value contained in a register value.
func (f Field) Extract(reg byte) byte {
	return (reg & f.Mask) >> f.shift()
}

// Insert returns reg with the field replaced by v.
func (f Field) Insert(reg, v byte) (byte, error) {
	if v > f.Max() {
		return reg, fmt.Errorf("%w: %d > %d in register 0x%02x", ErrFieldRange, v, f.Max(), f.Reg)
	}
	return reg&^f.Mask | v<<f.shift(), nil
}

// Regs accesses the register map of a device on an I²C bus.
//
// Every read sends the register address and then reads n bytes, every write
// sends the register address followed by the data.
type Regs struct {
	d *i2c.Dev
	// AutoIncrement is OR'ed into the register address of reads longer than
	// one byte, for devices that need the address MSB set to advance.
	AutoIncrement byte

	mu    sync.Mutex
	debug DebugF
}

// NewRegs returns the register map of the device at addr on bus b.
func NewRegs(b i2c.Bus, addr uint16) *Regs {
	return &Regs{d: &i2c.Dev{Bus: b, Addr: addr}, debug: noop}
}

// EnableDebug Sets the debugging output using the local print function.
func (r *Regs) EnableDebug(f DebugF) {
	if f == nil {
		f = noop
	}
	r.debug = f
}

func (r *Regs) String() string {
	return r.d.String()
}

// Read reads n bytes starting at register reg.
func (r *Regs) Read(reg byte, n int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read(reg, n)
}

func (r *Regs) read(reg byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrZeroLength
	}
	addr := reg
	if n > 1 {
		addr |= r.AutoIncrement
	}
	b := make([]byte, n)
	if err := r.d.Tx([]byte{addr}, b); err != nil {
		return nil, err
	}
	r.debug("read register %x: % x", reg, b)
	return b, nil
}

// ReadUint8 reads the single register reg.
func (r *Regs) ReadUint8(reg byte) (byte, error) {
	b, err := r.Read(reg, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt16 reads a little endian signed value from reg and reg+1.
func (r *Regs) ReadInt16(reg byte) (int16, error) {
	b, err := r.Read(reg, 2)
	if err != nil {
		return 0, err
	}
	return Int16LE(b), nil
}

// ReadUint16 reads a little endian unsigned value from reg and reg+1.
func (r *Regs) ReadUint16(reg byte) (uint16, error) {
	b, err := r.Read(reg, 2)
	if err != nil {
		return 0, err
	}
	return Uint16LE(b), nil
}

// Write writes data to consecutive registers starting at reg.
func (r *Regs) Write(reg byte, data ...byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(reg, data)
}

func (r *Regs) write(reg byte, data []byte) error {
	if len(data) == 0 {
		return ErrZeroLength
	}
	r.debug("write register %x: % x", reg, data)
	w := make([]byte, 0, len(data)+1)
	w = append(w, reg)
	w = append(w, data...)
	return r.d.Tx(w, nil)
}

// ReadRaw reads n bytes from the device without sending a register address.
// It is used by devices that have no register map.
func (r *Regs) ReadRaw(n int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 {
		return nil, ErrZeroLength
	}
	b := make([]byte, n)
	if err := r.d.Tx(nil, b); err != nil {
		return nil, err
	}
	r.debug("read raw: % x", b)
	return b, nil
}

// Field returns the value of field f.
func (r *Regs) Field(f Field) (byte, error) {
	v, err := r.ReadUint8(f.Reg)
	if err != nil {
		return 0, err
	}
	return f.Extract(v), nil
}

// SetField writes v into field f, leaving the other bits of the register
// untouched.
func (r *Regs) SetField(f Field, v byte) error {
	return r.Update(f.Reg, func(reg byte) (byte, error) {
		return f.Insert(reg, v)
	})
}

// Flag returns the state of the single bit field f.
func (r *Regs) Flag(f Field) (bool, error) {
	v, err := r.Field(f)
	return v != 0, err
}

// SetFlag sets or clears the single bit field f.
func (r *Regs) SetFlag(f Field, on bool) error {
	var v byte
	if on {
		v = 1
	}
	return r.SetField(f, v)
}

// Update does a read-modify-write of register reg. No other transfer on the
// same Regs can come between the read and the write.
func (r *Regs) Update(reg byte, fn func(byte) (byte, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.read(reg, 1)
	if err != nil {
		return err
	}
	cur := b[0]
	next, err := fn(cur)
	if err != nil {
		return err
	}
	r.debug("update register %x: %x -> %x", reg, cur, next)
	return r.write(reg, []byte{next})
}

func noop(string, ...interface{}) {}
