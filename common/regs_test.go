// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

const addr uint16 = 0x5f

func TestField(t *testing.T) {
	var tests = []struct {
		f      Field
		reg    byte
		v      byte
		result byte
	}{
		{f: Field{Reg: 0x20, Mask: 0x03}, reg: 0x84, v: 2, result: 0x86},
		{f: Field{Reg: 0x20, Mask: 0x70}, reg: 0xff, v: 0, result: 0x8f},
		{f: Bit(0x20, 7), reg: 0x00, v: 1, result: 0x80},
		{f: Field{Reg: 0x10, Mask: 0xf0}, reg: 0x0c, v: 0x0a, result: 0xac},
	}
	for _, test := range tests {
		res, err := test.f.Insert(test.reg, test.v)
		if err != nil {
			t.Error(err)
			continue
		}
		if res != test.result {
			t.Errorf("Insert(0x%02x, %d)=0x%02x expected 0x%02x", test.reg, test.v, res, test.result)
		}
		if got := test.f.Extract(res); got != test.v {
			t.Errorf("Extract(0x%02x)=%d expected %d", res, got, test.v)
		}
	}
	if _, err := (Field{Reg: 0x20, Mask: 0x0c}).Insert(0, 4); !errors.Is(err, ErrFieldRange) {
		t.Errorf("expected ErrFieldRange, got %v", err)
	}
}

func TestSetField(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: addr, W: []byte{0x20}, R: []byte{0x80}},
			{Addr: addr, W: []byte{0x20, 0x85}},
			{Addr: addr, W: []byte{0x21}, R: []byte{0x02}},
			{Addr: addr, W: []byte{0x21, 0x00}},
		},
		DontPanic: true,
	}
	r := NewRegs(pb, addr)
	if err := r.SetField(Field{Reg: 0x20, Mask: 0x07}, 5); err != nil {
		t.Fatal(err)
	}
	if err := r.SetFlag(Bit(0x21, 1), false); err != nil {
		t.Fatal(err)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}

func TestSetFieldOutOfRange(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: addr, W: []byte{0x10}, R: []byte{0x1b}}},
		DontPanic: true,
	}
	r := NewRegs(pb, addr)
	if err := r.SetField(Field{Reg: 0x10, Mask: 0x07}, 8); !errors.Is(err, ErrFieldRange) {
		t.Errorf("expected ErrFieldRange, got %v", err)
	}
}

func TestReadAutoIncrement(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: addr, W: []byte{0xa8}, R: []byte{0x34, 0x12}},
			{Addr: addr, W: []byte{0x0f}, R: []byte{0xbc}},
		},
		DontPanic: true,
	}
	r := NewRegs(pb, addr)
	r.AutoIncrement = 0x80
	v, err := r.ReadUint16(0x28)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x1234 {
		t.Errorf("ReadUint16()=0x%04x expected 0x1234", v)
	}
	id, err := r.ReadUint8(0x0f)
	if err != nil {
		t.Fatal(err)
	}
	if id != 0xbc {
		t.Errorf("ReadUint8()=0x%02x expected 0xbc", id)
	}
}

func TestZeroLength(t *testing.T) {
	r := NewRegs(&i2ctest.Playback{DontPanic: true}, addr)
	if _, err := r.Read(0x28, 0); !errors.Is(err, ErrZeroLength) {
		t.Errorf("Read() expected ErrZeroLength, got %v", err)
	}
	if err := r.Write(0x20); !errors.Is(err, ErrZeroLength) {
		t.Errorf("Write() expected ErrZeroLength, got %v", err)
	}
	if _, err := r.ReadRaw(0); !errors.Is(err, ErrZeroLength) {
		t.Errorf("ReadRaw() expected ErrZeroLength, got %v", err)
	}
}

func TestAssembly(t *testing.T) {
	if v := Int16LE([]byte{0x00, 0x80}); v != -32768 {
		t.Errorf("Int16LE()=%d", v)
	}
	if v := Uint16BE([]byte{0x12, 0x34}); v != 0x1234 {
		t.Errorf("Uint16BE()=0x%04x", v)
	}
	if v := Int24LE([]byte{0xff, 0xff, 0xff}); v != -1 {
		t.Errorf("Int24LE()=%d", v)
	}
	if v := Int24LE([]byte{0x00, 0x00, 0x40}); v != 0x400000 {
		t.Errorf("Int24LE()=%d", v)
	}
	if v := Scale(-1000, 61, 1000); v != -61 {
		t.Errorf("Scale()=%d", v)
	}
	if v := CentiCelsius(2512); v != physic.ZeroCelsius+25120*physic.MilliKelvin {
		t.Errorf("CentiCelsius()=%s", v)
	}
	a := ReadAxes([]byte{0xe8, 0x03, 0x18, 0xfc, 0x00, 0x00}).Acceleration(61, 1000)
	if a != (Acceleration{X: 61, Y: -61, Z: 0}) {
		t.Errorf("Acceleration()=%v", a)
	}
}

func TestUpdateIsAtomic(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: addr, W: []byte{0x20}, R: []byte{0x80}},
			{Addr: addr, W: []byte{0x20, 0x81}},
			{Addr: addr, W: []byte{0x21}, R: []byte{0x42}},
		},
		DontPanic: true,
	}
	r := NewRegs(pb, addr)
	started := make(chan struct{})
	release := make(chan struct{})
	updated := make(chan error)
	go func() {
		updated <- r.Update(0x20, func(v byte) (byte, error) {
			close(started)
			<-release
			return v | 1, nil
		})
	}()
	<-started

	type result struct {
		v   byte
		err error
	}
	read := make(chan result)
	go func() {
		v, err := r.ReadUint8(0x21)
		read <- result{v, err}
	}()
	select {
	case <-read:
		t.Fatal("read completed during a read-modify-write")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	if err := <-updated; err != nil {
		t.Fatal(err)
	}
	if res := <-read; res.err != nil || res.v != 0x42 {
		t.Errorf("ReadUint8(0x21)=0x%02x, %v expected 0x42", res.v, res.err)
	}
	if err := pb.Close(); err != nil {
		t.Error(err)
	}
}
