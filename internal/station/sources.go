// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package station

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GermanBionicSystems/wsen/hids"
	"github.com/GermanBionicSystems/wsen/isds"
	"github.com/GermanBionicSystems/wsen/itds"
	"github.com/GermanBionicSystems/wsen/pads"
	"github.com/GermanBionicSystems/wsen/pdus"
	"github.com/GermanBionicSystems/wsen/tids"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// ErrSpec is returned by Open for a malformed sensor spec.
var ErrSpec = errors.New("station: invalid sensor spec")

// Kinds lists the sensor kinds Open accepts.
var Kinds = []string{"hids", "isds", "itds", "pads", "pdus", "tids"}

// now is replaced in tests.
var now = time.Now

// Open creates the source described by spec on bus b, written as
// kind[@addr][:variant], for example "pads@0x5c" or "pdus:pdus3". The
// variant selects the pdus part and is required there, since the pressure
// range cannot be read back from the device. Other kinds take no variant.
func Open(b i2c.Bus, spec string) (Source, error) {
	rest, variant, hasVariant := strings.Cut(spec, ":")
	kind, addrStr, hasAddr := strings.Cut(rest, "@")
	kind = strings.ToLower(strings.TrimSpace(kind))
	var addr uint16
	if hasAddr {
		v, err := strconv.ParseUint(addrStr, 0, 7)
		if err != nil {
			return nil, fmt.Errorf("%w %q: address %v", ErrSpec, spec, err)
		}
		addr = uint16(v)
	}
	if hasVariant && kind != "pdus" {
		return nil, fmt.Errorf("%w %q: %s has no variant", ErrSpec, spec, kind)
	}
	pick := func(def uint16) uint16 {
		if hasAddr {
			return addr
		}
		return def
	}
	switch kind {
	case "hids":
		a := pick(hids.DefaultAddress)
		dev, err := hids.NewI2C(b, a, nil)
		if err != nil {
			return nil, err
		}
		return &envSource{name: name(kind, a), dev: dev, humidity: true, tMin: -40, tMax: 120}, nil
	case "tids":
		a := pick(tids.DefaultAddress)
		dev, err := tids.NewI2C(b, a, nil)
		if err != nil {
			return nil, err
		}
		return &envSource{name: name(kind, a), dev: dev, tMin: -40, tMax: 125}, nil
	case "pads":
		a := pick(pads.DefaultAddress)
		dev, err := pads.NewI2C(b, a, nil)
		if err != nil {
			return nil, err
		}
		return &envSource{name: name(kind, a), dev: dev, pressure: true, pUnit: "hPa", pScale: hectoPascal, pMin: 260, pMax: 1260, tMin: -40, tMax: 85}, nil
	case "pdus":
		if !hasVariant {
			return nil, fmt.Errorf("%w %q: pdus needs a variant, pdus0 to pdus5", ErrSpec, spec)
		}
		typ, err := ParseSensorType(variant)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrSpec, spec, err)
		}
		a := pick(pdus.DefaultAddress)
		dev, err := pdus.NewI2C(b, a, &pdus.Opts{SensorType: typ})
		if err != nil {
			return nil, err
		}
		lo, hi, _ := typ.Range()
		return &envSource{
			name: name(kind, a) + ":" + strings.ToLower(typ.String()), dev: dev,
			pressure: true, pUnit: "kPa", pScale: physic.KiloPascal,
			pMin: float64(lo) / float64(physic.KiloPascal), pMax: float64(hi) / float64(physic.KiloPascal),
			tMin: -40, tMax: 85,
		}, nil
	case "itds":
		a := pick(itds.DefaultAddress)
		dev, err := itds.NewI2C(b, a, nil)
		if err != nil {
			return nil, err
		}
		fs, err := dev.FullScale()
		if err != nil {
			return nil, err
		}
		return &itdsSource{name: name(kind, a), dev: dev, g: float64(int(2) << fs)}, nil
	case "isds":
		a := pick(isds.DefaultAddress)
		dev, err := isds.NewI2C(b, a, nil)
		if err != nil {
			return nil, err
		}
		return &isdsSource{name: name(kind, a), dev: dev, g: accRange[isds.DefaultOpts.AccFullScale], dps: gyroRange[isds.DefaultOpts.GyroFullScale]}, nil
	}
	return nil, fmt.Errorf("%w %q: unknown kind, expected one of %s", ErrSpec, spec, strings.Join(Kinds, ", "))
}

// OpenAll opens a comma separated list of specs. Sources opened before a
// failure are halted.
func OpenAll(b i2c.Bus, specs string) ([]Source, error) {
	var out []Source
	for _, spec := range strings.Split(specs, ",") {
		if spec = strings.TrimSpace(spec); spec == "" {
			continue
		}
		src, err := Open(b, spec)
		if err != nil {
			_ = HaltAll(out)
			return nil, err
		}
		out = append(out, src)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no sensors", ErrSpec)
	}
	return out, nil
}

// ParseSensorType parses "pdus3" or "3".
func ParseSensorType(s string) (pdus.SensorType, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "pdus")
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, pdus.ErrSensorType
	}
	typ := pdus.SensorType(v)
	if _, _, err := typ.Range(); err != nil {
		return 0, err
	}
	return typ, nil
}

func name(kind string, addr uint16) string {
	return fmt.Sprintf("%s@0x%02x", kind, addr)
}

const hectoPascal = 100 * physic.Pascal

func celsius(t physic.Temperature) float64 {
	return t.Celsius()
}

// envSource adapts the drivers implementing physic.SenseEnv.
type envSource struct {
	name       string
	dev        physic.SenseEnv
	humidity   bool
	pressure   bool
	pUnit      string
	pScale     physic.Pressure
	pMin, pMax float64
	tMin, tMax float64
}

func (e *envSource) Name() string { return e.name }

func (e *envSource) Halt() error { return e.dev.Halt() }

func (e *envSource) Read() (Sample, error) {
	var env physic.Env
	if err := e.dev.Sense(&env); err != nil {
		return Sample{}, fmt.Errorf("%s: %w", e.name, err)
	}
	s := Sample{Sensor: e.name, Time: now()}
	if e.pressure {
		s.Fields = append(s.Fields, Field{Name: "pressure", Unit: e.pUnit, Value: float64(env.Pressure) / float64(e.pScale), Min: e.pMin, Max: e.pMax})
	}
	if e.humidity {
		s.Fields = append(s.Fields, Field{Name: "humidity", Unit: "%RH", Value: float64(env.Humidity) / float64(physic.PercentRH), Min: 0, Max: 100})
	}
	s.Fields = append(s.Fields, Field{Name: "temperature", Unit: "°C", Value: celsius(env.Temperature), Min: e.tMin, Max: e.tMax})
	return s, nil
}

type itdsSource struct {
	name string
	dev  *itds.Dev
	g    float64
}

func (s *itdsSource) Name() string { return s.name }

func (s *itdsSource) Halt() error { return s.dev.Halt() }

func (s *itdsSource) Read() (Sample, error) {
	a, err := s.dev.Acceleration()
	if err != nil {
		return Sample{}, fmt.Errorf("%s: %w", s.name, err)
	}
	t, err := s.dev.Temperature()
	if err != nil {
		return Sample{}, fmt.Errorf("%s: %w", s.name, err)
	}
	x, y, z := a.G()
	out := Sample{Sensor: s.name, Time: now()}
	out.Fields = append(axisFields("acc", "g", float64(x), float64(y), float64(z), s.g),
		Field{Name: "temperature", Unit: "°C", Value: celsius(t), Min: -40, Max: 85})
	return out, nil
}

var accRange = map[isds.AccFullScale]float64{
	isds.FullScale2G: 2, isds.FullScale4G: 4, isds.FullScale8G: 8, isds.FullScale16G: 16,
}

var gyroRange = map[isds.GyroFullScale]float64{
	isds.FullScale125dps: 125, isds.FullScale250dps: 250, isds.FullScale500dps: 500,
	isds.FullScale1000dps: 1000, isds.FullScale2000dps: 2000,
}

type isdsSource struct {
	name   string
	dev    *isds.Dev
	g, dps float64
}

func (s *isdsSource) Name() string { return s.name }

func (s *isdsSource) Halt() error { return s.dev.Halt() }

func (s *isdsSource) Read() (Sample, error) {
	m, err := s.dev.Measure()
	if err != nil {
		return Sample{}, fmt.Errorf("%s: %w", s.name, err)
	}
	ax, ay, az := m.Acceleration.G()
	gx, gy, gz := m.AngularRate.DPS()
	out := Sample{Sensor: s.name, Time: now()}
	out.Fields = append(axisFields("acc", "g", float64(ax), float64(ay), float64(az), s.g),
		axisFields("gyro", "dps", float64(gx), float64(gy), float64(gz), s.dps)...)
	out.Fields = append(out.Fields, Field{Name: "temperature", Unit: "°C", Value: celsius(m.Temperature), Min: -40, Max: 85})
	return out, nil
}

func axisFields(prefix, unit string, x, y, z, fs float64) []Field {
	return []Field{
		{Name: prefix + "_x", Unit: unit, Value: x, Min: -fs, Max: fs},
		{Name: prefix + "_y", Unit: unit, Value: y, Min: -fs, Max: fs},
		{Name: prefix + "_z", Unit: unit, Value: z, Min: -fs, Max: fs},
	}
}
