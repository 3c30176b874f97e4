// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package itds_test

import (
	"log"
	"time"

	"github.com/GermanBionicSystems/wsen/itds"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Example polls the acceleration in high performance mode.
func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal("Error calling host.init()")
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	dev, err := itds.NewI2C(bus, itds.DefaultAddress, &itds.Opts{
		OutputDataRate: itds.ODR200Hz,
		OperatingMode:  itds.HighPerformance,
		FullScale:      itds.FullScale16G,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Halt()

	for i := 0; i < 10; i++ {
		ready, err := dev.DataReady()
		if err != nil {
			log.Fatal(err)
		}
		if ready {
			a, err := dev.Acceleration()
			if err != nil {
				log.Fatal(err)
			}
			x, y, z := a.G()
			log.Printf("%s  (%.3fg %.3fg %.3fg)\n", a, x, y, z)
		}
		time.Sleep(100 * time.Millisecond)
	}
	t, err := dev.Temperature()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Temperature: %s\n", t)
}
