// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tids_test

import (
	"log"
	"time"

	"github.com/GermanBionicSystems/wsen/tids"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Example reads the temperature continuously until ten readings arrived.
func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal("Error calling host.init()")
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	dev, err := tids.NewI2C(bus, tids.DefaultAddress, &tids.Opts{OutputDataRate: tids.ODR1Hz})
	if err != nil {
		log.Fatal(err)
	}
	if err := dev.SetHighLimit(physic.ZeroCelsius + 30*physic.Kelvin); err != nil {
		log.Fatal(err)
	}
	ch, err := dev.SenseContinuous(time.Second)
	if err != nil {
		log.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		env := <-ch
		log.Printf("Temperature: %s (%.1f°F)\n", env.Temperature, env.Temperature.Fahrenheit())
	}
	_ = dev.Halt()
}
