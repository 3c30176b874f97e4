// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pdus_test

import (
	"log"
	"time"

	"github.com/GermanBionicSystems/wsen/pdus"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Example reads a ±1 kPa differential pressure sensor.
func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal("Error calling host.init()")
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	dev, err := pdus.NewI2C(bus, pdus.DefaultAddress, &pdus.Opts{SensorType: pdus.PDUS1})
	if err != nil {
		log.Fatal(err)
	}

	env := &physic.Env{}
	for i := 0; i < 10; i++ {
		if err := dev.Sense(env); err != nil {
			log.Println(err)
		} else {
			log.Printf("Pressure: %s   Temperature: %s\n", env.Pressure, env.Temperature)
		}
		time.Sleep(time.Second)
	}
}
