// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hids_test

import (
	"log"
	"time"

	"github.com/GermanBionicSystems/wsen/hids"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Example shows creating a WSEN-HIDS sensor and reading from it.
func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal("Error calling host.init()")
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	dev, err := hids.NewI2C(bus, hids.DefaultAddress, &hids.DefaultOpts)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Halt()

	env := &physic.Env{}
	for i := 0; i < 10; i++ {
		if err := dev.Sense(env); err != nil {
			log.Println(err)
		} else {
			log.Printf("Temperature: %s   Humidity: %s\n", env.Temperature, env.Humidity)
		}
		time.Sleep(time.Second)
	}
}
