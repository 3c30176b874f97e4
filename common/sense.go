// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// SenseLoop calls sense every interval and sends the readings on the returned
// channel until shutdown is closed. Failed readings are dropped. The channel
// is closed when the loop exits.
func SenseLoop(interval time.Duration, shutdown <-chan struct{}, sense func(*physic.Env) error) <-chan physic.Env {
	ch := make(chan physic.Env, 16)
	go func(ch chan<- physic.Env) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(ch)
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				env := physic.Env{}
				if err := sense(&env); err != nil {
					continue
				}
				select {
				case ch <- env:
				case <-shutdown:
					return
				}
			}
		}
	}(ch)
	return ch
}
