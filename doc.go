// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package wsen is a container for the Würth Elektronik WSEN sensor drivers.
//
// Each sensor has its own package: hids (humidity), isds (6-axis IMU), itds
// (accelerometer), pads (absolute pressure), pdus (differential pressure) and
// tids (temperature). cmd/wesense samples any mix of them.
package wsen
