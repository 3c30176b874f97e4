// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config reads the KEY=VALUE configuration file of wesense.
//
// Blank lines and lines starting with # are ignored. Example:
//
//	BUS=/dev/i2c-1
//	SENSORS=pads,hids,itds@0x18
//	INTERVAL=500ms
//	MQTT_BROKER=tcp://localhost:1883
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the command configuration.
type Config struct {
	// Bus is the I²C bus name passed to i2creg.Open. Empty selects the first
	// bus.
	Bus string
	// Sensors is a comma separated list of sensor specs, kind[@addr][:variant].
	Sensors string
	// Interval between two samples of the same sensor.
	Interval time.Duration
	// Count stops after this many samples per sensor; 0 runs until
	// interrupted.
	Count int
	// Out is the PNG file written by the plot command.
	Out string

	// MQTT
	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string

	// Listen is the address of the Prometheus endpoint.
	Listen string
}

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		Sensors:         "pads",
		Interval:        time.Second,
		Out:             "wesense.png",
		MQTTBroker:      "tcp://localhost:1883",
		MQTTClientID:    "wesense",
		MQTTTopicPrefix: "wsen",
		Listen:          ":9100",
	}
}

// Load reads the configuration file at path on top of Default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a configuration from r on top of Default.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}
		if err := cfg.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Set assigns the value of key.
func (c *Config) Set(key, value string) error {
	switch strings.ToUpper(key) {
	case "BUS":
		c.Bus = value
	case "SENSORS":
		c.Sensors = value
	case "INTERVAL":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("INTERVAL: %w", err)
		}
		c.Interval = d
	case "COUNT":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("COUNT: %w", err)
		}
		c.Count = n
	case "OUT":
		c.Out = value
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_TOPIC_PREFIX":
		c.MQTTTopicPrefix = strings.TrimSuffix(value, "/")
	case "LISTEN":
		c.Listen = value
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

// Validate checks the values that cannot be checked one key at a time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Sensors) == "" {
		return errors.New("SENSORS is required")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("INTERVAL must be positive, got %s", c.Interval)
	}
	if c.Count < 0 {
		return fmt.Errorf("COUNT must not be negative, got %d", c.Count)
	}
	return nil
}
