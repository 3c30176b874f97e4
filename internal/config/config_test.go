// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
# Garden station.
BUS = /dev/i2c-1
SENSORS=pads@0x5c,hids,pdus:pdus3
INTERVAL=250ms
COUNT=10
MQTT_TOPIC_PREFIX=garden/
`))
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Bus = "/dev/i2c-1"
	want.Sensors = "pads@0x5c,hids,pdus:pdus3"
	want.Interval = 250 * time.Millisecond
	want.Count = 10
	want.MQTTTopicPrefix = "garden"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		in  string
		err string
	}{
		{"SENSORS", "invalid config line 1"},
		{"\nCOLOR=red", "config line 2: unknown key"},
		{"INTERVAL=soon", "INTERVAL"},
		{"COUNT=ten", "COUNT"},
		{"INTERVAL=-1s", "INTERVAL must be positive"},
		{"SENSORS=", "SENSORS is required"},
		{"COUNT=-2", "COUNT must not be negative"},
	} {
		_, err := Parse(strings.NewReader(tc.in))
		if err == nil || !strings.Contains(err.Error(), tc.err) {
			t.Errorf("%q: got %v expected %q", tc.in, err, tc.err)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wesense.conf")
	if err := os.WriteFile(path, []byte("LISTEN=:2112\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":2112" {
		t.Errorf("listen=%q", cfg.Listen)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for a missing file")
	}
}
