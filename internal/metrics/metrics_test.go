// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/wsen/internal/station"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector(t *testing.T) {
	c := New()
	s := station.Sample{Sensor: "hids@0x5f", Fields: []station.Field{
		{Name: "humidity", Unit: "%RH", Value: 45.5},
		{Name: "temperature", Unit: "°C", Value: 21.25},
	}}
	for i := 0; i < 2; i++ {
		if err := c.Write(s); err != nil {
			t.Fatal(err)
		}
	}
	c.Error(errors.New("nack"))

	if got := testutil.ToFloat64(c.reading.WithLabelValues("hids@0x5f", "temperature", "°C")); got != 21.25 {
		t.Errorf("temperature=%g expected 21.25", got)
	}
	if got := testutil.ToFloat64(c.samples.WithLabelValues("hids@0x5f")); got != 2 {
		t.Errorf("samples=%g expected 2", got)
	}
	if got := testutil.ToFloat64(c.errors); got != 1 {
		t.Errorf("errors=%g expected 1", got)
	}

	want := `
# HELP wsen_reading Last value read from a sensor field.
# TYPE wsen_reading gauge
wsen_reading{field="humidity",sensor="hids@0x5f",unit="%RH"} 45.5
wsen_reading{field="temperature",sensor="hids@0x5f",unit="°C"} 21.25
`
	if err := testutil.CollectAndCompare(c.reading, strings.NewReader(want)); err != nil {
		t.Error(err)
	}
}

func TestHandler(t *testing.T) {
	c := New()
	if err := c.Write(station.Sample{Sensor: "tids@0x3f", Fields: []station.Field{{Name: "temperature", Unit: "°C", Value: 19}}}); err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `wsen_reading{field="temperature",sensor="tids@0x3f",unit="°C"} 19`) {
		t.Errorf("unexpected body:\n%s", body)
	}
}
