// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package publish

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/GermanBionicSystems/wsen/internal/station"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/go-cmp/cmp"
)

type token struct {
	err     error
	pending bool
}

func (t *token) Wait() bool { return !t.pending }
func (t *token) WaitTimeout(time.Duration) bool { return !t.pending }
func (t *token) Error() error { return t.err }

func (t *token) Done() <-chan struct{} {
	c := make(chan struct{})
	if !t.pending {
		close(c)
	}
	return c
}

type message struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	sent         []message
	tok          token
	disconnected bool
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.sent = append(f.sent, message{topic, qos, retained, payload.([]byte)})
	return &f.tok
}

func (f *fakeClient) Disconnect(uint) {
	f.disconnected = true
}

func TestWrite(t *testing.T) {
	c := &fakeClient{}
	p := New(c, "garden/")
	s := station.Sample{
		Sensor: "pads@0x5d",
		Time:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Fields: []station.Field{{Name: "pressure", Unit: "hPa", Value: 1013.25, Min: 260, Max: 1260}},
	}
	if err := p.Write(s); err != nil {
		t.Fatal(err)
	}
	if len(c.sent) != 1 {
		t.Fatalf("%d messages expected 1", len(c.sent))
	}
	m := c.sent[0]
	if m.topic != "garden/pads@0x5d" || m.qos != 0 || !m.retained {
		t.Errorf("unexpected message %s qos=%d retained=%t", m.topic, m.qos, m.retained)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(m.payload, &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{
		"sensor": "pads@0x5d",
		"time":   "2025-03-01T12:00:00Z",
		"fields": []interface{}{map[string]interface{}{"name": "pressure", "unit": "hPa", "value": 1013.25}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if err := p.Close(); err != nil || !c.disconnected {
		t.Errorf("close: %v disconnected=%t", err, c.disconnected)
	}
}

func TestWriteErrors(t *testing.T) {
	c := &fakeClient{tok: token{pending: true}}
	p := New(c, "")
	if got := p.Topic("tids@0x3f"); got != "tids@0x3f" {
		t.Errorf("topic=%q", got)
	}
	if err := p.Write(station.Sample{Sensor: "tids@0x3f"}); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	broken := errors.New("not connected")
	c.tok = token{err: broken}
	if err := p.Write(station.Sample{Sensor: "tids@0x3f"}); !errors.Is(err, broken) {
		t.Errorf("expected %v, got %v", broken, err)
	}
}
