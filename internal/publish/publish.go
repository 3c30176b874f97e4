// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package publish sends samples as JSON to an MQTT broker.
//
// Each sample is published retained with QoS 0 on <prefix>/<sensor>.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GermanBionicSystems/wsen/internal/station"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("publish: timeout")

// Client is the subset of mqtt.Client used by Publisher.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher is a station.Sink publishing to MQTT.
type Publisher struct {
	c       Client
	prefix  string
	timeout time.Duration
}

// New returns a Publisher using an already connected client.
func New(c Client, prefix string) *Publisher {
	return &Publisher{c: c, prefix: strings.TrimSuffix(prefix, "/"), timeout: 5 * time.Second}
}

// Dial connects to broker and returns a Publisher owning the connection.
func Dial(broker, clientID, prefix string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("publish: connect %s: %w", broker, token.Error())
	}
	return New(client, prefix), nil
}

// Topic returns the topic used for sensor.
func (p *Publisher) Topic(sensor string) string {
	if p.prefix == "" {
		return sensor
	}
	return p.prefix + "/" + sensor
}

// Write implements station.Sink.
func (p *Publisher) Write(s station.Sample) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	topic := p.Topic(s.Sensor)
	token := p.c.Publish(topic, 0, true, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("%w publishing to %s", ErrTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.c.Disconnect(250)
	return nil
}

var _ station.Sink = &Publisher{}
