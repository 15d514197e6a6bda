// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/earbud_motion/internal/animation"
)

// Publisher is the part of mqtt.Client used by the MQTT renderer.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes each render command as JSON. Publishing waits at most
// Timeout so a slow broker cannot stall the tick.
type MQTT struct {
	client  Publisher
	topic   string
	Timeout time.Duration
}

// NewMQTT returns an MQTT renderer for topic.
func NewMQTT(client Publisher, topic string) *MQTT {
	return &MQTT{client: client, topic: topic, Timeout: time.Second}
}

func (m *MQTT) Render(cmd animation.RenderCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("json marshal error (motion): %w", err)
	}
	return publish(m.client, m.topic, false, payload, m.Timeout)
}

// PublishJSON marshals v and publishes it on topic, retained like the
// sensor topics.
func PublishJSON(client Publisher, topic string, v interface{}, timeout time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal error (%s): %w", topic, err)
	}
	return publish(client, topic, true, payload, timeout)
}

func publish(client Publisher, topic string, retained bool, payload []byte, timeout time.Duration) error {
	token := client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("MQTT publish timeout (%s)", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT publish error (%s): %w", topic, err)
	}
	return nil
}
