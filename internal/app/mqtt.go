// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/earbud_motion/internal/animation"
)

func connectMQTT(component, broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	log.Printf("%s: connected to MQTT broker at %s", component, broker)
	return client, nil
}

func subscribe(component string, client mqtt.Client, topic string, handler mqtt.MessageHandler) error {
	token := client.Subscribe(topic, 0, handler)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("MQTT subscribe error (%s): %w", topic, token.Error())
	}
	log.Printf("%s: subscribed to %s", component, topic)
	return nil
}

// motionHandler decodes render commands from the motion topic and hands
// them to sink. Bad payloads are logged and dropped.
func motionHandler(component string, sink animation.Renderer) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var cmd animation.RenderCommand
		if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
			log.Printf("%s: motion unmarshal error: %v", component, err)
			return
		}
		if err := sink.Render(cmd); err != nil {
			log.Printf("%s: render error: %v", component, err)
		}
	}
}

// waitForSignal blocks until Ctrl+C or SIGTERM.
func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	signal.Stop(sigCh)
}
