// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/earbud_motion/internal/config"
	"github.com/relabs-tech/earbud_motion/internal/render"
)

func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	client, err := connectMQTT("console", cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribe("console", client, cfg.TopicMotion, motionHandler("console", render.NewConsole(os.Stdout))); err != nil {
		return err
	}
	if cfg.TopicSample != "" {
		if err := subscribe("console", client, cfg.TopicSample, sampleHandler(os.Stdout)); err != nil {
			return err
		}
	}

	waitForSignal()
	log.Println("console: shutting down")
	return nil
}

// sampleHandler prints the normalized samples published next to the
// motion frames.
func sampleHandler(w io.Writer) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var m SampleMessage
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("console: sample unmarshal error: %v", err)
			return
		}
		s := m.Sample
		fmt.Fprintf(w,
			"[SAMPLE-%s] #%-4d t=%8.3f  ax=%7.3f ay=%7.3f az=%7.3f  gx=%7.3f gy=%7.3f gz=%7.3f\n",
			m.Side, m.Index, s.Timestamp, s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz,
		)
	}
}
