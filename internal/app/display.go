// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"sync"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/earbud_motion/internal/animation"
	"github.com/relabs-tech/earbud_motion/internal/config"
	"github.com/relabs-tech/earbud_motion/internal/render"
)

// RunDisplay mirrors the motion topic on an SSD1306 OLED.
func RunDisplay() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Printf("display: initialized %v", dev.Bounds().Size())

	oled := render.NewOLED(dev)
	if err := oled.Splash(); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	client, err := connectMQTT("display", cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribe("display", client, cfg.TopicMotion, motionHandler("display", serialized(oled))); err != nil {
		return err
	}

	waitForSignal()
	log.Println("display: shutting down")
	return nil
}

// serialized lets only one Render reach r at a time.
func serialized(r animation.Renderer) animation.Renderer {
	var mu sync.Mutex
	return animation.RendererFunc(func(cmd animation.RenderCommand) error {
		mu.Lock()
		defer mu.Unlock()
		return r.Render(cmd)
	})
}
