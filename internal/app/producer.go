// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/earbud_motion/internal/animation"
	"github.com/relabs-tech/earbud_motion/internal/config"
	"github.com/relabs-tech/earbud_motion/internal/imu"
	"github.com/relabs-tech/earbud_motion/internal/render"
	"github.com/relabs-tech/earbud_motion/internal/timeutil"
)

// SampleMessage is published on TOPIC_SAMPLE for every animated frame.
type SampleMessage struct {
	SessionID string       `json:"session_id"`
	Activity  imu.Activity `json:"activity"`
	Side      imu.Side     `json:"side"`
	Index     int          `json:"index"`
	Total     int          `json:"total"`
	Sample    imu.Sample   `json:"sample"`
}

// ProducerOptions select what the producer replays.
type ProducerOptions struct {
	UserID   int
	Activity imu.Activity
	Side     imu.Side // "" uses ANIMATION_SIDE
	Mock     bool
}

// RunProducer plays one recording and publishes each frame on
// TOPIC_MOTION and the sample behind it on TOPIC_SAMPLE.
func RunProducer(opts ProducerOptions) error {
	log.Println("starting earbud-motion producer")

	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}
	if opts.Side == "" {
		opts.Side = cfg.AnimationSide
	}

	pair, err := NewSource(cfg, opts.Mock).Load(opts.UserID, opts.Activity)
	if err != nil {
		return err
	}
	rec := pair.Side(opts.Side)

	client, err := connectMQTT("producer", cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	sinks := render.Multi{render.NewMQTT(client, cfg.TopicMotion)}
	if cfg.TopicSample != "" {
		sinks = append(sinks, sampleRenderer(client, cfg.TopicSample, rec))
	}

	driver := animation.NewDriver(timeutil.RealClock{}, sinks, cfg.Animation())
	if err := driver.Start(rec, opts.Activity, cfg.Interval()); err != nil {
		return err
	}
	log.Printf("producer: publishing %d frames of user %d %s (%s) to %s",
		rec.Len(), opts.UserID, opts.Activity, opts.Side, cfg.TopicMotion)

	return waitForDriver(driver)
}

// sampleRenderer publishes the sample behind each frame of rec.
func sampleRenderer(client render.Publisher, topic string, rec imu.Recording) animation.Renderer {
	return animation.RendererFunc(func(cmd animation.RenderCommand) error {
		if cmd.Index < 0 || cmd.Index >= rec.Len() {
			return fmt.Errorf("sample index %d out of range (%d samples)", cmd.Index, rec.Len())
		}
		return render.PublishJSON(client, topic, SampleMessage{
			SessionID: cmd.SessionID,
			Activity:  cmd.Activity,
			Side:      rec.Side,
			Index:     cmd.Index,
			Total:     cmd.Total,
			Sample:    rec.At(cmd.Index),
		}, time.Second)
	})
}
