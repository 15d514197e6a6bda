// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/earbud_motion/internal/app"
	"github.com/relabs-tech/earbud_motion/internal/config"
	"github.com/relabs-tech/earbud_motion/internal/dataset"
	"github.com/relabs-tech/earbud_motion/internal/imu"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	user := flag.String("user", "", "user id (0-29)")
	activity := flag.String("activity", "", "activity name")
	side := flag.String("side", "", "left or right (default ANIMATION_SIDE)")
	mock := flag.Bool("mock", false, "publish generated recordings")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	userID, err := dataset.ParseUserID(*user)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	act, err := imu.ParseActivity(*activity)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	opts := app.ProducerOptions{UserID: userID, Activity: act, Mock: *mock}
	if *side != "" {
		if opts.Side, err = imu.ParseSide(*side); err != nil {
			log.Fatalf("fatal: %v", err)
		}
	}

	if err := app.RunProducer(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
