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
	activity := flag.String("activity", "", "activity name, e.g. nod or shake")
	mode := flag.String("mode", app.ModePlot, "plot or animate")
	side := flag.String("side", "", "left or right (default ANIMATION_SIDE)")
	mock := flag.Bool("mock", false, "use generated recordings instead of the dataset")
	frames := flag.Bool("frames", false, "write one PNG per animated frame")
	html := flag.Bool("html", false, "also write an interactive HTML plot")
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
	opts := app.VizOptions{
		UserID:   userID,
		Activity: act,
		Mode:     *mode,
		Mock:     *mock,
		Frames:   *frames,
		HTML:     *html,
	}
	if *side != "" {
		if opts.Side, err = imu.ParseSide(*side); err != nil {
			log.Fatalf("fatal: %v", err)
		}
	}

	if err := app.RunViz(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
