// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/earbud_motion/internal/app"
	"github.com/relabs-tech/earbud_motion/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to configuration file")
	mock := flag.Bool("mock", false, "serve generated recordings instead of the dataset")
	flag.Parse()

	log.Println("starting earbud-motion web server")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunWeb(*mock); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
