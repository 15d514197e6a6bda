// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/relabs-tech/earbud_motion/internal/animation"
	"github.com/relabs-tech/earbud_motion/internal/config"
	"github.com/relabs-tech/earbud_motion/internal/dataset"
	"github.com/relabs-tech/earbud_motion/internal/imu"
	"github.com/relabs-tech/earbud_motion/internal/motion"
	"github.com/relabs-tech/earbud_motion/internal/plot"
	"github.com/relabs-tech/earbud_motion/internal/render"
	"github.com/relabs-tech/earbud_motion/internal/timeutil"
)

// Viz modes.
const (
	ModePlot    = "plot"
	ModeAnimate = "animate"
)

// VizOptions are the command-line choices of the viz tool.
type VizOptions struct {
	UserID   int
	Activity imu.Activity
	Mode     string
	Side     imu.Side // "" uses ANIMATION_SIDE
	Mock     bool
	Frames   bool // write one PNG per animated frame
	HTML     bool // also write an interactive plot page
}

// RunViz loads the requested pair and either plots it or animates it in
// the terminal.
func RunViz(opts VizOptions) error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}
	if opts.Mode != ModePlot && opts.Mode != ModeAnimate {
		return fmt.Errorf("unknown mode %q (want %s or %s)", opts.Mode, ModePlot, ModeAnimate)
	}
	if opts.Side == "" {
		opts.Side = cfg.AnimationSide
	}

	pair, err := NewSource(cfg, opts.Mock).Load(opts.UserID, opts.Activity)
	if err != nil {
		return err
	}

	if opts.Mode == ModePlot {
		_, err := writePlots(cfg, pair, opts.Side, opts.HTML)
		return err
	}
	return animateTerminal(cfg, pair.Side(opts.Side), opts)
}

// writePlots writes the dual-panel PNG, the motion trace of side and,
// optionally, the HTML page. It returns the paths written.
func writePlots(cfg *config.Config, pair dataset.Pair, side imu.Side, html bool) ([]string, error) {
	if err := os.MkdirAll(cfg.PlotOutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}
	base := filepath.Join(cfg.PlotOutputDir, fmt.Sprintf("user%d_%s", pair.UserID, pair.Activity))

	var written []string
	dual := base + "_imu.png"
	if err := plot.WriteDualPanel(pair, dual); err != nil {
		return written, err
	}
	written = append(written, dual)

	mapper := motion.Mapper{RotationGain: cfg.RotationGain}
	frames := mapper.MapRecording(pair.Activity, pair.Side(side), cfg.ScaleFactor)
	trace := fmt.Sprintf("%s_motion_%s.png", base, side)
	if err := plot.WriteMotionTrace(frames, pair.Activity, trace); err != nil {
		return written, err
	}
	written = append(written, trace)

	if html {
		page := base + "_imu.html"
		f, err := os.Create(page)
		if err != nil {
			return written, fmt.Errorf("create plot page: %w", err)
		}
		if err := plot.RenderDualPanelHTML(f, pair); err != nil {
			f.Close()
			return written, err
		}
		if err := f.Close(); err != nil {
			return written, err
		}
		written = append(written, page)
	}

	for _, p := range written {
		log.Printf("plot: wrote %s", p)
	}
	return written, nil
}

func animateTerminal(cfg *config.Config, rec imu.Recording, opts VizOptions) error {
	sinks := render.Multi{render.NewConsole(os.Stdout)}
	if opts.Frames {
		// without FRAMES_DIR frames go next to the plots
		dir := cfg.FramesDir
		if dir == "" {
			dir = filepath.Join(cfg.PlotOutputDir, "frames")
		}
		img, err := newImageRenderer(cfg, dir)
		if err != nil {
			return err
		}
		sinks = append(sinks, img)
	}

	driver := animation.NewDriver(timeutil.RealClock{}, sinks, cfg.Animation())
	if err := driver.Start(rec, opts.Activity, cfg.Interval()); err != nil {
		return err
	}
	return waitForDriver(driver)
}

// newImageRenderer builds the PNG renderer from the view keys. dir may
// be empty to keep frames in memory only.
func newImageRenderer(cfg *config.Config, dir string) (*render.Image, error) {
	var head image.Image
	if cfg.HeadImage != "" {
		h, err := render.LoadHead(cfg.HeadImage)
		if err != nil {
			return nil, err
		}
		head = h
	}

	img, err := render.NewImage(cfg.FrameWidth, cfg.FrameHeight, head, dir)
	if err != nil {
		return nil, err
	}
	if dir != "" {
		log.Printf("render: writing frames to %s", dir)
	}
	return img, nil
}

// waitForDriver blocks until the session ends or Ctrl+C, and returns the
// error that ended it.
func waitForDriver(driver *animation.Driver) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-driver.Done():
	case <-sigCh:
		log.Println("animation: interrupted")
		driver.Stop()
	}
	return driver.Err()
}
