// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/earbud_motion/internal/animation"
	"github.com/relabs-tech/earbud_motion/internal/imu"
	"github.com/relabs-tech/earbud_motion/internal/motion"
	"github.com/relabs-tech/earbud_motion/internal/normalize"
)

// DefaultPath is the config file the tools look for when no -config flag
// is given.
const DefaultPath = "earbud_config.txt"

// Config holds all application configuration values.
type Config struct {
	// Dataset
	DatasetRoot   string
	AnimationSide imu.Side

	// Motion mapping
	ScaleFactor       float64
	RotationGain      float64
	AnimationInterval int // milliseconds

	// Normalization
	NormalizeMode      normalize.Mode
	NormalizeChannels  []imu.Channel
	ZeroVariancePolicy normalize.Policy

	// View
	ViewExtent  float64
	ProxyExtent float64
	FrameWidth  int
	FrameHeight int
	HeadImage   string // optional PNG drawn as the head
	FramesDir   string // optional, one PNG per frame

	// Plots
	PlotOutputDir string

	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDDisplay  string

	// Topics
	TopicMotion string
	TopicSample string

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CBus string // "" selects the first bus
}

// Package-level singleton state. InitGlobal sets globalConfig once under
// the write lock; Get reads it under the read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		DatasetRoot:   "dataset",
		AnimationSide: imu.Left,

		ScaleFactor:       animation.DefaultScaleFactor,
		RotationGain:      motion.DefaultRotationGain,
		AnimationInterval: int(animation.DefaultInterval / time.Millisecond),

		NormalizeMode:      normalize.ModeZScoreCenter,
		NormalizeChannels:  append([]imu.Channel(nil), imu.AllChannels...),
		ZeroVariancePolicy: normalize.PolicyFail,

		ViewExtent:  animation.DefaultExtent.View,
		ProxyExtent: animation.DefaultExtent.Proxy,
		FrameWidth:  480,
		FrameHeight: 480,

		PlotOutputDir: "plots",

		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDProducer: "earbud-motion-producer",
		MQTTClientIDConsole:  "earbud-motion-console",
		MQTTClientIDDisplay:  "earbud-motion-display",

		TopicMotion: "earbud/motion",
		TopicSample: "earbud/sample",

		WebServerPort: 8080,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Default.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Dataset
	case "DATASET_ROOT":
		c.DatasetRoot = value
	case "ANIMATION_SIDE":
		side, err := imu.ParseSide(value)
		if err != nil {
			return fmt.Errorf("ANIMATION_SIDE: %w", err)
		}
		c.AnimationSide = side

	// Motion mapping
	case "SCALE_FACTOR":
		val, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SCALE_FACTOR %q: %w", value, err)
		}
		if val <= 0 {
			return fmt.Errorf("SCALE_FACTOR must be positive, got %g", val)
		}
		c.ScaleFactor = val
	case "ROTATION_GAIN":
		val, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid ROTATION_GAIN %q: %w", value, err)
		}
		c.RotationGain = val
	case "ANIMATION_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ANIMATION_INTERVAL %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("ANIMATION_INTERVAL must be positive (ms), got %d", interval)
		}
		c.AnimationInterval = interval

	// Normalization
	case "NORMALIZE_MODE":
		mode, err := normalize.ParseMode(value)
		if err != nil {
			return fmt.Errorf("NORMALIZE_MODE: %w", err)
		}
		c.NormalizeMode = mode
	case "NORMALIZE_CHANNELS":
		channels, err := imu.ParseChannels(value)
		if err != nil {
			return fmt.Errorf("NORMALIZE_CHANNELS: %w", err)
		}
		c.NormalizeChannels = channels
	case "ZERO_VARIANCE_POLICY":
		policy, err := normalize.ParsePolicy(value)
		if err != nil {
			return fmt.Errorf("ZERO_VARIANCE_POLICY: %w", err)
		}
		c.ZeroVariancePolicy = policy

	// View
	case "VIEW_EXTENT":
		val, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid VIEW_EXTENT %q: %w", value, err)
		}
		c.ViewExtent = val
	case "PROXY_EXTENT":
		val, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid PROXY_EXTENT %q: %w", value, err)
		}
		c.ProxyExtent = val
	case "FRAME_WIDTH":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FRAME_WIDTH %q: %w", value, err)
		}
		if val < 16 || val > 4096 {
			return fmt.Errorf("FRAME_WIDTH must be 16-4096, got %d", val)
		}
		c.FrameWidth = val
	case "FRAME_HEIGHT":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FRAME_HEIGHT %q: %w", value, err)
		}
		if val < 16 || val > 4096 {
			return fmt.Errorf("FRAME_HEIGHT must be 16-4096, got %d", val)
		}
		c.FrameHeight = val
	case "HEAD_IMAGE":
		c.HeadImage = value
	case "FRAMES_DIR":
		c.FramesDir = value

	// Plots
	case "PLOT_OUTPUT_DIR":
		c.PlotOutputDir = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_MOTION":
		c.TopicMotion = value
	case "TOPIC_SAMPLE":
		c.TopicSample = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that required fields are set and that the view extents
// are consistent.
func (c *Config) validate() error {
	if c.DatasetRoot == "" {
		return fmt.Errorf("DATASET_ROOT is required")
	}
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicMotion == "" {
		return fmt.Errorf("TOPIC_MOTION is required")
	}
	if c.ProxyExtent <= 0 {
		return fmt.Errorf("PROXY_EXTENT must be positive, got %g", c.ProxyExtent)
	}
	if c.ViewExtent <= c.ProxyExtent {
		return fmt.Errorf("VIEW_EXTENT (%g) must be larger than PROXY_EXTENT (%g)", c.ViewExtent, c.ProxyExtent)
	}
	return nil
}

// Interval returns ANIMATION_INTERVAL as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.AnimationInterval) * time.Millisecond
}

// Pipeline returns the normalization pipeline described by the config.
func (c *Config) Pipeline() normalize.Pipeline {
	return normalize.Pipeline{
		Mode:     c.NormalizeMode,
		Channels: c.NormalizeChannels,
		Policy:   c.ZeroVariancePolicy,
	}
}

// Animation returns the driver configuration.
func (c *Config) Animation() animation.Config {
	return animation.Config{
		ScaleFactor: c.ScaleFactor,
		Mapper:      motion.Mapper{RotationGain: c.RotationGain},
		Extent:      animation.Extent{View: c.ViewExtent, Proxy: c.ProxyExtent},
	}
}

// InitGlobal initializes the global configuration from file. An empty
// path selects Default. Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		if configPath == "" {
			globalConfig = Default()
			return
		}
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
