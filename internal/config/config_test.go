// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/earbud_motion/internal/animation"
	"github.com/relabs-tech/earbud_motion/internal/imu"
	"github.com/relabs-tech/earbud_motion/internal/motion"
	"github.com/relabs-tech/earbud_motion/internal/normalize"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())

	assert.Equal(t, 200*time.Millisecond, cfg.Interval())
	if diff := cmp.Diff(normalize.DefaultPipeline(), cfg.Pipeline()); diff != "" {
		t.Errorf("pipeline mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(animation.DefaultConfig(), cfg.Animation()); diff != "" {
		t.Errorf("animation config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	input := `
# earbud motion
DATASET_ROOT = /data/earbuds
ANIMATION_SIDE=right
SCALE_FACTOR=2.5
ROTATION_GAIN=0.02
ANIMATION_INTERVAL=50
NORMALIZE_MODE=center
NORMALIZE_CHANNELS=ax,ay,az
ZERO_VARIANCE_POLICY=zero
VIEW_EXTENT=8
PROXY_EXTENT=2
FRAME_WIDTH=320
FRAME_HEIGHT=240
HEAD_IMAGE=head.png
FRAMES_DIR=frames
PLOT_OUTPUT_DIR=out
MQTT_BROKER=tcp://broker:1883
MQTT_CLIENT_ID_PRODUCER=p
MQTT_CLIENT_ID_CONSOLE=c
MQTT_CLIENT_ID_DISPLAY=d
TOPIC_MOTION=m
TOPIC_SAMPLE=s
WEB_SERVER_PORT=9000
DISPLAY_I2C_BUS=1
`
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	want := &Config{
		DatasetRoot:          "/data/earbuds",
		AnimationSide:        imu.Right,
		ScaleFactor:          2.5,
		RotationGain:         0.02,
		AnimationInterval:    50,
		NormalizeMode:        normalize.ModeCenter,
		NormalizeChannels:    []imu.Channel{imu.Ax, imu.Ay, imu.Az},
		ZeroVariancePolicy:   normalize.PolicyZero,
		ViewExtent:           8,
		ProxyExtent:          2,
		FrameWidth:           320,
		FrameHeight:          240,
		HeadImage:            "head.png",
		FramesDir:            "frames",
		PlotOutputDir:        "out",
		MQTTBroker:           "tcp://broker:1883",
		MQTTClientIDProducer: "p",
		MQTTClientIDConsole:  "c",
		MQTTClientIDDisplay:  "d",
		TopicMotion:          "m",
		TopicSample:          "s",
		WebServerPort:        9000,
		DisplayI2CBus:        "1",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 50*time.Millisecond, cfg.Interval())
	assert.Equal(t, animation.Config{
		ScaleFactor: 2.5,
		Mapper:      motion.Mapper{RotationGain: 0.02},
		Extent:      animation.Extent{View: 8, Proxy: 2},
	}, cfg.Animation())
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"no equals":       "DATASET_ROOT",
		"unknown key":     "NOPE=1",
		"bad side":        "ANIMATION_SIDE=middle",
		"bad float":       "SCALE_FACTOR=big",
		"zero scale":      "SCALE_FACTOR=0",
		"zero interval":   "ANIMATION_INTERVAL=0",
		"bad mode":        "NORMALIZE_MODE=minmax",
		"bad channel":     "NORMALIZE_CHANNELS=ax,qq",
		"bad policy":      "ZERO_VARIANCE_POLICY=ignore",
		"tiny frame":      "FRAME_WIDTH=4",
		"bad port":        "WEB_SERVER_PORT=70000",
		"empty root":      "DATASET_ROOT=",
		"proxy too large": "PROXY_EXTENT=6",
		"zero proxy":      "PROXY_EXTENT=0",
		"no topic":        "TOPIC_MOTION=",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestParseReportsLine(t *testing.T) {
	_, err := Parse(strings.NewReader("# comment\n\nSCALE_FACTOR=abc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config line 3")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "earbud_config.txt")
	require.NoError(t, os.WriteFile(path, []byte("DATASET_ROOT=/tmp/ds\nNORMALIZE_MODE=none\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ds", cfg.DatasetRoot)
	assert.Equal(t, normalize.ModeNone, cfg.NormalizeMode)

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestDefaultChannelsNotShared(t *testing.T) {
	cfg := Default()
	cfg.NormalizeChannels[0] = imu.Gz
	assert.Equal(t, imu.Ax, imu.AllChannels[0])
}
