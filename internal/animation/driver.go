// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package animation plays a normalized recording frame by frame.
//
// A Driver owns at most one session. Each session has its own ticker and
// goroutine; ticks are handled under the Driver lock, one at a time, and
// every tick emits exactly one render command. Starting a new session
// stops and joins the previous one before the new ticker is created, so
// two tick streams never drive the same renderer.
package animation

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/earbud_motion/internal/imu"
	"github.com/relabs-tech/earbud_motion/internal/motion"
	"github.com/relabs-tech/earbud_motion/internal/timeutil"
)

// DefaultInterval is the playback tick interval used by the shells.
const DefaultInterval = 200 * time.Millisecond

// DefaultScaleFactor amplifies normalized accel into view units.
const DefaultScaleFactor = 5.0

// Extent describes the fixed visual space: the view spans [-View, View]
// on both axes and the proxy is drawn in [dx-Proxy, dx+Proxy] x
// [dy-Proxy, dy+Proxy].
type Extent struct {
	View  float64 `json:"view"`
	Proxy float64 `json:"proxy"`
}

// DefaultExtent matches a 10x10 view with a 2x2 head.
var DefaultExtent = Extent{View: 5, Proxy: 1}

// RenderCommand is emitted once per tick.
type RenderCommand struct {
	SessionID string       `json:"session_id"`
	Activity  imu.Activity `json:"activity"`
	Index     int          `json:"index"`
	Total     int          `json:"total"`
	Frame     motion.Frame `json:"frame"`
	Extent    Extent       `json:"extent"`
}

// Renderer draws one frame. It is called synchronously from the tick
// handler while the Driver lock is held, so it must not call back into
// the Driver.
type Renderer interface {
	Render(cmd RenderCommand) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(cmd RenderCommand) error

func (f RendererFunc) Render(cmd RenderCommand) error { return f(cmd) }

// State is the driver state.
type State string

const (
	Idle    State = "idle"
	Running State = "running"
)

// Status is a snapshot of the driver.
type Status struct {
	State      State        `json:"state"`
	SessionID  string       `json:"session_id,omitempty"`
	Activity   imu.Activity `json:"activity,omitempty"`
	FrameIndex int          `json:"frame_index"`
	Total      int          `json:"total"`
}

// Config holds the per-driver rendering parameters.
type Config struct {
	ScaleFactor float64
	Mapper      motion.Mapper
	Extent      Extent
}

// DefaultConfig returns the scale, gain and extent of the reference viewer.
func DefaultConfig() Config {
	return Config{
		ScaleFactor: DefaultScaleFactor,
		Mapper:      motion.NewMapper(),
		Extent:      DefaultExtent,
	}
}

type session struct {
	id         string
	rec        imu.Recording
	activity   imu.Activity
	interval   time.Duration
	frameIndex int

	ticker timeutil.Ticker
	quit   chan struct{}
	done   chan struct{}
}

// Driver owns the playback clock and the current session.
type Driver struct {
	clock    timeutil.Clock
	renderer Renderer
	cfg      Config

	// lifecycle serialises Start and Stop.
	lifecycle sync.Mutex

	mu      sync.Mutex
	session *session
	lastErr error
}

// NewDriver returns an idle Driver.
func NewDriver(clock timeutil.Clock, renderer Renderer, cfg Config) *Driver {
	return &Driver{
		clock:    clock,
		renderer: renderer,
		cfg:      cfg,
	}
}

// Start begins playing rec. A running session is torn down first.
func (d *Driver) Start(rec imu.Recording, activity imu.Activity, interval time.Duration) error {
	if rec.Len() == 0 {
		return fmt.Errorf("start animation: %w", imu.ErrEmptyRecording)
	}
	if !activity.Valid() {
		return &imu.InvalidActivityError{Activity: string(activity)}
	}
	if interval <= 0 {
		return fmt.Errorf("start animation: interval must be positive, got %v", interval)
	}

	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if prev := d.release(); prev != nil {
		log.Printf("animation: session %s superseded at frame %d/%d", prev.id, prev.frameIndex, prev.rec.Len())
	}

	s := &session{
		id:       uuid.NewString(),
		rec:      rec,
		activity: activity,
		interval: interval,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.ticker = d.clock.NewTicker(interval)

	d.mu.Lock()
	d.session = s
	d.lastErr = nil
	d.mu.Unlock()

	go d.run(s)

	log.Printf("animation: session %s started (%s, %d frames, every %v)", s.id, activity, rec.Len(), interval)
	return nil
}

// Stop ends the running session and leaves the last frame on screen.
// It is a no-op when idle.
func (d *Driver) Stop() {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if s := d.release(); s != nil {
		log.Printf("animation: session %s stopped at frame %d/%d", s.id, s.frameIndex, s.rec.Len())
	}
}

// Status returns a snapshot of the current session.
func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.session
	if s == nil {
		return Status{State: Idle}
	}
	return Status{
		State:      Running,
		SessionID:  s.id,
		Activity:   s.activity,
		FrameIndex: s.frameIndex,
		Total:      s.rec.Len(),
	}
}

// Done returns a channel closed when the current session has finished and
// its goroutine has exited. When idle it returns a closed channel.
func (d *Driver) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return d.session.done
}

// Err returns the error that ended the last session, if any.
func (d *Driver) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// release detaches the current session, stops its ticker and waits for its
// goroutine. Callers hold d.lifecycle.
func (d *Driver) release() *session {
	d.mu.Lock()
	s := d.session
	d.session = nil
	d.mu.Unlock()

	if s == nil {
		return nil
	}
	s.ticker.Stop()
	close(s.quit)
	<-s.done
	return s
}

func (d *Driver) run(s *session) {
	defer close(s.done)

	for {
		select {
		case <-s.quit:
			return
		case <-s.ticker.C():
			if !d.tick(s) {
				return
			}
		}
	}
}

// tick renders the next frame of s. It returns false once s is no longer
// the current session.
func (d *Driver) tick(s *session) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != s {
		return false
	}
	if s.frameIndex >= s.rec.Len() {
		d.finish(s, nil)
		return false
	}

	cmd := RenderCommand{
		SessionID: s.id,
		Activity:  s.activity,
		Index:     s.frameIndex,
		Total:     s.rec.Len(),
		Frame:     d.cfg.Mapper.MapFrame(s.activity, s.rec.At(s.frameIndex), d.cfg.ScaleFactor),
		Extent:    d.cfg.Extent,
	}
	if err := d.renderer.Render(cmd); err != nil {
		d.finish(s, &RenderError{SessionID: s.id, Index: s.frameIndex, Err: err})
		return false
	}

	s.frameIndex++
	// Go idle with the last render instead of spending one more tick on it.
	if s.frameIndex >= s.rec.Len() {
		d.finish(s, nil)
		return false
	}
	return true
}

// finish ends s from inside its own goroutine. Callers hold d.mu.
func (d *Driver) finish(s *session, err error) {
	s.ticker.Stop()
	d.session = nil
	d.lastErr = err

	if err != nil {
		log.Printf("animation: session %s aborted: %v", s.id, err)
		return
	}
	log.Printf("animation: session %s finished after %d frames", s.id, s.frameIndex)
}

// RenderError reports a renderer failure that ended a session.
type RenderError struct {
	SessionID string
	Index     int
	Err       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render frame %d of session %s: %v", e.Index, e.SessionID, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// IsRenderError reports whether err came from a renderer.
func IsRenderError(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}
