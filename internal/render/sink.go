// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/relabs-tech/earbud_motion/internal/animation"
)

// Console prints one line per frame.
type Console struct {
	w io.Writer
}

// NewConsole writes to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Render(cmd animation.RenderCommand) error {
	_, err := fmt.Fprintf(c.w,
		"[MOTION] %-13s frame=%4d/%-4d dx=%7.3f dy=%7.3f rot=%7.4f\n",
		cmd.Activity, cmd.Index+1, cmd.Total,
		cmd.Frame.DX, cmd.Frame.DY, cmd.Frame.Rotation,
	)
	return err
}

// Latest keeps the last command for polling clients.
type Latest struct {
	mu   sync.RWMutex
	last animation.RenderCommand
	have bool
}

func (l *Latest) Render(cmd animation.RenderCommand) error {
	l.mu.Lock()
	l.last = cmd
	l.have = true
	l.mu.Unlock()
	return nil
}

// Last returns the last command and whether there was one.
func (l *Latest) Last() (animation.RenderCommand, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last, l.have
}

// ServeHTTP writes the last command as JSON, or 503 before the first one.
func (l *Latest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmd, ok := l.Last()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cmd); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// Multi renders to every sink in order; all sinks run even if one fails.
type Multi []animation.Renderer

func (m Multi) Render(cmd animation.RenderCommand) error {
	var errs []error
	for _, r := range m {
		if err := r.Render(cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
