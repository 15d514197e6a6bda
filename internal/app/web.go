// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/relabs-tech/earbud_motion/internal/animation"
	"github.com/relabs-tech/earbud_motion/internal/config"
	"github.com/relabs-tech/earbud_motion/internal/dataset"
	"github.com/relabs-tech/earbud_motion/internal/imu"
	"github.com/relabs-tech/earbud_motion/internal/normalize"
	"github.com/relabs-tech/earbud_motion/internal/plot"
	"github.com/relabs-tech/earbud_motion/internal/render"
	"github.com/relabs-tech/earbud_motion/internal/timeutil"
)

// StartRequest is the body of POST /api/animation/start.
type StartRequest struct {
	UserID     *int   `json:"user_id"`
	Activity   string `json:"activity"`
	Side       string `json:"side,omitempty"`        // default ANIMATION_SIDE
	IntervalMS int    `json:"interval_ms,omitempty"` // default ANIMATION_INTERVAL
}

// StatusResponse is returned by the animation endpoints.
type StatusResponse struct {
	animation.Status
	Side  imu.Side `json:"side,omitempty"`
	Error string   `json:"error,omitempty"`
}

// WebServer drives one animation for browser clients. Frames reach them
// over /ws, as the latest JSON command and as a PNG.
type WebServer struct {
	cfg    *config.Config
	source *Source
	driver *animation.Driver
	hub    *render.Hub
	latest *render.Latest
	frames *render.Image
	mux    *http.ServeMux

	mu   sync.Mutex
	side imu.Side // side of the running session
}

// NewWebServer wires the driver to the websocket hub, the latest-frame
// store and the PNG renderer.
func NewWebServer(cfg *config.Config, source *Source, clock timeutil.Clock) (*WebServer, error) {
	frames, err := newImageRenderer(cfg, cfg.FramesDir)
	if err != nil {
		return nil, err
	}

	s := &WebServer{
		cfg:    cfg,
		source: source,
		hub:    render.NewHub(),
		latest: &render.Latest{},
		frames: frames,
		mux:    http.NewServeMux(),
	}
	s.driver = animation.NewDriver(clock, render.Multi{s.latest, s.hub, s.frames}, cfg.Animation())

	s.mux.HandleFunc("POST /api/animation/start", s.handleStart)
	s.mux.HandleFunc("POST /api/animation/stop", s.handleStop)
	s.mux.HandleFunc("GET /api/animation/status", s.handleStatus)
	s.mux.Handle("GET /api/motion", s.latest)
	s.mux.Handle("GET /ws", s.hub)
	s.mux.HandleFunc("GET /plot", s.handlePlot)
	s.mux.HandleFunc("GET /frame.png", s.handleFrame)
	s.mux.Handle("GET /", http.FileServer(http.Dir("web")))

	return s, nil
}

// Handler returns the HTTP handler.
func (s *WebServer) Handler() http.Handler { return s.mux }

// Driver exposes the animation driver.
func (s *WebServer) Driver() *animation.Driver { return s.driver }

// Close stops the animation and disconnects websocket clients.
func (s *WebServer) Close() {
	s.driver.Stop()
	s.hub.Close()
}

func (s *WebServer) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.UserID == nil {
		writeJSONError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	activity, err := imu.ParseActivity(req.Activity)
	if err != nil {
		writeError(w, err)
		return
	}
	side := s.cfg.AnimationSide
	if req.Side != "" {
		if side, err = imu.ParseSide(req.Side); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	interval := s.cfg.Interval()
	if req.IntervalMS < 0 {
		writeJSONError(w, http.StatusBadRequest, "interval_ms must be positive")
		return
	}
	if req.IntervalMS > 0 {
		interval = time.Duration(req.IntervalMS) * time.Millisecond
	}

	// a failed load leaves the running animation alone
	pair, err := s.source.Load(*req.UserID, activity)
	if err != nil {
		log.Printf("web: load user %d %s: %v", *req.UserID, activity, err)
		writeError(w, err)
		return
	}
	s.mu.Lock()
	err = s.driver.Start(pair.Side(side), activity, interval)
	if err == nil {
		s.side = side
	}
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.status())
}

func (s *WebServer) handleStop(w http.ResponseWriter, r *http.Request) {
	s.driver.Stop()
	writeJSON(w, http.StatusOK, s.status())
}

func (s *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *WebServer) status() StatusResponse {
	s.mu.Lock()
	resp := StatusResponse{Status: s.driver.Status()}
	if resp.State == animation.Running {
		resp.Side = s.side
	}
	s.mu.Unlock()
	if err := s.driver.Err(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// handlePlot renders the interactive dual-panel plot for ?user=&activity=.
func (s *WebServer) handlePlot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, err := dataset.ParseUserID(q.Get("user"))
	if err != nil {
		writeError(w, err)
		return
	}
	activity, err := imu.ParseActivity(q.Get("activity"))
	if err != nil {
		writeError(w, err)
		return
	}

	pair, err := s.source.Load(userID, activity)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := plot.RenderDualPanelHTML(&buf, pair); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *WebServer) handleFrame(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.frames.WritePNG(&buf); err != nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// StatusCode maps a load, validation or start error to an HTTP status.
func StatusCode(err error) int {
	var (
		missing    *dataset.MissingFileError
		badUser    *dataset.InvalidUserIDError
		badAct     *imu.InvalidActivityError
		malformed  *dataset.MalformedRecordError
		degenerate *normalize.DegenerateChannelError
	)
	switch {
	case errors.As(err, &missing):
		return http.StatusNotFound
	case errors.As(err, &badUser), errors.As(err, &badAct):
		return http.StatusBadRequest
	case errors.As(err, &malformed), errors.As(err, &degenerate), errors.Is(err, imu.ErrEmptyRecording):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSONError(w, StatusCode(err), err.Error())
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// RunWeb serves the animation API on WEB_SERVER_PORT.
func RunWeb(mock bool) error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	srv, err := NewWebServer(cfg, NewSource(cfg, mock), timeutil.RealClock{})
	if err != nil {
		return err
	}
	defer srv.Close()

	addr := ":" + strconv.Itoa(cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
