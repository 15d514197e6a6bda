// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/earbud_motion/internal/animation"
	"github.com/relabs-tech/earbud_motion/internal/config"
	"github.com/relabs-tech/earbud_motion/internal/dataset"
	"github.com/relabs-tech/earbud_motion/internal/imu"
	"github.com/relabs-tech/earbud_motion/internal/timeutil"
)

const testInterval = 100 * time.Millisecond

type webFixture struct {
	srv   *WebServer
	clock *timeutil.MockClock
	root  string
}

func newWebFixture(t *testing.T) *webFixture {
	t.Helper()

	root := t.TempDir()
	writePair(t, root, 4, imu.Nod, nodRecording(imu.Left), nodRecording(imu.Right))

	cfg := config.Default()
	cfg.DatasetRoot = root
	cfg.AnimationInterval = int(testInterval / time.Millisecond)
	cfg.FrameWidth, cfg.FrameHeight = 64, 64

	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	srv, err := NewWebServer(cfg, NewSource(cfg, false), clock)
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	return &webFixture{srv: srv, clock: clock, root: root}
}

func (f *webFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) StatusResponse {
	t.Helper()
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// step advances the clock one interval and waits for the frame index.
func (f *webFixture) step(t *testing.T, wantIndex int) {
	t.Helper()
	f.clock.Advance(testInterval)
	require.Eventually(t, func() bool {
		st := f.srv.Driver().Status()
		return st.FrameIndex == wantIndex || st.State == animation.Idle
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWebStartStatusStop(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(t, http.MethodGet, "/api/animation/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, animation.Idle, decodeStatus(t, rec).State)

	rec = f.do(t, http.MethodPost, "/api/animation/start", `{"user_id":4,"activity":"Nod","side":"right"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decodeStatus(t, rec)
	assert.Equal(t, animation.Running, st.State)
	assert.Equal(t, imu.Nod, st.Activity)
	assert.Equal(t, imu.Right, st.Side)
	assert.Equal(t, 5, st.Total)
	assert.NotEmpty(t, st.SessionID)

	f.step(t, 1)
	f.step(t, 2)

	rec = f.do(t, http.MethodGet, "/api/motion", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cmd animation.RenderCommand
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmd))
	assert.Equal(t, 1, cmd.Index)
	assert.Equal(t, st.SessionID, cmd.SessionID)
	assert.Equal(t, 0.0, cmd.Frame.DX)

	rec = f.do(t, http.MethodGet, "/frame.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())

	rec = f.do(t, http.MethodPost, "/api/animation/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, animation.Idle, decodeStatus(t, rec).State)

	// the last frame stays available after stop
	rec = f.do(t, http.MethodGet, "/api/motion", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// stopping again is a no-op
	rec = f.do(t, http.MethodPost, "/api/animation/stop", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebRunsToCompletion(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(t, http.MethodPost, "/api/animation/start", `{"user_id":4,"activity":"nod"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for i := 1; i <= 5; i++ {
		f.step(t, i)
	}
	select {
	case <-f.srv.Driver().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("animation did not finish")
	}

	st := decodeStatus(t, f.do(t, http.MethodGet, "/api/animation/status", ""))
	assert.Equal(t, animation.Idle, st.State)
	assert.Empty(t, st.Error)
	assert.Equal(t, 0, f.clock.ActiveTickers())
}

func TestWebNoDataYet(t *testing.T) {
	f := newWebFixture(t)

	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodGet, "/api/motion", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodGet, "/frame.png", "").Code)
}

func TestWebStartErrors(t *testing.T) {
	f := newWebFixture(t)

	constant := nodRecording(imu.Left)
	for i := range constant.Samples {
		constant.Samples[i].Ax = 1
	}
	writePair(t, f.root, 5, imu.Shake, constant, nodRecording(imu.Right))

	malformed := dataset.Path(f.root, 6, imu.Nod, imu.Left)
	require.NoError(t, os.MkdirAll(filepath.Dir(malformed), 0o755))
	require.NoError(t, os.WriteFile(malformed, []byte("timestamp,ax,ay,az,gx,gy,gz\n0,1,2,x,4,5,6\n"), 0o644))
	require.NoError(t, os.WriteFile(dataset.Path(f.root, 6, imu.Nod, imu.Right), []byte("timestamp,ax,ay,az,gx,gy,gz\n0,1,2,3,4,5,6\n"), 0o644))

	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"no user", `{"activity":"nod"}`, http.StatusBadRequest},
		{"user out of range", `{"user_id":30,"activity":"nod"}`, http.StatusBadRequest},
		{"unknown activity", `{"user_id":4,"activity":"dancing"}`, http.StatusBadRequest},
		{"bad side", `{"user_id":4,"activity":"nod","side":"middle"}`, http.StatusBadRequest},
		{"negative interval", `{"user_id":4,"activity":"nod","interval_ms":-5}`, http.StatusBadRequest},
		{"missing files", `{"user_id":9,"activity":"nod"}`, http.StatusNotFound},
		{"constant channel", `{"user_id":5,"activity":"shake"}`, http.StatusUnprocessableEntity},
		{"malformed csv", `{"user_id":6,"activity":"nod"}`, http.StatusUnprocessableEntity},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/animation/start", c.body)
			assert.Equal(t, c.want, rec.Code, rec.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestWebFailedStartKeepsRunningSession(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(t, http.MethodPost, "/api/animation/start", `{"user_id":4,"activity":"nod"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	before := decodeStatus(t, rec)
	f.step(t, 1)

	rec = f.do(t, http.MethodPost, "/api/animation/start", `{"user_id":12,"activity":"nod"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	after := decodeStatus(t, f.do(t, http.MethodGet, "/api/animation/status", ""))
	assert.Equal(t, animation.Running, after.State)
	assert.Equal(t, before.SessionID, after.SessionID)
	assert.Equal(t, 1, after.FrameIndex)
	assert.Equal(t, 1, f.clock.ActiveTickers())
}

func TestWebRestartReplacesSession(t *testing.T) {
	f := newWebFixture(t)

	first := decodeStatus(t, f.do(t, http.MethodPost, "/api/animation/start", `{"user_id":4,"activity":"nod"}`))
	f.step(t, 1)

	rec := f.do(t, http.MethodPost, "/api/animation/start", `{"user_id":4,"activity":"nod","side":"right"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeStatus(t, rec)

	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, 0, second.FrameIndex)
	assert.Equal(t, 1, f.clock.ActiveTickers())
}

func TestWebPlot(t *testing.T) {
	f := newWebFixture(t)

	rec := f.do(t, http.MethodGet, "/plot?user=4&activity=nod", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "User 4 - nod IMU (Left)")

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/plot?user=abc&activity=nod", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/plot?user=4&activity=jump", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/plot?user=8&activity=nod", "").Code)
}

func TestWebMethodNotAllowed(t *testing.T) {
	f := newWebFixture(t)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodDelete, "/api/animation/start", "").Code)
}
