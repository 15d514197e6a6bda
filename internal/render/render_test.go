// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/earbud_motion/internal/animation"
	"github.com/relabs-tech/earbud_motion/internal/imu"
	"github.com/relabs-tech/earbud_motion/internal/motion"
)

func command(index int, f motion.Frame) animation.RenderCommand {
	return animation.RenderCommand{
		SessionID: "s1",
		Activity:  imu.Nod,
		Index:     index,
		Total:     10,
		Frame:     f,
		Extent:    animation.DefaultExtent,
	}
}

func TestViewportCentre(t *testing.T) {
	v := newViewport(image.Rect(0, 0, 100, 100), animation.DefaultExtent)
	assert.Equal(t, 10.0, v.scale)

	x, y := v.toPixel(0, 0)
	assert.Equal(t, 50.0, x)
	assert.Equal(t, 50.0, y)

	// y up in view space is y down in pixels
	x, y = v.toPixel(5, 5)
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 0.0, y)
}

func TestProxyOutlineFollowsFrame(t *testing.T) {
	v := newViewport(image.Rect(0, 0, 100, 100), animation.DefaultExtent)

	_, center, heading := proxyOutline(v, command(0, motion.Frame{DX: 2, DY: -1}))
	assert.Equal(t, image.Pt(70, 60), center)
	// unrotated heading points straight up, one proxy radius away
	assert.Equal(t, image.Pt(70, 50), heading)

	ring, _, _ := proxyOutline(v, command(0, motion.Frame{}))
	require.NotEmpty(t, ring)
	for _, p := range ring {
		assert.InDelta(t, 10.0, math.Hypot(float64(p.X-50), float64(p.Y-50)), 1)
	}
}

func TestLineEndpoints(t *testing.T) {
	pts := line(image.Pt(0, 0), image.Pt(4, 2))
	require.Len(t, pts, 5)
	assert.Equal(t, image.Pt(0, 0), pts[0])
	assert.Equal(t, image.Pt(4, 2), pts[4])

	assert.Equal(t, []image.Point{{X: 3, Y: 3}}, line(image.Pt(3, 3), image.Pt(3, 3)))
}

func TestImageRendersCircle(t *testing.T) {
	r, err := NewImage(100, 100, nil, "")
	require.NoError(t, err)
	assert.Nil(t, r.Last())

	require.NoError(t, r.Render(command(0, motion.Frame{})))
	img := r.Last()
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())

	// heading tick passes through the centre
	assert.Equal(t, color.RGBAModel.Convert(foreground), img.At(50, 45))
	// far corner stays background
	assert.Equal(t, color.RGBAModel.Convert(background), img.At(99, 99))

	var buf bytes.Buffer
	require.NoError(t, r.WritePNG(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestImageWithHead(t *testing.T) {
	head := image.NewRGBA(image.Rect(0, 0, 8, 8))
	red := color.RGBA{R: 0xff, A: 0xff}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			head.Set(x, y, red)
		}
	}

	r, err := NewImage(100, 100, head, "")
	require.NoError(t, err)
	require.NoError(t, r.Render(command(0, motion.Frame{DX: -2, DY: 2, Rotation: 0.3})))

	img := r.Last()
	// proxy centre sits at (30, 30)
	assert.Equal(t, color.RGBAModel.Convert(red), img.At(30, 30))
	assert.Equal(t, color.RGBAModel.Convert(background), img.At(80, 80))
}

func TestImageWritesFrames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	r, err := NewImage(32, 32, nil, dir)
	require.NoError(t, err)

	require.NoError(t, r.Render(command(0, motion.Frame{})))
	require.NoError(t, r.Render(command(1, motion.Frame{DX: 1})))

	for _, name := range []string{"frame_00000.png", "frame_00001.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestImageErrors(t *testing.T) {
	_, err := NewImage(0, 10, nil, "")
	assert.Error(t, err)

	r, err := NewImage(10, 10, nil, "")
	require.NoError(t, err)
	assert.Error(t, r.WritePNG(&bytes.Buffer{}))
}

func TestLoadHead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "head.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 6))))
	require.NoError(t, f.Close())

	img, err := LoadHead(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 6), img.Bounds())

	_, err = LoadHead(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o644))
	_, err = LoadHead(bad)
	assert.Error(t, err)
}

type fakeDisplay struct {
	drawn []image.Image
	err   error
}

func (d *fakeDisplay) Bounds() image.Rectangle { return image.Rect(0, 0, 128, 64) }

func (d *fakeDisplay) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.drawn = append(d.drawn, src)
	return d.err
}

func TestOLEDRender(t *testing.T) {
	dev := &fakeDisplay{}
	o := NewOLED(dev)

	require.NoError(t, o.Splash())
	require.NoError(t, o.Render(command(3, motion.Frame{})))
	require.Len(t, dev.drawn, 2)

	img, ok := dev.drawn[1].(*image1bit.VerticalLSB)
	require.True(t, ok)
	// centre of the 64x64 head square, on the heading tick
	assert.Equal(t, image1bit.On, img.BitAt(32, 28))
	assert.Equal(t, image1bit.Off, img.BitAt(0, 63))

	dev.err = errors.New("i2c")
	assert.Error(t, o.Render(command(4, motion.Frame{})))
}

type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool                     { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Done() <-chan struct{}          { return make(chan struct{}) }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakePublisher struct {
	msgs  []published
	token *fakeToken
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.msgs = append(p.msgs, published{topic: topic, retained: retained, payload: payload.([]byte)})
	if p.token == nil {
		return &fakeToken{}
	}
	return p.token
}

func TestMQTTRender(t *testing.T) {
	pub := &fakePublisher{}
	m := NewMQTT(pub, "earbud/motion")

	want := command(2, motion.Frame{DX: 1.5, DY: -0.5, Rotation: 0.02})
	require.NoError(t, m.Render(want))
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "earbud/motion", pub.msgs[0].topic)
	assert.False(t, pub.msgs[0].retained)

	var got animation.RenderCommand
	require.NoError(t, json.Unmarshal(pub.msgs[0].payload, &got))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestMQTTErrors(t *testing.T) {
	pub := &fakePublisher{token: &fakeToken{timeout: true}}
	err := NewMQTT(pub, "t").Render(command(0, motion.Frame{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")

	broker := errors.New("not connected")
	pub.token = &fakeToken{err: broker}
	err = PublishJSON(pub, "t", map[string]int{"a": 1}, time.Second)
	assert.ErrorIs(t, err, broker)
	assert.True(t, pub.msgs[len(pub.msgs)-1].retained)
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	require.NoError(t, c.Render(command(0, motion.Frame{DX: 1, DY: -2.5, Rotation: 0.01})))

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "[MOTION] nod"))
	assert.Contains(t, line, "frame=   1/10")
	assert.Contains(t, line, "dy= -2.500")
}

func TestLatest(t *testing.T) {
	l := &Latest{}

	rec := httptest.NewRecorder()
	l.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/motion", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	want := command(5, motion.Frame{DX: 3})
	require.NoError(t, l.Render(want))

	rec = httptest.NewRecorder()
	l.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/motion", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got animation.RenderCommand
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, want, got)
}

func TestMultiRunsAllSinks(t *testing.T) {
	var calls []string
	sink := func(name string, err error) animation.Renderer {
		return animation.RendererFunc(func(animation.RenderCommand) error {
			calls = append(calls, name)
			return err
		})
	}
	boom := errors.New("boom")

	m := Multi{sink("a", nil), sink("b", boom), sink("c", nil)}
	err := m.Render(command(0, motion.Frame{}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b", "c"}, calls)

	assert.NoError(t, Multi{}.Render(command(0, motion.Frame{})))
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	want := command(7, motion.Frame{DY: 4})
	require.NoError(t, hub.Render(want))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got animation.RenderCommand
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, want, got)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubCloseSendsNormalClosure(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestHubWithoutClients(t *testing.T) {
	hub := NewHub()
	assert.NoError(t, hub.Render(command(0, motion.Frame{})))
	assert.Equal(t, 0, hub.Clients())
	hub.Close()
}
