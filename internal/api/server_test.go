package api

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sortcell/sortcell/internal/actuator"
	"github.com/sortcell/sortcell/internal/classify"
	"github.com/sortcell/sortcell/internal/events"
	"github.com/sortcell/sortcell/internal/monitoring"
	"github.com/sortcell/sortcell/internal/sorter"
	"github.com/sortcell/sortcell/internal/stabilize"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

func newTestServer(t *testing.T) (*Server, *actuator.Link, *events.Bus) {
	t.Helper()
	link := actuator.NewSimulatedLink()
	bus := events.NewBus()
	stab := stabilize.New(stabilize.DefaultWindow, stabilize.DefaultThreshold, stabilize.DefaultCooldown)
	ctrl := sorter.New(sorter.Config{}, nil, link, stab, bus)
	return NewServer(ctrl, link, bus), link, bus
}

func postForm(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, req)
	return w
}

func TestShowStatus(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var status sorter.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Ready)
	assert.True(t, status.Simulated)
	assert.Equal(t, "none", status.CurrentShape)
}

func TestShowStatusRejectsPost(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := postForm(srv, "/api/status", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestShowCounts(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/counts", nil)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var counts sorter.Counts
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counts))
	assert.Equal(t, sorter.Counts{}, counts)
}

func TestResetHandler(t *testing.T) {
	srv, link, _ := newTestServer(t)

	// put the actuator into a busy window first
	require.NoError(t, link.SendCommand(classify.Square, time.Now()))
	require.False(t, link.IsReady(time.Now()))

	w := postForm(srv, "/api/reset", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"reset"}`, w.Body.String())
	assert.True(t, link.IsReady(time.Now()))
}

func TestResetRejectsGet(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reset", nil)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSendCommandHandler(t *testing.T) {
	srv, link, _ := newTestServer(t)

	w := postForm(srv, "/api/command", url.Values{"shape": {"circle"}})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "circle")
	assert.False(t, link.IsReady(time.Now()), "manual command must start the busy window")
}

func TestSendCommandRejectsBadShape(t *testing.T) {
	srv, _, _ := newTestServer(t)

	// rectangle parses but has no actuator command
	for _, shape := range []string{"", "hexagon", "rectangle", "unknown"} {
		w := postForm(srv, "/api/command", url.Values{"shape": {shape}})
		assert.Equal(t, http.StatusBadRequest, w.Code, "shape %q", shape)
	}
}

func TestStreamEvents(t *testing.T) {
	srv, _, bus := newTestServer(t)

	ts := httptest.NewServer(srv.ServeMux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": ping\n", line)

	// the subscription is live once the ping arrives
	bus.Publish(events.Event{Kind: events.KindShapeUpdate, Shape: "circle", Time: time.Now()})

	var eventLine, dataLine string
	for {
		l, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(l, "event: ") {
			eventLine = strings.TrimSpace(l)
		}
		if strings.HasPrefix(l, "data: ") {
			dataLine = strings.TrimSpace(l)
			break
		}
	}

	assert.Equal(t, "event: shape_update", eventLine)

	var ev events.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(dataLine, "data: ")), &ev))
	assert.Equal(t, "circle", ev.Shape)
}

func TestStreamEventsRejectsPost(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := postForm(srv, "/api/events", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHomeHandler(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sorter")
}
