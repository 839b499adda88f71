// Package api exposes the sorting cell over HTTP: status and counts for the
// dashboard, a reset control, a manual command override, and a server-sent
// event stream of shape and count updates.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sortcell/sortcell/internal/actuator"
	"github.com/sortcell/sortcell/internal/classify"
	"github.com/sortcell/sortcell/internal/events"
	"github.com/sortcell/sortcell/internal/httputil"
	"github.com/sortcell/sortcell/internal/monitoring"
	"github.com/sortcell/sortcell/internal/sorter"
	"github.com/sortcell/sortcell/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	ctrl *sorter.Controller
	link *actuator.Link
	bus  *events.Bus
}

func NewServer(ctrl *sorter.Controller, link *actuator.Link, bus *events.Bus) *Server {
	return &Server{
		ctrl: ctrl,
		link: link,
		bus:  bus,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/api/counts", s.showCounts)
	mux.HandleFunc("/api/reset", s.resetHandler)
	mux.HandleFunc("/api/command", s.sendCommandHandler)
	mux.HandleFunc("/api/events", s.streamEvents)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "Shape sorter %s is running", version.String())
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) showCounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.ctrl.Counts())
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	s.ctrl.Reset()
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// sendCommandHandler drives the actuator directly, bypassing detection. Used
// for bench testing the mechanism.
func (s *Server) sendCommandHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	shape := strings.TrimSpace(r.FormValue("shape"))
	if shape == "" {
		http.Error(w, "Missing shape", http.StatusBadRequest)
		return
	}

	label := classify.ParseLabel(shape)
	if !label.Confirmable() {
		http.Error(w, fmt.Sprintf("Unknown shape %q", shape), http.StatusBadRequest)
		return
	}

	if err := s.link.SendCommand(label, time.Now()); err != nil {
		http.Error(w, "Failed to send command", http.StatusInternalServerError)
		return
	}
	io.WriteString(w, fmt.Sprintf("Sent %s command to actuator", label))
}

// streamEvents issues Server-Sent Events for shape and count updates.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

	id, c := s.bus.Subscribe()
	defer s.bus.Unsubscribe(id)

	// Send initial ping to establish connection
	w.Write([]byte(": ping\n\n"))
	w.(http.Flusher).Flush()

	for {
		select {
		case ev, ok := <-c:
			if !ok {
				// Channel closed, exit gracefully
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload); err != nil {
				return
			}
			w.(http.Flusher).Flush()
		case <-r.Context().Done():
			return
		}
	}
}
