// Package server exposes a generation engine over HTTP and websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"time"

	mandel "github.com/marben/async_mandel"
)

// Backend is the engine surface the server drives. *engine.Engine implements it.
type Backend interface {
	mandel.Generator
	WithResult(fn func(img *image.RGBA, r mandel.Request) error) error
	Run(ctx context.Context) error
}

// Server serves the generate/progress/result API.
type Server struct {
	backend Backend
	logger  *log.Logger

	staticDir      string
	tick           time.Duration
	originPatterns []string

	hub *hub
	raw rawEncoder
}

// Option configures a Server.
type Option func(*Server)

// WithStaticDir serves files from dir at "/".
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// WithTick sets how often progress is pushed to websocket subscribers.
func WithTick(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithOriginPatterns sets the cross-origin hosts allowed on /ws.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) { s.originPatterns = patterns }
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a server and registers its completion callback on backend.
func New(backend Backend, opts ...Option) *Server {
	s := &Server{
		backend: backend,
		logger:  log.Default(),
		tick:    250 * time.Millisecond,
		hub:     newHub(),
	}
	for _, o := range opts {
		o(s)
	}

	backend.SetCompletionCallback(func() {
		p := s.backend.Progress()
		s.logger.Printf("generation finished: %d/%d pixels", p.Progress, p.Max)
		s.hub.broadcast(Event{Event: EventDone, Progress: p})
	})
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("GET /api/progress", s.handleProgress)
	mux.HandleFunc("GET /api/result", s.handleResult)
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}
	return mux
}

// Run delivers engine completion events and pushes progress while generating.
// It blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- s.backend.Run(ctx) }()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-errc
			return ctx.Err()
		case <-ticker.C:
			if p := s.backend.Progress(); p.Generating {
				s.hub.broadcast(Event{Event: EventProgress, Progress: p})
			}
		}
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, fmt.Sprintf("decode body: %v", err), http.StatusBadRequest)
		return
	}

	body, err := body.Resolve()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := body.Request()
	accepted := s.backend.Submit(req)
	if accepted {
		s.logger.Printf("generate: %s", req)
	}

	s.writeJSON(w, GenerateResponse{GenerateRequest: body, Accepted: accepted})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.backend.Progress())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("write json: %v", err)
	}
}
