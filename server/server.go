// Package server serves the browser player and a script preview API.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/simukka/trance/audio"
	"github.com/simukka/trance/engine"
	"github.com/simukka/trance/speech"
)

//go:embed index.html
var indexHTML []byte

// maxScriptBytes caps a tokenize request body.
const maxScriptBytes = 1 << 20

// Config holds server configuration.
type Config struct {
	Addr      string
	StaticDir string // compiled player script and assets; empty serves none
}

// Server is the HTTP front end.
type Server struct {
	config Config
	router *chi.Mux
	logger *log.Logger
}

// New builds the router.
func New(cfg Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		logger: logger.WithPrefix("server"),
	}
	s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/", s.handleIndex)
	r.Get("/index.html", s.handleIndex)
	if s.config.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(s.config.StaticDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/options", s.handleOptions)
		r.Get("/band", s.handleBand)
		r.Post("/tokenize", s.handleTokenize)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.config.Addr, "static", s.config.StaticDir)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start),
			"id", middleware.GetReqID(r.Context()))
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type optionsResponse struct {
	Soundscapes []audio.Kind      `json:"soundscapes"`
	Modes       []audio.Mode      `json:"entrainmentModes"`
	Protocols   []engine.Protocol `json:"protocols"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, optionsResponse{
		Soundscapes: audio.Kinds,
		Modes:       []audio.Mode{audio.Binaural, audio.Isochronic},
		Protocols:   []engine.Protocol{engine.NoProtocol, engine.Relax, engine.Sleep, engine.Focus},
	})
}

type bandResponse struct {
	Frequency   float64 `json:"frequency"`
	Name        string  `json:"name"`
	State       string  `json:"state"`
	Description string  `json:"description"`
}

func (s *Server) handleBand(w http.ResponseWriter, r *http.Request) {
	freq, err := strconv.ParseFloat(r.URL.Query().Get("freq"), 64)
	if err != nil || freq <= 0 {
		writeError(w, http.StatusBadRequest, "freq must be a positive number")
		return
	}
	b := audio.BandFor(freq)
	writeJSON(w, http.StatusOK, bandResponse{Frequency: freq, Name: b.Name, State: b.State, Description: b.Description})
}

type tokenizeRequest struct {
	Script string `json:"script"`
}

type actionJSON struct {
	Kind     string  `json:"kind"`
	Line     int     `json:"line"`
	Text     string  `json:"text,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Rate     float64 `json:"rate,omitempty"`
	Pitch    float64 `json:"pitch,omitempty"`
	Volume   float64 `json:"volume,omitempty"`
	Pan      float64 `json:"pan,omitempty"`
}

type tokenizeResponse struct {
	Lines         []string     `json:"lines"`
	Actions       []actionJSON `json:"actions"`
	BinauralHints []float64    `json:"binauralHints"`
}

func (s *Server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req tokenizeRequest
	body := http.MaxBytesReader(w, r.Body, maxScriptBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp := tokenizeResponse{
		Lines:         speech.Segments(req.Script),
		Actions:       []actionJSON{},
		BinauralHints: speech.BinauralHints(req.Script),
	}
	if resp.Lines == nil {
		resp.Lines = []string{}
	}
	if resp.BinauralHints == nil {
		resp.BinauralHints = []float64{}
	}
	for _, a := range speech.Tokenize(req.Script) {
		aj := actionJSON{Kind: a.Kind.String(), Line: a.Line}
		switch a.Kind {
		case speech.Speak:
			aj.Text = a.Text
			aj.Rate, aj.Pitch, aj.Volume, aj.Pan = a.Prosody.Rate, a.Prosody.Pitch, a.Prosody.Volume, a.Prosody.Pan
		case speech.ExplicitPause:
			aj.Duration = a.Duration
		}
		resp.Actions = append(resp.Actions, aj)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
