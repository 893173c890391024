// Package server exposes a running board over HTTP: panel snapshots,
// history range control, on-demand predictions, health, metrics and a
// WebSocket feed of panel changes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tonhe/sol/internal/client"
	"github.com/tonhe/sol/internal/journal"
	"github.com/tonhe/sol/internal/logging"
	"github.com/tonhe/sol/internal/metrics"
	"github.com/tonhe/sol/internal/panel"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

type ComponentHealth struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status     Status            `json:"status"`
	Components []ComponentHealth `json:"components"`
	Timestamp  time.Time         `json:"timestamp"`
}

// JournalReader is the part of the reading journal the API serves.
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
	Count(ctx context.Context) (int, error)
}

// Options configures New. Journal, Gatherer and Metrics may be nil.
type Options struct {
	Address  string
	Journal  JournalReader
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
}

type Server struct {
	log     *slog.Logger
	board   *panel.Board
	hub     *Hub
	opts    Options
	server  *http.Server
	handler http.Handler
}

func New(log *slog.Logger, board *panel.Board, opts Options) *Server {
	s := &Server{
		log:   log,
		board: board,
		hub:   NewHub(log, opts.Metrics),
		opts:  opts,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.opts.Metrics.Middleware)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Handle("/ws", s.hub)

	r.Route("/api", func(r chi.Router) {
		r.Get("/panels", s.handlePanels)
		r.Get("/panels/{name}", s.handlePanel)
		r.Get("/engines", s.handleEngines)
		r.Get("/history/range", s.handleGetRange)
		r.Post("/history/range", s.handleSetRange)
		r.Post("/predict", s.handlePredict)
		r.Get("/predict", s.handleLastPrediction)
		r.Get("/journal", s.handleJournal)
	})
	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves until ctx ends, pushing every panel change to WebSocket
// clients, then shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.opts.Address,
		Handler:      s.handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go s.hub.Run(ctx)
	go s.pump(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting api server", slog.String("address", s.opts.Address))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log.Error("api server shutdown", logging.Err(err))
		return err
	}
	return nil
}

// pump turns board events into WebSocket messages.
func (s *Server) pump(ctx context.Context) {
	events := s.board.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			v, found := s.board.Panel(ev.Panel)
			if !found {
				continue
			}
			msg, err := json.Marshal(v.Summary())
			if err != nil {
				s.log.Error("failed to encode panel update", logging.Err(err))
				continue
			}
			s.hub.Broadcast(msg)
		}
	}
}

type panelsResponse struct {
	Dashboard   string          `json:"dashboard"`
	HistoryDays int             `json:"history_days"`
	Panels      []panel.Summary `json:"panels"`
}

func (s *Server) handlePanels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, panelsResponse{
		Dashboard:   s.board.Name(),
		HistoryDays: s.board.HistoryRange(),
		Panels:      s.board.Summaries(),
	})
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	v, ok := s.board.Panel(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown panel "+strconv.Quote(name))
		return
	}
	writeJSON(w, http.StatusOK, v.Summary())
}

type engineResponse struct {
	Name       string    `json:"name"`
	State      string    `json:"state"`
	LastPoll   time.Time `json:"last_poll"`
	PollCount  int       `json:"poll_count"`
	ErrorCount int       `json:"error_count"`
}

func (s *Server) handleEngines(w http.ResponseWriter, r *http.Request) {
	infos := s.board.Engines()
	out := make([]engineResponse, len(infos))
	for i, info := range infos {
		out[i] = engineResponse{
			Name:       info.Name,
			State:      info.State.String(),
			LastPoll:   info.LastPoll,
			PollCount:  info.PollCount,
			ErrorCount: info.ErrorCount,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type rangeRequest struct {
	Days int `json:"days"`
}

func (s *Server) handleGetRange(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rangeRequest{Days: s.board.HistoryRange()})
}

func (s *Server) handleSetRange(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.board.SetHistoryRange(req.Days); err != nil {
		if errors.Is(err, panel.ErrInvalidRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rangeRequest{Days: req.Days})
}

type predictRequest struct {
	AmbientTemperature *float64   `json:"ambient_temperature"`
	ModuleTemperature  *float64   `json:"module_temperature"`
	Irradiation        *float64   `json:"irradiation"`
	At                 *time.Time `json:"at,omitempty"`
}

type predictResponse struct {
	Prediction float64              `json:"prediction"`
	Reading    client.SensorReading `json:"reading"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.AmbientTemperature == nil || req.ModuleTemperature == nil || req.Irradiation == nil {
		writeError(w, http.StatusBadRequest, "ambient_temperature, module_temperature and irradiation are required")
		return
	}
	at := time.Now()
	if req.At != nil {
		at = *req.At
	}
	reading := client.NewSensorReading(*req.AmbientTemperature, *req.ModuleTemperature, *req.Irradiation, at)

	kw, err := s.board.Predictor().Predict(r.Context(), reading)
	if err != nil {
		switch {
		case errors.Is(err, panel.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, err.Error())
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{Prediction: kw, Reading: reading})
}

func (s *Server) handleLastPrediction(w http.ResponseWriter, r *http.Request) {
	last := s.board.Predictor().Last()
	if last.At.IsZero() {
		writeError(w, http.StatusNotFound, "no prediction yet")
		return
	}
	if last.Err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"error": last.Err.Error(), "at": last.At})
		return
	}
	writeJSON(w, http.StatusOK, last)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.opts.Journal == nil {
		writeError(w, http.StatusNotFound, "journal disabled")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	entries, err := s.opts.Journal.Recent(r.Context(), limit)
	if err != nil {
		s.log.Error("journal query failed", logging.Err(err))
		writeError(w, http.StatusInternalServerError, "journal unavailable")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
	}
	add := func(c ComponentHealth) {
		response.Components = append(response.Components, c)
		if c.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if c.Status == StatusDegraded && response.Status == StatusHealthy {
			response.Status = StatusDegraded
		}
	}

	for _, sum := range s.board.Summaries() {
		c := ComponentHealth{Name: sum.Name, Status: StatusHealthy}
		switch {
		case sum.Stopped:
			c.Status, c.Message = StatusUnhealthy, "stopped"
		case sum.State == panel.StateStale:
			c.Status, c.Message = StatusDegraded, "stale: "+sum.Error
		case sum.State == panel.StateLoading:
			c.Status, c.Message = StatusDegraded, "no data yet"
		}
		add(c)
	}
	if s.opts.Journal != nil {
		c := ComponentHealth{Name: "journal", Status: StatusHealthy}
		if _, err := s.opts.Journal.Count(ctx); err != nil {
			c.Status, c.Message = StatusUnhealthy, err.Error()
		}
		add(c)
	}

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, response)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
