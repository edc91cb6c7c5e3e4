package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"tornadocal/internal/config"
	"tornadocal/internal/ics"
	appLog "tornadocal/internal/log"
	"tornadocal/internal/model"
	"tornadocal/internal/schedule"
)

// EventSource builds a fresh collection on every call. *schedule.Service
// implements it.
type EventSource interface {
	GetEvents(ctx context.Context) model.Collection
	Today() model.Date
}

// Server exposes the event collection over a JSON API. It keeps the last
// built collection as a snapshot; the snapshot is rebuilt when older than
// the configured TTL, on ?refresh=1 and whenever Refresh is called.
type Server struct {
	cfg    *config.Config
	source EventSource
	router *mux.Router
	ttl    time.Duration
	now    func() time.Time

	snapMu sync.RWMutex
	snap   *snapshot
}

type snapshot struct {
	coll      model.Collection
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, source EventSource) *Server {
	s := &Server{
		cfg:    cfg,
		source: source,
		router: mux.NewRouter(),
		ttl:    cfg.SnapshotTTL(),
		now:    time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the root http.Handler, with basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.router.Use(timingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	api.HandleFunc("/schedule", s.handleSchedule).Methods(http.MethodGet)
	api.HandleFunc("/teams", s.handleTeams).Methods(http.MethodGet)
	api.HandleFunc("/teams/{team}/calendar.ics", s.handleTeamFeed).Methods(http.MethodGet)
	api.HandleFunc("/teams/{team}", s.handleTeam).Methods(http.MethodGet)
}

// Refresh rebuilds the snapshot from the source.
func (s *Server) Refresh(ctx context.Context) model.Collection {
	coll := s.source.GetEvents(ctx)

	s.snapMu.Lock()
	s.snap = &snapshot{coll: coll, updatedAt: s.now()}
	s.snapMu.Unlock()

	return coll
}

// collection returns the snapshot, rebuilding it when stale or when the
// request asks for ?refresh=1.
func (s *Server) collection(r *http.Request) model.Collection {
	if r.URL.Query().Get("refresh") != "1" {
		s.snapMu.RLock()
		snap := s.snap
		s.snapMu.RUnlock()
		if snap != nil && s.now().Sub(snap.updatedAt) < s.ttl {
			return snap.coll
		}
	}
	// The snapshot is shared; a canceled request must not store an empty one.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.refreshTimeout())
	defer cancel()
	return s.Refresh(ctx)
}

// refreshTimeout bounds a request-triggered rebuild once it is detached
// from the request.
func (s *Server) refreshTimeout() time.Duration {
	if t := s.cfg.FetchTimeout(); t > 0 {
		return t + 5*time.Second
	}
	return time.Minute
}

// weekScoped applies ?week=current.
func (s *Server) weekScoped(r *http.Request, coll model.Collection) model.Collection {
	if r.URL.Query().Get("week") != "current" {
		return coll
	}
	return schedule.FilterCollectionWeek(coll, s.source.Today())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	coll := s.weekScoped(r, s.collection(r))
	writeJSON(w, http.StatusOK, coll)
}

// scheduleResponse is the JSON shape for /api/schedule.
type scheduleResponse struct {
	Days      []model.DaySchedule `json:"days"`
	Timezone  string              `json:"timezone"`
	FetchedAt time.Time           `json:"fetched_at"`
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	coll := s.weekScoped(r, s.collection(r))
	writeJSON(w, http.StatusOK, scheduleResponse{
		Days:      schedule.GroupByWeekday(coll.AllEvents),
		Timezone:  coll.Timezone,
		FetchedAt: coll.FetchedAt,
	})
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	coll := s.collection(r)
	writeJSON(w, http.StatusOK, map[string][]string{"teams": coll.TeamNames()})
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	coll := s.weekScoped(r, s.collection(r))
	team, ok := coll.Team(mux.Vars(r)["team"])
	if !ok {
		writeError(w, http.StatusNotFound, "unknown team")
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) handleTeamFeed(w http.ResponseWriter, r *http.Request) {
	coll := s.collection(r)
	team, ok := coll.Team(mux.Vars(r)["team"])
	if !ok {
		writeError(w, http.StatusNotFound, "unknown team")
		return
	}

	body := ics.ExportTeamFeed(team.Name, team.Events, s.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="tornadocal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func timingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		appLog.Debug("served request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
