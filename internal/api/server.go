// Package api exposes the read-only HTTP surface next to the websocket
// endpoint: health, stats, version, and a QR code for the join URL.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"classpoll/pkg/types"
)

// Coordinator is the slice of the session coordinator the API needs.
type Coordinator interface {
	Stats() types.Stats
}

// Archiver is the slice of the poll archive the API needs.
type Archiver interface {
	PollCount(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// Registry reports connection counts for the health endpoint.
type Registry interface {
	Stats() map[string]int
}

type Server struct {
	coordinator Coordinator
	archive     Archiver
	registry    Registry
	router      *httprouter.Router

	version   string
	publicURL string
}

// NewServer wires the HTTP routes. publicURL is the address students
// are told to open; the /qr endpoint encodes it. Pass profile=true to
// also expose the pprof handlers.
func NewServer(coordinator Coordinator, archive Archiver, registry Registry, version, publicURL string, profile bool) *Server {
	s := &Server{
		coordinator: coordinator,
		archive:     archive,
		registry:    registry,
		router:      httprouter.New(),
		version:     version,
		publicURL:   publicURL,
	}

	s.setupRoutes(profile)
	return s
}

func (s *Server) setupRoutes(profile bool) {
	s.router.GET("/healthz", s.healthCheck)
	s.router.GET("/api/health", s.healthCheck)
	s.router.GET("/api/stats", s.stats)
	s.router.GET("/version", s.serveVersion)
	s.router.GET("/qr", s.serveQR)

	if profile {
		registerProfileHandlers(s.router)
	}
}

// ServeHTTP implements http.Handler so the server slots into the
// application's route tree under the websocket endpoint.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type HealthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Archive     string         `json:"archive"`
	Connections map[string]int `json:"connections"`
}

type StatsResponse struct {
	ActiveStudents int                `json:"activeStudents"`
	TotalPolls     int                `json:"totalPolls"`
	ArchivedPolls  int                `json:"archivedPolls"`
	CurrentPoll    *types.CurrentPoll `json:"currentPoll"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// GET /healthz - liveness plus archive connectivity.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	archiveStatus := "healthy"

	if err := s.archive.Ping(ctx); err != nil {
		status = "unhealthy"
		archiveStatus = fmt.Sprintf("error: %v", err)
	}

	response := HealthResponse{
		Status:      status,
		Timestamp:   time.Now(),
		Archive:     archiveStatus,
		Connections: s.registry.Stats(),
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	s.sendJSON(w, code, response)
}

// GET /api/stats - live session counters plus the archived total.
func (s *Server) stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	live := s.coordinator.Stats()

	archived, err := s.archive.PollCount(ctx)
	if err != nil {
		s.sendError(w, "Failed to read archive", http.StatusInternalServerError)
		return
	}

	s.sendJSON(w, http.StatusOK, StatsResponse{
		ActiveStudents: live.ActiveStudents,
		TotalPolls:     live.TotalPolls,
		ArchivedPolls:  archived,
		CurrentPoll:    live.CurrentPoll,
	})
}

// GET /version
func (s *Server) serveVersion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "classpoll v%s\n", s.version)
}

const qrSize = 320

// GET /qr - PNG QR code of the join URL, for projecting in class.
func (s *Server) serveQR(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	url := s.publicURL
	if url == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		url = scheme + "://" + r.Host + "/"
	}

	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		s.sendError(w, "QR generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func registerProfileHandlers(mux *httprouter.Router) {
	mux.Handler(http.MethodGet, "/pprof/allocs", pprof.Handler("allocs"))
	mux.Handler(http.MethodGet, "/pprof/block", pprof.Handler("block"))
	mux.Handler(http.MethodGet, "/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handler(http.MethodGet, "/pprof/heap", pprof.Handler("heap"))
	mux.Handler(http.MethodGet, "/pprof/mutex", pprof.Handler("mutex"))
	mux.Handler(http.MethodGet, "/pprof/threadcreate", pprof.Handler("threadcreate"))
	mux.HandlerFunc(http.MethodGet, "/pprof/cmdline", pprof.Cmdline)
	mux.HandlerFunc(http.MethodGet, "/pprof/profile", pprof.Profile)
	mux.HandlerFunc(http.MethodGet, "/pprof/symbol", pprof.Symbol)
	mux.HandlerFunc(http.MethodGet, "/pprof/trace", pprof.Trace)
}

func (s *Server) sendJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	s.sendJSON(w, code, ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}
