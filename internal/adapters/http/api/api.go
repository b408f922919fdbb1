// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Presence answers which identities currently hold a live connection.
type Presence interface {
	ReachableSubset(ids []int64) []int64
}

// Server wires the HTTP routes around the websocket entrypoint.
type Server struct {
	ws       http.Handler
	metrics  http.Handler
	presence *PresenceHandler
}

// NewServer creates the API server. ws serves the upgrade endpoint and
// metricsHandler the Prometheus exposition.
func NewServer(ws, metricsHandler http.Handler, presence Presence) *Server {
	return &Server{
		ws:       ws,
		metrics:  metricsHandler,
		presence: NewPresenceHandler(presence),
	}
}

// Router builds the chi router with all routes attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", MetricsMiddleware(s.handleHealth, "healthz"))
	r.Get("/presence", MetricsMiddleware(s.presence.HandleGetPresence, "presence"))
	r.Handle("/metrics", s.metrics)
	r.Handle("/ws", s.ws)

	return r
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
