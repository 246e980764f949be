// Package api exposes the command processor over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sonroyaalmerol/auria/internal/metrics"
)

func NewRouter(logger *slog.Logger, proc Submitter, status StatusSource, events Subscriber) *mux.Router {
	metrics.Register()
	h := NewHandlers(logger, proc, status, events)

	r := mux.NewRouter()
	r.Use(RequestID)
	r.Use(logRequests(logger))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Error("write healthz response", "err", err)
		}
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()

	get := api.Methods("GET").Subrouter()
	get.HandleFunc("/status", h.Status)
	get.HandleFunc("/events", h.Events)

	post := api.Methods("POST").Subrouter()
	post.HandleFunc("/play", h.Play)
	post.HandleFunc("/pause", h.Pause)
	post.HandleFunc("/resume", h.Resume)
	post.HandleFunc("/search", h.Search)

	return r
}
