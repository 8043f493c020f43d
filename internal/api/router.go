// Package api exposes the cached pipeline output over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"adbrain/internal/domain"
	"adbrain/internal/observability"
	"adbrain/internal/reporting"
	"adbrain/internal/storage"
)

// Options configures the router.
type Options struct {
	StateStore storage.BrainStateStore

	// Status is polled by GET /status; nil disables the endpoint.
	Status func() any
}

// NewRouter builds the HTTP API. All endpoints are read-only; runs are
// triggered by the scheduler, never over HTTP.
func NewRouter(opts Options) http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())

	mux.Get("/api/v1/brain-state", func(w http.ResponseWriter, r *http.Request) {
		orgID := r.URL.Query().Get("org")
		if orgID == "" {
			http.Error(w, "org required", http.StatusBadRequest)
			return
		}

		state, err := loadState(r, opts.StateStore, orgID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, state)
	})

	mux.Get("/api/v1/report", func(w http.ResponseWriter, r *http.Request) {
		orgID := r.URL.Query().Get("org")
		if orgID == "" {
			http.Error(w, "org required", http.StatusBadRequest)
			return
		}

		state, err := loadState(r, opts.StateStore, orgID)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		report := reporting.FromState(state)
		switch r.URL.Query().Get("format") {
		case "", "md", "markdown":
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			w.Write([]byte(reporting.RenderMarkdown(report)))
		case "csv":
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Write([]byte(reporting.RenderActionsCSV(report.Actions)))
		default:
			http.Error(w, "unknown format (md or csv)", http.StatusBadRequest)
		}
	})

	if opts.Status != nil {
		mux.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, opts.Status())
		})
	}

	return mux
}

// loadState reads the cached state: a specific window when start and end
// are given, the most recent run otherwise.
func loadState(r *http.Request, store storage.BrainStateStore, orgID string) (*domain.BrainState, error) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" && end == "" {
		return store.Latest(r.Context(), orgID)
	}

	startT, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, errBadWindow
	}
	endT, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, errBadWindow
	}
	return store.Get(r.Context(), orgID, domain.Window{Start: startT, End: endT})
}

var errBadWindow = errors.New("start and end must both be YYYY-MM-DD")

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBadWindow):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "no cached run", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
