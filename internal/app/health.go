package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fitfinder-ai/fitfinder/internal/wardrobe"
)

// checkTimeout is the maximum time a single readiness probe may take.
const checkTimeout = 5 * time.Second

// healthResult is the JSON response body for the probe endpoints.
type healthResult struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthz is a liveness probe that always returns 200 OK. A running process
// that can serve HTTP is considered alive.
func (a *App) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResult{Status: "ok"})
}

// readyz reports readiness: 200 only when the catalog and, when it supports
// pinging, the vector index are reachable.
func (a *App) readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, 2)
	allOK := true

	probe := func(name string, check func(ctx context.Context) error) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()
		if err := check(ctx); err != nil {
			checks[name] = "fail: " + err.Error()
			allOK = false
			return
		}
		checks[name] = "ok"
	}

	probe("catalog", a.checkCatalog)
	if p, ok := a.index.(interface{ Ping(context.Context) error }); ok {
		probe("index", p.Ping)
	}

	res := healthResult{Status: "ok", Checks: checks}
	status := http.StatusOK
	if !allOK {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// checkCatalog probes the catalog store. Postgres-backed stores expose Ping;
// anything else is probed with a minimal list query.
func (a *App) checkCatalog(ctx context.Context) error {
	if p, ok := a.catalog.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	_, err := a.catalog.ListItems(ctx, wardrobe.ItemFilter{Limit: 1})
	return err
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
