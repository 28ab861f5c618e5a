package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Checks may hang on a dead dependency, so readiness bounds them all.
const readinessTimeout = 5 * time.Second

// Checker reports whether one dependency is reachable, typically the user
// store's Ping.
type Checker func(ctx context.Context) error

// Status of a component.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Response is the JSON body of the health endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of a single dependency check.
type CheckResult struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

type check struct {
	name string
	fn   Checker
}

// Handler serves the liveness and readiness endpoints. Checks are
// registered once during wiring, before the server starts.
type Handler struct {
	checks []check
}

// NewHandler creates an empty health handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Register adds a named dependency check.
func (h *Handler) Register(name string, fn Checker) {
	h.checks = append(h.checks, check{name: name, fn: fn})
}

// LivenessHandler reports that the process is running; it never checks
// dependencies.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, Response{
			Status:    StatusUp,
			Timestamp: time.Now().UTC(),
		})
	}
}

// ReadinessHandler runs every registered check and returns 503 if any
// dependency is down.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		results := make(map[string]CheckResult, len(h.checks))
		status := StatusUp

		for _, c := range h.checks {
			if err := c.fn(ctx); err != nil {
				results[c.name] = CheckResult{Status: StatusDown, Error: err.Error()}
				status = StatusDown
				continue
			}
			results[c.name] = CheckResult{Status: StatusUp}
		}

		code := http.StatusOK
		if status == StatusDown {
			code = http.StatusServiceUnavailable
		}
		writeResponse(w, code, Response{
			Status:    status,
			Timestamp: time.Now().UTC(),
			Checks:    results,
		})
	}
}

func writeResponse(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
