// Package health exposes liveness and readiness probes for the login
// service. Readiness runs named checks (nonce store, provider reachability)
// in parallel with a shared deadline and reports per-check results.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/slzhly/wechatauth/pkg/logger"
)

const defaultTimeout = 5 * time.Second

// Statuses reported per check and overall.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// Checks maps check names to probes.
type Checks map[string]Check

// Report is the JSON readiness payload.
type Report struct {
	Checks map[string]CheckResult `json:"checks,omitempty"`
	Status string                 `json:"status"`
}

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Option configures the handlers.
type Option func(*config)

type config struct {
	log     *slog.Logger
	timeout time.Duration
}

// WithTimeout bounds the total readiness check duration.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger for failed-check warnings.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// Live always answers OK; it only proves the process is serving requests.
func Live() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if wantsJSON(r) {
			writeJSON(w, http.StatusOK, Report{Status: StatusHealthy})
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// Ready runs all checks in parallel and answers 200 when every one passes,
// 503 otherwise. Clients get JSON with an Accept: application/json header or
// ?format=json; plain text otherwise, which keeps probes simple.
func Ready(checks Checks, opts ...Option) http.HandlerFunc {
	cfg := &config{log: logger.NewNop(), timeout: defaultTimeout}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		report := run(r.Context(), checks, cfg)

		status := http.StatusOK
		if report.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}

		if wantsJSON(r) {
			writeJSON(w, status, report)
			return
		}
		w.WriteHeader(status)
		if report.Status == StatusHealthy {
			_, _ = w.Write([]byte("OK"))
		} else {
			_, _ = w.Write([]byte("Service Unavailable"))
		}
	}
}

func run(ctx context.Context, checks Checks, cfg *config) Report {
	if len(checks) == 0 {
		return Report{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(checks))
	)

	// Failures are recorded per check, never propagated: every probe must
	// run to completion so the report is complete.
	g, gctx := errgroup.WithContext(ctx)
	for name, check := range checks {
		name, check := name, check
		g.Go(func() error {
			result := CheckResult{Status: StatusHealthy}
			if err := check(gctx); err != nil {
				result.Status = StatusUnhealthy
				result.Error = err.Error()
				cfg.log.WarnContext(gctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}
			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := StatusHealthy
	for _, r := range results {
		if r.Status == StatusUnhealthy {
			status = StatusUnhealthy
			break
		}
	}
	return Report{Status: status, Checks: results}
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
