// Package health probes the API's dependencies for the /health
// endpoint.
package health

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"docqa-backend/internal/cache"
	"docqa-backend/internal/shared/storage/object"
)

const probeTimeout = 3 * time.Second

// Service encapsulates health-related checks.
type Service struct {
	DB    *sql.DB
	Cache cache.Cache
	Store object.ObjectStore
	// QueueConfigured reports whether a queue client was wired. SQS has
	// no cheap liveness probe, so presence is all we report.
	QueueConfigured bool
}

// Status is the health payload.
type Status struct {
	Status string          `json:"status"`
	Checks map[string]bool `json:"checks"`
}

// Check probes each dependency and reports ok or degraded. Absent
// optional dependencies (memory fallbacks) count as healthy.
func (s *Service) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	checks := map[string]bool{
		"database": s.checkDB(ctx),
		"cache":    s.checkCache(ctx),
		"storage":  s.checkStore(ctx),
		"queue":    s.QueueConfigured,
	}

	status := "ok"
	// A missing queue falls back to inline processing, so it does not
	// degrade the service.
	if !checks["database"] || !checks["cache"] || !checks["storage"] {
		status = "degraded"
	}
	return Status{Status: status, Checks: checks}
}

func (s *Service) checkDB(ctx context.Context) bool {
	if s.DB == nil {
		return true
	}
	return s.DB.PingContext(ctx) == nil
}

func (s *Service) checkCache(ctx context.Context) bool {
	if s.Cache == nil {
		return true
	}
	if err := s.Cache.Set(ctx, "health:probe", []byte("ok"), time.Minute); err != nil {
		return false
	}
	_, _, err := s.Cache.Get(ctx, "health:probe")
	return err == nil
}

// checkStore opens a key that should not exist. A clean not-found
// proves the backend is reachable; any other error means it is not.
func (s *Service) checkStore(ctx context.Context) bool {
	if s.Store == nil {
		return true
	}
	rc, err := s.Store.Open(ctx, "health/probe-missing")
	if err == nil {
		rc.Close()
		return true
	}
	return errors.Is(err, object.ErrNotFound)
}
