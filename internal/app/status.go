package app

import (
	"context"
	"sync"
	"time"

	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/server"
)

type runResult struct {
	Operation string    `json:"operation"`
	At        time.Time `json:"at"`
	Error     string    `json:"error,omitempty"`
}

// runStatus remembers the outcome of the last run per database for /health.
type runStatus struct {
	mu   sync.RWMutex
	last map[string]runResult
}

func newRunStatus() *runStatus {
	return &runStatus{last: make(map[string]runResult)}
}

func (s *runStatus) record(operation, db string, err error) {
	r := runResult{Operation: operation, At: time.Now()}
	if err != nil {
		r.Error = err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[db] = r
}

func (s *runStatus) check(context.Context) server.Check {
	s.mu.RLock()
	defer s.mu.RUnlock()

	check := server.Check{Status: server.StatusHealthy, Details: make(map[string]interface{}, len(s.last))}
	for db, r := range s.last {
		check.Details[db] = r
		if r.Error != "" {
			check.Status = server.StatusUnhealthy
		}
	}
	return check
}
