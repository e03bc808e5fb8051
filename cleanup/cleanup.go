// Package cleanup tracks transient files created during ingestion and
// extraction and guarantees they are removed exactly once, no matter which
// pipeline stage failed.
package cleanup

import (
	"os"
	"sync"

	"github.com/filety/scribe/logger"
)

// Coordinator creates cleanup scopes. One scope exists per request or job;
// every stage appends the paths it creates and the owning exit path releases
// the scope once.
type Coordinator struct {
	log *logger.Logger
}

// New creates a Coordinator logging through log. A nil log disables logging.
func New(log *logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{log: log.WithComponent("cleanup")}
}

// Scope opens a new artifact scope named for diagnostics.
func (c *Coordinator) Scope(name string) *Scope {
	return &Scope{name: name, log: c.log}
}

// Scope collects artifact paths for one request or job.
// Track may be called from any goroutine; Release drains the tracked set
// exactly once per path, swallowing individual removal failures so cleanup
// never masks the primary result.
type Scope struct {
	mu    sync.Mutex
	name  string
	paths []string
	log   *logger.Logger
}

// Track registers a transient file for removal. Empty paths are ignored.
func (s *Scope) Track(path string) {
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
}

// Tracked returns a snapshot of the currently tracked paths.
func (s *Scope) Tracked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Release removes every tracked artifact and empties the scope. Files that
// are already gone count as removed. Safe to call multiple times; paths
// tracked after a Release are removed by the next one.
func (s *Scope) Release() {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			s.log.Warn("failed to remove artifact", logger.Fields(
				logger.FieldPath, p,
				"scope", s.name,
				logger.FieldError, err.Error(),
			))
			continue
		}
		s.log.Debug("artifact removed", logger.Fields(logger.FieldPath, p, "scope", s.name))
	}
}
