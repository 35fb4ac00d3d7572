package pipeline

import (
	"fmt"
	"slices"
	"sync"

	"hotghost/internal/logging"
	"hotghost/internal/transcoder"
)

// CleanupError records an artifact that could not be removed.
type CleanupError struct {
	Name string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup %s: %v", e.Name, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

// Scope tracks the workspace artifacts of one run and deletes them on Close.
type Scope struct {
	ws  *transcoder.Workspace
	obs Observer
	log logging.Logger

	mu     sync.Mutex
	names  []string
	closed bool
}

// NewScope returns an empty scope over ws. obs may be nil.
func NewScope(ws *transcoder.Workspace, obs Observer) *Scope {
	if obs == nil {
		obs = nopObserver{}
	}
	return &Scope{ws: ws, obs: obs, log: logging.With("scope")}
}

// Name reserves a unique artifact name and registers it for cleanup.
func (s *Scope) Name(prefix, ext string) string {
	name := transcoder.NewName(prefix, ext)
	s.Track(name)
	return name
}

// Track registers an existing artifact name.
func (s *Scope) Track(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
}

// Write stores data under a new unique name. The name is registered before
// the write so a partial file is still removed.
func (s *Scope) Write(prefix, ext string, data []byte) (string, error) {
	name := s.Name(prefix, ext)
	if err := s.ws.WriteFile(name, data); err != nil {
		return "", err
	}
	return name, nil
}

// Names returns the registered artifact names.
func (s *Scope) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.names)
}

// Close deletes every registered artifact, newest first. Failures are
// logged at warn level and returned for inspection; callers normally
// ignore them. Close is idempotent.
func (s *Scope) Close() []error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	names := s.names
	s.names = nil
	s.mu.Unlock()

	var errs []error
	for i := len(names) - 1; i >= 0; i-- {
		if err := s.ws.DeleteFile(names[i]); err != nil {
			s.log.Warn("could not remove %s: %v", names[i], err)
			s.obs.ObserveCleanupFailure()
			errs = append(errs, &CleanupError{Name: names[i], Err: err})
		}
	}
	return errs
}
