package state

import "sync"

// TransitionListener is invoked synchronously, outside the store's lock,
// whenever SetFusionState changes a camera's fusion_state. A write to the
// fusion_state path through Set/SetSep (as /api/set does) does not notify.
// Used to drive the audit log (internal/audit) and the debug tail SSE feed.
type TransitionListener func(cameraID, from, to, requestID string)

// Store is a concurrency-safe hierarchical value tree keyed by
// separator-joined paths. The zero value is not usable; use New.
type Store struct {
	mu        sync.RWMutex
	sep       string
	root      Value
	listeners []TransitionListener
}

// New constructs a Store rooted at an empty map, using sep (default "/") as
// the path separator.
func New(sep string) *Store {
	if sep == "" {
		sep = "/"
	}
	return &Store{sep: sep, root: NewMap(nil)}
}

// OnTransition registers a listener invoked after every successful
// SetFusionState call that actually changes the camera's fusion_state.
func (s *Store) OnTransition(l TransitionListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Get resolves path (split on the store's separator) against the tree and
// returns the value found there.
func (s *Store) Get(path string) (Value, error) {
	return s.GetSep(path, "")
}

// GetSep is Get with an explicit path separator, overriding the store's
// default for this one call.
func (s *Store) GetSep(path, sep string) (Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(path, sep)
}

// getLocked resolves path against the tree. Callers must hold s.mu (read or
// write) for its duration: a resolved map/seq Value shares its backing
// container with the live tree, so anything that walks it (Sanitize, in
// particular) must do so before the lock is released, not after.
func (s *Store) getLocked(path, sep string) (Value, error) {
	if sep == "" {
		sep = s.sep
	}
	segments := splitPath(path, sep)
	if len(segments) == 0 {
		return s.root, nil
	}
	return resolveGet(s.root, segments, path)
}

// Set resolves the parent of the final path segment and assigns val there.
func (s *Store) Set(path string, val Value) error {
	return s.SetSep(path, "", val)
}

// SetSep is Set with an explicit path separator, overriding the store's
// default for this one call.
func (s *Store) SetSep(path, sep string, val Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sep == "" {
		sep = s.sep
	}
	segments := splitPath(path, sep)
	updated, err := resolveSet(s.root, segments, val, path)
	if err != nil {
		return err
	}
	s.root = updated
	return nil
}

// GetSanitized is Get followed by Sanitize, for HTTP handlers.
func (s *Store) GetSanitized(path string) (interface{}, error) {
	return s.GetSanitizedSep(path, "")
}

// GetSanitizedSep is GetSanitized with an explicit path separator. The
// sanitize walk runs under the same read lock as the resolve: Sanitize
// ranges over Value.Map/Value.Seq directly, which are the live tree's own
// backing containers, so it must not run after the lock protecting them
// against a concurrent Set has already been released.
func (s *Store) GetSanitizedSep(path, sep string) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.getLocked(path, sep)
	if err != nil {
		return nil, err
	}
	return Sanitize(v), nil
}

func (s *Store) notify(cameraID, from, to, requestID string) {
	s.mu.RLock()
	listeners := make([]TransitionListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, l := range listeners {
		l(cameraID, from, to, requestID)
	}
}
