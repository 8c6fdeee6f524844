package stage

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maintains known stages by ID.
type Registry struct {
	mu     sync.RWMutex
	stages map[string]Stage
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stages: map[string]Stage{}}
}

// Register installs a stage. Returns an error if the ID already exists or the
// stage info is malformed.
func (r *Registry) Register(s Stage) error {
	if s == nil {
		return fmt.Errorf("stage: nil stage")
	}
	info := s.Info()
	if err := info.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.stages[info.ID]; exists {
		return fmt.Errorf("stage: %s already registered", info.ID)
	}
	r.stages[info.ID] = s
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(s Stage) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Resolve returns a stage by ID.
func (r *Registry) Resolve(id string) (Stage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stages[id]
	if !ok {
		return nil, fmt.Errorf("stage: unknown id %s", id)
	}
	return s, nil
}

// IDs returns a sorted list of registered stage identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.stages))
	for id := range r.stages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
