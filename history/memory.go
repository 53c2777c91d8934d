package history

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var errNotInitialized = errors.New("history store not initialized")

// MemoryStore keeps records for the lifetime of the process.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]Run
	generations map[string]map[int]Generation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]Run)
	s.generations = make(map[string]map[int]Generation)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return Run{}, false, errNotInitialized
	}
	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) SaveGeneration(_ context.Context, gen Generation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	byIndex, ok := s.generations[gen.RunID]
	if !ok {
		byIndex = make(map[int]Generation)
		s.generations[gen.RunID] = byIndex
	}
	byIndex[gen.Index] = gen
	return nil
}

// Generations returns the generations of a run ordered by index.
func (s *MemoryStore) Generations(_ context.Context, runID string) ([]Generation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	out := make([]Generation, 0, len(s.generations[runID]))
	for _, gen := range s.generations[runID] {
		out = append(out, gen)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
