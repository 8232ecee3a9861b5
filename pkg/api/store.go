package api

import (
	"sync"

	"github.com/gammazero/deque"
)

// RunStore keeps the most recent enumeration responses by run ID. The
// oldest entry is evicted once capacity is reached.
type RunStore struct {
	mu       sync.RWMutex
	capacity int
	runs     map[string]*EnumerateResponse
	order    deque.Deque[string]
}

func NewRunStore(capacity int) *RunStore {
	if capacity < 1 {
		capacity = 1
	}
	return &RunStore{
		capacity: capacity,
		runs:     make(map[string]*EnumerateResponse),
	}
}

func (s *RunStore) Put(resp *EnumerateResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[resp.RunID]; !exists {
		s.order.PushBack(resp.RunID)
	}
	s.runs[resp.RunID] = resp

	for s.order.Len() > s.capacity {
		delete(s.runs, s.order.PopFront())
	}
}

func (s *RunStore) Get(runID string) (*EnumerateResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.runs[runID]
	return resp, ok
}

func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
