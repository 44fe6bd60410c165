package util

import "sync"

// Stats is a set of named counters shared by concurrently firing tasks
type Stats struct {
	data map[string]int
	mu   sync.Mutex
}

func (s *Stats) Increment(key string) {
	s.IncrementBy(key, 1)
}

func (s *Stats) IncrementBy(key string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]int)
	}

	s.data[key] += value
}

// Get returns 0 for counters that were never incremented
func (s *Stats) Get(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data[key]
}

// ToMap returns a copy so callers can range over it without holding the lock
func (s *Stats) ToMap() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make(map[string]int, len(s.data))
	for key, value := range s.data {
		copied[key] = value
	}
	return copied
}
