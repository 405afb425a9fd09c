package archive

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// JobStore holds archive jobs in a bounded in-memory cache. Terminal jobs
// older than the retention window are evicted on read; the LRU capacity
// bounds memory even when nobody reads.
type JobStore struct {
	mu        sync.RWMutex
	cache     *lru.Cache
	retention time.Duration
}

// NewJobStore creates a store with a fixed capacity and retention window.
func NewJobStore(size int, retention time.Duration) (*JobStore, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &JobStore{cache: cache, retention: retention}, nil
}

// Put stores a job under its backup ID.
func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(job.BackupID, job)
}

// Get returns the job for a backup ID, evicting it when its retention has
// lapsed.
func (s *JobStore) Get(backupID string) (*Job, bool) {
	s.mu.RLock()
	val, found := s.cache.Get(backupID)
	s.mu.RUnlock()
	if !found {
		return nil, false
	}

	job := val.(*Job)
	if terminal, endedAt := job.Terminal(); terminal && time.Since(endedAt) > s.retention {
		s.mu.Lock()
		s.cache.Remove(backupID)
		s.mu.Unlock()
		return nil, false
	}
	return job, true
}

// Len reports the number of cached jobs.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.Len()
}
