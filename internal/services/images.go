package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atelierml/atelier/internal/logger"
	"github.com/atelierml/atelier/internal/types"
)

// Images is the in-memory store for generated image payloads. Entries are
// retained for a fixed TTL and then swept by a background janitor, so memory
// use stays bounded even if clients never fetch their images. A TTL of zero
// disables eviction.
type Images struct {
	mu      sync.Mutex
	entries map[string]imageEntry
	ttl     time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

type imageEntry struct {
	data    []byte
	addedAt time.Time
}

// NewImageStore creates the store and starts the eviction janitor when ttl
// is positive.
func NewImageStore(ttl time.Duration) *Images {
	s := &Images{
		entries: make(map[string]imageEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	if ttl > 0 {
		go s.janitor()
	}
	return s
}

// Put stores payload and returns a freshly minted opaque handle for it.
func (s *Images) Put(payload []byte) string {
	id := uuid.NewString()

	s.mu.Lock()
	s.entries[id] = imageEntry{data: payload, addedAt: time.Now()}
	s.mu.Unlock()

	return id
}

// Get returns the payload for id, or a not-found error for unknown or
// expired handles.
func (s *Images) Get(id string) ([]byte, error) {
	s.mu.Lock()
	entry, ok := s.entries[id]
	s.mu.Unlock()

	if !ok {
		return nil, types.NewNotFoundError(fmt.Sprintf("image %q not found", id))
	}
	return entry.data, nil
}

// Delete removes the payload for id, if present.
func (s *Images) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Len returns the number of retained images.
func (s *Images) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the eviction janitor. Stored entries remain readable.
func (s *Images) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *Images) janitor() {
	interval := s.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *Images) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.entries {
		if now.Sub(entry.addedAt) > s.ttl {
			delete(s.entries, id)
			logger.Debugf("Evicted expired image %s", id)
		}
	}
}
