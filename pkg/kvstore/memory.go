// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package kvstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a map-backed Store for single-node deployments and tests.
// TTLs are honored lazily on access. The clock is injectable so tests can
// advance time without sleeping.
type MemoryStore struct {
	mu        sync.Mutex
	values    map[string]memoryEntry
	hashes    map[string]map[string]string
	sets      map[string]map[string]struct{}
	deadlines map[string]time.Time
	now       func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero value means no expiry
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:    make(map[string]memoryEntry),
		hashes:    make(map[string]map[string]string),
		sets:      make(map[string]map[string]struct{}),
		deadlines: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetClock overrides the store's clock. This is mostly useful for testing.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) live(key string) (memoryEntry, bool) {
	entry, ok := s.values[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.values, key)
		return memoryEntry{}, false
	}
	return entry, true
}

// dropIfExpired evicts a hash or set whose Expire deadline passed. String
// keys carry their expiry on the entry itself via live.
func (s *MemoryStore) dropIfExpired(key string) {
	deadline, ok := s.deadlines[key]
	if !ok || s.now().Before(deadline) {
		return
	}
	delete(s.hashes, key)
	delete(s.sets, key)
	delete(s.deadlines, key)
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(key)
	if !ok {
		return "", ErrNotFound
	}
	return entry.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.values[key] = entry
	return nil
}

func (s *MemoryStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(key); ok {
		return false, nil
	}
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.values[key] = entry
	return true, nil
}

func (s *MemoryStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	delete(s.hashes, key)
	delete(s.sets, key)
	delete(s.deadlines, key)
	return nil
}

func (s *MemoryStore) HGet(_ context.Context, key, field string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropIfExpired(key)

	hash, ok := s.hashes[key]
	if !ok {
		return "", ErrNotFound
	}
	value, ok := hash[field]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) HSet(_ context.Context, key, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropIfExpired(key)

	hash, ok := s.hashes[key]
	if !ok {
		hash = make(map[string]string)
		s.hashes[key] = hash
	}
	hash[field] = value
	return nil
}

func (s *MemoryStore) HDel(_ context.Context, key, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropIfExpired(key)

	if hash, ok := s.hashes[key]; ok {
		delete(hash, field)
	}
	return nil
}

func (s *MemoryStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropIfExpired(key)

	out := make(map[string]string, len(s.hashes[key]))
	for field, value := range s.hashes[key] {
		out[field] = value
	}
	return out, nil
}

func (s *MemoryStore) SAdd(_ context.Context, key, member string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropIfExpired(key)

	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	if _, exists := set[member]; exists {
		return 0, nil
	}
	set[member] = struct{}{}
	return 1, nil
}

func (s *MemoryStore) SRem(_ context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropIfExpired(key)

	if set, ok := s.sets[key]; ok {
		delete(set, member)
	}
	return nil
}

func (s *MemoryStore) SIsMember(_ context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropIfExpired(key)

	set, ok := s.sets[key]
	if !ok {
		return false, nil
	}
	_, exists := set[member]
	return exists, nil
}

func (s *MemoryStore) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropIfExpired(key)

	members := make([]string, 0, len(s.sets[key]))
	for member := range s.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.live(key); ok {
		entry.expiresAt = s.now().Add(ttl)
		s.values[key] = entry
		return nil
	}

	s.dropIfExpired(key)
	_, isHash := s.hashes[key]
	_, isSet := s.sets[key]
	if !isHash && !isSet {
		return ErrNotFound
	}
	s.deadlines[key] = s.now().Add(ttl)
	return nil
}
