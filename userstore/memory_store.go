/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package userstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultSeedUsers is a set of users the memory store is filled with by default.
var DefaultSeedUsers = []User{
	{ID: 1, Name: "John Doe", Email: "john@example.com"},
	{ID: 2, Name: "Jane Smith", Email: "jane@example.com"},
	{ID: 3, Name: "Bob Johnson", Email: "bob@example.com"},
}

// MemoryStore keeps users in memory and simulates a slow database by sleeping on each Fetch.
type MemoryStore struct {
	latency time.Duration

	mu     sync.RWMutex
	users  map[int64]User
	emails map[string]int64
	lastID int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore with the passed users.
// New users get ids greater than any seeded one.
func NewMemoryStore(latency time.Duration, seed []User) (*MemoryStore, error) {
	s := &MemoryStore{latency: latency, users: make(map[int64]User, len(seed)), emails: make(map[string]int64)}
	for _, u := range seed {
		if u.ID <= 0 {
			return nil, fmt.Errorf("seed user %q: id must be positive", u.Name)
		}
		if _, ok := s.users[u.ID]; ok {
			return nil, fmt.Errorf("seed user %q: duplicated id %d", u.Name, u.ID)
		}
		s.users[u.ID] = u
		s.emails[strings.ToLower(u.Email)] = u.ID
		if u.ID > s.lastID {
			s.lastID = u.ID
		}
	}
	return s, nil
}

// Fetch returns the user by the key after the simulated latency.
func (s *MemoryStore) Fetch(ctx context.Context, key string) (User, error) {
	id, err := parseUserKey(key)
	if err != nil {
		return User{}, err
	}
	if err = s.sleep(ctx); err != nil {
		return User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	}
	return u, nil
}

// Create adds a new user with the next id.
func (s *MemoryStore) Create(_ context.Context, name, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	emailKey := strings.ToLower(email)
	if _, ok := s.emails[emailKey]; ok {
		return User{}, ErrEmailTaken
	}
	s.lastID++
	u := User{ID: s.lastID, Name: name, Email: email}
	s.users[u.ID] = u
	s.emails[emailKey] = u.ID
	return u, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored users.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *MemoryStore) sleep(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
