package api

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrThingNotFound is returned when no thing has the requested ID
	ErrThingNotFound = errors.New("thing not found")

	// ErrThingNameRequired is returned when a thing is created without a name
	ErrThingNameRequired = errors.New("name is required")
)

// Thing is the demo resource served behind the authorizer
type Thing struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateThingRequest is the body of POST /things
type CreateThingRequest struct {
	Name string `json:"name"`
}

// ThingStore keeps things in memory in creation order
type ThingStore struct {
	mu     sync.RWMutex
	things map[string]Thing
	order  []string
}

// NewThingStore creates a store holding the given things
func NewThingStore(seed ...Thing) *ThingStore {
	s := &ThingStore{things: make(map[string]Thing, len(seed))}
	for _, t := range seed {
		s.things[t.ID] = t
		s.order = append(s.order, t.ID)
	}
	return s
}

// List returns all things in creation order
func (s *ThingStore) List() []Thing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	things := make([]Thing, 0, len(s.order))
	for _, id := range s.order {
		things = append(things, s.things[id])
	}
	return things
}

// Get returns the thing with the given ID
func (s *ThingStore) Get(id string) (Thing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.things[id]
	if !ok {
		return Thing{}, ErrThingNotFound
	}
	return t, nil
}

// Create stores a new thing with a generated ID
func (s *ThingStore) Create(name string) (Thing, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Thing{}, ErrThingNameRequired
	}

	t := Thing{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.things[t.ID] = t
	s.order = append(s.order, t.ID)
	return t, nil
}

// Delete removes the thing with the given ID
func (s *ThingStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.things[id]; !ok {
		return ErrThingNotFound
	}
	delete(s.things, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
