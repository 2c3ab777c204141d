// Package store owns the live question collections and the units projection
// derived from them.
package store

import (
	"errors"
	"sync"

	"quizadmin/models"
)

var ErrUnknownUnitType = errors.New("unknown unit type")

// ContentStore is the single owner of the four question collections. Every
// read hands out a deep copy; every write goes through a working copy that is
// committed only when the mutation succeeds. The units projection is derived
// from the committed collections whenever it is read.
type ContentStore struct {
	mu          sync.RWMutex
	collections models.Collections
	units       []models.Unit
}

func NewContentStore(units []models.Unit, collections models.Collections) *ContentStore {
	s := &ContentStore{
		collections: collections.Clone(),
		units:       append([]models.Unit(nil), units...),
	}
	return s
}

// project builds the units projection over a private copy of the
// collections. Caller holds the read lock.
func (s *ContentStore) project(units []models.Unit) []models.UnitView {
	c := s.collections.Clone()
	views := make([]models.UnitView, 0, len(units))
	for _, u := range units {
		if u.Icon == "" {
			u.Icon = models.DefaultUnitIcon
		}
		views = append(views, models.UnitView{Unit: u, Questions: c.Items(u.Type)})
	}
	return views
}

// Snapshot returns a deep copy of the collections.
func (s *ContentStore) Snapshot() models.Collections {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collections.Clone()
}

// Units returns the unit definitions.
func (s *ContentStore) Units() []models.Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Unit(nil), s.units...)
}

// Unit looks a unit up by id.
func (s *ContentStore) Unit(id string) (models.Unit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.units {
		if u.ID == id {
			return u, true
		}
	}
	return models.Unit{}, false
}

// Views returns the derived units projection.
func (s *ContentStore) Views() []models.UnitView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project(s.units)
}

// View returns the projection of one unit.
func (s *ContentStore) View(id string) (models.UnitView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.units {
		if u.ID == id {
			return s.project([]models.Unit{u})[0], true
		}
	}
	return models.UnitView{}, false
}

// Total counts every entry across the collections.
func (s *ContentStore) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collections.Total()
}

// Replace swaps all four collections for a copy of c.
func (s *ContentStore) Replace(c models.Collections) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = c.Clone()
}

// Mutate runs fn against a working copy of the collections and commits it
// when fn returns nil. The previous state is returned so callers can roll
// back if a later step fails.
func (s *ContentStore) Mutate(fn func(c *models.Collections) error) (previous models.Collections, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.collections.Clone()
	if err := fn(&work); err != nil {
		return models.Collections{}, err
	}
	previous = s.collections
	s.collections = work
	return previous.Clone(), nil
}

// InsertAt puts q at position i of the collection for t, shifting later entries.
func (s *ContentStore) InsertAt(t models.UnitType, i int, q models.Question) (models.Collections, error) {
	k, ok := models.LookupKind(t)
	if !ok {
		return models.Collections{}, ErrUnknownUnitType
	}
	return s.Mutate(func(c *models.Collections) error {
		return k.InsertAt(c, i, q)
	})
}

// Append adds q at the end of the collection for t.
func (s *ContentStore) Append(t models.UnitType, q models.Question) (models.Collections, error) {
	k, ok := models.LookupKind(t)
	if !ok {
		return models.Collections{}, ErrUnknownUnitType
	}
	return s.Mutate(func(c *models.Collections) error {
		return k.Append(c, q)
	})
}

// RemoveAt deletes position i of the collection for t and returns the removed entry.
func (s *ContentStore) RemoveAt(t models.UnitType, i int) (models.Question, models.Collections, error) {
	k, ok := models.LookupKind(t)
	if !ok {
		return nil, models.Collections{}, ErrUnknownUnitType
	}
	var removed models.Question
	prev, err := s.Mutate(func(c *models.Collections) error {
		q, err := k.RemoveAt(c, i)
		removed = q
		return err
	})
	return removed, prev, err
}

// SetAt overwrites position i and returns the entry it replaced.
func (s *ContentStore) SetAt(t models.UnitType, i int, q models.Question) (models.Question, models.Collections, error) {
	k, ok := models.LookupKind(t)
	if !ok {
		return nil, models.Collections{}, ErrUnknownUnitType
	}
	var old models.Question
	prev, err := s.Mutate(func(c *models.Collections) error {
		items := k.Items(c)
		if i < 0 || i >= len(items) {
			return models.ErrIndexOutOfRange
		}
		old = items[i]
		return k.SetAt(c, i, q)
	})
	return old, prev, err
}

// At returns position i of the collection for t.
func (s *ContentStore) At(t models.UnitType, i int) (models.Question, error) {
	k, ok := models.LookupKind(t)
	if !ok {
		return nil, ErrUnknownUnitType
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := k.Items(&s.collections)
	if i < 0 || i >= len(items) {
		return nil, models.ErrIndexOutOfRange
	}
	return items[i], nil
}
