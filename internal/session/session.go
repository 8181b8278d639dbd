// Package session holds the mutable state of bills being split: people,
// items, and the bill-level tax and tip. Sessions live only in memory and
// expire after a period of inactivity. The allocation engine never sees a
// session directly; it is handed immutable snapshots.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tabsplit/internal/calculator"
	"tabsplit/internal/models"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrEmptyName     = errors.New("name cannot be empty")
	ErrInvalidPrice  = errors.New("price must be greater than zero")
	ErrUnknownPerson = errors.New("unknown person id")
	ErrUnknownItem   = errors.New("unknown item id")
)

// Session is one bill in progress. All methods are safe for concurrent use.
type Session struct {
	// ID is the unique identifier for the session (UUID format).
	ID string

	mu       sync.Mutex
	people   []models.Person
	items    []models.BillItem
	tax      float64
	tip      float64
	lastUsed time.Time
}

func newSession() *Session {
	return &Session{
		ID:       uuid.NewString(),
		lastUsed: time.Now(),
	}
}

// AddPerson appends a participant with a fresh id and the next palette
// color. The name is trimmed of surrounding whitespace.
func (s *Session) AddPerson(name string) (models.Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Person{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	person := models.Person{
		ID:    uuid.NewString(),
		Name:  name,
		Color: calculator.NextColor(s.people),
	}
	s.people = append(s.people, person)
	return person, nil
}

// RemovePerson deletes a participant and scrubs their id from every item's
// assignment list. An item whose assignment list empties out this way
// reverts to being split across everyone.
func (s *Session) RemovePerson(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	idx := -1
	for i, p := range s.people {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPerson, id)
	}
	s.people = append(s.people[:idx], s.people[idx+1:]...)

	for i := range s.items {
		assigned := s.items[i].AssignedTo[:0]
		for _, pid := range s.items[i].AssignedTo {
			if pid != id {
				assigned = append(assigned, pid)
			}
		}
		s.items[i].AssignedTo = assigned
	}
	return nil
}

// AddItem appends a priced line to the bill, initially split across
// everyone (empty assignment list).
func (s *Session) AddItem(name string, price float64) (models.BillItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.BillItem{}, ErrEmptyName
	}
	if price <= 0 {
		return models.BillItem{}, ErrInvalidPrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	item := models.BillItem{
		ID:    uuid.NewString(),
		Name:  name,
		Price: price,
	}
	s.items = append(s.items, item)
	return item, nil
}

// UpdateItem replaces an item's name and price, keeping its assignments.
func (s *Session) UpdateItem(id, name string, price float64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if price <= 0 {
		return ErrInvalidPrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Name = name
			s.items[i].Price = price
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownItem, id)
}

// AssignItem replaces an item's payer list. Every id must name a current
// person; duplicates are dropped. An empty list reverts the item to being
// split across everyone.
func (s *Session) AssignItem(itemID string, personIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	known := make(map[string]bool, len(s.people))
	for _, p := range s.people {
		known[p.ID] = true
	}

	var assigned []string
	seen := make(map[string]bool, len(personIDs))
	for _, pid := range personIDs {
		if !known[pid] {
			return fmt.Errorf("%w: %s", ErrUnknownPerson, pid)
		}
		if seen[pid] {
			continue
		}
		seen[pid] = true
		assigned = append(assigned, pid)
	}

	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items[i].AssignedTo = assigned
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
}

// RemoveItem deletes an item from the bill.
func (s *Session) RemoveItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownItem, id)
}

// SetTax sets the bill-level tax amount, clamped at zero.
func (s *Session) SetTax(amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.tax = max(amount, 0)
}

// SetTip sets the bill-level tip amount, clamped at zero.
func (s *Session) SetTip(amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.tip = max(amount, 0)
}

// Snapshot returns deep copies of the session state, safe to hand to the
// engine or mutate without affecting the session.
func (s *Session) Snapshot() (people []models.Person, items []models.BillItem, tax, tip float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.copyState()
}

// Summary runs the allocation engine over the current state.
func (s *Session) Summary() models.BillSummary {
	people, items, tax, tip := s.Snapshot()
	return calculator.CalculateSplit(items, people, tax, tip)
}

// copyState must be called with the lock held.
func (s *Session) copyState() (people []models.Person, items []models.BillItem, tax, tip float64) {
	people = make([]models.Person, len(s.people))
	copy(people, s.people)

	items = make([]models.BillItem, len(s.items))
	for i, item := range s.items {
		items[i] = item
		if item.AssignedTo != nil {
			items[i].AssignedTo = make([]string, len(item.AssignedTo))
			copy(items[i].AssignedTo, item.AssignedTo)
		}
	}
	return people, items, s.tax, s.tip
}

// touch must be called with the lock held.
func (s *Session) touch() {
	s.lastUsed = time.Now()
}

func (s *Session) expiredAt(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed) > ttl
}
