package repository

import (
	"sync"

	"github.com/FastBound/Support/internal/domain"
)

// ContactPool is the in-memory set of known contacts, in insertion order,
// with at most one entry per dedup key. The import flow is sequential, but
// the pool is lock-guarded anyway so a future parallel importer cannot
// corrupt it.
type ContactPool struct {
	mu    sync.RWMutex
	items []domain.Contact
	index map[string]int // dedup key -> position in items
}

// NewContactPool creates an empty pool.
func NewContactPool() *ContactPool {
	return &ContactPool{index: map[string]int{}}
}

// NewContactPoolFrom creates a pool seeded with the given contacts.
// Later duplicates of a dedup key are dropped.
func NewContactPoolFrom(contacts []domain.Contact) *ContactPool {
	p := NewContactPool()
	for _, c := range contacts {
		p.Add(c)
	}
	return p
}

// Add appends a contact. Returns false (and leaves the pool unchanged) if
// an entry with the same dedup key already exists, or if the contact has no
// derivable key.
func (p *ContactPool) Add(c domain.Contact) bool {
	key := c.DedupKey()
	if key == "" {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.index[key]; exists {
		return false
	}
	p.index[key] = len(p.items)
	p.items = append(p.items, c)
	return true
}

// Replace swaps the pool's contents for a freshly downloaded contact list.
func (p *ContactPool) Replace(contacts []domain.Contact) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = p.items[:0]
	p.index = map[string]int{}
	for _, c := range contacts {
		key := c.DedupKey()
		if key == "" {
			continue
		}
		if _, exists := p.index[key]; exists {
			continue
		}
		p.index[key] = len(p.items)
		p.items = append(p.items, c)
	}
}

// FindByKey looks a contact up by its dedup key.
func (p *ContactPool) FindByKey(key string) (domain.Contact, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, ok := p.index[key]
	if !ok {
		return domain.Contact{}, false
	}
	return p.items[i], true
}

// All returns a copy of the pool in insertion order.
func (p *ContactPool) All() []domain.Contact {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Contact, len(p.items))
	copy(out, p.items)
	return out
}

// Len returns the number of pooled contacts.
func (p *ContactPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}
