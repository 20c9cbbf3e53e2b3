package repository

import (
	"context"
	"errors"

	"github.com/FastBound/Support/internal/domain"
)

// ErrCacheMiss is returned by Load when no cached pool exists yet.
var ErrCacheMiss = errors.New("contact cache miss")

// ContactCache persists the contact pool between runs so an import does not
// have to re-download every contact each time. Implementations: CSVCache
// (the default, a file mirroring the Contact shape), RedisCache, NopCache.
type ContactCache interface {
	Load(ctx context.Context) ([]domain.Contact, error)
	Save(ctx context.Context, contacts []domain.Contact) error
}

// NopCache satisfies ContactCache without persisting anything. Load always
// misses.
type NopCache struct{}

func (NopCache) Load(context.Context) ([]domain.Contact, error) {
	return nil, ErrCacheMiss
}

func (NopCache) Save(context.Context, []domain.Contact) error { return nil }
