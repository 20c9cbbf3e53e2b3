package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/FastBound/Support/internal/domain"
	"github.com/FastBound/Support/internal/fastbound"
	"github.com/FastBound/Support/internal/repository"
)

// ContactAPI is the slice of the FastBound client the resolver needs.
type ContactAPI interface {
	ListContacts(ctx context.Context) ([]domain.Contact, error)
	CreateContact(ctx context.Context, contact domain.Contact, lookupFFL bool) (domain.Contact, error)
}

// Resolver gets-or-creates contacts against the in-memory pool, creating
// through the API only when no match exists, and keeps the cache in sync.
type Resolver struct {
	api     ContactAPI
	cache   repository.ContactCache
	matcher Matcher
	logger  *zap.Logger
}

// NewResolver creates a resolver. cache may be a NopCache.
func NewResolver(api ContactAPI, cache repository.ContactCache, logger *zap.Logger) *Resolver {
	if cache == nil {
		cache = repository.NopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{api: api, cache: cache, logger: logger}
}

// GetOrCreate returns the pooled contact matching info, or creates one.
//
// FFL business rule: when the candidate carries a license number, the
// caller has already enriched the FFL data, so the server's own lookup is
// disabled and the person-name fields are dropped — the API treats FFL
// contacts and person contacts as mutually exclusive shapes.
//
// Creation responses that carry no usable ID, and "already exists"
// rejections from a racing process or a prior partial run, are both
// recovered by re-downloading the pool and re-matching. If the record
// still cannot be found the error is an UnrecoverableContactError.
func (r *Resolver) GetOrCreate(ctx context.Context, pool *repository.ContactPool, info domain.Contact) (domain.Contact, error) {
	if match, ok := r.matcher.FindMatch(pool, info); ok {
		return match, nil
	}

	create := info
	lookupFFL := true
	if strings.TrimSpace(info.FFLNumber) != "" {
		lookupFFL = false
		create.FirstName = ""
		create.MiddleName = ""
		create.LastName = ""
		create.Suffix = ""
	}

	created, err := r.api.CreateContact(ctx, create, lookupFFL)
	if err != nil {
		if fastbound.IsAlreadyExists(err) {
			r.logger.Info("contact already exists upstream, re-matching",
				zap.String("dedup_key", info.DedupKey()),
			)
			return r.refreshAndMatch(ctx, pool, info)
		}
		return domain.Contact{}, err
	}

	if created.ID == "" {
		// 2xx with neither a body nor a Location GUID: the record exists
		// upstream but we do not know its ID.
		return r.refreshAndMatch(ctx, pool, info)
	}

	// Location-only 201s return just the ID; fill the rest from what we sent.
	if created.Kind() == domain.KindUnknown {
		full := create
		full.ID = created.ID
		created = full
	}

	pool.Add(created)
	r.persist(ctx, pool)
	r.logger.Info("created contact",
		zap.String("contact_id", created.ID),
		zap.String("kind", created.Kind().String()),
	)
	return created, nil
}

// refreshAndMatch re-downloads the full pool and retries the match. The
// fresh pool replaces the stale one and is persisted to the cache.
func (r *Resolver) refreshAndMatch(ctx context.Context, pool *repository.ContactPool, info domain.Contact) (domain.Contact, error) {
	contacts, err := r.api.ListContacts(ctx)
	if err != nil {
		return domain.Contact{}, err
	}
	pool.Replace(contacts)
	r.persist(ctx, pool)

	if match, ok := r.matcher.FindMatch(pool, info); ok {
		return match, nil
	}
	return domain.Contact{}, &UnrecoverableContactError{DedupKey: info.DedupKey()}
}

// persist writes the pool through to the cache. Cache trouble is logged,
// not fatal: the next run just re-downloads.
func (r *Resolver) persist(ctx context.Context, pool *repository.ContactPool) {
	if err := r.cache.Save(ctx, pool.All()); err != nil {
		r.logger.Warn("could not persist contact cache", zap.Error(err))
	}
}
