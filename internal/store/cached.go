package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sells-group/accounts-cli/internal/model"
)

// CachedStore memoizes query results keyed by a content hash of (method,
// arguments). Entries are never invalidated by the pipeline itself;
// staleness is accepted for the life of the process unless a caller bumps
// the version. Concurrent identical misses collapse into one store query.
type CachedStore struct {
	inner Store
	now   func() time.Time

	version atomic.Uint64
	group   singleflight.Group

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	rowset   *model.Rowset
	storedAt time.Time
}

// CacheOption tunes a CachedStore.
type CacheOption func(*CachedStore)

// WithClock injects the time source used for entry timestamps.
func WithClock(now func() time.Time) CacheOption {
	return func(c *CachedStore) { c.now = now }
}

// NewCached wraps a Store with the read-through memo cache.
func NewCached(inner Store, opts ...CacheOption) *CachedStore {
	c := &CachedStore{
		inner:   inner,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invalidate discards all cached results by bumping the key version.
func (c *CachedStore) Invalidate() {
	c.version.Add(1)
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of live cache entries.
func (c *CachedStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// key builds the content-hash cache key. The version participates so that
// Invalidate orphans in-flight singleflight results as well.
func (c *CachedStore) key(method string, args any) string {
	argJSON, err := json.Marshal(args)
	if err != nil {
		// Arguments are strings and string slices; marshal cannot fail for
		// them, but fall back to a literal rendering rather than panic.
		argJSON = []byte(fmt.Sprintf("%v", args))
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|", method, c.version.Load())
	h.Write(argJSON)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *CachedStore) memoize(ctx context.Context, method string, args any, load func(context.Context) (*model.Rowset, error)) (*model.Rowset, error) {
	k := c.key(method, args)

	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()
	if ok {
		return e.rowset, nil
	}

	v, err, _ := c.group.Do(k, func() (any, error) {
		res, err := load(ctx)
		if err != nil {
			// Errors are never cached; the next call retries the store.
			return nil, err
		}
		c.mu.Lock()
		c.entries[k] = cacheEntry{rowset: res, storedAt: c.now()}
		c.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Rowset), nil
}

func (c *CachedStore) ActivitiesByAccount(ctx context.Context, account string) (*model.Rowset, error) {
	return c.memoize(ctx, "activities_by_account", account, func(ctx context.Context) (*model.Rowset, error) {
		return c.inner.ActivitiesByAccount(ctx, account)
	})
}

func (c *CachedStore) ActivitiesByAccounts(ctx context.Context, accounts []string) (*model.Rowset, error) {
	return c.memoize(ctx, "activities_by_accounts", accounts, func(ctx context.Context) (*model.Rowset, error) {
		return c.inner.ActivitiesByAccounts(ctx, accounts)
	})
}

func (c *CachedStore) FirmographicsByIdentifiers(ctx context.Context, ids []string) (*model.Rowset, error) {
	return c.memoize(ctx, "firmographics_by_identifiers", ids, func(ctx context.Context) (*model.Rowset, error) {
		return c.inner.FirmographicsByIdentifiers(ctx, ids)
	})
}

func (c *CachedStore) ContactsByIdentifiers(ctx context.Context, ids []string) (*model.Rowset, error) {
	return c.memoize(ctx, "contacts_by_identifiers", ids, func(ctx context.Context) (*model.Rowset, error) {
		return c.inner.ContactsByIdentifiers(ctx, ids)
	})
}

// Ping, Migrate, and Close bypass the cache.

func (c *CachedStore) Ping(ctx context.Context) error    { return c.inner.Ping(ctx) }
func (c *CachedStore) Migrate(ctx context.Context) error { return c.inner.Migrate(ctx) }
func (c *CachedStore) Close() error                      { return c.inner.Close() }
