package dashboard

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// CachingLayoutStore memoizes LoadLayout results per viewer for a TTL. Saves
// go straight to the wrapped store and refresh the cached entry on success.
type CachingLayoutStore struct {
	next LayoutStore
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedLayout
}

type cachedLayout struct {
	doc     LayoutDocument
	missing bool
	expires time.Time
}

// NewCachingLayoutStore wraps next. A non-positive ttl disables caching.
func NewCachingLayoutStore(next LayoutStore, ttl time.Duration) *CachingLayoutStore {
	return &CachingLayoutStore{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedLayout),
	}
}

// LoadLayout returns the cached layout or loads and stores a fresh one.
// ErrLayoutNotFound is cached too; other errors are not.
func (c *CachingLayoutStore) LoadLayout(ctx context.Context) (LayoutDocument, error) {
	if c.next == nil {
		return LayoutDocument{}, errMissingLayoutStore
	}
	key := viewerKey(ctx)
	if entry, ok := c.get(key); ok {
		if entry.missing {
			return LayoutDocument{}, ErrLayoutNotFound
		}
		return cloneLayout(entry.doc), nil
	}
	doc, err := c.next.LoadLayout(ctx)
	switch {
	case err == nil:
		c.set(key, cachedLayout{doc: cloneLayout(doc)})
		return doc, nil
	case errors.Is(err, ErrLayoutNotFound):
		c.set(key, cachedLayout{missing: true})
		return LayoutDocument{}, err
	default:
		return LayoutDocument{}, err
	}
}

// SaveLayout writes through and refreshes the cache.
func (c *CachingLayoutStore) SaveLayout(ctx context.Context, doc LayoutDocument) error {
	if c.next == nil {
		return errMissingLayoutStore
	}
	key := viewerKey(ctx)
	if err := c.next.SaveLayout(ctx, doc); err != nil {
		c.invalidate(key)
		return err
	}
	c.set(key, cachedLayout{doc: cloneLayout(doc)})
	return nil
}

func (c *CachingLayoutStore) get(key string) (cachedLayout, bool) {
	if c.ttl <= 0 {
		return cachedLayout{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return cachedLayout{}, false
	}
	if c.now().After(entry.expires) {
		c.invalidate(key)
		return cachedLayout{}, false
	}
	return entry, true
}

func (c *CachingLayoutStore) set(key string, entry cachedLayout) {
	if c.ttl <= 0 {
		return
	}
	entry.expires = c.now().Add(c.ttl)
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

func (c *CachingLayoutStore) invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// viewerKey hashes the bearer token so raw credentials are not kept as map
// keys.
func viewerKey(ctx context.Context) string {
	token := BearerTokenFrom(ctx)
	if token == "" {
		return anonymousViewer
	}
	sum := sha1.Sum([]byte(token))
	return hex.EncodeToString(sum[:])
}
