package esf

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"
)

// Digest is the BLAKE3-256 digest of an input buffer as passed to Cache.Decode.
type Digest [32]byte

// Sum returns the digest of data.
func Sum(data []byte) Digest {
	return Digest(blake3.Sum256(data))
}

// Cache keeps recently decoded documents keyed by the digest of their input
// bytes. Documents are immutable, so a cached document is returned to every
// caller that presents the same bytes. Cache is safe for concurrent use.
type Cache struct {
	docs   *lru.Cache[Digest, *Document]
	opts   []ReadOption
	hits   atomic.Uint64
	misses atomic.Uint64
}

// CacheStats counts lookups since the cache was created.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Len    int
}

// NewCache returns a cache holding at most size documents. opts apply to
// every decode the cache performs.
func NewCache(size int, opts ...ReadOption) (*Cache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: cache size must be positive", ErrValidation)
	}
	docs, err := lru.New[Digest, *Document](size)
	if err != nil {
		return nil, err
	}
	return &Cache{docs: docs, opts: opts}, nil
}

// Decode returns the cached document for data, decoding and caching it on a
// miss. Failed decodes are not cached. Two goroutines missing on the same
// bytes at once may both decode; either result is equivalent.
func (c *Cache) Decode(ctx context.Context, data []byte) (*Document, error) {
	key := Sum(data)
	if doc, ok := c.docs.Get(key); ok {
		c.hits.Add(1)
		return doc, nil
	}
	c.misses.Add(1)
	doc, err := DecodeContext(ctx, data, c.opts...)
	if err != nil {
		return nil, err
	}
	c.docs.Add(key, doc)
	return doc, nil
}

// Forget drops the document decoded from bytes with digest key.
func (c *Cache) Forget(key Digest) {
	c.docs.Remove(key)
}

// Stats returns the lookup counters and the number of cached documents.
func (c *Cache) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Len: c.docs.Len()}
}
