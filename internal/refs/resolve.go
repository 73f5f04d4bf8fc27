package refs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jlewallen/dimsum/internal/decode"
	"github.com/jlewallen/dimsum/internal/store"
)

// Resolver looks up the entity a reference points at. A missing entity is
// reported with an error wrapping store.ErrNotFound.
type Resolver interface {
	Resolve(ctx context.Context, key string) (*decode.Decoded, error)
}

// RowReader reads one row by key. *store.Store implements it.
type RowReader interface {
	ReadRow(ctx context.Context, key string) (store.Row, error)
}

// CachingResolver resolves keys by reading and decoding rows, keeping the
// most recently used decoded entities in memory.
//
// Thread-safety: safe for concurrent use; decodes are serialized.
type CachingResolver struct {
	rows  RowReader
	cache *lru.Cache[string, *decode.Decoded]

	mu      sync.Mutex
	decoder *decode.Decoder
}

// DefaultCacheSize is used when NewCachingResolver is given a size <= 0.
const DefaultCacheSize = 1024

// NewCachingResolver creates a resolver over rows caching up to size entities.
func NewCachingResolver(rows RowReader, size int) (*CachingResolver, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *decode.Decoded](size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	dec, err := decode.NewDecoder()
	if err != nil {
		return nil, err
	}
	return &CachingResolver{rows: rows, cache: cache, decoder: dec}, nil
}

// Resolve returns the decoded entity stored under key.
func (r *CachingResolver) Resolve(ctx context.Context, key string) (*decode.Decoded, error) {
	if d, ok := r.cache.Get(key); ok {
		return d, nil
	}

	row, err := r.rows.ReadRow(ctx, key)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	d, err := r.decoder.DecodeRow(row.Key, row.Serialized)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", key, err)
	}

	r.cache.Add(key, d)
	return d, nil
}

// Len returns the number of cached entities.
func (r *CachingResolver) Len() int {
	return r.cache.Len()
}

// Dangling returns the edges whose target entity does not exist. Any other
// resolution failure stops the check and is returned.
func Dangling(ctx context.Context, r Resolver, edges []Edge) ([]Edge, error) {
	out := []Edge{}
	for _, e := range edges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, err := r.Resolve(ctx, e.Ref.Key)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound):
			out = append(out, e)
		default:
			return nil, err
		}
	}
	return out, nil
}
