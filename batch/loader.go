// Package batch resolves relations for a whole result page in two phases:
// collect every key the page needs, then fetch them with as few IN queries
// as possible and merge the results back. It replaces one round trip per
// entity with one round trip per relation.
package batch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultChunkSize bounds the number of keys in one IN list
	DefaultChunkSize = 500
	// DefaultConcurrency bounds chunks fetched at once
	DefaultConcurrency = 4
)

// FetchFunc fetches values for keys. Keys without a value are omitted
// from the returned map.
type FetchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// Loader deduplicates keys and fetches them in bounded chunks.
type Loader[K comparable, V any] struct {
	fetch       FetchFunc[K, V]
	chunkSize   int
	concurrency int
}

// Option configures a Loader.
type Option func(*options)

type options struct {
	chunkSize   int
	concurrency int
}

// WithChunkSize sets the maximum keys per fetch.
func WithChunkSize(n int) Option {
	return func(o *options) { o.chunkSize = n }
}

// WithConcurrency sets how many chunks may be in flight.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// NewLoader creates a loader around fetch.
func NewLoader[K comparable, V any](fetch FetchFunc[K, V], opts ...Option) *Loader[K, V] {
	o := options{chunkSize: DefaultChunkSize, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	if o.chunkSize <= 0 {
		o.chunkSize = DefaultChunkSize
	}
	if o.concurrency <= 0 {
		o.concurrency = 1
	}
	return &Loader[K, V]{fetch: fetch, chunkSize: o.chunkSize, concurrency: o.concurrency}
}

// Load fetches values for keys. Duplicate and zero keys are dropped; no
// keys means no fetch at all.
func (l *Loader[K, V]) Load(ctx context.Context, keys []K) (map[K]V, error) {
	unique := Distinct(keys)
	result := make(map[K]V, len(unique))
	if len(unique) == 0 {
		return result, nil
	}

	chunks := Chunk(unique, l.chunkSize)
	if len(chunks) == 1 {
		return l.fetchInto(ctx, chunks[0], result)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for _, chunk := range chunks {
		g.Go(func() error {
			part, err := l.fetch(gctx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			for k, v := range part {
				result[k] = v
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (l *Loader[K, V]) fetchInto(ctx context.Context, keys []K, result map[K]V) (map[K]V, error) {
	part, err := l.fetch(ctx, keys)
	if err != nil {
		return nil, err
	}
	for k, v := range part {
		result[k] = v
	}
	return result, nil
}

// Distinct returns keys without duplicates or zero values, in first-seen order.
func Distinct[K comparable](keys []K) []K {
	var zero K
	seen := make(map[K]struct{}, len(keys))
	out := make([]K, 0, len(keys))
	for _, k := range keys {
		if k == zero {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Chunk splits keys into slices of at most size elements.
func Chunk[K any](keys []K, size int) [][]K {
	if size <= 0 {
		size = len(keys)
	}
	var chunks [][]K
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		chunks = append(chunks, keys[start:end])
	}
	return chunks
}

// Collect gathers the keys each item references.
func Collect[T any, K comparable](items []T, keys func(T) []K) []K {
	var out []K
	for _, item := range items {
		out = append(out, keys(item)...)
	}
	return Distinct(out)
}
