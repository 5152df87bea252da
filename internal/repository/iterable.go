package repository

import (
	"iter"
	"slices"
	"sync/atomic"
)

// IterableResult is one page of a repository query. Offset and TotalHits are
// reported by the backing store and are independent of how many items the
// page actually yields. The sequence can be consumed once.
type IterableResult[T any] struct {
	offset    int
	totalHits int
	seq       iter.Seq[T]
	consumed  atomic.Bool
}

// NewIterableResult wraps seq with the store-reported offset and total hits.
func NewIterableResult[T any](offset, totalHits int, seq iter.Seq[T]) *IterableResult[T] {
	return &IterableResult[T]{offset: offset, totalHits: totalHits, seq: seq}
}

// SliceResult is a convenience for stores that already hold the page in memory.
func SliceResult[T any](offset, totalHits int, items []T) *IterableResult[T] {
	return NewIterableResult(offset, totalHits, slices.Values(items))
}

// Offset returns the offset reported by the store.
func (r *IterableResult[T]) Offset() int { return r.offset }

// TotalHits returns the total number of matches reported by the store.
func (r *IterableResult[T]) TotalHits() int { return r.totalHits }

// All returns the page items in store order. Only the first call yields
// anything; later calls return an empty sequence.
func (r *IterableResult[T]) All() iter.Seq[T] {
	if r.consumed.Swap(true) || r.seq == nil {
		return func(func(T) bool) {}
	}
	return r.seq
}

// Collect drains the result into a slice.
func (r *IterableResult[T]) Collect() []T {
	return slices.Collect(r.All())
}
