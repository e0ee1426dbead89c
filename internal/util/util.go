// Package util holds small generic helpers shared across the core
// packages, grounded on the teacher's util package (util/util.go).
package util

import (
	"context"
	"iter"
	"sort"

	"golang.org/x/sync/errgroup"
)

// TransformSlice applies converter to each element of in and returns a
// new slice, preserving order.
func TransformSlice[T any, R any](in []T, converter func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = converter(v)
	}
	return out
}

// Filter returns the elements of in for which keep returns true.
func Filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// CanonicalMapIter yields map entries in sorted key order, used wherever
// Go map iteration order would otherwise make plan/DDL output
// nondeterministic (spec.md §4.3 "Deterministic: same inputs yield
// identical output").
func CanonicalMapIter[T any](m map[string]T) iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}

// ConcurrentMap applies f to every element of in with at most concurrency
// goroutines in flight (0 disables concurrency, negative means unbounded),
// returning results in input order and aborting on the first error. Used
// by the introspector to fan out per-table queries (spec.md §9 "Dump
// concurrency"), grounded on the teacher's ConcurrentMapFuncWithError
// (database/concurrent.go).
func ConcurrentMap[Tin any, Tout any](ctx context.Context, in []Tin, concurrency int, f func(context.Context, Tin) (Tout, error)) ([]Tout, error) {
	eg, ctx := errgroup.WithContext(ctx)
	switch {
	case concurrency == 0:
		eg.SetLimit(1)
	case concurrency > 0:
		eg.SetLimit(concurrency)
	}

	out := make([]Tout, len(in))
	for i := range in {
		i, item := i, in[i]
		eg.Go(func() error {
			v, err := f(ctx, item)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
