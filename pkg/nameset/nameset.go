// Package nameset implements the shared identifier namespace that keeps
// macro names and label names from colliding within one translation unit.
// It is a pure membership set (no ordered iteration is required of it,
// unlike the symbol table), so it is backed by a hash-bucket layout keyed
// by a fast non-cryptographic hash rather than Go's built-in map, mirroring
// the generic chained hash-set the reference implementation builds once
// and reuses for exactly this purpose.
package nameset

import (
	"github.com/cespare/xxhash/v2"
)

const bucketCount = 113

type node struct {
	key  string
	next *node
}

// Set is a per-assembly shared namespace. The zero value is an empty set;
// construct a fresh one with New for each translation unit so no state
// leaks between files assembled concurrently.
type Set struct {
	buckets [bucketCount]*node
}

// New returns an empty namespace.
func New() *Set {
	return &Set{}
}

func bucketFor(key string) uint64 {
	return xxhash.Sum64String(key) % bucketCount
}

// Add registers key in the namespace. It reports false if key was already
// present (a collision the caller must turn into a diagnostic).
func (s *Set) Add(key string) bool {
	idx := bucketFor(key)
	for n := s.buckets[idx]; n != nil; n = n.next {
		if n.key == key {
			return false
		}
	}
	s.buckets[idx] = &node{key: key, next: s.buckets[idx]}
	return true
}

// Contains reports whether key is already registered.
func (s *Set) Contains(key string) bool {
	idx := bucketFor(key)
	for n := s.buckets[idx]; n != nil; n = n.next {
		if n.key == key {
			return true
		}
	}
	return false
}
