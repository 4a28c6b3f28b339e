package kv

import (
	"iter"
	"strings"
)

// Pair is a single key/value entry as stored in Storage.
type Pair struct {
	Key, Value string
}

// Storage is an associative structure for storing (string, string) pairs. It acts
// like a map but uses linear search instead, which proves to be more efficient on
// the relatively low number of entries a set of HTTP headers usually has, and (unlike
// a map) preserves insertion order, which spec §3 relies on for iterating
// waitingResponses and headers deterministically.
type Storage struct {
	pairs []Pair
}

// New returns an empty Storage.
func New() *Storage {
	return new(Storage)
}

// NewPrealloc returns an instance of Storage with pre-allocated underlying storage.
func NewPrealloc(n int) *Storage {
	return &Storage{
		pairs: make([]Pair, 0, n),
	}
}

// NewFromMap returns a new instance with already inserted values from given map.
// Note: as maps are unordered, resulting underlying structure will also contain
// unordered pairs.
func NewFromMap(m map[string][]string) *Storage {
	s := NewPrealloc(len(m))

	for key, values := range m {
		for _, value := range values {
			s.Add(key, value)
		}
	}

	return s
}

// Add appends a new pair of key and value, keeping any existing pair with the same key.
func (s *Storage) Add(key, value string) *Storage {
	s.pairs = append(s.pairs, Pair{Key: key, Value: value})
	return s
}

// Set leaves value as the only value stored under key: the first pair matching
// key keeps its position and takes the new value, any later pairs with the same
// key are removed, and a new pair is appended if no such key exists yet.
func (s *Storage) Set(key, value string) *Storage {
	found := false
	filtered := s.pairs[:0]
	for _, pair := range s.pairs {
		if strings.EqualFold(pair.Key, key) {
			if found {
				continue
			}

			found = true
			pair.Value = value
		}

		filtered = append(filtered, pair)
	}

	s.pairs = filtered
	if !found {
		return s.Add(key, value)
	}

	return s
}

// Delete removes every pair matching key.
func (s *Storage) Delete(key string) *Storage {
	filtered := s.pairs[:0]
	for _, pair := range s.pairs {
		if !strings.EqualFold(pair.Key, key) {
			filtered = append(filtered, pair)
		}
	}

	s.pairs = filtered
	return s
}

// Value returns the first value corresponding to key, or an empty string if absent.
func (s *Storage) Value(key string) string {
	return s.ValueOr(key, "")
}

// ValueOr returns either the first value corresponding to key, or the given default.
func (s *Storage) ValueOr(key, or string) string {
	value, found := s.Get(key)
	if !found {
		return or
	}

	return value
}

// Get returns a value and a bool indicating whether it was found.
func (s *Storage) Get(key string) (value string, found bool) {
	for _, pair := range s.pairs {
		if strings.EqualFold(key, pair.Key) {
			return pair.Value, true
		}
	}

	return "", false
}

// Values iterates over every value stored under key, in insertion order.
func (s *Storage) Values(key string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, pair := range s.pairs {
			if strings.EqualFold(pair.Key, key) {
				if !yield(pair.Value) {
					return
				}
			}
		}
	}
}

// Keys iterates over every unique key, in the order it was first seen.
func (s *Storage) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make([]string, 0, len(s.pairs))
		for _, pair := range s.pairs {
			if contains(seen, pair.Key) {
				continue
			}

			seen = append(seen, pair.Key)
			if !yield(pair.Key) {
				return
			}
		}
	}
}

// Pairs iterates over every stored (key, value) pair, in insertion order.
func (s *Storage) Pairs() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, pair := range s.pairs {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Has indicates whether there's an entry for key.
func (s *Storage) Has(key string) bool {
	_, found := s.Get(key)
	return found
}

// Len returns the number of stored pairs.
func (s *Storage) Len() int {
	return len(s.pairs)
}

// Empty reports whether the storage holds no pairs.
func (s *Storage) Empty() bool {
	return s.Len() == 0
}

// Clone creates a deep copy, safe to store or mutate independently.
func (s *Storage) Clone() *Storage {
	return &Storage{pairs: clone(s.pairs)}
}

// Expose exposes the underlying pairs slice. Callers must not mutate it.
func (s *Storage) Expose() []Pair {
	return s.pairs
}

// Clear removes every entry. The underlying storage isn't freed.
func (s *Storage) Clear() *Storage {
	s.pairs = s.pairs[:0]
	return s
}

func contains(collection []string, key string) bool {
	for _, element := range collection {
		if strings.EqualFold(element, key) {
			return true
		}
	}

	return false
}

func clone[T any](source []T) []T {
	if len(source) == 0 {
		return nil
	}

	newSlice := make([]T, len(source))
	copy(newSlice, source)

	return newSlice
}
