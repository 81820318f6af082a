// Package radix wraps github.com/armon/go-radix with typed accessors so
// callers never need to type-assert interface{} values out of the tree.
// Grounded on golang-dep's typed_radix.go, which wraps the same library for
// its deducer trie; here the tree maps bare package names to the qualified
// names they appear under, for the query engine's short-name index
// (buildNameIndex), which looks keys up exactly.
package radix

import "github.com/armon/go-radix"

// StringSetTrie is a radix tree mapping string keys to string-set values,
// used to index, e.g., every package name under a category prefix.
type StringSetTrie struct {
	t *radix.Tree
}

// New builds an empty StringSetTrie.
func New() StringSetTrie {
	return StringSetTrie{t: radix.New()}
}

// Insert adds key with value v, returning the previous value (if any) and
// whether an existing entry was replaced.
func (t StringSetTrie) Insert(key string, v []string) ([]string, bool) {
	if old, had := t.t.Insert(key, v); had {
		return old.([]string), true
	}
	return nil, false
}

// Get looks up an exact key.
func (t StringSetTrie) Get(key string) ([]string, bool) {
	if v, has := t.t.Get(key); has {
		return v.([]string), true
	}
	return nil, false
}

// LongestPrefix returns the value stored under the longest key that
// prefixes s.
func (t StringSetTrie) LongestPrefix(s string) (string, []string, bool) {
	if p, v, has := t.t.LongestPrefix(s); has {
		return p, v.([]string), true
	}
	return "", nil, false
}

// WalkPrefix calls fn for every key with the given prefix, stopping early
// if fn returns true.
func (t StringSetTrie) WalkPrefix(prefix string, fn func(key string, v []string) bool) {
	t.t.WalkPrefix(prefix, func(s string, v interface{}) bool {
		return fn(s, v.([]string))
	})
}

// Len returns the number of keys in the tree.
func (t StringSetTrie) Len() int { return t.t.Len() }
