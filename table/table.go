// Package table implements the rewrite table (spec §4.1): an immutable,
// shared rule store mapping keystroke prefixes to conversion output plus a
// pending suffix. It is consulted by package chunk on every keystroke.
package table

import "iter"

// Entry is one rewrite rule row (spec §3 "Rewrite rule").
type Entry struct {
	Input      string
	Result     string
	Pending    string
	Attributes Attribute
}

type node struct {
	children map[byte]*node
	entry    *Entry // non-nil if some rule's Input ends exactly here
}

func newNode() *node {
	return &node{children: make(map[byte]*node)}
}

// Table is an immutable trie of rewrite rules, safe for concurrent reads
// from multiple compositions (spec §5 "Resources").
type Table struct {
	root    *node
	entries []Entry
}

// New builds a Table from entries. Later entries with a duplicate Input
// overwrite earlier ones, mirroring a last-rule-wins TSV load.
func New(entries []Entry) *Table {
	t := &Table{root: newNode()}
	for _, e := range entries {
		t.insert(e)
	}
	return t
}

func (t *Table) insert(e Entry) {
	n := t.root
	for i := 0; i < len(e.Input); i++ {
		b := e.Input[i]
		child, ok := n.children[b]
		if !ok {
			child = newNode()
			n.children[b] = child
		}
		n = child
	}
	if n.entry == nil {
		t.entries = append(t.entries, e)
	} else {
		// Replace in place so entries order stays insertion-stable.
		for i := range t.entries {
			if t.entries[i].Input == e.Input {
				t.entries[i] = e
				break
			}
		}
	}
	stored := e
	n.entry = &stored
}

// walk returns the trie node reached by consuming prefix bytes of s, and
// how many bytes were actually consumed before the trie ran out of
// children (which may be less than len(s)).
func (t *Table) walk(s string) (*node, int) {
	n := t.root
	for i := 0; i < len(s); i++ {
		child, ok := n.children[s[i]]
		if !ok {
			return n, i
		}
		n = child
	}
	return n, len(s)
}

// LookupPrefix returns the longest rule whose Input is a prefix of query,
// how many bytes of query it consumed, and whether the match is fixed
// (spec §4.1): no longer rule shares the same prefix, so the match can be
// committed immediately rather than waiting for a possible extension.
func (t *Table) LookupPrefix(query string) (entry Entry, consumed int, fixed bool, ok bool) {
	n := t.root
	var last *node
	lastLen := 0
	for i := 0; i <= len(query); i++ {
		if n.entry != nil {
			last = n
			lastLen = i
		}
		if i == len(query) {
			break
		}
		child, found := n.children[query[i]]
		if !found {
			break
		}
		n = child
	}
	if last == nil {
		return Entry{}, 0, false, false
	}
	return *last.entry, lastLen, len(last.children) == 0, true
}

// WalkLength returns how many leading bytes of s the trie can walk
// through regardless of whether any node along the way is a complete
// rule (spec §4.2 add_input, the "no entry found" partial-walk case).
func (t *Table) WalkLength(s string) int {
	_, n := t.walk(s)
	return n
}

// LookupPredictive lazily yields every rule whose Input has the given
// prefix, depth-first, visiting each node's children in ascending byte
// order. The caller decides how many results to consume (spec §4.1).
func (t *Table) LookupPredictive(prefix string) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		n, consumed := t.walk(prefix)
		if consumed != len(prefix) {
			return
		}
		t.walkSubtree(n, yield)
	}
}

func (t *Table) walkSubtree(n *node, yield func(Entry) bool) bool {
	if n.entry != nil {
		if !yield(*n.entry) {
			return false
		}
	}
	for _, b := range orderedKeys(n.children) {
		if !t.walkSubtree(n.children[b], yield) {
			return false
		}
	}
	return true
}

func orderedKeys(m map[byte]*node) []byte {
	keys := make([]byte, 0, len(m))
	for b := range m {
		keys = append(keys, b)
	}
	// Simple insertion sort: the fan-out per node is small (at most 256,
	// typically a handful of distinct next keystrokes).
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// HasNewChunkEntry reports whether some rule with raw as an input prefix
// carries the NewChunk attribute (spec §4.1).
func (t *Table) HasNewChunkEntry(raw string) bool {
	for e := range t.LookupPredictive(raw) {
		if e.Attributes.Has(NewChunk) {
			return true
		}
	}
	return false
}

// HasSubRules reports whether any rule has raw as a strict prefix of its
// Input (spec §4.1).
func (t *Table) HasSubRules(raw string) bool {
	for e := range t.LookupPredictive(raw) {
		if len(e.Input) > len(raw) {
			return true
		}
	}
	return false
}

// Entries returns every rule in the table, in insertion order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
