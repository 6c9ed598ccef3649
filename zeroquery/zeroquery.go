// Package zeroquery implements the contextual suffix dictionary consulted
// when the preedit key is empty (spec §3 "Zero-query token (C8)", §4.6).
package zeroquery

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"unicode"
)

// Type classifies what kind of suffix a zero-query token proposes.
type Type uint32

const (
	TypeDefault Type = iota
	TypeNumberSuffix
	TypeEmoji
	TypeEmoticon
)

// Entry is one (key, value, type) triple used to build a Dict (spec §4.6).
type Entry struct {
	Key   string
	Value string
	Type  Type
}

// Result is one zero-query candidate surfaced to a caller.
type Result struct {
	Value string
	Type  Type
}

// token is the fixed-width 16-byte record spec §3 describes: a pool index
// for the key, a pool index for the value, the zero-query type, and one
// reserved/padding word to round the record out to 16 bytes.
type token struct {
	KeyIndex   uint32
	ValueIndex uint32
	Type       uint32
	_          uint32
}

const tokenSize = 16 // 4 little-endian uint32 fields

// Dict is the pair (sorted string pool, token array) spec §3/§4.6
// describes: two immutable blobs supporting O(log n) key range lookup via
// binary search.
type Dict struct {
	pool   []string // sorted, byte-order (sort.Strings order)
	tokens []token  // sorted by KeyIndex
}

// New builds a Dict from entries, the in-memory analogue of loading the
// two binary blobs (spec §4.6), in the same "take a slice of logical
// entries, build the lookup structure" shape as table.New.
func New(entries []Entry) *Dict {
	poolSet := make(map[string]bool)
	for _, e := range entries {
		poolSet[e.Key] = true
		poolSet[e.Value] = true
	}
	pool := make([]string, 0, len(poolSet))
	for s := range poolSet {
		pool = append(pool, s)
	}
	sort.Strings(pool)

	index := make(map[string]uint32, len(pool))
	for i, s := range pool {
		index[s] = uint32(i)
	}

	tokens := make([]token, 0, len(entries))
	for _, e := range entries {
		tokens = append(tokens, token{
			KeyIndex:   index[e.Key],
			ValueIndex: index[e.Value],
			Type:       uint32(e.Type),
		})
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].KeyIndex < tokens[j].KeyIndex
	})

	return &Dict{pool: pool, tokens: tokens}
}

// EqualRange locates key in the sorted string pool, then binary-searches
// the token array for the contiguous run whose key_idx equals the pool
// index (spec §4.6 equal_range).
func (d *Dict) EqualRange(key string) []Result {
	poolIdx := sort.SearchStrings(d.pool, key)
	if poolIdx >= len(d.pool) || d.pool[poolIdx] != key {
		return nil
	}
	ki := uint32(poolIdx)

	lo := sort.Search(len(d.tokens), func(i int) bool { return d.tokens[i].KeyIndex >= ki })
	hi := sort.Search(len(d.tokens), func(i int) bool { return d.tokens[i].KeyIndex > ki })
	if lo >= hi {
		return nil
	}

	results := make([]Result, 0, hi-lo)
	for _, tok := range d.tokens[lo:hi] {
		results = append(results, Result{Value: d.pool[tok.ValueIndex], Type: Type(tok.Type)})
	}
	return results
}

// Lookup performs the gated zero-query lookup spec §4.6 describes: only
// fires when inputKey is empty, and ignores length-1 non-Kanji keys (too
// noisy).
func (d *Dict) Lookup(inputKey, previousValue string) []Result {
	if inputKey != "" {
		return nil
	}
	if previousValue == "" {
		return nil
	}
	if runeCount(previousValue) == 1 && !containsKanji(previousValue) {
		return nil
	}
	return d.EqualRange(previousValue)
}

func runeCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

func containsKanji(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// Serialize writes the two immutable blobs (pool, tokens) as spec §4.6
// describes them: a sorted string pool and a fixed-width token array.
func (d *Dict) Serialize(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(d.pool))); err != nil {
		return err
	}
	for _, s := range d.pool {
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(s))); err != nil {
			return err
		}
		if _, err := io.WriteString(bw, s); err != nil {
			return err
		}
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(d.tokens))); err != nil {
		return err
	}
	for _, t := range d.tokens {
		if err := binary.Write(bw, binary.LittleEndian, t); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load reads blobs written by Serialize.
func Load(r io.Reader) (*Dict, error) {
	var poolLen uint32
	if err := binary.Read(r, binary.LittleEndian, &poolLen); err != nil {
		return nil, fmt.Errorf("zeroquery: read pool length: %w", err)
	}
	pool := make([]string, poolLen)
	for i := range pool {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("zeroquery: read pool entry length: %w", err)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("zeroquery: read pool entry: %w", err)
		}
		pool[i] = string(buf)
	}

	var tokenLen uint32
	if err := binary.Read(r, binary.LittleEndian, &tokenLen); err != nil {
		return nil, fmt.Errorf("zeroquery: read token length: %w", err)
	}
	tokens := make([]token, tokenLen)
	for i := range tokens {
		if err := binary.Read(r, binary.LittleEndian, &tokens[i]); err != nil {
			return nil, fmt.Errorf("zeroquery: read token: %w", err)
		}
	}

	return &Dict{pool: pool, tokens: tokens}, nil
}
