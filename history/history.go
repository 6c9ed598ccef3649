// Package history implements the persisted LRU + bigram-chain entry store
// backing the history predictor (spec §3 "History entry (C6)", §4.5, §4.8).
package history

import (
	"bufio"
	"bytes"
	"container/list"
	"encoding/binary"
	"hash/fnv"
	"io"
	"log/slog"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultCacheSize is the typical cap on DEFAULT entries (spec §3).
	DefaultCacheSize = 10000
	// ConstrainedCacheSize is the cap used on resource-constrained platforms.
	ConstrainedCacheSize = 4000

	maxNextEntries = 4
	maxFieldBytes  = 256
	expirySeconds  = 62 * 24 * 60 * 60
)

// EntryType distinguishes a normal learned entry from a singleton clear
// marker persisted alongside it (spec §3, §4.8).
type EntryType int

const (
	DefaultEntryType EntryType = iota
	CleanAllEvent
	CleanUnusedEvent
)

func (t EntryType) String() string {
	switch t {
	case CleanAllEvent:
		return "CLEAN_ALL_EVENT"
	case CleanUnusedEvent:
		return "CLEAN_UNUSED_EVENT"
	default:
		return "DEFAULT"
	}
}

// Entry is one history entry (spec §3 "History entry (C6)").
type Entry struct {
	Key                string
	Value              string
	Description        string
	NextEntries        []uint32 // fingerprints of successor entries, len <= maxNextEntries
	LastAccessTime     int64    // seconds since epoch
	SuggestionFreq     int32
	ConversionFreq     int32
	Removed            bool // tombstone: retained for n-gram chains, never a candidate
	SpellingCorrection bool
	BigramBoost        bool
	EntryType          EntryType
}

// RevertToken records one insertion so §4.7 revert() can undo it.
type RevertToken struct {
	Fingerprint uint32
}

// Fingerprint is the 32-bit hash identifying an (key, value) pair (spec §3
// "Fingerprint of an entry = 32-bit hash of key + \"\\t\" + value").
func Fingerprint(key, value string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	h.Write([]byte("\t"))
	h.Write([]byte(value))
	return h.Sum32()
}

// IsContentWord reports whether value's first rune is neither punctuation
// nor a symbol (spec §4.5 "Content word = value whose first char is
// non-symbol script").
func IsContentWord(value string) bool {
	r, size := utf8.DecodeRuneInString(value)
	if size == 0 || r == utf8.RuneError {
		return false
	}
	return !unicode.IsPunct(r) && !unicode.IsSymbol(r)
}

func endsInPunctuation(s string) bool {
	r, size := utf8.DecodeLastRuneInString(s)
	if size == 0 {
		return false
	}
	return unicode.IsPunct(r)
}

// Store is the LRU entry store (spec §4.5 "State"). Front of the LRU order
// is most-recently-touched; back is oldest. It assumes single-threaded
// access from its owning composition/predictor, per spec §5 — the
// predictor swaps the entire *Store when a background sync/reload
// completes rather than mutating one in place concurrently.
type Store struct {
	cacheSize int
	entries   map[uint32]*Entry
	order     *list.List // element.Value is a uint32 fingerprint
	elems     map[uint32]*list.Element
	valueIdx  map[string]map[uint32]bool
	defaultN  int
}

// New creates a Store bounded to cacheSize DEFAULT entries (use
// DefaultCacheSize or ConstrainedCacheSize, or a custom value <= 0 to fall
// back to DefaultCacheSize).
func New(cacheSize int) *Store {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Store{
		cacheSize: cacheSize,
		entries:   make(map[uint32]*Entry),
		order:     list.New(),
		elems:     make(map[uint32]*list.Element),
		valueIdx:  make(map[string]map[uint32]bool),
	}
}

// Count returns the total number of entries currently held, including
// tombstones and event markers.
func (s *Store) Count() int { return len(s.entries) }

// DefaultCount returns the number of DEFAULT entries, the quantity bounded
// by cache_size (spec §3, §8 "LRU eviction bound").
func (s *Store) DefaultCount() int { return s.defaultN }

// Get looks up an entry by fingerprint without touching LRU order.
func (s *Store) Get(fp uint32) (*Entry, bool) {
	e, ok := s.entries[fp]
	return e, ok
}

// Touch moves fp to the front of the LRU order and updates its
// last_access_time, as a successful lookup does (spec §4.5 step 3).
func (s *Store) Touch(fp uint32, now int64) {
	e, ok := s.entries[fp]
	if !ok {
		return
	}
	e.LastAccessTime = now
	if el, ok := s.elems[fp]; ok {
		s.order.MoveToFront(el)
	}
}

// Entries yields (fingerprint, entry) pairs from most-recent to oldest, up
// to limit entries (limit <= 0 means unbounded), per spec §4.5 step 5's LRU
// walk.
func (s *Store) Entries(limit int) func(yield func(uint32, *Entry) bool) {
	return func(yield func(uint32, *Entry) bool) {
		n := 0
		for el := s.order.Front(); el != nil; el = el.Next() {
			if limit > 0 && n >= limit {
				return
			}
			fp, _ := el.Value.(uint32)
			e := s.entries[fp]
			if e == nil {
				continue
			}
			n++
			if !yield(fp, e) {
				return
			}
		}
	}
}

// TryInsert inserts or refreshes a (key, value) entry (spec §4.5
// try_insert). It rejects keys/values over 256 bytes, empty keys/values,
// and — when zeroQueryMode is set — values ending in punctuation. A
// pre-existing entry for the same fingerprint is refreshed in place
// (touched, conversion_freq incremented) rather than duplicated.
func (s *Store) TryInsert(key, value, description string, now int64, zeroQueryMode bool) (*Entry, uint32, bool) {
	if key == "" || value == "" {
		return nil, 0, false
	}
	if len(key) > maxFieldBytes || len(value) > maxFieldBytes {
		return nil, 0, false
	}
	if zeroQueryMode && endsInPunctuation(value) {
		return nil, 0, false
	}

	fp := Fingerprint(key, value)
	if existing, ok := s.entries[fp]; ok {
		existing.ConversionFreq++
		existing.Removed = false
		s.Touch(fp, now)
		return existing, fp, true
	}

	if s.defaultN >= s.cacheSize {
		s.evictOldestDefault()
	}

	e := &Entry{
		Key:            key,
		Value:          value,
		Description:    description,
		LastAccessTime: now,
		ConversionFreq: 1,
		EntryType:      DefaultEntryType,
	}
	s.entries[fp] = e
	s.elems[fp] = s.order.PushFront(fp)
	s.defaultN++
	s.indexValue(fp, value)
	return e, fp, true
}

// InsertNextEntry links parent to a successor fingerprint, bounding
// next_entries to maxNextEntries by overwriting the slot whose
// lookup-resolved last_access_time is smallest (spec §3 "next_entries is
// size-bounded").
func (s *Store) InsertNextEntry(parent *Entry, next uint32) {
	if parent == nil {
		return
	}
	for _, fp := range parent.NextEntries {
		if fp == next {
			return
		}
	}
	if len(parent.NextEntries) < maxNextEntries {
		parent.NextEntries = append(parent.NextEntries, next)
		return
	}
	oldest := 0
	oldestTime := int64(1<<63 - 1)
	for i, fp := range parent.NextEntries {
		t := int64(0)
		if e, ok := s.entries[fp]; ok {
			t = e.LastAccessTime
		}
		if t < oldestTime {
			oldest = i
			oldestTime = t
		}
	}
	parent.NextEntries[oldest] = next
}

// ClearEntry tombstones the (key, value) entry without erasing it, so
// existing next_entries chains elsewhere still resolve (spec §3 "A removed
// entry is retained").
func (s *Store) ClearEntry(key, value string) {
	fp := Fingerprint(key, value)
	if e, ok := s.entries[fp]; ok {
		e.Removed = true
	}
}

// ClearAll wipes every entry and records a CLEAN_ALL_EVENT marker (spec
// §4.8) so a future Load recognizes the wipe request on disk.
func (s *Store) ClearAll(now int64) {
	s.entries = make(map[uint32]*Entry)
	s.order = list.New()
	s.elems = make(map[uint32]*list.Element)
	s.valueIdx = make(map[string]map[uint32]bool)
	s.defaultN = 0
	s.pushMarker(CleanAllEvent, now)
}

// ClearUnused drops DEFAULT entries that have never been suggested and have
// never been re-converted, and records a CLEAN_UNUSED_EVENT marker.
func (s *Store) ClearUnused(now int64) {
	var drop []uint32
	for fp, e := range s.entries {
		if e.EntryType == DefaultEntryType && e.SuggestionFreq == 0 && e.ConversionFreq <= 1 {
			drop = append(drop, fp)
		}
	}
	for _, fp := range drop {
		s.evict(fp)
	}
	s.pushMarker(CleanUnusedEvent, now)
}

func (s *Store) pushMarker(t EntryType, now int64) {
	key := "\x00" + t.String()
	fp := Fingerprint(key, t.String())
	s.entries[fp] = &Entry{Key: key, Value: t.String(), LastAccessTime: now, EntryType: t}
	s.elems[fp] = s.order.PushFront(fp)
}

// Revert erases every fingerprint named by tokens (spec §4.7), undoing the
// try_insert calls that produced them.
func (s *Store) Revert(tokens []RevertToken) {
	for _, tok := range tokens {
		s.evict(tok.Fingerprint)
	}
}

// ReverseLookup returns every key on record for value, skipping tombstoned
// entries (spec §12.4,
// bootstrapping history entries from a surface before any user commit
// exists), maintained incrementally rather than rescanned per call.
func (s *Store) ReverseLookup(value string) []string {
	set, ok := s.valueIdx[value]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(set))
	for fp := range set {
		if e, ok := s.entries[fp]; ok && !e.Removed {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// Expire drops every DEFAULT entry whose last_access_time is more than 62
// days before now (spec §3, §4.8).
func (s *Store) Expire(now int64) {
	var drop []uint32
	for fp, e := range s.entries {
		if e.EntryType == DefaultEntryType && now-e.LastAccessTime > expirySeconds {
			drop = append(drop, fp)
		}
	}
	for _, fp := range drop {
		s.evict(fp)
	}
}

func (s *Store) evictOldestDefault() {
	for el := s.order.Back(); el != nil; el = el.Prev() {
		fp, _ := el.Value.(uint32)
		if e := s.entries[fp]; e != nil && e.EntryType == DefaultEntryType {
			s.evict(fp)
			return
		}
	}
}

func (s *Store) evict(fp uint32) {
	e, ok := s.entries[fp]
	if !ok {
		return
	}
	if e.EntryType == DefaultEntryType {
		s.defaultN--
	}
	s.unindexValue(fp, e.Value)
	delete(s.entries, fp)
	if el, ok := s.elems[fp]; ok {
		s.order.Remove(el)
		delete(s.elems, fp)
	}
}

func (s *Store) indexValue(fp uint32, value string) {
	set, ok := s.valueIdx[value]
	if !ok {
		set = make(map[uint32]bool)
		s.valueIdx[value] = set
	}
	set[fp] = true
}

func (s *Store) unindexValue(fp uint32, value string) {
	set, ok := s.valueIdx[value]
	if !ok {
		return
	}
	delete(set, fp)
	if len(set) == 0 {
		delete(s.valueIdx, value)
	}
}

// Serialize writes the store as a length-prefixed list of entries, oldest
// first, pruning entries older than 62 days (spec §4.8, §6.4).
func (s *Store) Serialize(w io.Writer, now int64) error {
	var ordered []*Entry
	for el := s.order.Back(); el != nil; el = el.Prev() {
		fp, _ := el.Value.(uint32)
		e := s.entries[fp]
		if e == nil {
			continue
		}
		if e.EntryType == DefaultEntryType && now-e.LastAccessTime > expirySeconds {
			continue
		}
		ordered = append(ordered, e)
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.BigEndian, uint32(len(ordered))); err != nil {
		return err
	}
	for _, e := range ordered {
		if err := writeEntry(bw, e); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load replaces the store's contents by reading a blob written by
// Serialize, dropping entries older than 62 days, dropping malformed
// entries with a log line (the rest of the file is kept), and recognizing
// CLEAN_ALL_EVENT/CLEAN_UNUSED_EVENT markers as wipe requests (spec §4.8,
// §7 "Malformed UTF-8 in an entry").
func (s *Store) Load(r io.Reader, now int64) error {
	s.entries = make(map[uint32]*Entry)
	s.order = list.New()
	s.elems = make(map[uint32]*list.Element)
	s.valueIdx = make(map[string]map[uint32]bool)
	s.defaultN = 0

	br := bufio.NewReader(r)
	var count uint32
	if err := binary.Read(br, binary.BigEndian, &count); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	for i := uint32(0); i < count; i++ {
		e, err := readEntry(br)
		if err != nil {
			return err
		}
		if e == nil {
			slog.Default().Warn("history: dropped malformed entry on load")
			continue
		}
		switch e.EntryType {
		case CleanAllEvent:
			s.entries = make(map[uint32]*Entry)
			s.order = list.New()
			s.elems = make(map[uint32]*list.Element)
			s.valueIdx = make(map[string]map[uint32]bool)
			s.defaultN = 0
			continue
		case CleanUnusedEvent:
			for fp, prev := range s.entries {
				if prev.EntryType == DefaultEntryType && prev.SuggestionFreq == 0 && prev.ConversionFreq <= 1 {
					s.evict(fp)
				}
			}
			continue
		}
		if now-e.LastAccessTime > expirySeconds {
			continue
		}
		fp := Fingerprint(e.Key, e.Value)
		s.entries[fp] = e
		s.elems[fp] = s.order.PushFront(fp)
		if e.EntryType == DefaultEntryType {
			s.defaultN++
		}
		s.indexValue(fp, e.Value)
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func writeEntry(w io.Writer, e *Entry) error {
	var buf bytes.Buffer
	if err := writeString(&buf, e.Key); err != nil {
		return err
	}
	if err := writeString(&buf, e.Value); err != nil {
		return err
	}
	if err := writeString(&buf, e.Description); err != nil {
		return err
	}
	buf.WriteByte(byte(len(e.NextEntries)))
	for _, fp := range e.NextEntries {
		if err := binary.Write(&buf, binary.BigEndian, fp); err != nil {
			return err
		}
	}
	if err := binary.Write(&buf, binary.BigEndian, e.LastAccessTime); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.BigEndian, e.SuggestionFreq); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.BigEndian, e.ConversionFreq); err != nil {
		return err
	}
	buf.WriteByte(boolByte(e.Removed))
	buf.WriteByte(boolByte(e.SpellingCorrection))
	buf.WriteByte(boolByte(e.BigramBoost))
	buf.WriteByte(byte(e.EntryType))

	if err := binary.Write(w, binary.BigEndian, uint32(buf.Len())); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func readEntry(br *bufio.Reader) (*Entry, error) {
	var ln uint32
	if err := binary.Read(br, binary.BigEndian, &ln); err != nil {
		return nil, err
	}
	raw := make([]byte, ln)
	if _, err := io.ReadFull(br, raw); err != nil {
		return nil, err
	}
	r := bytes.NewReader(raw)

	key, err := readString(r)
	if err != nil {
		return nil, nil
	}
	value, err := readString(r)
	if err != nil {
		return nil, nil
	}
	desc, err := readString(r)
	if err != nil {
		return nil, nil
	}
	if !utf8.ValidString(key) || !utf8.ValidString(value) || !utf8.ValidString(desc) {
		return nil, nil
	}

	nNext, err := r.ReadByte()
	if err != nil {
		return nil, nil
	}
	next := make([]uint32, 0, nNext)
	for i := byte(0); i < nNext; i++ {
		var fp uint32
		if err := binary.Read(r, binary.BigEndian, &fp); err != nil {
			return nil, nil
		}
		next = append(next, fp)
	}

	var lastAccess int64
	var suggestionFreq, conversionFreq int32
	if err := binary.Read(r, binary.BigEndian, &lastAccess); err != nil {
		return nil, nil
	}
	if err := binary.Read(r, binary.BigEndian, &suggestionFreq); err != nil {
		return nil, nil
	}
	if err := binary.Read(r, binary.BigEndian, &conversionFreq); err != nil {
		return nil, nil
	}
	removedB, err := r.ReadByte()
	if err != nil {
		return nil, nil
	}
	spellingB, err := r.ReadByte()
	if err != nil {
		return nil, nil
	}
	bigramB, err := r.ReadByte()
	if err != nil {
		return nil, nil
	}
	entryTypeB, err := r.ReadByte()
	if err != nil {
		return nil, nil
	}

	return &Entry{
		Key:                key,
		Value:              value,
		Description:        desc,
		NextEntries:        next,
		LastAccessTime:     lastAccess,
		SuggestionFreq:     suggestionFreq,
		ConversionFreq:     conversionFreq,
		Removed:            removedB != 0,
		SpellingCorrection: spellingB != 0,
		BigramBoost:        bigramB != 0,
		EntryType:          EntryType(entryTypeB),
	}, nil
}
