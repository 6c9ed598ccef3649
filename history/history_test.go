package history

import (
	"bytes"
	"testing"
)

func TestTryInsertRejectsEmptyAndOversized(t *testing.T) {
	s := New(0)
	if _, _, ok := s.TryInsert("", "value", "", 1000, false); ok {
		t.Fatal("expected empty key to be rejected")
	}
	if _, _, ok := s.TryInsert("key", "", "", 1000, false); ok {
		t.Fatal("expected empty value to be rejected")
	}
	big := make([]byte, maxFieldBytes+1)
	for i := range big {
		big[i] = 'a'
	}
	if _, _, ok := s.TryInsert(string(big), "value", "", 1000, false); ok {
		t.Fatal("expected oversized key to be rejected")
	}
}

func TestTryInsertZeroQueryPunctuationGate(t *testing.T) {
	s := New(0)
	if _, _, ok := s.TryInsert("key", "value。", "", 1000, true); ok {
		t.Fatal("expected zero-query mode to reject a value ending in punctuation")
	}
	if _, _, ok := s.TryInsert("key", "value。", "", 1000, false); !ok {
		t.Fatal("expected non-zero-query mode to accept the same value")
	}
}

func TestTryInsertDedupesFingerprint(t *testing.T) {
	s := New(0)
	_, fp1, _ := s.TryInsert("key", "value", "", 1000, false)
	_, fp2, _ := s.TryInsert("key", "value", "", 2000, false)
	if fp1 != fp2 {
		t.Fatalf("expected stable fingerprint, got %d and %d", fp1, fp2)
	}
	if s.Count() != 1 {
		t.Fatalf("expected duplicate (key, value) to collapse to one entry, got %d", s.Count())
	}
	e, _ := s.Get(fp1)
	if e.ConversionFreq != 2 {
		t.Fatalf("expected conversion_freq to accumulate, got %d", e.ConversionFreq)
	}
}

// TestLRUEvictionBound exercises spec §8 property 6: after any sequence of
// finish (here, TryInsert) calls, the in-memory entry count is <= cache_size.
func TestLRUEvictionBound(t *testing.T) {
	s := New(4)
	for i := 0; i < 10; i++ {
		key := string(rune('a' + i))
		s.TryInsert(key, key, "", int64(1000+i), false)
	}
	if s.DefaultCount() > 4 {
		t.Fatalf("DefaultCount() = %d, want <= 4", s.DefaultCount())
	}
}

func TestLRUEvictsOldestFirst(t *testing.T) {
	s := New(2)
	s.TryInsert("a", "a", "", 1000, false)
	s.TryInsert("b", "b", "", 1001, false)
	s.TryInsert("c", "c", "", 1002, false)

	if _, ok := s.Get(Fingerprint("a", "a")); ok {
		t.Fatal("expected oldest entry a to have been evicted")
	}
	if _, ok := s.Get(Fingerprint("c", "c")); !ok {
		t.Fatal("expected most recent entry c to survive")
	}
}

func TestInsertNextEntryBoundAndOverwrite(t *testing.T) {
	s := New(0)
	parent, _, _ := s.TryInsert("p", "p", "", 1000, false)
	for i := 0; i < maxNextEntries; i++ {
		key := string(rune('a' + i))
		_, fp, _ := s.TryInsert(key, key, "", int64(1000+i), false)
		s.InsertNextEntry(parent, fp)
	}
	if len(parent.NextEntries) != maxNextEntries {
		t.Fatalf("next_entries = %d, want %d", len(parent.NextEntries), maxNextEntries)
	}

	_, fpNew, _ := s.TryInsert("z", "z", "", 5000, false)
	oldestFp := Fingerprint("a", "a")
	s.InsertNextEntry(parent, fpNew)

	found := false
	for _, fp := range parent.NextEntries {
		if fp == oldestFp {
			t.Fatal("expected oldest successor slot to have been overwritten")
		}
		if fp == fpNew {
			found = true
		}
	}
	if !found {
		t.Fatal("expected new successor to be present after overwrite")
	}
}

func TestClearEntryTombstonesWithoutErasing(t *testing.T) {
	s := New(0)
	_, fp, _ := s.TryInsert("key", "value", "", 1000, false)
	s.ClearEntry("key", "value")

	e, ok := s.Get(fp)
	if !ok {
		t.Fatal("expected tombstoned entry to still be retained")
	}
	if !e.Removed {
		t.Fatal("expected Removed to be set")
	}
}

func TestRevertErasesInsertedEntry(t *testing.T) {
	s := New(0)
	_, fp, _ := s.TryInsert("key", "value", "", 1000, false)
	s.Revert([]RevertToken{{Fingerprint: fp}})
	if _, ok := s.Get(fp); ok {
		t.Fatal("expected reverted entry to be erased")
	}
}

func TestReverseLookup(t *testing.T) {
	s := New(0)
	s.TryInsert("key-a", "surface", "", 1000, false)
	s.TryInsert("key-b", "surface", "", 1001, false)
	s.TryInsert("key-c", "other", "", 1002, false)

	keys := s.ReverseLookup("surface")
	if len(keys) != 2 {
		t.Fatalf("ReverseLookup(surface) = %v, want 2 keys", keys)
	}
}

func TestExpire(t *testing.T) {
	s := New(0)
	_, fp, _ := s.TryInsert("old", "old", "", 0, false)
	s.Expire(expirySeconds + 1)
	if _, ok := s.Get(fp); ok {
		t.Fatal("expected expired entry to be dropped")
	}
}

func TestSerializeLoadRoundTrip(t *testing.T) {
	s := New(0)
	s.TryInsert("a", "a-value", "desc", 1000, false)
	p, fpB, _ := s.TryInsert("b", "b-value", "", 1001, false)
	s.InsertNextEntry(p, fpB)

	var buf bytes.Buffer
	if err := s.Serialize(&buf, 2000); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	loaded := New(0)
	if err := loaded.Load(&buf, 2000); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Count() != s.Count() {
		t.Fatalf("Count() = %d, want %d", loaded.Count(), s.Count())
	}
	e, ok := loaded.Get(Fingerprint("a", "a-value"))
	if !ok || e.Description != "desc" {
		t.Fatalf("expected entry a to round-trip with its description, got %+v", e)
	}
}

func TestSerializePrunesExpiredEntries(t *testing.T) {
	s := New(0)
	s.TryInsert("old", "old", "", 0, false)
	s.TryInsert("new", "new", "", 2000, false)

	var buf bytes.Buffer
	if err := s.Serialize(&buf, expirySeconds+2000); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	loaded := New(0)
	if err := loaded.Load(&buf, expirySeconds+2000); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 (only the non-expired entry)", loaded.Count())
	}
}

func TestClearAllLeavesMarkerThatLoadRecognizes(t *testing.T) {
	s := New(0)
	s.TryInsert("key", "value", "", 1000, false)
	s.ClearAll(2000)

	var buf bytes.Buffer
	if err := s.Serialize(&buf, 2000); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	loaded := New(0)
	loaded.TryInsert("stale", "stale", "", 1000, false)
	if err := loaded.Load(&buf, 2000); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Count() != 0 {
		t.Fatalf("expected CLEAN_ALL_EVENT on load to wipe prior state, got %d entries", loaded.Count())
	}
}

func TestIsContentWord(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"こんにちは", true},
		{"。", false},
		{"$", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsContentWord(c.value); got != c.want {
			t.Errorf("IsContentWord(%q) = %v, want %v", c.value, got, c.want)
		}
	}
}
