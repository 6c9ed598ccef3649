package zeroquery

import (
	"bytes"
	"testing"
)

// TestZipCodeGate exercises spec §8's "Zip-code gate" scenario: typing
// "101-0001" must yield a zero-query candidate only on an exact key match,
// not on the prefix "101-000".
func TestZipCodeGate(t *testing.T) {
	d := New([]Entry{
		{Key: "101-0001", Value: "東京都千代田", Type: TypeDefault},
	})

	results := d.Lookup("", "101-0001")
	if len(results) != 1 || results[0].Value != "東京都千代田" {
		t.Fatalf("Lookup(exact) = %v, want one 東京都千代田 result", results)
	}

	if got := d.Lookup("", "101-000"); len(got) != 0 {
		t.Fatalf("Lookup(prefix) = %v, want no results", got)
	}
}

func TestLookupOnlyFiresOnEmptyInputKey(t *testing.T) {
	d := New([]Entry{{Key: "101-0001", Value: "東京都千代田", Type: TypeDefault}})
	if got := d.Lookup("1", "101-0001"); len(got) != 0 {
		t.Fatalf("expected lookup to be gated on empty input key, got %v", got)
	}
}

func TestLookupIgnoresLengthOneNonKanjiKey(t *testing.T) {
	d := New([]Entry{{Key: "a", Value: "something", Type: TypeDefault}})
	if got := d.Lookup("", "a"); len(got) != 0 {
		t.Fatalf("expected length-1 non-Kanji key to be ignored, got %v", got)
	}
}

func TestLookupAllowsLengthOneKanjiKey(t *testing.T) {
	d := New([]Entry{{Key: "駅", Value: "前", Type: TypeDefault}})
	if got := d.Lookup("", "駅"); len(got) != 1 {
		t.Fatalf("expected length-1 Kanji key to be allowed, got %v", got)
	}
}

func TestEqualRangeMultipleValuesPerKey(t *testing.T) {
	d := New([]Entry{
		{Key: "key", Value: "v1", Type: TypeDefault},
		{Key: "key", Value: "v2", Type: TypeEmoji},
		{Key: "other", Value: "v3", Type: TypeDefault},
	})
	results := d.EqualRange("key")
	if len(results) != 2 {
		t.Fatalf("EqualRange(key) = %v, want 2 results", results)
	}
}

func TestSerializeLoadRoundTrip(t *testing.T) {
	d := New([]Entry{
		{Key: "101-0001", Value: "東京都千代田", Type: TypeDefault},
		{Key: "key", Value: "v1", Type: TypeNumberSuffix},
	})
	var buf bytes.Buffer
	if err := d.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	loaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := loaded.EqualRange("key")
	if len(got) != 1 || got[0].Value != "v1" || got[0].Type != TypeNumberSuffix {
		t.Fatalf("round trip EqualRange(key) = %v, want one v1/NumberSuffix result", got)
	}
}
