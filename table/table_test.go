package table

import (
	"strings"
	"testing"
)

func romajiTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := LoadString(strings.Join([]string{
		"a\tあ\t\t",
		"i\tい\t\t",
		"t\t\tt\t",
		"ta\tた\t\t",
		"tt\t\tっt\t",
		"tta\tった\t\t",
		"n\t\tn\t",
		"na\tな\t\t",
		"ny\t\tny\t",
		"nya\tにゃ\t\t",
	}, "\n"))
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	return tbl
}

func TestLookupPrefixFixed(t *testing.T) {
	tbl := romajiTable(t)

	entry, consumed, fixed, ok := tbl.LookupPrefix("a")
	if !ok || entry.Result != "あ" || consumed != 1 || !fixed {
		t.Fatalf("lookup a: got %+v consumed=%d fixed=%v ok=%v", entry, consumed, fixed, ok)
	}

	// "t" is a strict prefix of "ta" and "tt", so it is not fixed.
	entry, consumed, fixed, ok = tbl.LookupPrefix("t")
	if !ok || entry.Pending != "t" || consumed != 1 || fixed {
		t.Fatalf("lookup t: got %+v consumed=%d fixed=%v ok=%v", entry, consumed, fixed, ok)
	}

	// "ta" has no longer sibling rule sharing its prefix.
	entry, consumed, fixed, ok = tbl.LookupPrefix("ta")
	if !ok || entry.Result != "た" || consumed != 2 || !fixed {
		t.Fatalf("lookup ta: got %+v consumed=%d fixed=%v ok=%v", entry, consumed, fixed, ok)
	}
}

func TestLookupPrefixLongestMatch(t *testing.T) {
	tbl := romajiTable(t)
	entry, consumed, _, ok := tbl.LookupPrefix("ttax")
	if !ok || entry.Result != "った" || consumed != 3 {
		t.Fatalf("lookup ttax: got %+v consumed=%d ok=%v", entry, consumed, ok)
	}
}

func TestLookupPrefixNoMatch(t *testing.T) {
	tbl := romajiTable(t)
	_, _, _, ok := tbl.LookupPrefix("xyz")
	if ok {
		t.Fatal("expected no match for xyz")
	}
}

func TestLookupPredictive(t *testing.T) {
	tbl := romajiTable(t)
	var inputs []string
	for e := range tbl.LookupPredictive("n") {
		inputs = append(inputs, e.Input)
	}
	want := map[string]bool{"n": true, "na": true, "ny": true, "nya": true}
	if len(inputs) != len(want) {
		t.Fatalf("got %v, want %d entries", inputs, len(want))
	}
	for _, in := range inputs {
		if !want[in] {
			t.Fatalf("unexpected entry %q in predictive lookup of n", in)
		}
	}
}

func TestHasNewChunkEntryAndSubRules(t *testing.T) {
	tbl, err := LoadString("q\tん\t\tNEW_CHUNK\nqa\tくぁ\t\t")
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if !tbl.HasNewChunkEntry("q") {
		t.Fatal("expected HasNewChunkEntry(q) to be true")
	}
	if !tbl.HasSubRules("q") {
		t.Fatal("expected HasSubRules(q) to be true because of qa")
	}
	if tbl.HasSubRules("qa") {
		t.Fatal("qa has no strict-prefix sub-rules")
	}
}

func TestSpecialKeyRoundTrip(t *testing.T) {
	tbl, err := LoadString("1\t\t{?}ぁ")
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	entry, _, _, ok := tbl.LookupPrefix("1")
	if !ok {
		t.Fatal("expected match for 1")
	}
	if got := DeleteSpecialKey(entry.Pending); got != "ぁ" {
		t.Fatalf("DeleteSpecialKey(%q) = %q, want ぁ", entry.Pending, got)
	}
}
