package composition

import (
	"testing"

	"github.com/sodiumhq/kanacore/chunk"
	"github.com/sodiumhq/kanacore/internal/specialkey"
	"github.com/sodiumhq/kanacore/table"
	"github.com/sodiumhq/kanacore/translit"
)

func romajiTable() *table.Table {
	return table.New([]table.Entry{
		{Input: "a", Result: "あ"},
		{Input: "i", Result: "い"},
		{Input: "u", Result: "う"},
		{Input: "t", Pending: "t"},
		{Input: "tt", Pending: "t"},
		{Input: "ta", Result: "た"},
		{Input: "ti", Result: "ち"},
		{Input: "tta", Result: "った"},
		{Input: "n", Result: "ん", Pending: "n"},
		{Input: "nn", Result: "ん"},
		{Input: "ny", Pending: "ny"},
		{Input: "nya", Result: "にゃ"},
	})
}

// TestSmallTsuAcrossChunks exercises "i,t,t,a" -> いった typed as four
// separate InsertAt calls, each landing at the cursor InsertAt just
// returned (spec §8 "Small-tsu").
func TestSmallTsuAcrossChunks(t *testing.T) {
	tbl := romajiTable()
	forms := translit.NewSet()
	c := New(tbl, forms, translit.Hiragana)

	pos := 0
	for _, key := range []string{"i", "t", "t", "a"} {
		pos = c.InsertAt(pos, key)
	}

	if got := c.GetString(); got != "いった" {
		t.Fatalf("GetString() = %q, want いった", got)
	}
}

// TestAmbiguousNFixMode exercises "n,y,a" -> にゃ under FIX trim mode,
// with the intermediate "n,y" state falling back to full-width ascii
// (spec §8 "Ambiguous n").
func TestAmbiguousNFixMode(t *testing.T) {
	tbl := romajiTable()
	forms := translit.NewSet()
	c := New(tbl, forms, translit.Hiragana)

	pos := c.InsertAt(0, "n")
	pos = c.InsertAt(pos, "y")

	if got := c.GetStringWithTrimMode(chunk.TrimFix); got != "ｎｙ" {
		t.Fatalf("after n,y: GetStringWithTrimMode(FIX) = %q, want ｎｙ", got)
	}

	c.InsertAt(pos, "a")

	if got := c.GetStringWithTrimMode(chunk.TrimFix); got != "にゃ" {
		t.Fatalf("after n,y,a: GetStringWithTrimMode(FIX) = %q, want にゃ", got)
	}
}

// TestToggleBasedExpansion exercises get_expanded_strings() under a
// toggle table (spec §8 "Toggle-based expansion").
func TestToggleBasedExpansion(t *testing.T) {
	star := specialkey.Parse("{*}")
	tbl := table.New([]table.Entry{
		{Input: "1", Result: "あ"},
		{Input: "1*", Pending: star + "ぁ"},
		{Input: star + "ぁ", Pending: star + "あ"},
		{Input: star + "あ", Pending: star + "ぁ"},
	})
	forms := translit.NewSet()
	c := New(tbl, forms, translit.Hiragana)

	pos := c.InsertAt(0, "1")
	c.InsertAt(pos, "*")

	base, tails := c.GetExpandedStrings()
	if base != "" {
		t.Fatalf("base = %q, want empty", base)
	}
	if !tails["あ"] || !tails["ぁ"] {
		t.Fatalf("tails = %v, want {あ, ぁ}", tails)
	}
}

func TestShouldCommitDirectInput(t *testing.T) {
	tbl := table.New([]table.Entry{
		{Input: "a", Result: "a", Attributes: table.DirectInput},
	})
	forms := translit.NewSet()
	c := New(tbl, forms, translit.Hiragana)

	if c.ShouldCommit() {
		t.Fatal("empty composition should never commit")
	}

	c.InsertAt(0, "a")
	if !c.ShouldCommit() {
		t.Fatal("expected should_commit true for a fully direct-input composition")
	}
}

func TestDeleteAt(t *testing.T) {
	tbl := romajiTable()
	forms := translit.NewSet()
	c := New(tbl, forms, translit.Hiragana)

	pos := 0
	for _, key := range []string{"a", "i", "u"} {
		pos = c.InsertAt(pos, key)
	}
	if c.GetString() != "あいう" {
		t.Fatalf("setup: GetString() = %q, want あいう", c.GetString())
	}

	c.DeleteAt(1)
	if c.GetString() != "あう" {
		t.Fatalf("after delete: GetString() = %q, want あう", c.GetString())
	}
}

// TestCursorRoundTrip checks the §8 property that converting a position
// to another projection and back lands within ±1 of the original.
func TestCursorRoundTrip(t *testing.T) {
	tbl := romajiTable()
	forms := translit.NewSet()
	c := New(tbl, forms, translit.Hiragana)

	pos := 0
	for _, key := range []string{"t", "t", "a"} {
		pos = c.InsertAt(pos, key)
	}

	for x := 0; x <= c.Length(translit.Local); x++ {
		y := c.ConvertPosition(x, translit.Local, translit.RawString)
		back := c.ConvertPosition(y, translit.RawString, translit.Local)
		if back < x-1 || back > x+1 {
			t.Fatalf("round trip for x=%d produced %d (via %d)", x, back, y)
		}
	}
}

func TestInsertAtClampsPosition(t *testing.T) {
	tbl := romajiTable()
	forms := translit.NewSet()
	c := New(tbl, forms, translit.Hiragana)

	c.InsertAt(0, "a")
	pos := c.InsertAt(1000, "i")
	if pos <= 0 {
		t.Fatalf("expected clamped insert to append, got pos=%d", pos)
	}
	if c.GetString() != "あい" {
		t.Fatalf("GetString() = %q, want あい", c.GetString())
	}
}
