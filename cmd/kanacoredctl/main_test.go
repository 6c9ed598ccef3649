package main

import (
	"testing"

	kanacore "github.com/sodiumhq/kanacore"
	"github.com/sodiumhq/kanacore/table"
	"github.com/sodiumhq/kanacore/translit"
)

func TestApplyLineInsertsAndDeletes(t *testing.T) {
	tbl, err := table.LoadString("i\tい\t\n")
	if err != nil {
		t.Fatalf("table.LoadString: %v", err)
	}
	m := kanacore.New(tbl, translit.NewSet(), nil, nil)
	comp := m.NewComposition(translit.Hiragana)

	cursor := applyLine(comp, 0, "i")
	if got := comp.GetString(); got != "い" || cursor != 1 {
		t.Fatalf("applyLine insert = %q, cursor %d; want い, 1", got, cursor)
	}

	cursor = applyLine(comp, cursor, "-1") // "!" deletes right of the cursor
	cursor = applyLine(comp, cursor, "!")
	if got := comp.GetString(); got != "" || cursor != 0 {
		t.Fatalf("applyLine delete = %q, cursor %d; want empty, 0", got, cursor)
	}
}

func TestApplyLineMovesCursorByDelta(t *testing.T) {
	tbl, err := table.LoadString("i\tい\t\n")
	if err != nil {
		t.Fatalf("table.LoadString: %v", err)
	}
	m := kanacore.New(tbl, translit.NewSet(), nil, nil)
	comp := m.NewComposition(translit.Hiragana)

	cursor := applyLine(comp, 0, "i")
	cursor = applyLine(comp, cursor, "-5")
	if cursor != 0 {
		t.Fatalf("applyLine(%q) clamped cursor = %d, want 0", "-5", cursor)
	}
	cursor = applyLine(comp, cursor, "5")
	if cursor != comp.Length(translit.Local) {
		t.Fatalf("applyLine(%q) clamped cursor = %d, want %d", "5", cursor, comp.Length(translit.Local))
	}
}
