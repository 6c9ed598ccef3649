package predictor

import (
	"testing"

	"github.com/sodiumhq/kanacore/history"
)

// TestChainTerminatesOnCycle exercises spec §8 property 8: a predictor
// walk terminates even when next_entries pointers form a cycle.
func TestChainTerminatesOnCycle(t *testing.T) {
	store := history.New(100)
	a, aFP, _ := store.TryInsert("あ", "亜", "", 1000, false)
	_, bFP, _ := store.TryInsert("い", "位", "", 1001, false)
	b, _ := store.Get(bFP)

	store.InsertNextEntry(a, bFP)
	store.InsertNextEntry(b, aFP)

	p := &Predictor{}
	key, value := p.chain(store, a, aFP, 1<<20)
	if key != "あい" || value != "亜位" {
		t.Fatalf("chain() = %q, %q, want あい, 亜位 (loop guard must stop at the cycle)", key, value)
	}
}
