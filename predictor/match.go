package predictor

import (
	"strings"
	"unicode/utf8"

	"github.com/sodiumhq/kanacore/composition"
	"github.com/sodiumhq/kanacore/history"
)

// matchType classifies a candidate entry key against the query (spec §4.5
// "Match classifier").
type matchType int

const (
	noMatch matchType = iota
	leftEmptyMatch
	leftPrefixMatch
	rightPrefixMatch
	exactMatch
)

// classify implements spec §4.5's match classifier, in the order spec.md
// lists: each rule is checked in turn and the first that applies wins.
// The RIGHT_PREFIX_MATCH rule is read as a strict prefix (k != base),
// matching the explicit "strict prefix" wording spec.md uses for
// LEFT_PREFIX_MATCH — otherwise the trivial k == base case would always
// match RIGHT_PREFIX_MATCH first and EXACT_MATCH, which spec.md names as
// a distinct reachable case, could never fire.
func classify(q composition.Query, hasPrevBigram bool, k string) matchType {
	if q.KeyBase == "" && len(q.KeyExpanded) == 0 {
		return noMatch
	}
	if q.InputKey == "" && hasPrevBigram {
		return leftEmptyMatch
	}
	if strings.HasPrefix(k, q.KeyBase) && k != q.KeyBase {
		remainder := k[len(q.KeyBase):]
		if q.KeyExpanded[remainder] {
			return leftPrefixMatch
		}
	}
	if strings.HasPrefix(q.KeyBase, k) && k != q.KeyBase {
		return rightPrefixMatch
	}
	if k == q.InputKey {
		if len(q.KeyExpanded) == 0 && k == q.KeyBase {
			return exactMatch
		}
		for tail := range q.KeyExpanded {
			if q.KeyBase+tail == k {
				return exactMatch
			}
		}
	}
	return noMatch
}

// chain follows next_entries greedily from start, concatenating keys and
// values, until the accumulated key reaches targetLen runes or a duplicate
// fingerprint is encountered (spec §4.5 "N-gram chaining", loop guard).
func (p *Predictor) chain(store *history.Store, start *history.Entry, startFP uint32, targetLen int) (key, value string) {
	key, value = start.Key, start.Value
	seen := map[uint32]bool{startFP: true}
	cur := start
	for utf8.RuneCountInString(key) < targetLen {
		next, ok := pickNextEntry(store, cur, seen)
		if !ok {
			break
		}
		seen[next] = true
		ne, ok := store.Get(next)
		if !ok || ne.Removed {
			break
		}
		key += ne.Key
		value += ne.Value
		cur = ne
	}
	return key, value
}

// pickNextEntry chooses the successor to follow out of cur.NextEntries.
// spec.md's priority order — leftmost content word, left-closest content
// word, most recent — describes a lattice walk over multiple candidate
// chains; a single bounded next_entries slice (spec §3) has no left/right
// axis, so only the "most recent" tiebreak is meaningful here, with
// content words preferred over trailing punctuation/symbol successors
// (spec §4.5 "non-content words do not update the chaining timestamps").
func pickNextEntry(store *history.Store, cur *history.Entry, seen map[uint32]bool) (uint32, bool) {
	var bestContent, bestAny uint32
	var haveContent, haveAny bool
	var bestContentTime, bestAnyTime int64

	for _, fp := range cur.NextEntries {
		if seen[fp] {
			continue
		}
		e, ok := store.Get(fp)
		if !ok || e.Removed {
			continue
		}
		if !haveAny || e.LastAccessTime > bestAnyTime {
			bestAny, bestAnyTime, haveAny = fp, e.LastAccessTime, true
		}
		if history.IsContentWord(e.Value) && (!haveContent || e.LastAccessTime > bestContentTime) {
			bestContent, bestContentTime, haveContent = fp, e.LastAccessTime, true
		}
	}
	if haveContent {
		return bestContent, true
	}
	return bestAny, haveAny
}
