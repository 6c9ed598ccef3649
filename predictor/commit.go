package predictor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sodiumhq/kanacore/history"
)

// Segment is one committed conversion/history segment (key, value,
// description) — the unit spec §4.5's Finish/Commit procedure walks.
type Segment struct {
	Key         string
	Value       string
	Description string
}

// FinishRequest bundles Finish's inputs (spec §4.5 "Commit / Finish").
type FinishRequest struct {
	// HistorySegments are the previously committed segments preceding
	// this commit (used for n-gram linking and the sentence-plus-
	// punctuation merge heuristic).
	HistorySegments []Segment
	// CommittedSegments are the segments just accepted by the user.
	CommittedSegments []Segment
	Now               int64
	ZeroQueryMode     bool
}

// isPrivacySensitive implements spec §4.5 step 2: single-segment commits
// whose key is pure ASCII digits and whose value is pure ASCII are never
// learned (e.g. a typed phone number or PIN).
func isPrivacySensitive(segs []Segment) bool {
	if len(segs) != 1 {
		return false
	}
	return isASCIIDigits(segs[0].Key) && isASCII(segs[0].Value)
}

func isASCIIDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isASCII(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func startsWithPunctuation(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size > 0 && unicode.IsPunct(r)
}

func endsWithPunctuation(s string) bool {
	r, size := utf8.DecodeLastRuneInString(s)
	return size > 0 && unicode.IsPunct(r)
}

// contentKeyValue approximates spec §4.5 step 4's "content_key,
// content_value" — the segment stripped of a trailing punctuation/symbol
// tail. Without a POS tagger (out of scope, spec §1 Non-goals) this is a
// textual approximation rather than a linguistic one.
func contentKeyValue(seg Segment) (key, value string, ok bool) {
	trimmedValue := strings.TrimRightFunc(seg.Value, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	if trimmedValue == seg.Value || trimmedValue == "" {
		return seg.Key, seg.Value, false
	}
	dropped := utf8.RuneCountInString(seg.Value) - utf8.RuneCountInString(trimmedValue)
	keyRunes := []rune(seg.Key)
	if dropped >= len(keyRunes) {
		return seg.Key, seg.Value, false
	}
	return string(keyRunes[:len(keyRunes)-dropped]), trimmedValue, true
}

// Finish runs the commit procedure (spec §4.5 steps 1-6), returning revert
// tokens for every entry it inserted so Revert can undo this commit.
func (p *Predictor) Finish(req FinishRequest) []history.RevertToken {
	if p.cfg.Disabled || p.cfg.Incognito {
		return nil
	}
	if isPrivacySensitive(req.CommittedSegments) {
		return nil
	}
	store := p.currentStore()
	if store == nil || len(req.CommittedSegments) == 0 {
		return nil
	}

	var tokens []history.RevertToken
	insert := func(key, value, description string, now int64) (*history.Entry, uint32, bool) {
		e, fp, ok := store.TryInsert(key, value, description, now, req.ZeroQueryMode)
		if ok {
			tokens = append(tokens, history.RevertToken{Fingerprint: fp})
		}
		return e, fp, ok
	}

	p.trySentencePunctuationMerge(store, req, insert)

	type inserted struct {
		entry *history.Entry
		fp    uint32
	}
	results := make([]inserted, 0, len(req.CommittedSegments))
	for _, seg := range req.CommittedSegments {
		e, fp, ok := insert(seg.Key, seg.Value, seg.Description, req.Now)
		if !ok {
			continue
		}
		results = append(results, inserted{e, fp})

		if p.cfg.ContentWordLearningEnabled {
			if ck, cv, has := contentKeyValue(seg); has && (ck != seg.Key || cv != seg.Value) {
				insert(ck, cv, seg.Description, req.Now)
			}
		}
	}

	for i := 1; i < len(results); i++ {
		store.InsertNextEntry(results[i-1].entry, results[i].fp)
	}

	if len(req.CommittedSegments) > 1 && len(results) > 0 {
		var allKey, allValue strings.Builder
		for _, seg := range req.CommittedSegments {
			allKey.WriteString(seg.Key)
			allValue.WriteString(seg.Value)
		}
		insert(allKey.String(), allValue.String(), req.CommittedSegments[0].Description, req.Now)
	}

	if len(req.HistorySegments) > 0 && len(results) > 0 {
		lastHist := req.HistorySegments[len(req.HistorySegments)-1]
		firstCommitted := req.CommittedSegments[0]
		if !endsWithPunctuation(lastHist.Value) && !startsWithPunctuation(firstCommitted.Value) {
			histFP := history.Fingerprint(lastHist.Key, lastHist.Value)
			if histEntry, ok := store.Get(histFP); ok {
				store.InsertNextEntry(histEntry, results[0].fp)
			}
		}
	}

	return tokens
}

// trySentencePunctuationMerge implements spec §4.5 step 3: when the most
// recently touched LRU entry was inserted within 5 seconds, the last
// history segment looks sentence-like (key length >= 8 runes, value ends
// in Hiragana), and the new segment is a single punctuation character,
// insert a merged entry sharing the recent entry's last_access_time so it
// groups with it.
func (p *Predictor) trySentencePunctuationMerge(store *history.Store, req FinishRequest, insert func(key, value, description string, now int64) (*history.Entry, uint32, bool)) bool {
	if len(req.HistorySegments) == 0 || len(req.CommittedSegments) == 0 {
		return false
	}
	lastHist := req.HistorySegments[len(req.HistorySegments)-1]
	if utf8.RuneCountInString(lastHist.Key) < 8 {
		return false
	}
	lastRune, size := utf8.DecodeLastRuneInString(lastHist.Value)
	if size == 0 || !unicode.In(lastRune, unicode.Hiragana) {
		return false
	}

	punct := req.CommittedSegments[0]
	if utf8.RuneCountInString(punct.Value) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(punct.Value)
	if !unicode.IsPunct(r) {
		return false
	}

	var mostRecent *history.Entry
	for _, e := range store.Entries(1) {
		mostRecent = e
	}
	if mostRecent == nil || req.Now-mostRecent.LastAccessTime > 5 {
		return false
	}

	_, _, ok := insert(mostRecent.Key+punct.Key, mostRecent.Value+punct.Value, punct.Description, mostRecent.LastAccessTime)
	return ok
}

// Revert undoes a commit's inserts (spec §4.7).
func (p *Predictor) Revert(tokens []history.RevertToken) {
	store := p.currentStore()
	if store == nil {
		return
	}
	store.Revert(tokens)
}

// ClearAllHistory wipes the entire store (spec §4.8 CLEAN_ALL_EVENT).
func (p *Predictor) ClearAllHistory(now int64) {
	if store := p.currentStore(); store != nil {
		store.ClearAll(now)
	}
}

// ClearUnusedHistory drops never-surfaced/never-reused entries (spec §4.8
// CLEAN_UNUSED_EVENT).
func (p *Predictor) ClearUnusedHistory(now int64) {
	if store := p.currentStore(); store != nil {
		store.ClearUnused(now)
	}
}

// ClearHistoryEntry tombstones one entry by (key, value) (spec §6.3).
func (p *Predictor) ClearHistoryEntry(key, value string) {
	if store := p.currentStore(); store != nil {
		store.ClearEntry(key, value)
	}
}
