// Package predictor implements the history predictor (spec.md §4.5, "C7"):
// an LRU-backed suggestion/prediction engine over previously committed
// conversions, with n-gram chaining, fuzzy Roman-typo matching, and a
// zero-query continuation path.
package predictor

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/sodiumhq/kanacore/corrector"
	"github.com/sodiumhq/kanacore/history"
	"github.com/sodiumhq/kanacore/storage"
	"github.com/sodiumhq/kanacore/zeroquery"
)

const (
	defaultMaxResults     = 3
	suggestionWalkLimit   = 3000
	previousEntryScanSize = 500
	oneWeekSeconds        = 7 * 24 * 60 * 60
)

// Config holds the engine-wide predictor tunables spec.md leaves as
// external configuration (disabled/incognito toggles, content-word
// learning, zero-query suffix gating — SPEC_FULL §10.3, §13 decision 3).
type Config struct {
	Disabled                         bool
	Incognito                        bool
	ContentWordLearningEnabled       bool
	DisableZeroQuerySuffixPrediction bool
	MaxResults                       int
}

// Predictor is the public history-predictor API (spec §6.3).
type Predictor struct {
	store     atomic.Pointer[history.Store]
	cacheSize int

	corrector corrector.Corrector // nil disables fuzzy matching (C5 optional)
	zeroQuery *zeroquery.Dict     // nil disables zero-query continuation (C8 optional)
	backend   storage.Backend
	logger    Logger
	cfg       Config

	workerMu sync.Mutex
	eg       *errgroup.Group
}

// New constructs a Predictor. corr, zq, and backend may all be nil — fuzzy
// matching, zero-query continuation, and persistence are each optional
// collaborators (spec §1 "Non-goals" leaves dictionary/zero-query/storage
// as pluggable externals).
func New(store *history.Store, corr corrector.Corrector, zq *zeroquery.Dict, backend storage.Backend, logger Logger, cfg Config) *Predictor {
	if store == nil {
		store = history.New(history.DefaultCacheSize)
	}
	if logger == nil {
		logger = NoopLogger{}
	}
	p := &Predictor{
		cacheSize: history.DefaultCacheSize,
		corrector: corr,
		zeroQuery: zq,
		backend:   backend,
		logger:    logger,
		cfg:       cfg,
	}
	p.store.Store(store)
	return p
}

func (p *Predictor) currentStore() *history.Store {
	return p.store.Load()
}

// Predict runs the lookup pipeline (spec §4.5 steps 1-6).
func (p *Predictor) Predict(req Request) []Result {
	if p.cfg.Disabled || p.cfg.Incognito || req.FinalizedOnly {
		return nil
	}
	q := req.Query
	if q.InputKey == "" && req.PreviousValue == "" {
		return nil
	}

	store := p.currentStore()
	if store == nil {
		return nil
	}

	prevEntry, _, hasPrev := p.lookupPreviousEntry(store, req.PreviousKey, req.PreviousValue, req.Now)

	var inputRoman string
	fuzzy := false
	if p.corrector != nil && req.RomanMode && p.corrector.MaybeMisspelled(q.InputKey) {
		inputRoman = p.corrector.ToRomaji(q.InputKey)
		fuzzy = true
	}

	limit := suggestionWalkLimit
	if req.Mode == PredictionMode {
		limit = 0
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = p.cfg.MaxResults
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	pq := &priorityQueue{}
	seq := 0

	if q.InputKey == "" {
		// LEFT_EMPTY_MATCH: zero-query continuation off the previous
		// entry's bigram chain (spec §4.5 step 5, match classifier
		// "if input_key empty but a previous-entry bigram exists").
		if hasPrev {
			for _, nfp := range prevEntry.NextEntries {
				ne, ok := store.Get(nfp)
				if !ok || ne.Removed {
					continue
				}
				score := ne.LastAccessTime - int64(utf8.RuneCountInString(ne.Value))
				if ne.BigramBoost {
					score += oneWeekSeconds
				}
				seq++
				pq.items = append(pq.items, pqItem{
					key: ne.Key, value: ne.Value, description: ne.Description,
					typ: TypeBigram, score: score, seq: seq,
				})
			}
		}
		if p.zeroQuery != nil && !p.cfg.DisableZeroQuerySuffixPrediction {
			for _, zr := range p.zeroQuery.Lookup(q.InputKey, req.PreviousValue) {
				seq++
				pq.items = append(pq.items, pqItem{
					key: "", value: zr.Value,
					typ:   TypeZeroQuery,
					score: req.Now - int64(utf8.RuneCountInString(zr.Value)),
					seq:   seq,
				})
			}
		}
		pq.init()
	} else {
		for fp, e := range store.Entries(limit) {
			if e.Removed || e.EntryType != history.DefaultEntryType {
				continue
			}
			mt := classify(q, hasPrev, e.Key)
			typ := TypeHistory
			matched := true
			switch mt {
			case noMatch:
				matched = false
				if fuzzy {
					cand := p.corrector.ToRomaji(e.Key)
					if p.corrector.FuzzyPrefixMatch(cand, inputRoman) {
						matched = true
						typ = TypeSpellingCorrection
					}
				}
			case rightPrefixMatch, exactMatch, leftPrefixMatch:
				// key/value possibly extended by chaining below
			}
			if !matched {
				continue
			}

			key, value := e.Key, e.Value
			if mt == rightPrefixMatch {
				key, value = p.chain(store, e, fp, utf8.RuneCountInString(q.InputKey))
			}

			score := e.LastAccessTime - int64(utf8.RuneCountInString(value))
			if e.BigramBoost {
				score += oneWeekSeconds
			}
			seq++
			pq.items = append(pq.items, pqItem{
				key: key, value: value, description: e.Description,
				typ: typ, score: score, seq: seq,
			})
		}
		pq.init()
	}

	results := make([]Result, 0, maxResults)
	seenValue := map[uint32]bool{}
	for pq.Len() > 0 && len(results) < maxResults {
		item := pq.pop()
		vfp := valueFingerprint(item.value)
		if seenValue[vfp] {
			continue
		}
		seenValue[vfp] = true
		results = append(results, Result{
			Key: item.key, Value: item.value, Description: item.description,
			Type: item.typ, Score: item.score,
		})
	}
	return results
}

// lookupPreviousEntry resolves the previous committed history segment to
// an LRU entry (spec §4.5 step 3): exact fingerprint first, else a linear
// scan of the most-recent previousEntryScanSize elements for a value that
// equals or is a suffix of the previous committed value.
func (p *Predictor) lookupPreviousEntry(store *history.Store, prevKey, prevValue string, now int64) (*history.Entry, uint32, bool) {
	if prevKey == "" && prevValue == "" {
		return nil, 0, false
	}
	fp := history.Fingerprint(prevKey, prevValue)
	if e, ok := store.Get(fp); ok && !e.Removed {
		store.Touch(fp, now)
		return e, fp, true
	}
	if prevValue == "" {
		return nil, 0, false
	}
	for fp, e := range store.Entries(previousEntryScanSize) {
		if e.Removed {
			continue
		}
		if e.Value == prevValue || strings.HasSuffix(prevValue, e.Value) {
			return e, fp, true
		}
	}
	return nil, 0, false
}

func valueFingerprint(value string) uint32 {
	return history.Fingerprint("", value)
}

// doSave serializes the current store, persists it through backend, then
// reloads from the just-written bytes to normalize in-memory order with
// on-disk order (spec §4.8 "save writes, then immediately re-loads").
func (p *Predictor) doSave() error {
	store := p.currentStore()
	if store == nil || p.backend == nil {
		return nil
	}
	now := time.Now().Unix()
	var buf bytes.Buffer
	if err := store.Serialize(&buf, now); err != nil {
		return err
	}
	if err := p.backend.Save(buf.Bytes()); err != nil {
		return err
	}
	normalized := history.New(p.cacheSize)
	if err := normalized.Load(bytes.NewReader(buf.Bytes()), now); err != nil {
		return err
	}
	p.store.Store(normalized)
	return nil
}

// doReload rebuilds the store from the backend's persisted blob.
func (p *Predictor) doReload() error {
	if p.backend == nil {
		return nil
	}
	blob, err := p.backend.Load()
	if err != nil {
		return err
	}
	if blob == nil {
		return nil
	}
	now := time.Now().Unix()
	fresh := history.New(p.cacheSize)
	if err := fresh.Load(bytes.NewReader(blob), now); err != nil {
		return err
	}
	p.store.Store(fresh)
	return nil
}
