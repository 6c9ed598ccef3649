package predictor

import "github.com/sodiumhq/kanacore/composition"

// ResultType tags how a Result was produced (SPEC_FULL §12.3, supplementing
// the original's Result.types bitmask the distilled spec dropped).
type ResultType int

const (
	TypeHistory ResultType = iota
	TypeBigram
	TypeSuffix
	TypeSpellingCorrection
	TypeZeroQuery
)

func (t ResultType) String() string {
	switch t {
	case TypeBigram:
		return "BIGRAM"
	case TypeSuffix:
		return "SUFFIX"
	case TypeSpellingCorrection:
		return "SPELLING_CORRECTION"
	case TypeZeroQuery:
		return "ZERO_QUERY"
	default:
		return "HISTORY"
	}
}

// Result is one prediction candidate (spec §4.5 step 6).
type Result struct {
	Key         string
	Value       string
	Description string
	Type        ResultType
	Score       int64
}

// Mode selects the walk bound of predict's LRU scan (spec §4.5 step 5):
// SuggestionMode caps the walk at 3000 entries, PredictionMode is
// unbounded.
type Mode int

const (
	SuggestionMode Mode = iota
	PredictionMode
)

// Request bundles predict's inputs (spec §4.5 "predict(request)").
type Request struct {
	// Query is the composition's (input_key, key_base, key_expanded)
	// triple (spec §4.5 step 2, composition.Query per SPEC_FULL §12.1).
	Query composition.Query
	Mode  Mode

	// PreviousKey/PreviousValue identify the last-committed history
	// segment (spec §4.5 step 3).
	PreviousKey   string
	PreviousValue string

	// RomanMode gates fuzzy matching: only triggered when the current
	// input projection is Roman (spec §4.5 "Fuzzy matching").
	RomanMode bool

	// FinalizedOnly gates predict entirely when the request carries only
	// a fully finalised conversion (spec §4.5 step 1).
	FinalizedOnly bool

	MaxResults int
	Now        int64
}
