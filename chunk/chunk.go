// Package chunk implements the chunk (spec §3, §4.2): one unit of
// preedit holding a (raw, conversion, pending) triple plus an optional
// ambiguous alternate finalization. Chunks are mutated only by their
// owning composition.
package chunk

import (
	"strings"
	"unicode/utf8"

	"github.com/sodiumhq/kanacore/internal/specialkey"
	"github.com/sodiumhq/kanacore/table"
	"github.com/sodiumhq/kanacore/translit"
)

// Chunk is one contiguous span of preedit (spec §3 "Chunk").
type Chunk struct {
	raw        string
	conversion string
	pending    string
	ambiguous  string

	transliterator translit.Projection // this chunk's LOCAL projection; never translit.Local
	attributes     table.Attribute
	firstRuleSeen  bool // whether a rule's attributes have already been copied onto this chunk

	tbl   *table.Table
	forms *translit.Set

	localLenValid bool
	localLen      int
}

// New creates an empty chunk that will consult tbl for rewriting and
// forms for rendering, reporting under defaultProjection as its LOCAL
// alias until SetTransliterator changes it.
func New(tbl *table.Table, forms *translit.Set, defaultProjection translit.Projection) *Chunk {
	return &Chunk{
		tbl:            tbl,
		forms:          forms,
		transliterator: defaultProjection,
	}
}

func (c *Chunk) Raw() string                       { return c.raw }
func (c *Chunk) Conversion() string                 { return c.conversion }
func (c *Chunk) Pending() string                    { return c.pending }
func (c *Chunk) Ambiguous() string                  { return c.ambiguous }
func (c *Chunk) Attributes() table.Attribute        { return c.attributes }
func (c *Chunk) Transliterator() translit.Projection { return c.transliterator }

// SetTransliterator changes the projection this chunk reports under the
// LOCAL alias (spec §6.2 set_transliterator).
func (c *Chunk) SetTransliterator(p translit.Projection) {
	c.transliterator = p
	c.invalidateCache()
}

// Empty reports whether raw, conversion and pending are all empty, the
// condition under which a composition drops a chunk entirely (spec §4.4
// insert_input step 6).
func (c *Chunk) Empty() bool {
	return c.raw == "" && c.conversion == "" && c.pending == ""
}

// Live reports whether the chunk satisfies the §3 invariant that at
// least one of conversion, pending, ambiguous is non-empty.
func (c *Chunk) Live() bool {
	return c.conversion != "" || c.pending != "" || c.ambiguous != ""
}

func (c *Chunk) invalidateCache() {
	c.localLenValid = false
}

// GetLength returns the chunk's length in characters of the given
// projection (spec §4.2 "Projection-length cache"). Only requests for
// translit.Local consult or populate the cache; every other projection
// is always recomputed.
func (c *Chunk) GetLength(proj translit.Projection) int {
	if proj == translit.Local && c.localLenValid {
		return c.localLen
	}
	form := c.resolve(proj)
	n := runeLen(form.Transliterate(c.raw, c.conversion+c.pending))
	if proj == translit.Local {
		c.localLen = n
		c.localLenValid = true
	}
	return n
}

// String renders the chunk under the given projection.
func (c *Chunk) String(proj translit.Projection) string {
	form := c.resolve(proj)
	return form.Transliterate(c.raw, c.conversion+c.pending)
}

// TrimMode selects how a chunk's unsettled content is rendered (spec §6.2
// get_string_with_trim_mode).
type TrimMode int

const (
	TrimDrop TrimMode = iota // TRIM: drop pending entirely
	TrimAsis                 // ASIS: keep pending literal
	TrimFix                  // FIX: append ambiguous when present, else pending
)

// StringWithTrimMode renders the chunk under proj, applying mode to decide
// how much of pending/ambiguous is included.
func (c *Chunk) StringWithTrimMode(mode TrimMode, proj translit.Projection) string {
	form := c.resolve(proj)
	switch mode {
	case TrimDrop:
		return form.Transliterate(c.raw, c.conversion)
	case TrimFix:
		tail := c.ambiguous
		if tail == "" {
			tail = c.pending
		}
		return form.Transliterate(c.raw, c.conversion+tail)
	default:
		return form.Transliterate(c.raw, c.conversion+c.pending)
	}
}

func (c *Chunk) resolve(proj translit.Projection) translit.Form {
	return c.forms.Resolve(proj, c.transliterator, c.attributes.Has(table.NoTransliteration))
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// AddInput consumes a leading prefix of *buf (spec §4.2 add_input),
// mutating the chunk's triple. It returns true ("loop") when the caller
// should re-invoke AddInput immediately because a fix-point split left
// more of buf to process with a non-empty new pending.
func (c *Chunk) AddInput(buf *string) bool {
	key := c.pending + *buf
	entry, consumed, fixed, ok := c.tbl.LookupPrefix(key)

	if !ok {
		walkLen := c.tbl.WalkLength(key)
		if c.pending == "" {
			r, size := utf8.DecodeRuneInString(*buf)
			if size == 0 {
				return false
			}
			c.raw += string(r)
			c.conversion += string(r)
			*buf = (*buf)[size:]
			c.invalidateCache()
			return false
		}
		if walkLen <= len(c.pending) {
			// No rule extends even into buf; caller starts a fresh chunk.
			return false
		}
		extra := (*buf)[:walkLen-len(c.pending)]
		c.raw += extra
		c.pending += extra
		if c.ambiguous != "" {
			c.ambiguous += extra
		}
		*buf = (*buf)[len(extra):]
		c.invalidateCache()
		return false
	}

	if consumed == len(key) {
		c.raw += *buf
		*buf = ""
		if fixed {
			c.conversion += entry.Result
			c.pending = entry.Pending
			c.ambiguous = ""
			c.adoptAttributes(entry.Attributes)
		} else {
			c.pending = key
			c.ambiguous = entry.Result
		}
		c.invalidateCache()
		c.stripOrphanSentinel()
		return false
	}

	// Entry found, shorter than key: a fix-point split.
	if strings.HasSuffix(c.raw, c.pending) {
		c.raw = c.raw[:len(c.raw)-len(c.pending)]
	}
	c.raw += key[:consumed]
	c.conversion += entry.Result
	c.pending = entry.Pending
	c.ambiguous = ""
	c.adoptAttributes(entry.Attributes)
	*buf = key[consumed:]
	c.invalidateCache()

	loop := *buf != "" && c.pending != ""
	return loop
}

func (c *Chunk) adoptAttributes(attrs table.Attribute) {
	if !c.firstRuleSeen {
		c.attributes = attrs
		c.firstRuleSeen = true
	}
}

// stripOrphanSentinel drops a leading special-key sentinel from raw and
// pending when it is freshly created and no rule can ever consume it
// further, preventing an orphan special key from surviving as preedit
// (spec §4.2 "Fix-of-invalid-special-key tail").
func (c *Chunk) stripOrphanSentinel() {
	if c.firstRuleSeen {
		return
	}
	n := specialkey.LeadingSentinelLen(c.pending)
	if n == 0 || n != len(c.pending) {
		return
	}
	if c.tbl.HasSubRules(c.pending) {
		return
	}
	if strings.HasSuffix(c.raw, c.pending) {
		c.raw = c.raw[:len(c.raw)-len(c.pending)]
	}
	c.pending = ""
}

// AddConvertedChar absorbs a keystroke that arrives with a preassigned
// conversion (spec §4.2 "Combined input"), e.g. a kana keyboard key that
// already printed its kana. It probes the table with pending+*convertedChar
// exactly once.
func (c *Chunk) AddConvertedChar(key string, convertedChar *string) bool {
	combined := c.pending + *convertedChar
	entry, consumed, fixed, ok := c.tbl.LookupPrefix(combined)
	if !ok {
		return false
	}
	if consumed == len(combined) {
		c.raw += key
		if fixed {
			c.conversion += entry.Result
			c.pending = entry.Pending
			c.ambiguous = ""
			c.adoptAttributes(entry.Attributes)
		} else {
			c.pending = combined
			c.ambiguous = entry.Result
		}
		*convertedChar = ""
		c.invalidateCache()
		return true
	}
	c.raw += key
	c.pending += *convertedChar
	*convertedChar = combined[consumed:]
	c.invalidateCache()
	return true
}

// IsConvertible reports whether appending suffix to this chunk's pending
// would let the table consume more than just the chunk's current
// pending (spec §4.4 insert_input step 4, "Combine pending chunks").
func (c *Chunk) IsConvertible(suffix string) bool {
	if c.pending == "" {
		return false
	}
	combined := c.pending + suffix
	return c.tbl.WalkLength(combined) > len(c.pending)
}

// Split partitions the chunk at position characters of form's
// projection (spec §4.2 "Split"). It returns the new left-hand chunk and
// true on success; per spec §7 "Split out of range", a position at or
// beyond either edge returns (nil, false) and leaves the receiver
// untouched.
func (c *Chunk) Split(form translit.Form, position int) (*Chunk, bool) {
	total := runeLen(form.Transliterate(c.raw, c.conversion+c.pending))
	if position <= 0 || position >= total {
		return nil, false
	}

	combined := c.conversion + c.pending
	rawLHS, rawRHS, convLHS, convRHS, _ := form.Split(position, c.raw, combined)

	left := &Chunk{tbl: c.tbl, forms: c.forms, transliterator: c.transliterator, attributes: c.attributes, firstRuleSeen: c.firstRuleSeen}
	left.raw = rawLHS

	if len(convLHS) <= len(c.conversion) {
		left.conversion = convLHS
		left.pending = ""
		c.conversion = c.conversion[len(convLHS):]
		// c.pending unchanged
	} else {
		left.conversion = c.conversion
		left.pending = convLHS[len(c.conversion):]
		c.conversion = ""
		c.pending = convRHS
	}
	left.ambiguous = ""
	c.ambiguous = ""
	c.raw = rawRHS

	left.invalidateCache()
	c.invalidateCache()
	return left, true
}

// ExpandedResults yields every string this chunk's current pending could
// finalize into, by following empty-result ("toggle") rules up to a
// recursion depth of 4 and detecting loops via visited pending states
// (spec §4.2 "Expanded results"). Rules whose result is non-empty
// terminate expansion along that branch.
func (c *Chunk) ExpandedResults() map[string]bool {
	const maxDepth = 4
	results := make(map[string]bool)
	visited := make(map[string]bool)
	frontier := []string{c.pending}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, state := range frontier {
			if visited[state] {
				continue
			}
			visited[state] = true
			results[specialkey.Delete(state)] = true

			entry, consumed, _, ok := c.tbl.LookupPrefix(state)
			if !ok || consumed != len(state) || entry.Result != "" {
				continue
			}
			next = append(next, entry.Pending)
		}
		frontier = next
	}
	return results
}

// Merge replays the concatenation of a's and b's raw keystrokes through a
// fresh chunk, producing the single chunk that a and b "should have been"
// had they been typed without a chunk boundary between them (spec §4.4
// insert_input step 4, "Combine pending chunks"). Replay is equivalent to
// incremental merge because the rewrite table is a pure function of the
// keystroke sequence consumed so far.
func Merge(tbl *table.Table, forms *translit.Set, defaultProjection translit.Projection, a, b *Chunk) *Chunk {
	combinedRaw := a.raw + b.raw
	merged := New(tbl, forms, defaultProjection)
	buf := combinedRaw
	for buf != "" {
		prevLen := len(buf)
		if !merged.AddInput(&buf) {
			if len(buf) == prevLen {
				break
			}
		}
		if len(buf) == prevLen {
			break
		}
	}
	return merged
}
