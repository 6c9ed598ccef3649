// Package composition implements the composition engine (spec §4.4, §6.2):
// an ordered list of chunks that keystrokes are inserted into and deleted
// from, with cursor positions measured under any of the six translit
// projections.
package composition

import (
	"github.com/sodiumhq/kanacore/chunk"
	"github.com/sodiumhq/kanacore/internal/specialkey"
	"github.com/sodiumhq/kanacore/table"
	"github.com/sodiumhq/kanacore/translit"
)

// Composition holds the ordered chunk list for one preedit buffer. It is
// not safe for concurrent use: every method assumes the caller is the
// single key-event thread (spec §5 "Scheduling model").
type Composition struct {
	chunks []*chunk.Chunk
	tbl    *table.Table
	forms  *translit.Set

	inputProjection translit.Projection
}

// New creates an empty composition rewriting input through tbl and
// rendering through forms, with newly-inserted chunks defaulting to
// inputProjection as their LOCAL alias.
func New(tbl *table.Table, forms *translit.Set, inputProjection translit.Projection) *Composition {
	return &Composition{tbl: tbl, forms: forms, inputProjection: inputProjection}
}

// Query bundles the (input_key, key_base, key_expanded) triple the
// history predictor consumes (spec §4.5 step 2, §12.1).
type Query struct {
	InputKey    string
	KeyBase     string
	KeyExpanded map[string]bool
}

// Query computes the current lookup key for the predictor.
func (c *Composition) Query() Query {
	base, tails := c.GetExpandedStrings()
	return Query{InputKey: c.GetString(), KeyBase: base, KeyExpanded: tails}
}

// GetString renders the composition under its input projection, keeping
// every chunk's pending literal (spec §6.2 get_string).
func (c *Composition) GetString() string {
	return c.GetStringWithTrimMode(chunk.TrimAsis)
}

// GetStringWithProjection renders the composition under an explicit
// projection, keeping pending literal.
func (c *Composition) GetStringWithProjection(proj translit.Projection) string {
	var out string
	for _, ch := range c.chunks {
		out += ch.String(proj)
	}
	return out
}

// GetStringWithTrimMode renders the composition under the input
// projection with the given trim mode applied to every chunk.
func (c *Composition) GetStringWithTrimMode(mode chunk.TrimMode) string {
	var out string
	for _, ch := range c.chunks {
		out += ch.StringWithTrimMode(mode, translit.Local)
	}
	return out
}

// Length returns the composition's length in characters under proj.
func (c *Composition) Length(proj translit.Projection) int {
	n := 0
	for _, ch := range c.chunks {
		n += ch.GetLength(proj)
	}
	return n
}

// ShouldCommit reports whether every chunk is a finished DIRECT_INPUT
// rule with nothing left pending (spec §4.4 should_commit).
func (c *Composition) ShouldCommit() bool {
	if len(c.chunks) == 0 {
		return false
	}
	for _, ch := range c.chunks {
		if !ch.Attributes().Has(table.DirectInput) || ch.Pending() != "" {
			return false
		}
	}
	return true
}

// GetExpandedStrings returns the fixed preedit of every chunk but the
// last, with the last chunk's trimmed (conversion-only) result appended,
// plus the last chunk's set of possible finalizations (spec §4.4
// get_expanded_strings).
func (c *Composition) GetExpandedStrings() (string, map[string]bool) {
	if len(c.chunks) == 0 {
		return "", map[string]bool{}
	}
	var base string
	for _, ch := range c.chunks[:len(c.chunks)-1] {
		base += ch.String(translit.Local)
	}
	last := c.chunks[len(c.chunks)-1]
	base += last.StringWithTrimMode(chunk.TrimDrop, translit.Local)
	return base, last.ExpandedResults()
}

// IsToggleable reports whether the chunk at pos has a pending that opens
// with the "?" special-key marker (spec §4.4 is_toggleable).
func (c *Composition) IsToggleable(pos int) bool {
	idx, _ := c.locate(pos, translit.Local)
	if idx >= len(c.chunks) {
		return false
	}
	return specialkey.HasPrefix(c.chunks[idx].Pending(), "?")
}

// SetTable swaps the rewrite table used for future inserts. Existing
// chunks keep whatever reading they already settled on.
func (c *Composition) SetTable(tbl *table.Table) {
	c.tbl = tbl
}

// SetInputMode changes the LOCAL projection newly-inserted chunks default
// to.
func (c *Composition) SetInputMode(proj translit.Projection) {
	c.inputProjection = proj
}

// SetTransliterator changes the LOCAL projection of every chunk whose span
// intersects [fromPos, toPos) under the current projection, splitting
// chunk boundaries as needed first.
func (c *Composition) SetTransliterator(fromPos, toPos int, proj translit.Projection) {
	c.maybeSplitChunkAt(fromPos)
	c.maybeSplitChunkAt(toPos)
	fromIdx, _ := c.locate(fromPos, translit.Local)
	toIdx, inner := c.locate(toPos, translit.Local)
	if inner > 0 {
		toIdx++
	}
	for i := fromIdx; i < toIdx && i < len(c.chunks); i++ {
		c.chunks[i].SetTransliterator(proj)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// locate finds the chunk index containing pos under proj, and the inner
// offset within that chunk. An inner of 0 at idx == len(chunks) means pos
// is exactly at the end of the composition.
func (c *Composition) locate(pos int, proj translit.Projection) (idx, inner int) {
	if pos <= 0 {
		return 0, 0
	}
	acc := 0
	for i, ch := range c.chunks {
		l := ch.GetLength(proj)
		if pos < acc+l {
			return i, pos - acc
		}
		acc += l
	}
	return len(c.chunks), 0
}

func insertChunkAt(chunks []*chunk.Chunk, idx int, nc *chunk.Chunk) []*chunk.Chunk {
	out := make([]*chunk.Chunk, 0, len(chunks)+1)
	out = append(out, chunks[:idx]...)
	out = append(out, nc)
	out = append(out, chunks[idx:]...)
	return out
}

// maybeSplitChunkAt ensures pos is a chunk boundary under LOCAL, splitting
// the chunk straddling it if necessary (spec §4.4 insert_input step 1).
func (c *Composition) maybeSplitChunkAt(pos int) {
	idx, inner := c.locate(pos, translit.Local)
	if inner == 0 || idx >= len(c.chunks) {
		return
	}
	ch := c.chunks[idx]
	form := c.resolveLocal(ch)
	left, ok := ch.Split(form, inner)
	if !ok {
		return
	}
	c.chunks = insertChunkAt(c.chunks, idx, left)
}

func (c *Composition) resolveLocal(ch *chunk.Chunk) translit.Form {
	return c.forms.Resolve(translit.Local, ch.Transliterator(), ch.Attributes().Has(table.NoTransliteration))
}

// skipZeroLength advances idx rightward over any zero-length chunks
// (spec §4.4 insert_input step 2).
func (c *Composition) skipZeroLength(idx int) int {
	for idx < len(c.chunks) && c.chunks[idx].GetLength(translit.Local) == 0 {
		idx++
	}
	return idx
}

// getInsertionChunk decides whether to reuse the chunk immediately left
// of rightIdx, or insert a fresh one (spec §4.4 insert_input step 3).
// A fresh chunk is inserted into c.chunks in place; the return value is
// the index of the insertion chunk.
func (c *Composition) getInsertionChunk(rightIdx int) int {
	if rightIdx > 0 {
		left := c.chunks[rightIdx-1]
		if !left.Attributes().Has(table.EndChunk) && left.Transliterator() == c.inputProjection {
			return rightIdx - 1
		}
	}
	nc := chunk.New(c.tbl, c.forms, c.inputProjection)
	c.chunks = insertChunkAt(c.chunks, rightIdx, nc)
	return rightIdx
}

// combinePendingChunks walks left from insertionIdx, merging the left
// neighbor into the current chunk while it stays convertible against the
// not-yet-absorbed input (spec §4.4 insert_input step 4).
func (c *Composition) combinePendingChunks(insertionIdx int, remaining string) int {
	for insertionIdx > 0 {
		left := c.chunks[insertionIdx-1]
		cur := c.chunks[insertionIdx]
		if !left.IsConvertible(cur.Pending() + remaining) {
			break
		}
		merged := chunk.Merge(c.tbl, c.forms, c.inputProjection, left, cur)
		tail := append([]*chunk.Chunk{merged}, c.chunks[insertionIdx+1:]...)
		c.chunks = append(append([]*chunk.Chunk{}, c.chunks[:insertionIdx-1]...), tail...)
		insertionIdx--
	}
	return insertionIdx
}

// InsertAt inserts raw keystrokes at pos and returns the new cursor
// position, both under the input projection (spec §4.4 insert_input,
// §6.2 insert_at). pos is clamped to [0, length()].
func (c *Composition) InsertAt(pos int, raw string) int {
	pos = clampInt(pos, 0, c.Length(translit.Local))
	c.maybeSplitChunkAt(pos)
	rightIdx, _ := c.locate(pos, translit.Local)
	rightIdx = c.skipZeroLength(rightIdx)

	var originalRight *chunk.Chunk
	if rightIdx < len(c.chunks) {
		originalRight = c.chunks[rightIdx]
	}

	insertionIdx := c.getInsertionChunk(rightIdx)
	insertionIdx = c.combinePendingChunks(insertionIdx, raw)

	buf := raw
	insChunk := c.chunks[insertionIdx]
	for buf != "" {
		for insChunk.AddInput(&buf) {
		}
		if buf != "" {
			nc := chunk.New(c.tbl, c.forms, c.inputProjection)
			if originalRight != nil {
				rightIdx = indexOf(c.chunks, originalRight)
			} else {
				rightIdx = len(c.chunks)
			}
			c.chunks = insertChunkAt(c.chunks, rightIdx, nc)
			insChunk = nc
		}
	}

	if insChunk.Empty() {
		c.removeChunk(insChunk)
	}

	if originalRight == nil {
		return c.Length(translit.Local)
	}
	newPos := 0
	for _, ch := range c.chunks {
		if ch == originalRight {
			break
		}
		newPos += ch.GetLength(translit.Local)
	}
	return newPos
}

// InsertKeyAndPreeditAt inserts a keystroke that arrives with a
// preassigned conversion, e.g. a kana-keyboard key (spec §4.4
// insert_input via add_converted_char, §6.2 insert_key_and_preedit_at).
func (c *Composition) InsertKeyAndPreeditAt(pos int, raw, preedit string) int {
	pos = clampInt(pos, 0, c.Length(translit.Local))
	c.maybeSplitChunkAt(pos)
	rightIdx, _ := c.locate(pos, translit.Local)
	rightIdx = c.skipZeroLength(rightIdx)

	var originalRight *chunk.Chunk
	if rightIdx < len(c.chunks) {
		originalRight = c.chunks[rightIdx]
	}

	insertionIdx := c.getInsertionChunk(rightIdx)
	insertionIdx = c.combinePendingChunks(insertionIdx, preedit)

	insChunk := c.chunks[insertionIdx]
	convertedChar := preedit
	if !insChunk.AddConvertedChar(raw, &convertedChar) {
		var rightIdx2 int
		if originalRight != nil {
			rightIdx2 = indexOf(c.chunks, originalRight)
		} else {
			rightIdx2 = len(c.chunks)
		}
		nc := chunk.New(c.tbl, c.forms, c.inputProjection)
		c.chunks = insertChunkAt(c.chunks, rightIdx2, nc)
		nc.AddConvertedChar(raw, &convertedChar)
	}

	if originalRight == nil {
		return c.Length(translit.Local)
	}
	newPos := 0
	for _, ch := range c.chunks {
		if ch == originalRight {
			break
		}
		newPos += ch.GetLength(translit.Local)
	}
	return newPos
}

// DeleteAt deletes the character just right of pos and returns pos
// (spec §4.4 delete_at, §6.2). It loops only while the composition's
// total length stays unchanged, which happens when a zero-length chunk
// (invisible sentinel content) had to be skipped before a visible
// deletion could occur.
func (c *Composition) DeleteAt(pos int) int {
	startLen := c.Length(translit.Local)
	pos = clampInt(pos, 0, startLen)

	for len(c.chunks) > 0 {
		c.maybeSplitChunkAt(pos)
		idx, _ := c.locate(pos, translit.Local)
		if idx >= len(c.chunks) {
			break
		}
		it := c.chunks[idx]
		if it.GetLength(translit.Local) <= 1 {
			c.chunks = append(c.chunks[:idx], c.chunks[idx+1:]...)
		} else {
			form := c.resolveLocal(it)
			if _, ok := it.Split(form, 1); !ok {
				break
			}
		}
		if c.Length(translit.Local) != startLen {
			break
		}
	}
	return pos
}

// ConvertPosition remaps a position from one projection to another by
// walking chunks, proportionally remapping the inner offset within the
// chunk straddling fromPos (spec §4.4 convert_position).
func (c *Composition) ConvertPosition(fromPos int, fromProj, toProj translit.Projection) int {
	acc := 0
	toAcc := 0
	for _, ch := range c.chunks {
		fLen := ch.GetLength(fromProj)
		if acc+fLen < fromPos {
			acc += fLen
			toAcc += ch.GetLength(toProj)
			continue
		}
		inner := fromPos - acc
		tLen := ch.GetLength(toProj)
		switch {
		case inner <= 0:
			return toAcc
		case inner >= fLen:
			return toAcc + tLen
		case inner > tLen:
			return toAcc + tLen
		default:
			return toAcc + inner
		}
	}
	return toAcc
}

func indexOf(chunks []*chunk.Chunk, target *chunk.Chunk) int {
	for i, ch := range chunks {
		if ch == target {
			return i
		}
	}
	return len(chunks)
}

func (c *Composition) removeChunk(target *chunk.Chunk) {
	idx := indexOf(c.chunks, target)
	if idx >= len(c.chunks) {
		return
	}
	c.chunks = append(c.chunks[:idx], c.chunks[idx+1:]...)
}
