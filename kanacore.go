// Package kanacore bundles the shared, read-only collaborators a
// composition and a predictor both need — the rewrite table, the
// transliteration form set, and the optional roman-typo corrector and
// zero-query dictionary — so a caller builds them once per process
// instead of threading four separate pointers through every
// constructor (spec §5 "Resources", SPEC_FULL §12.2).
package kanacore

import (
	"github.com/sodiumhq/kanacore/composition"
	"github.com/sodiumhq/kanacore/corrector"
	"github.com/sodiumhq/kanacore/table"
	"github.com/sodiumhq/kanacore/translit"
	"github.com/sodiumhq/kanacore/zeroquery"
)

// Modules holds the collaborators that are immutable for the lifetime
// of a process and safe to share across every composition and
// predictor it runs (spec §5 "Resources").
type Modules struct {
	Table     *table.Table
	Translit  *translit.Set
	Corrector corrector.Corrector // optional; nil disables fuzzy roman-typo correction (§4.2)
	ZeroQuery *zeroquery.Dict     // optional; nil disables zero-query suffix prediction (§4.6)
}

// New bundles tbl and forms, the two collaborators every composition
// needs, with the optional corr and zq collaborators a predictor may
// also use.
func New(tbl *table.Table, forms *translit.Set, corr corrector.Corrector, zq *zeroquery.Dict) *Modules {
	return &Modules{Table: tbl, Translit: forms, Corrector: corr, ZeroQuery: zq}
}

// NewComposition constructs a Composition sharing m's table and
// transliteration set (spec §4.1/§4.3).
func (m *Modules) NewComposition(inputProjection translit.Projection) *composition.Composition {
	return composition.New(m.Table, m.Translit, inputProjection)
}
