package translit

// Set bundles the six fixed projections. It is stateless and shared
// across every composition and chunk (spec §5 "Resources").
type Set struct {
	forms map[Projection]Form
}

// NewSet builds the fixed projection set.
func NewSet() *Set {
	return &Set{forms: map[Projection]Form{
		ConversionString: conversionStringForm{},
		RawString:        rawStringForm{},
		Hiragana:          hiraganaForm{},
		FullKatakana:      fullKatakanaForm{},
		HalfKatakana:      halfKatakanaForm{},
		FullASCII:         fullASCIIForm{},
		HalfASCII:         halfASCIIForm{},
	}}
}

// Form returns the concrete Form for one of the six fixed projections.
// Passing Local panics; callers that may receive Local must go through
// Resolve instead.
func (s *Set) Form(p Projection) Form {
	f, ok := s.forms[p]
	if !ok {
		panic("translit: Form called with an unresolved projection: " + p.String())
	}
	return f
}

// Resolve picks the concrete Form for a request, given the chunk's own
// local projection choice and whether the chunk carries the
// NO_TRANSLITERATION attribute (spec §4.3): LOCAL, HALF_ASCII and
// FULL_ASCII all resolve to CONVERSION_STRING under NO_TRANSLITERATION,
// checked before Local substitution so "the user explicitly wants the
// converted form" wins regardless of what LOCAL would otherwise mean.
func (s *Set) Resolve(requested, local Projection, noTransliteration bool) Form {
	if noTransliteration && (requested == Local || requested == HalfASCII || requested == FullASCII) {
		return s.forms[ConversionString]
	}
	if requested == Local {
		requested = local
	}
	return s.Form(requested)
}
