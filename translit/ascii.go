package translit

import "golang.org/x/text/width"

// toFullWidth widens halfwidth ASCII/Katakana codepoints to their
// fullwidth forms.
func toFullWidth(s string) string {
	return width.Widen.String(s)
}

// toHalfWidth narrows fullwidth ASCII/Katakana codepoints to their
// halfwidth forms.
func toHalfWidth(s string) string {
	return width.Narrow.String(s)
}

// conversionStringForm renders conversion+pending verbatim (spec §4.3
// table, CONVERSION_STRING row).
type conversionStringForm struct{}

func (conversionStringForm) Transliterate(_, converted string) string {
	return converted
}

func (conversionStringForm) Split(pos int, raw, converted string) (string, string, string, string, bool) {
	convLHS, convRHS := splitRunes(converted, pos)
	rawLHS, rawRHS := proportionalSplit(raw, pos, runeLen(converted))
	return rawLHS, rawRHS, convLHS, convRHS, true
}

// rawStringForm renders the exact keystrokes absorbed by the chunk.
type rawStringForm struct{}

func (rawStringForm) Transliterate(raw, _ string) string {
	return raw
}

func (rawStringForm) Split(pos int, raw, converted string) (string, string, string, string, bool) {
	rawLHS, rawRHS := splitRunes(raw, pos)
	convLHS, convRHS := proportionalSplit(converted, pos, runeLen(raw))
	return rawLHS, rawRHS, convLHS, convRHS, true
}

// fullASCIIForm prefers raw keystrokes (falling back to converted when a
// chunk has no raw, e.g. a pre-converted kana key), rendered as
// fullwidth ASCII.
type fullASCIIForm struct{}

func (fullASCIIForm) Transliterate(raw, converted string) string {
	if raw != "" {
		return toFullWidth(raw)
	}
	return toFullWidth(converted)
}

func (fullASCIIForm) Split(pos int, raw, converted string) (string, string, string, string, bool) {
	return rawPreferredSplit(pos, raw, converted)
}

// halfASCIIForm is fullASCIIForm's mirror, rendering halfwidth ASCII.
type halfASCIIForm struct{}

func (halfASCIIForm) Transliterate(raw, converted string) string {
	if raw != "" {
		return toHalfWidth(raw)
	}
	return toHalfWidth(converted)
}

func (halfASCIIForm) Split(pos int, raw, converted string) (string, string, string, string, bool) {
	return rawPreferredSplit(pos, raw, converted)
}

// rawPreferredSplit implements the FULL_ASCII/HALF_ASCII split axis: raw
// when non-empty, else converted (spec §4.3 table).
func rawPreferredSplit(pos int, raw, converted string) (string, string, string, string, bool) {
	if raw == "" {
		convLHS, convRHS := splitRunes(converted, pos)
		return "", "", convLHS, convRHS, true
	}
	rawLHS, rawRHS := splitRunes(raw, pos)
	convLHS, convRHS := proportionalSplit(converted, pos, runeLen(raw))
	return rawLHS, rawRHS, convLHS, convRHS, true
}
