package translit

import "testing"

func TestFullASCIIFallbackToHalfRaw(t *testing.T) {
	set := NewSet()
	got := set.Form(FullASCII).Transliterate("ny", "")
	if got != "ｎｙ" {
		t.Fatalf("FullASCII.Transliterate(ny, \"\") = %q, want ｎｙ", got)
	}
}

func TestHalfASCIIUsesConvertedWhenRawEmpty(t *testing.T) {
	set := NewSet()
	got := set.Form(HalfASCII).Transliterate("", "ａｂｃ")
	if got != "abc" {
		t.Fatalf("HalfASCII.Transliterate(\"\", ａｂｃ) = %q, want abc", got)
	}
}

func TestFullKatakanaFromHiragana(t *testing.T) {
	set := NewSet()
	got := set.Form(FullKatakana).Transliterate("", "こんにちは")
	if got != "コンニチハ" {
		t.Fatalf("FullKatakana.Transliterate = %q, want コンニチハ", got)
	}
}

func TestHalfKatakanaVoicedSplitUnclean(t *testing.T) {
	set := NewSet()
	form := set.Form(HalfKatakana)
	rendered := form.Transliterate("", "が")
	if runeLen(rendered) != 2 {
		t.Fatalf("expected が to render as 2 halfwidth runes, got %q", rendered)
	}
	_, _, convLHS, convRHS, clean := form.Split(1, "", "が")
	if clean {
		t.Fatal("expected mid-grapheme split of が to be unclean")
	}
	if convLHS != "" || convRHS != "が" {
		t.Fatalf("expected fallback to whole-character split, got lhs=%q rhs=%q", convLHS, convRHS)
	}
}

func TestConversionStringSplitPreservesLength(t *testing.T) {
	set := NewSet()
	form := set.Form(ConversionString)
	_, _, lhs, rhs, _ := form.Split(2, "", "いった")
	if lhs != "いっ" || rhs != "た" {
		t.Fatalf("split = %q / %q", lhs, rhs)
	}
}

func TestResolveNoTransliteration(t *testing.T) {
	set := NewSet()
	f := set.Resolve(Local, HalfKatakana, true)
	if f != set.Form(ConversionString) {
		t.Fatal("expected NO_TRANSLITERATION to force CONVERSION_STRING for LOCAL")
	}
	f = set.Resolve(FullKatakana, HalfKatakana, true)
	if f != set.Form(FullKatakana) {
		t.Fatal("NO_TRANSLITERATION should not affect projections other than LOCAL/HALF_ASCII/FULL_ASCII")
	}
}
