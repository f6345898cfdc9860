package prepare

import (
	"strings"
	"unicode"
)

// Language codes reported by DetectLanguage.
const (
	LangEnglish    = "en"
	LangLatin      = "latin-other"
	LangCyrillic   = "cyrillic"
	LangChinese    = "zh"
	LangJapanese   = "ja"
	LangKorean     = "ko"
	LangArabic     = "ar"
	LangDevanagari = "hi"
	LangGreek      = "el"
	LangHebrew     = "he"
	LangThai       = "th"
	LangUnknown    = "unknown"
)

var scripts = []struct {
	lang  string
	table *unicode.RangeTable
}{
	{LangCyrillic, unicode.Cyrillic},
	{LangJapanese, unicode.Hiragana},
	{LangJapanese, unicode.Katakana},
	{LangChinese, unicode.Han},
	{LangKorean, unicode.Hangul},
	{LangArabic, unicode.Arabic},
	{LangDevanagari, unicode.Devanagari},
	{LangGreek, unicode.Greek},
	{LangHebrew, unicode.Hebrew},
	{LangThai, unicode.Thai},
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "is": {}, "are": {}, "was": {}, "to": {}, "of": {},
	"in": {}, "it": {}, "you": {}, "that": {}, "this": {}, "for": {}, "on": {},
	"with": {}, "i": {}, "we": {}, "they": {}, "be": {}, "have": {}, "not": {},
	"what": {}, "so": {}, "but": {}, "my": {}, "your": {}, "just": {}, "do": {},
	"a": {}, "an": {}, "at": {}, "or": {}, "if": {}, "can": {}, "will": {},
}

// DetectLanguage classifies text by Unicode script counts. Latin text is
// reported as English when enough common English function words occur.
func DetectLanguage(text string) string {
	counts := make(map[string]int)
	latin, letters := 0, 0

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Latin, r) {
			latin++
			continue
		}
		for _, s := range scripts {
			if unicode.Is(s.table, r) {
				counts[s.lang]++
				break
			}
		}
	}

	if letters == 0 {
		return LangUnknown
	}

	best, bestCount := "", 0
	for _, s := range scripts {
		if c := counts[s.lang]; c > bestCount {
			best, bestCount = s.lang, c
		}
	}

	// Japanese text mixes kana with Han; any kana outweighs a Han majority.
	if counts[LangJapanese] > 0 && best == LangChinese {
		best = LangJapanese
	}

	if latin >= bestCount {
		if englishRatio(text) >= 0.15 {
			return LangEnglish
		}
		return LangLatin
	}

	return best
}

func englishRatio(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	if len(words) == 0 {
		return 0
	}

	hits := 0
	for _, w := range words {
		if _, ok := stopwords[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}
