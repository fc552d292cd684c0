package translate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

var ErrUnsupportedLanguage = errors.New("unsupported target language")

// Language pairs a LibreTranslate code with the TTSMaker locale and voice
// used to read it aloud.
type Language struct {
	Code   string
	Locale string
	Voice  string
}

var languages = map[string]Language{
	"en": {Code: "en", Locale: "en-US", Voice: "en-US-1"},
	"es": {Code: "es", Locale: "es-ES", Voice: "es-ES-1"},
	"fr": {Code: "fr", Locale: "fr-FR", Voice: "fr-FR-1"},
	"de": {Code: "de", Locale: "de-DE", Voice: "de-DE-1"},
	"it": {Code: "it", Locale: "it-IT", Voice: "it-IT-1"},
	"pt": {Code: "pt", Locale: "pt-BR", Voice: "pt-BR-1"},
	"nl": {Code: "nl", Locale: "nl-NL", Voice: "nl-NL-1"},
	"pl": {Code: "pl", Locale: "pl-PL", Voice: "pl-PL-1"},
	"ru": {Code: "ru", Locale: "ru-RU", Voice: "ru-RU-1"},
	"ja": {Code: "ja", Locale: "ja-JP", Voice: "ja-JP-1"},
	"ko": {Code: "ko", Locale: "ko-KR", Voice: "ko-KR-1"},
	"zh": {Code: "zh", Locale: "zh-CN", Voice: "zh-CN-1"},
}

// VoiceFor resolves a language tag such as "fr", "pt-BR" or "zh-Hans" to
// its voiceover settings.
func VoiceFor(lang string) (Language, error) {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return Language{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	base, _ := tag.Base()
	l, ok := languages[base.String()]
	if !ok {
		return Language{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	return l, nil
}

// Supported lists the voiceover languages ordered by code.
func Supported() []Language {
	out := make([]Language, 0, len(languages))
	for _, l := range languages {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
