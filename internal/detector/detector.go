// Package detector guesses the language of a piece of text, limited to the
// languages the catalog offers.
package detector

import (
	"strings"
	"sync"

	lingua "github.com/pemistahl/lingua-go"
)

// codes maps catalog codes to lingua languages. Chinese is the only catalog
// entry whose code is not a bare ISO 639-1 code.
var codes = map[string]lingua.Language{
	"en": lingua.English, "es": lingua.Spanish, "fr": lingua.French,
	"de": lingua.German, "it": lingua.Italian, "pt": lingua.Portuguese,
	"hi": lingua.Hindi, "gu": lingua.Gujarati, "zh-CN": lingua.Chinese,
	"ja": lingua.Japanese, "ko": lingua.Korean, "ru": lingua.Russian,
	"ar": lingua.Arabic, "tr": lingua.Turkish, "nl": lingua.Dutch,
	"pl": lingua.Polish, "id": lingua.Indonesian, "vi": lingua.Vietnamese,
	"th": lingua.Thai, "bn": lingua.Bengali,
}

type Detector struct {
	once     sync.Once
	detector lingua.LanguageDetector
	byLang   map[lingua.Language]string
}

// New returns a detector whose language models are loaded on first use.
func New() *Detector {
	return &Detector{}
}

func (d *Detector) init() {
	d.once.Do(func() {
		langs := make([]lingua.Language, 0, len(codes))
		d.byLang = make(map[lingua.Language]string, len(codes))
		for code, lang := range codes {
			langs = append(langs, lang)
			d.byLang[lang] = code
		}
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(langs...).
			Build()
	})
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	d.init()
	return d.detector.DetectLanguageOf(text)
}

// DetectCode returns the catalog code of the detected language.
func (d *Detector) DetectCode(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	code, ok := d.byLang[lang]
	return code, ok
}

// Supported reports whether code has a language model.
func Supported(code string) bool {
	_, ok := codes[code]
	return ok
}
