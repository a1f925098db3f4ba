// Package catalog holds the static language table offered by the UI and the
// canned demonstration inputs.
package catalog

// AutoDetect is the pseudo language code that lets the translation service
// infer the source language.
const AutoDetect = "auto"

// DefaultSource and DefaultTarget preselect the UI dropdowns.
const (
	DefaultSource = AutoDetect
	DefaultTarget = "hi"
)

type LanguageEntry struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type Example struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

var languages = []LanguageEntry{
	{"Auto Detect", AutoDetect}, {"English", "en"}, {"Spanish", "es"},
	{"French", "fr"}, {"German", "de"}, {"Italian", "it"},
	{"Portuguese", "pt"}, {"Hindi", "hi"}, {"Gujarati", "gu"},
	{"Chinese", "zh-CN"}, {"Japanese", "ja"}, {"Korean", "ko"},
	{"Russian", "ru"}, {"Arabic", "ar"}, {"Turkish", "tr"},
	{"Dutch", "nl"}, {"Polish", "pl"}, {"Indonesian", "id"},
	{"Vietnamese", "vi"}, {"Thai", "th"}, {"Bengali", "bn"},
}

var examples = []Example{
	{"Hello, how are you?", AutoDetect, "hi"},
	{"Thank you for your help", "en", "es"},
	{"Where is the hospital?", "en", "gu"},
}

// targets and index are derived once from languages and never mutated.
var (
	targets = func() []LanguageEntry {
		out := make([]LanguageEntry, 0, len(languages)-1)
		for _, l := range languages {
			if l.Code != AutoDetect {
				out = append(out, l)
			}
		}
		return out
	}()

	index = func() map[string]LanguageEntry {
		m := make(map[string]LanguageEntry, len(languages))
		for _, l := range languages {
			m[l.Code] = l
		}
		return m
	}()
)

// All returns the source-language view, including Auto Detect.
func All() []LanguageEntry {
	return append([]LanguageEntry(nil), languages...)
}

// Targets returns the target-language view, which never includes Auto Detect.
func Targets() []LanguageEntry {
	return append([]LanguageEntry(nil), targets...)
}

func Lookup(code string) (LanguageEntry, bool) {
	l, ok := index[code]
	return l, ok
}

// Name returns the display name for code, or code itself when unknown.
func Name(code string) string {
	if l, ok := Lookup(code); ok {
		return l.Name
	}
	return code
}

func IsSource(code string) bool {
	_, ok := Lookup(code)
	return ok
}

func IsTarget(code string) bool {
	return code != AutoDetect && IsSource(code)
}

func Examples() []Example {
	return append([]Example(nil), examples...)
}

// ExampleAt returns the i-th canned example.
func ExampleAt(i int) (Example, bool) {
	if i < 0 || i >= len(examples) {
		return Example{}, false
	}
	return examples[i], true
}
