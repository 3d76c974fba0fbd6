package models

import "strings"

// Language is a practice language offered to learners.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

var languages = []Language{
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "fr", Name: "French", NativeName: "Français"},
	{Code: "es", Name: "Spanish", NativeName: "Español"},
	{Code: "de", Name: "German", NativeName: "Deutsch"},
	{Code: "it", Name: "Italian", NativeName: "Italiano"},
	{Code: "pt", Name: "Portuguese", NativeName: "Português"},
	{Code: "ja", Name: "Japanese", NativeName: "日本語"},
	{Code: "zh", Name: "Chinese", NativeName: "中文"},
	{Code: "ko", Name: "Korean", NativeName: "한국어"},
	{Code: "ru", Name: "Russian", NativeName: "Русский"},
	{Code: "ar", Name: "Arabic", NativeName: "العربية"},
}

var languageNames = func() map[string]string {
	names := make(map[string]string, len(languages))
	for _, l := range languages {
		names[l.Code] = l.Name
	}
	return names
}()

// Languages returns a copy of the language catalog in display order.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// LanguageName returns the display name of a language code.
func LanguageName(code string) (string, bool) {
	name, ok := languageNames[strings.ToLower(strings.TrimSpace(code))]
	return name, ok
}
