package meeting

import (
	"fmt"
	"strings"
)

// Language selects which code templates the backend generates.
type Language string

const (
	LanguageR    Language = "R"
	LanguageSAS  Language = "SAS"
	LanguageBoth Language = "BOTH"
)

// ParseLanguage normalizes a generate-language value. Empty input means R, the
// backend default.
func ParseLanguage(value string) (Language, error) {
	switch Language(strings.ToUpper(strings.TrimSpace(value))) {
	case "", LanguageR:
		return LanguageR, nil
	case LanguageSAS:
		return LanguageSAS, nil
	case LanguageBoth:
		return LanguageBoth, nil
	}
	return "", fmt.Errorf("unsupported language %q (expected R, SAS, or BOTH)", value)
}

// ParseContentLanguage normalizes the language of a single template. BOTH is a
// generate-time option only; content is always stored per language.
func ParseContentLanguage(value string) (Language, error) {
	lang, err := ParseLanguage(value)
	if err != nil {
		return "", err
	}
	if lang == LanguageBoth {
		return "", fmt.Errorf("content language must be R or SAS, not %s", lang)
	}
	return lang, nil
}

// DefaultContentLanguage picks the template language to open for a meeting.
// Meetings generated with BOTH default to R.
func DefaultContentLanguage(m Meeting) Language {
	if Language(strings.ToUpper(m.DeliverablesLanguage)) == LanguageSAS {
		return LanguageSAS
	}
	return LanguageR
}
