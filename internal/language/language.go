// Package language classifies query text as Bengali, English or Banglish
// (Bengali written in Latin script) and normalizes raw user queries.
package language

import (
	"strings"
	"unicode"

	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
)

// Language is a detected language tag.
type Language string

const (
	Bengali  Language = "bn"
	English  Language = "en"
	Banglish Language = "banglish"
)

// All lists the supported tags in reporting order.
func All() []Language {
	return []Language{Bengali, English, Banglish}
}

// Valid reports whether l is one of the supported tags.
func (l Language) Valid() bool {
	switch l {
	case Bengali, English, Banglish:
		return true
	}
	return false
}

// DefaultBengaliThreshold is the share of Bengali letters above which text
// is classified as Bengali.
const DefaultBengaliThreshold = 0.3

// EmptyQueryMessage is returned to users who submit a blank query.
const EmptyQueryMessage = "প্রশ্ন খালি রাখা যাবে না"

// Analysis holds the counts a classification was based on.
type Analysis struct {
	Language     Language
	BengaliRatio float64
	MarkerHits   int
	EnglishHits  int
}

// Detector classifies text. It is safe for concurrent use.
type Detector struct {
	threshold float64
}

// NewDetector creates a detector using DefaultBengaliThreshold.
func NewDetector() *Detector {
	return &Detector{threshold: DefaultBengaliThreshold}
}

// NewDetectorWithThreshold creates a detector with a custom Bengali ratio.
func NewDetectorWithThreshold(threshold float64) *Detector {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultBengaliThreshold
	}
	return &Detector{threshold: threshold}
}

// Detect returns the language of text. Blank input yields an INVALID_QUERY error.
func (d *Detector) Detect(text string) (Language, error) {
	a, err := d.Analyze(text)
	if err != nil {
		return "", err
	}
	return a.Language, nil
}

// Analyze classifies text and reports the evidence used.
func (d *Detector) Analyze(text string) (Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return Analysis{}, apperrors.InvalidQueryError(EmptyQueryMessage)
	}

	var bengali, latin int
	for _, r := range text {
		switch {
		case isBengali(r):
			bengali++
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			latin++
		}
	}

	var a Analysis
	if total := bengali + latin; total > 0 {
		a.BengaliRatio = float64(bengali) / float64(total)
	}
	if a.BengaliRatio > d.threshold {
		a.Language = Bengali
		return a, nil
	}

	for _, word := range latinWords(text) {
		switch {
		case englishWords[word]:
			a.EnglishHits++
		case isBanglishToken(word):
			a.MarkerHits++
		}
	}

	// Ties go to English.
	if a.MarkerHits > a.EnglishHits {
		a.Language = Banglish
	} else {
		a.Language = English
	}
	return a, nil
}

func isBengali(r rune) bool {
	return r >= 0x0980 && r <= 0x09FF
}

// latinWords lowercases text and splits it into ASCII letter runs.
func latinWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r >= unicode.MaxASCII || !unicode.IsLetter(r)
	})
}

func isBanglishToken(word string) bool {
	if banglishMarkers[word] {
		return true
	}
	if len(word) < 5 {
		return false
	}
	for _, suffix := range banglishSuffixes {
		if strings.HasSuffix(word, suffix) {
			return true
		}
	}
	return false
}
