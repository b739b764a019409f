// Package language gates posts on detected language.
package language

import (
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Guess is one ranked language candidate.
type Guess struct {
	Code       string
	Confidence float64
}

// Detector ranks candidate languages for a text, most likely first.
type Detector interface {
	Detect(text string) []Guess
}

// Filter admits text whose top-ranked language is the target with confidence
// strictly above the threshold.
type Filter struct {
	detector  Detector
	target    string
	threshold float64
}

func NewFilter(d Detector, target string, threshold float64) *Filter {
	return &Filter{detector: d, target: strings.ToLower(target), threshold: threshold}
}

// Accept reports whether text is in the target language. A detector that
// cannot decide yields false.
func (f *Filter) Accept(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	guesses := f.detector.Detect(text)
	if len(guesses) == 0 {
		return false
	}
	top := guesses[0]
	return strings.EqualFold(top.Code, f.target) && top.Confidence > f.threshold
}

// LinguaDetector adapts a lingua detector. lingua is rule- and n-gram based, so
// results are stable across runs.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

// NewLinguaDetector builds a detector that ranks only the given ISO 639-1
// codes. Confidence values sum to one over those candidates.
func NewLinguaDetector(codes ...string) (*LinguaDetector, error) {
	seen := make(map[lingua.IsoCode639_1]bool)
	var isoCodes []lingua.IsoCode639_1
	for _, c := range codes {
		iso := lingua.GetIsoCode639_1FromValue(strings.TrimSpace(c))
		if iso == lingua.UnknownIsoCode639_1 {
			return nil, fmt.Errorf("unknown language code %q", c)
		}
		if !seen[iso] {
			seen[iso] = true
			isoCodes = append(isoCodes, iso)
		}
	}
	if len(isoCodes) < 2 {
		return nil, fmt.Errorf("need at least 2 candidate languages, got %d", len(isoCodes))
	}
	d := lingua.NewLanguageDetectorBuilder().
		FromIsoCodes639_1(isoCodes...).
		Build()
	return &LinguaDetector{detector: d}, nil
}

func (l *LinguaDetector) Detect(text string) []Guess {
	values := l.detector.ComputeLanguageConfidenceValues(text)
	guesses := make([]Guess, 0, len(values))
	for _, v := range values {
		if v.Language() == lingua.Unknown {
			continue
		}
		guesses = append(guesses, Guess{
			Code:       strings.ToLower(v.Language().IsoCode639_1().String()),
			Confidence: v.Value(),
		})
	}
	return guesses
}
