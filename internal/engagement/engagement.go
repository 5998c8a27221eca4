// Package engagement gives a rough likes/shares estimate for a caption
// from its sentiment and length. The numbers are a heuristic for the
// dashboard, not a prediction.
package engagement

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Estimate is the result for one caption.
type Estimate struct {
	Likes    int     `json:"likes"`
	Shares   int     `json:"shares"`
	Polarity float64 `json:"polarity"`
}

// Estimator scores captions against a sentiment lexicon.
type Estimator struct {
	lexicon      map[string]float64
	intensifiers map[string]float64
	negations    map[string]bool
}

// New returns an Estimator with the built-in English lexicon.
func New() *Estimator {
	return &Estimator{
		lexicon:      defaultLexicon,
		intensifiers: defaultIntensifiers,
		negations:    defaultNegations,
	}
}

// Estimate computes likes and shares for caption:
//
//	likes  = int(100 + p*100 + n/2)
//	shares = int(20  + p*40  + n/10)
//
// where p is the polarity in [-1, 1] and n the caption length in characters.
func (e *Estimator) Estimate(caption string) Estimate {
	p := e.Polarity(caption)
	n := float64(utf8.RuneCountInString(caption))

	return Estimate{
		Likes:    int(100 + p*100 + n/2),
		Shares:   int(20 + p*40 + n/10),
		Polarity: p,
	}
}

// Polarity returns the mean polarity of the sentiment words in text, in
// [-1, 1]. A preceding intensifier scales a word; a preceding negation
// flips it at half strength. Text without sentiment words scores 0.
func (e *Estimator) Polarity(text string) float64 {
	words := tokenize(text)

	var (
		sum     float64
		count   int
		scale   = 1.0
		negated bool
	)
	for _, w := range words {
		if e.negations[w] {
			negated = true
			continue
		}
		if m, ok := e.intensifiers[w]; ok {
			scale *= m
			continue
		}

		if v, ok := e.lexicon[w]; ok {
			v *= scale
			if negated {
				v *= -0.5
			}
			sum += clamp(v)
			count++
		}
		scale = 1.0
		negated = false
	}

	if count == 0 {
		return 0
	}
	return clamp(sum / float64(count))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
