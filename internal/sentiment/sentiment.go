// Package sentiment scores free text against a weighted word list.
//
// HOW SCORING WORKS:
// The text is split into lowercase tokens (see Tokenize). Every token found
// in the lexicon contributes its integer weight; unknown tokens contribute
// nothing. The sum is the score, and the label is derived from the score
// with fixed thresholds:
//
//	score >  1  → positive
//	score < -1  → negative
//	otherwise   → neutral   (the band [-1, 1])
//
// Scoring is pure: the same text and lexicon always give the same result,
// and an Analyzer can be shared across goroutines once built.
package sentiment

// Label is the coarse polarity bucket derived from a score.
type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

// Valid reports whether l is one of the three known labels.
func (l Label) Valid() bool {
	switch l {
	case Positive, Neutral, Negative:
		return true
	}
	return false
}

// LabelFor maps a score to its label.
func LabelFor(score int) Label {
	switch {
	case score > 1:
		return Positive
	case score < -1:
		return Negative
	default:
		return Neutral
	}
}

// Result is the outcome of scoring one text.
type Result struct {
	Score    int      `json:"score"`
	Label    Label    `json:"label"`
	Tokens   int      `json:"tokens"`
	Positive []string `json:"positive"` // matched words with weight > 0, in text order
	Negative []string `json:"negative"` // matched words with weight < 0, in text order
}

// Analyzer scores text with a fixed lexicon.
type Analyzer struct {
	lexicon Lexicon
}

// New returns an Analyzer over lex. A nil lexicon scores everything 0.
func New(lex Lexicon) *Analyzer {
	return &Analyzer{lexicon: lex}
}

// Default returns an Analyzer over the embedded word list.
func Default() *Analyzer {
	return New(DefaultLexicon())
}

// Analyze scores text. It accepts any string, including the empty string,
// and never fails.
func (a *Analyzer) Analyze(text string) Result {
	tokens := Tokenize(text)

	res := Result{
		Tokens:   len(tokens),
		Positive: []string{},
		Negative: []string{},
	}
	for _, tok := range tokens {
		w, ok := a.lexicon[tok]
		if !ok || w == 0 {
			continue
		}
		res.Score += w
		if w > 0 {
			res.Positive = append(res.Positive, tok)
		} else {
			res.Negative = append(res.Negative, tok)
		}
	}
	res.Label = LabelFor(res.Score)

	return res
}
