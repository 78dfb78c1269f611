package sentiment

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Lexicon maps a lowercase word to its integer weight.
type Lexicon map[string]int

//go:embed afinn.txt
var defaultLexiconData []byte

var (
	defaultOnce    sync.Once
	defaultLexicon Lexicon
)

// DefaultLexicon returns the embedded AFINN-style word list. The file is
// parsed once; callers must not modify the returned map.
func DefaultLexicon() Lexicon {
	defaultOnce.Do(func() {
		lex, err := ParseLexicon(bytes.NewReader(defaultLexiconData))
		if err != nil {
			panic(fmt.Sprintf("sentiment: embedded lexicon is malformed: %v", err))
		}
		defaultLexicon = lex
	})
	return defaultLexicon
}

// LoadLexicon reads a lexicon file from disk. See ParseLexicon for the format.
func LoadLexicon(path string) (Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sentiment: opening lexicon: %w", err)
	}
	defer f.Close()

	return ParseLexicon(f)
}

// ParseLexicon reads one "word<whitespace>weight" pair per line. Blank
// lines and lines starting with '#' are ignored. Words are lowercased, and a
// later line for the same word replaces the earlier weight.
func ParseLexicon(r io.Reader) (Lexicon, error) {
	lex := make(Lexicon)
	sc := bufio.NewScanner(r)

	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		// The weight is the last field; AFINN allows multi-word phrases before it.
		idx := strings.LastIndexAny(raw, " \t")
		if idx < 0 {
			return nil, fmt.Errorf("sentiment: line %d: expected word and weight", line)
		}
		word := strings.ToLower(strings.TrimSpace(raw[:idx]))
		weight, err := strconv.Atoi(strings.TrimSpace(raw[idx+1:]))
		if err != nil {
			return nil, fmt.Errorf("sentiment: line %d: invalid weight: %w", line, err)
		}
		lex[word] = weight
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("sentiment: reading lexicon: %w", err)
	}

	return lex, nil
}
