// Package lexicon is an offline German annotator backed by a surface-form
// lexicon. It needs no model or network and is meant for small setups and
// tests; the spaCy annotator gives far better lemmas.
package lexicon

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

//go:embed lexicon.tsv
var defaultLexicon string

// Entry is the analysis of one surface form.
type Entry struct {
	Lemma  string
	POS    domain.PartOfSpeech
	Gender domain.Gender
}

// Lexicon maps lower-cased surface forms to their analysis.
type Lexicon map[string]Entry

// Default returns the embedded lexicon of common German forms.
func Default() Lexicon {
	lex, err := Parse(strings.NewReader(defaultLexicon))
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	return lex
}

// Load reads a lexicon file and merges it over the embedded one.
func Load(path string) (Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()

	extra, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	lex := Default()
	for k, v := range extra {
		lex[k] = v
	}
	return lex, nil
}

// Parse reads tab-separated "surface lemma pos [gender]" lines. Blank lines
// and lines starting with '#' are skipped.
func Parse(r io.Reader) (Lexicon, error) {
	lex := make(Lexicon)
	lower := cases.Lower(language.German)

	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: want at least 3 tab-separated fields, got %d", n, len(fields))
		}
		surface := lower.String(strings.TrimSpace(fields[0]))
		lemma := strings.TrimSpace(fields[1])
		if surface == "" || lemma == "" {
			return nil, fmt.Errorf("line %d: empty surface or lemma", n)
		}
		e := Entry{Lemma: lemma, POS: domain.ParsePartOfSpeech(fields[2])}
		if len(fields) > 3 {
			e.Gender = domain.ParseGender(strings.TrimSpace(fields[3]))
		}
		lex[surface] = e
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lex, nil
}
