package domain

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"strings"
)

//go:embed irregular_verbs.txt
var defaultIrregularVerbs string

// IrregularVerbs is a set of normalized infinitives with irregular conjugation.
type IrregularVerbs map[string]struct{}

// DefaultIrregularVerbs returns the built-in list of German strong and mixed verbs.
func DefaultIrregularVerbs() IrregularVerbs {
	v, _ := ParseIrregularVerbs(strings.NewReader(defaultIrregularVerbs))
	return v
}

// ParseIrregularVerbs reads one infinitive per line. Blank lines and lines
// starting with '#' are ignored.
func ParseIrregularVerbs(r io.Reader) (IrregularVerbs, error) {
	set := make(IrregularVerbs)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[NormalizeLemma(line)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read irregular verbs: %w", err)
	}
	return set, nil
}

// IsRegular reports inflection regularity for key. Only VERB and AUX can be
// irregular; every other category counts as regular.
func (v IrregularVerbs) IsRegular(key Key) bool {
	if !key.POS.IsVerbal() {
		return true
	}
	_, irregular := v[key.Lemma]
	return !irregular
}

// AutoTags derives the POS tags attached on accept when enabled in config.
func AutoTags(key Key, isRegular bool) []string {
	switch {
	case key.POS == PartOfSpeechNoun:
		return []string{"noun"}
	case key.POS.IsVerbal() && !isRegular:
		return []string{"verb", "irregular"}
	case key.POS.IsVerbal():
		return []string{"verb"}
	}
	return nil
}
