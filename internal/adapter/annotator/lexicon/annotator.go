package lexicon

import (
	"context"
	"log/slog"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// Annotator tokenizes German text and analyzes each word with a Lexicon.
// Words missing from the lexicon use their folded surface as lemma;
// capitalized ones inside a sentence are taken to be nouns.
type Annotator struct {
	lex Lexicon
	log *slog.Logger
}

func New(logger *slog.Logger, lex Lexicon) *Annotator {
	if lex == nil {
		lex = Default()
	}
	return &Annotator{
		lex: lex,
		log: logger.With("adapter", "lexicon"),
	}
}

// Annotate implements the harvest annotator contract.
func (a *Annotator) Annotate(ctx context.Context, text string) ([]domain.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lower := cases.Lower(language.German)
	pieces := tokenize(text)
	tokens := make([]domain.Token, 0, len(pieces))
	for _, p := range pieces {
		tokens = append(tokens, a.analyze(p, lower))
	}

	a.log.DebugContext(ctx, "text annotated", slog.Int("tokens", len(tokens)))
	return tokens, nil
}

func (a *Annotator) analyze(p piece, lower cases.Caser) domain.Token {
	switch p.kind {
	case kindNumber:
		return domain.Token{Surface: p.text, Lemma: p.text, POS: domain.PartOfSpeechNumeral}
	case kindPunct:
		return domain.Token{Surface: p.text, Lemma: p.text, POS: domain.PartOfSpeechPunctuation}
	case kindSymbol:
		return domain.Token{Surface: p.text, Lemma: p.text, POS: domain.PartOfSpeechSymbol}
	}

	tok := domain.Token{Surface: p.text, Meaningful: p.alpha}
	folded := lower.String(p.text)

	if e, ok := a.lex[folded]; ok {
		// Capitalized mid-sentence but listed only as a function word:
		// "Sein" in "das Sein" is a noun.
		if capitalized(p.text) && !p.sentenceStart && e.POS != domain.PartOfSpeechNoun && e.POS != domain.PartOfSpeechProperNoun {
			tok.Lemma = folded
			tok.POS = domain.PartOfSpeechNoun
			return tok
		}
		tok.Lemma = e.Lemma
		tok.POS = e.POS
		tok.Gender = e.Gender
		return tok
	}

	tok.Lemma = folded
	if capitalized(p.text) && !p.sentenceStart {
		tok.POS = domain.PartOfSpeechNoun
	} else {
		tok.POS = domain.PartOfSpeechOther
	}
	return tok
}

func capitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// ---------------------------------------------------------------------------
// Tokenizer
// ---------------------------------------------------------------------------

type pieceKind int

const (
	kindWord pieceKind = iota
	kindNumber
	kindPunct
	kindSymbol
)

type piece struct {
	text          string
	kind          pieceKind
	alpha         bool
	sentenceStart bool
}

// tokenize splits text into words, numbers and single-rune punctuation.
// Hyphens and apostrophes stay inside a word when letters follow them;
// such words are not alphabetic.
func tokenize(text string) []piece {
	runes := []rune(text)
	var out []piece
	sentenceStart := true

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case unicode.IsLetter(r):
			start, alpha := i, true
			i++
			for i < len(runes) {
				if unicode.IsLetter(runes[i]) {
					i++
					continue
				}
				if (runes[i] == '-' || runes[i] == '\'' || runes[i] == '’') && i+1 < len(runes) && unicode.IsLetter(runes[i+1]) {
					alpha = false
					i++
					continue
				}
				break
			}
			out = append(out, piece{text: string(runes[start:i]), kind: kindWord, alpha: alpha, sentenceStart: sentenceStart})
			sentenceStart = false

		case unicode.IsDigit(r):
			start := i
			i++
			for i < len(runes) {
				if unicode.IsDigit(runes[i]) {
					i++
					continue
				}
				if (runes[i] == '.' || runes[i] == ',') && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
					i++
					continue
				}
				break
			}
			out = append(out, piece{text: string(runes[start:i]), kind: kindNumber})
			sentenceStart = false

		default:
			kind := kindSymbol
			if unicode.IsPunct(r) {
				kind = kindPunct
			}
			out = append(out, piece{text: string(r), kind: kind})
			if r == '.' || r == '!' || r == '?' {
				sentenceStart = true
			}
			i++
		}
	}
	return out
}
