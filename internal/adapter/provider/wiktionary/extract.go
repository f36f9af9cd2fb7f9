package wiktionary

import (
	"regexp"
	"strings"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// posHeadings maps a POS to the Wiktionary subsection headings it matches.
var posHeadings = map[domain.PartOfSpeech][]string{
	domain.PartOfSpeechNoun:         {"Noun"},
	domain.PartOfSpeechProperNoun:   {"Proper noun"},
	domain.PartOfSpeechVerb:         {"Verb"},
	domain.PartOfSpeechAuxiliary:    {"Verb"},
	domain.PartOfSpeechAdjective:    {"Adjective"},
	domain.PartOfSpeechAdverb:       {"Adverb"},
	domain.PartOfSpeechPronoun:      {"Pronoun"},
	domain.PartOfSpeechAdposition:   {"Preposition", "Postposition"},
	domain.PartOfSpeechConjunction:  {"Conjunction"},
	domain.PartOfSpeechSubordinator: {"Conjunction"},
	domain.PartOfSpeechInterjection: {"Interjection"},
	domain.PartOfSpeechNumeral:      {"Numeral"},
	domain.PartOfSpeechDeterminer:   {"Determiner", "Article"},
	domain.PartOfSpeechParticle:     {"Particle"},
}

var (
	reEnglishLink = regexp.MustCompile(`\{\{l\|en\|([^|}]+)[^}]*\}\}`)
	reTemplate    = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	reWikiLink    = regexp.MustCompile(`\[\[(?:[^|\]]*\|)?([^\]]+)\]\]`)
	reLinkTarget  = regexp.MustCompile(`\[\[([^|\]:]+)(?:\|[^\]]*)?\]\]`)
	reParens      = regexp.MustCompile(`\([^)]*\)`)
	reGloss       = regexp.MustCompile(`^[\p{L}][\p{L}\s'-]*$`)
)

// extract returns the glosses of the German section, best first: definition
// lines under a heading for pos, then other definition lines, then plain
// link targets as a last resort.
func extract(content string, pos domain.PartOfSpeech) []string {
	section := germanSection(content)
	if section == "" {
		return nil
	}
	headings := posHeadings[pos]

	var preferred, other []string
	current := ""
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if h, ok := heading(line); ok {
			current = h
			continue
		}
		if !isDefinition(line) {
			continue
		}
		glosses := definitionGlosses(line)
		if matches(current, headings) {
			preferred = append(preferred, glosses...)
		} else {
			other = append(other, glosses...)
		}
	}

	out := dedup(append(preferred, other...))
	if len(out) > 0 {
		return out
	}
	return linkTargets(section)
}

// germanSection returns the body of the level-2 "German" section.
func germanSection(content string) string {
	var (
		b      strings.Builder
		inside bool
	)
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if level, name := headingLevel(trimmed); level == 2 {
			if inside {
				break
			}
			inside = name == "German"
			continue
		}
		if inside {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func heading(line string) (string, bool) {
	level, name := headingLevel(line)
	return name, level > 2
}

// headingLevel returns the level of a "== Name ==" line, or 0.
func headingLevel(line string) (int, string) {
	if !strings.HasPrefix(line, "==") || !strings.HasSuffix(line, "==") {
		return 0, ""
	}
	level := 0
	for level < len(line) && line[level] == '=' {
		level++
	}
	name := strings.Trim(line, "= ")
	if name == "" {
		return 0, ""
	}
	return level, name
}

// isDefinition matches "# gloss" but not sub-lines such as "#:" or "#*".
func isDefinition(line string) bool {
	if !strings.HasPrefix(line, "#") || len(line) < 2 {
		return false
	}
	switch line[1] {
	case '#', ':', '*':
		return false
	}
	return true
}

func matches(current string, headings []string) bool {
	for _, h := range headings {
		if strings.HasPrefix(current, h) {
			return true
		}
	}
	return false
}

func definitionGlosses(line string) []string {
	def := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	def = reEnglishLink.ReplaceAllString(def, "$1")
	for reTemplate.MatchString(def) {
		def = reTemplate.ReplaceAllString(def, "")
	}
	def = reWikiLink.ReplaceAllString(def, "$1")
	def = strings.ReplaceAll(def, "'''", "")
	def = strings.ReplaceAll(def, "''", "")
	def = reParens.ReplaceAllString(def, "")

	var out []string
	for _, part := range strings.FieldsFunc(def, func(r rune) bool { return r == ',' || r == ';' }) {
		part = strings.Join(strings.Fields(strings.TrimRight(strings.TrimSpace(part), ".:")), " ")
		if isGloss(part) {
			out = append(out, part)
		}
	}
	return out
}

func isGloss(s string) bool {
	return s != "" && len(s) <= 40 && len(strings.Fields(s)) <= 4 && reGloss.MatchString(s)
}

func linkTargets(section string) []string {
	var out []string
	for _, m := range reLinkTarget.FindAllStringSubmatch(section, -1) {
		target := strings.TrimSpace(m[1])
		if isGloss(target) && len(strings.Fields(target)) <= 2 {
			out = append(out, target)
		}
	}
	return dedup(out)
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}
