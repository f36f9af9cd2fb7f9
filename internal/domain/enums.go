package domain

import "strings"

// PartOfSpeech is the grammatical category assigned by the annotator.
// Values follow the Universal Dependencies tag set.
type PartOfSpeech string

const (
	PartOfSpeechAdjective    PartOfSpeech = "ADJ"
	PartOfSpeechAdposition   PartOfSpeech = "ADP"
	PartOfSpeechAdverb       PartOfSpeech = "ADV"
	PartOfSpeechAuxiliary    PartOfSpeech = "AUX"
	PartOfSpeechConjunction  PartOfSpeech = "CCONJ"
	PartOfSpeechDeterminer   PartOfSpeech = "DET"
	PartOfSpeechInterjection PartOfSpeech = "INTJ"
	PartOfSpeechNoun         PartOfSpeech = "NOUN"
	PartOfSpeechNumeral      PartOfSpeech = "NUM"
	PartOfSpeechParticle     PartOfSpeech = "PART"
	PartOfSpeechPronoun      PartOfSpeech = "PRON"
	PartOfSpeechProperNoun   PartOfSpeech = "PROPN"
	PartOfSpeechPunctuation  PartOfSpeech = "PUNCT"
	PartOfSpeechSubordinator PartOfSpeech = "SCONJ"
	PartOfSpeechSymbol       PartOfSpeech = "SYM"
	PartOfSpeechVerb         PartOfSpeech = "VERB"
	PartOfSpeechOther        PartOfSpeech = "OTHER"
)

func (p PartOfSpeech) String() string { return string(p) }

func (p PartOfSpeech) IsValid() bool {
	switch p {
	case PartOfSpeechAdjective, PartOfSpeechAdposition, PartOfSpeechAdverb, PartOfSpeechAuxiliary,
		PartOfSpeechConjunction, PartOfSpeechDeterminer, PartOfSpeechInterjection, PartOfSpeechNoun,
		PartOfSpeechNumeral, PartOfSpeechParticle, PartOfSpeechPronoun, PartOfSpeechProperNoun,
		PartOfSpeechPunctuation, PartOfSpeechSubordinator, PartOfSpeechSymbol, PartOfSpeechVerb,
		PartOfSpeechOther:
		return true
	}
	return false
}

// IsVerbal reports whether regularity applies to the category.
func (p PartOfSpeech) IsVerbal() bool {
	return p == PartOfSpeechVerb || p == PartOfSpeechAuxiliary
}

// ParsePartOfSpeech maps an annotator tag onto the recognized set.
// Unknown or empty tags become PartOfSpeechOther; it never fails.
func ParsePartOfSpeech(raw string) PartOfSpeech {
	p := PartOfSpeech(strings.ToUpper(strings.TrimSpace(raw)))
	if p.IsValid() {
		return p
	}
	// "CONJ" is the pre-v2 UD name for coordinating conjunctions.
	if p == "CONJ" {
		return PartOfSpeechConjunction
	}
	return PartOfSpeechOther
}

// CandidateState is the lifecycle state of a pending candidate.
type CandidateState string

const (
	CandidateStateNew              CandidateState = "NEW"
	CandidateStateTranslating      CandidateState = "TRANSLATING"
	CandidateStateAwaitingDecision CandidateState = "AWAITING_DECISION"
	CandidateStateAccepted         CandidateState = "ACCEPTED"
	CandidateStateDiscarded        CandidateState = "DISCARDED"
)

func (s CandidateState) String() string { return string(s) }

func (s CandidateState) IsValid() bool {
	switch s {
	case CandidateStateNew, CandidateStateTranslating, CandidateStateAwaitingDecision,
		CandidateStateAccepted, CandidateStateDiscarded:
		return true
	}
	return false
}

// IsTerminal reports whether the candidate has left the pending store.
func (s CandidateState) IsTerminal() bool {
	return s == CandidateStateAccepted || s == CandidateStateDiscarded
}

// KeyLocation says which store, if any, holds a key.
type KeyLocation string

const (
	KeyLocationNone       KeyLocation = "none"
	KeyLocationPending    KeyLocation = "pending"
	KeyLocationVocabulary KeyLocation = "vocabulary"
)

func (l KeyLocation) String() string { return string(l) }

// AcceptOutcome is the non-error result of an accept call.
type AcceptOutcome string

const (
	OutcomeAccepted      AcceptOutcome = "ACCEPTED"
	OutcomeAlreadyExists AcceptOutcome = "ALREADY_EXISTS"
)

func (o AcceptOutcome) String() string { return string(o) }
