package domain

import (
	"fmt"
	"time"
)

// PendingCandidate is a word awaiting the user's accept/discard decision.
type PendingCandidate struct {
	Key         Key
	Surface     string
	Translation *string
	Article     *string
	IsRegular   bool
	Tags        []string
	State       CandidateState
	BatchID     string
	CreatedAt   time.Time
	LastSeenAt  time.Time
}

// candidateTransitions lists the legal state moves. TRANSLATING -> NEW is
// taken when a fetch is cancelled; AWAITING_DECISION -> TRANSLATING when a
// candidate with no translation is fetched again.
var candidateTransitions = map[CandidateState][]CandidateState{
	CandidateStateNew:              {CandidateStateTranslating, CandidateStateDiscarded},
	CandidateStateTranslating:      {CandidateStateAwaitingDecision, CandidateStateNew},
	CandidateStateAwaitingDecision: {CandidateStateTranslating, CandidateStateAccepted, CandidateStateDiscarded},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s CandidateState) CanTransitionTo(next CandidateState) bool {
	for _, allowed := range candidateTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrConflict for an illegal move.
func CheckTransition(from, to CandidateState) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("candidate state %s -> %s: %w", from, to, ErrConflict)
	}
	return nil
}

// NeedsFetch reports whether a translation should be requested for c.
func (c *PendingCandidate) NeedsFetch() bool {
	switch c.State {
	case CandidateStateNew:
		return true
	case CandidateStateAwaitingDecision:
		return c.Translation == nil
	}
	return false
}

// CheckAccept returns ErrNotReady unless the candidate awaits a decision.
func (c *PendingCandidate) CheckAccept() error {
	if c.State != CandidateStateAwaitingDecision {
		return fmt.Errorf("accept %s in state %s: %w", c.Key, c.State, ErrNotReady)
	}
	return nil
}

// CheckDiscard returns ErrNotReady while a fetch is in flight.
func (c *PendingCandidate) CheckDiscard() error {
	if c.State == CandidateStateTranslating {
		return fmt.Errorf("discard %s in state %s: %w", c.Key, c.State, ErrNotReady)
	}
	return nil
}

// CheckEdit guards user edits of tags or translation.
func (c *PendingCandidate) CheckEdit() error {
	if c.State == CandidateStateTranslating {
		return fmt.Errorf("edit %s in state %s: %w", c.Key, c.State, ErrNotReady)
	}
	return nil
}

// FetchFailure records a candidate that ended its fetch without a translation.
type FetchFailure struct {
	Key  Key
	Kind string
}

// BatchSummary is the result of one ProcessText call. The service keeps no
// state between batches; everything the caller needs is here.
type BatchSummary struct {
	BatchID    string
	StartedAt  time.Time
	FinishedAt time.Time

	TokensSeen int
	New        []Key
	Known      []Key
	Refreshed  []Key
	Translated []Key
	Failures   []FetchFailure
	// Skipped holds keys that were never dispatched because the batch was
	// aborted. They are not in the pending store.
	Skipped []Key

	NetworkUnavailable bool
	Cancelled          bool
}

// FetchFailureCount returns the number of candidates left without translation.
func (s *BatchSummary) FetchFailureCount() int { return len(s.Failures) }
