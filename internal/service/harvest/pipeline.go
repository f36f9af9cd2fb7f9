package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/internal/service/translation"
)

// job is one key to fetch. token is set for keys that were in neither store
// when the text was filtered; the candidate is only created when its fetch
// is dispatched.
type job struct {
	key   domain.Key
	token *domain.Token
}

type beginOutcome int

const (
	outcomeSkipped beginOutcome = iota
	outcomeStarted
	outcomeKnown
)

// dispatch remembers how a key entered TRANSLATING so it can be put back.
type dispatch struct {
	inserted bool
	prior    domain.CandidateState
}

// tracker is written by the dispatching goroutine and read by the
// orchestrator.
type tracker struct {
	mu         sync.Mutex
	handled    map[domain.Key]bool
	dispatched map[domain.Key]dispatch
	inserted   []domain.Key
	known      []domain.Key
	refreshed  []domain.Key
	err        error
}

func newTracker() *tracker {
	return &tracker{
		handled:    make(map[domain.Key]bool),
		dispatched: make(map[domain.Key]dispatch),
	}
}

func (t *tracker) record(key domain.Key, outcome beginOutcome, d dispatch, refreshed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handled[key] = true
	if refreshed {
		t.refreshed = append(t.refreshed, key)
	}
	switch outcome {
	case outcomeStarted:
		t.dispatched[key] = d
		if d.inserted {
			t.inserted = append(t.inserted, key)
		}
	case outcomeKnown:
		t.known = append(t.known, key)
	}
}

func (t *tracker) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
	}
}

// run dispatches jobs through the fetcher and stores results in completion
// order. On connectivity loss the batch's unresolved work is undone; on
// cancellation or store failure unresolved candidates are reset to NEW.
func (s *Service) run(ctx context.Context, sum *domain.BatchSummary, jobs []job, progress ProgressFunc) error {
	keys := make([]domain.Key, len(jobs))
	tokens := make(map[domain.Key]*domain.Token, len(jobs))
	for i, j := range jobs {
		keys[i] = j.key
		tokens[j.key] = j.token
	}

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tr := newTracker()
	results := s.fetcher.FetchAll(batchCtx, keys, s.begin(sum.BatchID, tokens, tr))

	// Completed fetches are stored even if the batch is being torn down.
	storeCtx := context.WithoutCancel(ctx)

	var (
		fatal       error
		networkDown bool
		unresolved  []domain.Key
		done        int
	)
	for r := range results {
		done++
		if progress != nil {
			progress(done, len(jobs))
		}

		switch {
		case fatal != nil:
			unresolved = append(unresolved, r.Key)

		case r.Err == nil:
			text := r.Translation
			if err := s.resolve(storeCtx, r.Key, &text); err != nil {
				fatal = err
				cancel()
				unresolved = append(unresolved, r.Key)
				continue
			}
			sum.Translated = append(sum.Translated, r.Key)

		case errors.Is(r.Err, domain.ErrNetworkUnavailable):
			networkDown = true
			unresolved = append(unresolved, r.Key)

		case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
			unresolved = append(unresolved, r.Key)

		default:
			// Timeout after retries, no translation, or an unexpected
			// source error: the user decides without a translation.
			if err := s.resolve(storeCtx, r.Key, nil); err != nil {
				fatal = err
				cancel()
				unresolved = append(unresolved, r.Key)
				continue
			}
			sum.Failures = append(sum.Failures, domain.FetchFailure{Key: r.Key, Kind: failureKind(r.Err)})
			s.log.WarnContext(ctx, "translation failed",
				slog.String("batch_id", sum.BatchID),
				slog.String("key", r.Key.String()),
				slog.String("error", r.Err.Error()),
			)
		}
	}

	if fatal == nil {
		fatal = tr.err
	}
	sum.Cancelled = ctx.Err() != nil
	sum.NetworkUnavailable = networkDown

	removed := s.settle(storeCtx, tr, unresolved, networkDown)

	for _, k := range tr.inserted {
		if !removed[k] {
			sum.New = append(sum.New, k)
		}
	}
	sum.Known = append(sum.Known, tr.known...)
	sum.Refreshed = append(sum.Refreshed, tr.refreshed...)
	for _, j := range jobs {
		if j.token != nil && (!tr.handled[j.key] || removed[j.key]) {
			sum.Skipped = append(sum.Skipped, j.key)
		}
	}

	return fatal
}

// begin moves a key to TRANSLATING right before its fetch. Keys that are
// new to both stores are inserted here, so an aborted batch never leaves
// undispatched words behind.
func (s *Service) begin(batchID string, tokens map[domain.Key]*domain.Token, tr *tracker) translation.BeginFunc {
	return func(ctx context.Context, key domain.Key) (bool, error) {
		unlock, err := s.locks.LockContext(ctx, key)
		if err != nil {
			return false, err
		}
		defer unlock()

		var (
			outcome   beginOutcome
			d         dispatch
			refreshed bool
		)
		err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
			outcome, d, refreshed = outcomeSkipped, dispatch{}, false

			if tok := tokens[key]; tok != nil {
				loc, err := s.keys.KeyExists(ctx, key)
				if err != nil {
					return err
				}
				switch loc {
				case domain.KeyLocationVocabulary:
					outcome = outcomeKnown
					return nil
				case domain.KeyLocationNone:
					c := s.newCandidate(*tok, domain.CandidateStateNew, batchID, s.now())
					err := s.candidates.Insert(ctx, c)
					if err == nil {
						if err := s.candidates.Transition(ctx, key, domain.CandidateStateNew, domain.CandidateStateTranslating); err != nil {
							return err
						}
						outcome, d = outcomeStarted, dispatch{inserted: true, prior: domain.CandidateStateNew}
						return nil
					}
					// Another process inserted the key after KeyExists ran;
					// treat it as a repeat.
					if !errors.Is(err, domain.ErrAlreadyExists) {
						return err
					}
				}
				// Another batch created it after this text was filtered.
				if err := s.candidates.Touch(ctx, key, tok.Surface, batchID, s.now()); err != nil {
					return err
				}
				refreshed = true
			}

			c, err := s.candidates.Get(ctx, key)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if !c.NeedsFetch() {
				return nil
			}
			err = s.candidates.Transition(ctx, key, c.State, domain.CandidateStateTranslating)
			if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			outcome, d = outcomeStarted, dispatch{prior: c.State}
			return nil
		})
		if err != nil {
			if ctx.Err() == nil {
				tr.fail(fmt.Errorf("begin fetch %s: %w", key, err))
			}
			return false, err
		}

		tr.record(key, outcome, d, refreshed)
		return outcome == outcomeStarted, nil
	}
}

func (s *Service) resolve(ctx context.Context, key domain.Key, translation *string) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	if err := s.candidates.Resolve(ctx, key, translation); err != nil {
		return fmt.Errorf("resolve %s: %w", key, err)
	}
	return nil
}

// settle puts unresolved candidates back. After connectivity loss, rows this
// batch inserted are removed and pre-existing ones return to their prior
// state; otherwise everything goes back to NEW for a later retry. It
// returns the keys it removed.
func (s *Service) settle(ctx context.Context, tr *tracker, unresolved []domain.Key, networkDown bool) map[domain.Key]bool {
	removed := make(map[domain.Key]bool)
	for _, key := range unresolved {
		d := tr.dispatched[key]

		unlock := s.locks.Lock(key)
		var err error
		switch {
		case networkDown && d.inserted:
			err = s.candidates.Delete(ctx, key)
			if err == nil {
				removed[key] = true
			}
		case networkDown && d.prior == domain.CandidateStateAwaitingDecision:
			err = s.candidates.Resolve(ctx, key, nil)
		default:
			err = s.candidates.Transition(ctx, key, domain.CandidateStateTranslating, domain.CandidateStateNew)
		}
		unlock()

		if err != nil {
			s.log.ErrorContext(ctx, "settle unresolved candidate",
				slog.String("key", key.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return removed
}

func failureKind(err error) string {
	if kind := domain.FetchErrorKind(err); kind != "" {
		return kind
	}
	return "error"
}
