package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/pkg/ctxutil"
)

// ProcessText runs one batch over text and reports what happened to every
// distinct word. Connectivity loss and cancellation are reported in the
// summary; only annotator and store failures are returned as errors.
func (s *Service) ProcessText(ctx context.Context, in ProcessInput) (*domain.BatchSummary, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	sum := s.newSummary()
	ctx = ctxutil.WithBatchID(ctx, sum.BatchID)

	text := domain.CleanText(in.Text)
	if text == "" {
		return s.finish(ctx, sum), nil
	}

	tokens, err := s.annotator.Annotate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}
	res, err := s.filter.Filter(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("filter tokens: %w", err)
	}
	sum.TokensSeen = res.TokensSeen
	sum.Known = append(sum.Known, res.Known...)

	jobs := make([]job, 0, len(res.New)+len(res.Repeats))
	for i := range res.New {
		jobs = append(jobs, job{key: res.New[i].Key(), token: &res.New[i]})
	}
	for _, tok := range res.Repeats {
		c, err := s.refresh(ctx, tok, sum.BatchID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		sum.Refreshed = append(sum.Refreshed, c.Key)
		if c.NeedsFetch() {
			jobs = append(jobs, job{key: c.Key})
		}
	}

	if err := s.fetchBatch(ctx, sum, jobs, in.Progress); err != nil {
		return nil, err
	}
	return s.finish(ctx, sum), nil
}

// ProcessURL extracts the main article text of a web page and processes it.
func (s *Service) ProcessURL(ctx context.Context, in ProcessURLInput) (*domain.BatchSummary, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if s.articles == nil {
		return nil, domain.NewValidationError("url", "url intake is not configured")
	}
	text, err := s.articles.Extract(ctx, in.URL)
	if err != nil {
		return nil, fmt.Errorf("extract article: %w", err)
	}
	return s.ProcessText(ctx, ProcessInput{Text: text, Progress: in.Progress})
}

// RetryPending fetches again for every candidate left without a
// translation: NEW ones from a cancelled batch and AWAITING_DECISION ones
// whose fetch failed.
func (s *Service) RetryPending(ctx context.Context, progress ProgressFunc) (*domain.BatchSummary, error) {
	sum := s.newSummary()
	ctx = ctxutil.WithBatchID(ctx, sum.BatchID)

	list, err := s.candidates.List(ctx, domain.CandidateStateNew, domain.CandidateStateAwaitingDecision)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	jobs := make([]job, 0, len(list))
	for i := range list {
		if list[i].NeedsFetch() {
			jobs = append(jobs, job{key: list[i].Key})
		}
	}

	if err := s.fetchBatch(ctx, sum, jobs, progress); err != nil {
		return nil, err
	}
	return s.finish(ctx, sum), nil
}

// fetchBatch probes the source once, then runs the fetch pipeline.
func (s *Service) fetchBatch(ctx context.Context, sum *domain.BatchSummary, jobs []job, progress ProgressFunc) error {
	if len(jobs) == 0 {
		return nil
	}
	if !s.fetcher.IsReachable(ctx) {
		sum.NetworkUnavailable = true
		for _, j := range jobs {
			if j.token != nil {
				sum.Skipped = append(sum.Skipped, j.key)
			}
		}
		return nil
	}
	return s.run(ctx, sum, jobs, progress)
}

// refresh records that a pending key was seen again. It returns nil when
// the candidate was decided in the meantime.
func (s *Service) refresh(ctx context.Context, tok domain.Token, batchID string) (*domain.PendingCandidate, error) {
	key := tok.Key()
	unlock, err := s.locks.LockContext(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.candidates.Touch(ctx, key, tok.Surface, batchID, s.now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("touch candidate: %w", err)
	}
	c, err := s.candidates.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

func (s *Service) newSummary() *domain.BatchSummary {
	return &domain.BatchSummary{
		BatchID:    s.newID(),
		StartedAt:  s.now(),
		New:        []domain.Key{},
		Known:      []domain.Key{},
		Refreshed:  []domain.Key{},
		Translated: []domain.Key{},
		Failures:   []domain.FetchFailure{},
		Skipped:    []domain.Key{},
	}
}

func (s *Service) finish(ctx context.Context, sum *domain.BatchSummary) *domain.BatchSummary {
	sum.FinishedAt = s.now()
	s.log.InfoContext(ctx, "batch processed",
		slog.String("batch_id", sum.BatchID),
		slog.Int("tokens", sum.TokensSeen),
		slog.Int("new", len(sum.New)),
		slog.Int("known", len(sum.Known)),
		slog.Int("refreshed", len(sum.Refreshed)),
		slog.Int("translated", len(sum.Translated)),
		slog.Int("failed", sum.FetchFailureCount()),
		slog.Int("skipped", len(sum.Skipped)),
		slog.Bool("network_unavailable", sum.NetworkUnavailable),
		slog.Bool("cancelled", sum.Cancelled),
		slog.Duration("duration", sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond)),
	)
	return sum
}
