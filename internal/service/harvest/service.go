// Package harvest runs the word-acquisition pipeline: annotate text, filter
// known words, fetch translations and keep the pending store current. It
// also exposes the pending store to the decision loop.
package harvest

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/internal/service/filter"
	"github.com/heartmarshall/vocab-harvester/internal/service/translation"
	"github.com/heartmarshall/vocab-harvester/pkg/keylock"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type annotator interface {
	Annotate(ctx context.Context, text string) ([]domain.Token, error)
}

type tokenFilter interface {
	Filter(ctx context.Context, tokens []domain.Token) (*filter.Result, error)
}

type fetcher interface {
	IsReachable(ctx context.Context) bool
	FetchAll(ctx context.Context, keys []domain.Key, begin translation.BeginFunc) <-chan translation.Result
}

type candidateRepo interface {
	Get(ctx context.Context, key domain.Key) (*domain.PendingCandidate, error)
	List(ctx context.Context, states ...domain.CandidateState) ([]domain.PendingCandidate, error)
	Insert(ctx context.Context, c *domain.PendingCandidate) error
	Touch(ctx context.Context, key domain.Key, surface, batchID string, seenAt time.Time) error
	Transition(ctx context.Context, key domain.Key, from, to domain.CandidateState) error
	Resolve(ctx context.Context, key domain.Key, translation *string) error
	SetTags(ctx context.Context, key domain.Key, tags []string) error
	SetTranslation(ctx context.Context, key domain.Key, translation *string) error
	Delete(ctx context.Context, key domain.Key) error
}

type keyspace interface {
	KeyExists(ctx context.Context, key domain.Key) (domain.KeyLocation, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type articleSource interface {
	Extract(ctx context.Context, url string) (string, error)
}

// ProgressFunc is told how many of the dispatched fetches have resolved.
type ProgressFunc func(done, total int)

// Service orchestrates intake. It keeps no state between calls; each batch
// is described entirely by the BatchSummary it returns.
type Service struct {
	annotator  annotator
	filter     tokenFilter
	fetcher    fetcher
	candidates candidateRepo
	keys       keyspace
	tx         txManager
	locks      *keylock.Locker[domain.Key]
	irregular  domain.IrregularVerbs
	articles   articleSource
	log        *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a new harvest service. locks must be shared with every
// other service that mutates pending candidates. articles may be nil, in
// which case URL intake is unavailable.
func NewService(
	log *slog.Logger,
	annotator annotator,
	filter tokenFilter,
	fetcher fetcher,
	candidates candidateRepo,
	keys keyspace,
	tx txManager,
	locks *keylock.Locker[domain.Key],
	irregular domain.IrregularVerbs,
	articles articleSource,
) *Service {
	if irregular == nil {
		irregular = domain.DefaultIrregularVerbs()
	}
	return &Service{
		annotator:  annotator,
		filter:     filter,
		fetcher:    fetcher,
		candidates: candidates,
		keys:       keys,
		tx:         tx,
		locks:      locks,
		irregular:  irregular,
		articles:   articles,
		log:        log.With("service", "harvest"),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return ulid.Make().String() },
	}
}

// newCandidate builds the pending record for a token seen for the first time.
func (s *Service) newCandidate(tok domain.Token, state domain.CandidateState, batchID string, now time.Time) *domain.PendingCandidate {
	key := tok.Key()
	c := &domain.PendingCandidate{
		Key:        key,
		Surface:    tok.Surface,
		IsRegular:  s.irregular.IsRegular(key),
		Tags:       []string{},
		State:      state,
		BatchID:    batchID,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if key.POS == domain.PartOfSpeechNoun {
		if a := tok.Gender.Article(); a != "" {
			c.Article = &a
		}
	}
	return c
}
