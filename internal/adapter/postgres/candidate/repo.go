// Package candidate implements the pending-candidate store using PostgreSQL.
// State changes are compare-and-set updates so that two writers can never
// both move a candidate out of the same state.
package candidate

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/vocab-harvester/internal/adapter/postgres"
	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// Repo provides pending-candidate persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new candidate repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const candidateColumns = `lemma, pos, surface, translation, article, is_regular, tags, state, batch_id, created_at, last_seen_at`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Get returns the candidate for key or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, key domain.Key) (*domain.PendingCandidate, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	row := q.QueryRow(ctx, `SELECT `+candidateColumns+` FROM pending_candidates WHERE lemma = $1 AND pos = $2`,
		key.Lemma, string(key.POS))
	c, err := scanCandidate(row)
	if err != nil {
		return nil, postgres.MapError(err, "candidate", key)
	}
	return c, nil
}

// GetForUpdate is Get with a row lock held until the surrounding
// transaction ends. Outside a transaction it behaves like Get.
func (r *Repo) GetForUpdate(ctx context.Context, key domain.Key) (*domain.PendingCandidate, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	row := q.QueryRow(ctx, `SELECT `+candidateColumns+` FROM pending_candidates WHERE lemma = $1 AND pos = $2 FOR UPDATE`,
		key.Lemma, string(key.POS))
	c, err := scanCandidate(row)
	if err != nil {
		return nil, postgres.MapError(err, "candidate", key)
	}
	return c, nil
}

// List returns candidates oldest first, ties broken by key. With states
// given, only candidates in one of them are returned.
func (r *Repo) List(ctx context.Context, states ...domain.CandidateState) ([]domain.PendingCandidate, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	query := `SELECT ` + candidateColumns + ` FROM pending_candidates`
	var args []any
	if len(states) > 0 {
		raw := make([]string, len(states))
		for i, s := range states {
			raw[i] = string(s)
		}
		query += ` WHERE state = ANY($1::text[])`
		args = append(args, raw)
	}
	query += ` ORDER BY created_at, lemma, pos`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	out := []domain.PendingCandidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return out, nil
}

// CountByState returns the number of candidates per state.
func (r *Repo) CountByState(ctx context.Context) (map[domain.CandidateState]int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, `SELECT state, count(*) FROM pending_candidates GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("count candidates: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.CandidateState]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[domain.CandidateState(state)] = n
	}
	return counts, rows.Err()
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Insert stores a new candidate. Returns domain.ErrAlreadyExists if the key
// is already pending. A conflict does not abort the surrounding transaction.
func (r *Repo) Insert(ctx context.Context, c *domain.PendingCandidate) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	tag, err := q.Exec(ctx, `
INSERT INTO pending_candidates (`+candidateColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (lemma, pos) DO NOTHING`,
		c.Key.Lemma, string(c.Key.POS), c.Surface, c.Translation, c.Article, c.IsRegular,
		tags, string(c.State), c.BatchID, c.CreatedAt, c.LastSeenAt,
	)
	if err != nil {
		return postgres.MapError(err, "candidate", c.Key)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("candidate %s: %w", c.Key, domain.ErrAlreadyExists)
	}
	return nil
}

// Touch records that key was seen again: surface, batch and last-seen time
// are refreshed, nothing else changes.
func (r *Repo) Touch(ctx context.Context, key domain.Key, surface, batchID string, seenAt time.Time) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	tag, err := q.Exec(ctx, `
UPDATE pending_candidates SET surface = $3, batch_id = $4, last_seen_at = $5
WHERE lemma = $1 AND pos = $2`,
		key.Lemma, string(key.POS), surface, batchID, seenAt)
	if err != nil {
		return postgres.MapError(err, "candidate", key)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("candidate %s: %w", key, domain.ErrNotFound)
	}
	return nil
}

// Transition moves key from one state to another. It fails with
// domain.ErrConflict if the candidate is not in from.
func (r *Repo) Transition(ctx context.Context, key domain.Key, from, to domain.CandidateState) error {
	if err := domain.CheckTransition(from, to); err != nil {
		return err
	}
	q := postgres.QuerierFromCtx(ctx, r.pool)
	tag, err := q.Exec(ctx, `
UPDATE pending_candidates SET state = $4
WHERE lemma = $1 AND pos = $2 AND state = $3`,
		key.Lemma, string(key.POS), string(from), string(to))
	if err != nil {
		return postgres.MapError(err, "candidate", key)
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, key, from)
	}
	return nil
}

// Resolve stores the fetch result and moves the candidate from TRANSLATING
// to AWAITING_DECISION. A nil translation records a failed fetch.
func (r *Repo) Resolve(ctx context.Context, key domain.Key, translation *string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	tag, err := q.Exec(ctx, `
UPDATE pending_candidates SET state = $3, translation = $4
WHERE lemma = $1 AND pos = $2 AND state = $5`,
		key.Lemma, string(key.POS), string(domain.CandidateStateAwaitingDecision), translation,
		string(domain.CandidateStateTranslating))
	if err != nil {
		return postgres.MapError(err, "candidate", key)
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, key, domain.CandidateStateTranslating)
	}
	return nil
}

// SetTags replaces the proposed tags.
func (r *Repo) SetTags(ctx context.Context, key domain.Key, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	return r.update(ctx, key, `tags = $3`, tags)
}

// SetTranslation replaces the translation text; nil clears it.
func (r *Repo) SetTranslation(ctx context.Context, key domain.Key, translation *string) error {
	return r.update(ctx, key, `translation = $3`, translation)
}

// Delete removes the candidate. Returns domain.ErrNotFound if it is absent.
func (r *Repo) Delete(ctx context.Context, key domain.Key) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	tag, err := q.Exec(ctx, `DELETE FROM pending_candidates WHERE lemma = $1 AND pos = $2`,
		key.Lemma, string(key.POS))
	if err != nil {
		return postgres.MapError(err, "candidate", key)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("candidate %s: %w", key, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *Repo) update(ctx context.Context, key domain.Key, set string, value any) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	tag, err := q.Exec(ctx, `UPDATE pending_candidates SET `+set+` WHERE lemma = $1 AND pos = $2`,
		key.Lemma, string(key.POS), value)
	if err != nil {
		return postgres.MapError(err, "candidate", key)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("candidate %s: %w", key, domain.ErrNotFound)
	}
	return nil
}

func (r *Repo) missOrConflict(ctx context.Context, key domain.Key, expected domain.CandidateState) error {
	c, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	return fmt.Errorf("candidate %s in state %s, expected %s: %w", key, c.State, expected, domain.ErrConflict)
}

func scanCandidate(row pgx.Row) (*domain.PendingCandidate, error) {
	var (
		c          domain.PendingCandidate
		lemma, pos string
		state      string
	)
	err := row.Scan(&lemma, &pos, &c.Surface, &c.Translation, &c.Article, &c.IsRegular,
		&c.Tags, &state, &c.BatchID, &c.CreatedAt, &c.LastSeenAt)
	if err != nil {
		return nil, err
	}
	c.Key = domain.Key{Lemma: lemma, POS: domain.PartOfSpeech(pos)}
	c.State = domain.CandidateState(state)
	c.CreatedAt = c.CreatedAt.UTC()
	c.LastSeenAt = c.LastSeenAt.UTC()
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c, nil
}
