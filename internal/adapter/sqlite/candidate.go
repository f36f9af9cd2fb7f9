package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// CandidateRepo is the pending-candidate store. State changes are
// compare-and-set updates, as in the PostgreSQL adapter.
type CandidateRepo struct {
	db *sql.DB
}

// NewCandidateRepo creates a new candidate repository.
func NewCandidateRepo(db *sql.DB) *CandidateRepo {
	return &CandidateRepo{db: db}
}

const candidateColumns = `lemma, pos, surface, translation, article, is_regular, tags, state, batch_id, created_at, last_seen_at`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Get returns the candidate for key or domain.ErrNotFound.
func (r *CandidateRepo) Get(ctx context.Context, key domain.Key) (*domain.PendingCandidate, error) {
	row := querierFromCtx(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM pending_candidates WHERE lemma = ? AND pos = ?`,
		key.Lemma, string(key.POS))
	c, err := scanCandidate(row)
	if err != nil {
		return nil, mapError(err, "candidate", key)
	}
	return c, nil
}

// GetForUpdate is Get. SQLite locks the whole database for the writing
// transaction, so there is no row lock to take.
func (r *CandidateRepo) GetForUpdate(ctx context.Context, key domain.Key) (*domain.PendingCandidate, error) {
	return r.Get(ctx, key)
}

// List returns candidates oldest first, ties broken by key.
func (r *CandidateRepo) List(ctx context.Context, states ...domain.CandidateState) ([]domain.PendingCandidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM pending_candidates`
	args := make([]any, 0, len(states))
	if len(states) > 0 {
		query += ` WHERE state IN (?` + strings.Repeat(`, ?`, len(states)-1) + `)`
		for _, s := range states {
			args = append(args, string(s))
		}
	}
	query += ` ORDER BY created_at, lemma, pos`

	rows, err := querierFromCtx(ctx, r.db).QueryContext(ctx, query, args...)
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
	return out, rows.Err()
}

// CountByState returns the number of candidates per state.
func (r *CandidateRepo) CountByState(ctx context.Context) (map[domain.CandidateState]int, error) {
	rows, err := querierFromCtx(ctx, r.db).QueryContext(ctx,
		`SELECT state, count(*) FROM pending_candidates GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("count candidates: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.CandidateState]int)
	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[domain.CandidateState(state)] = n
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Insert stores a new candidate. Returns domain.ErrAlreadyExists if the key
// is already pending.
func (r *CandidateRepo) Insert(ctx context.Context, c *domain.PendingCandidate) error {
	tags, err := encodeTags(c.Tags)
	if err != nil {
		return err
	}
	res, err := querierFromCtx(ctx, r.db).ExecContext(ctx, `
INSERT INTO pending_candidates (`+candidateColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (lemma, pos) DO NOTHING`,
		c.Key.Lemma, string(c.Key.POS), c.Surface, c.Translation, c.Article, c.IsRegular,
		tags, string(c.State), c.BatchID, formatTime(c.CreatedAt), formatTime(c.LastSeenAt),
	)
	if err != nil {
		return mapError(err, "candidate", c.Key)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("candidate %s: rows affected: %w", c.Key, err)
	}
	if n == 0 {
		return fmt.Errorf("candidate %s: %w", c.Key, domain.ErrAlreadyExists)
	}
	return nil
}

// Touch refreshes surface, batch and last-seen time of a repeated key.
func (r *CandidateRepo) Touch(ctx context.Context, key domain.Key, surface, batchID string, seenAt time.Time) error {
	res, err := querierFromCtx(ctx, r.db).ExecContext(ctx, `
UPDATE pending_candidates SET surface = ?, batch_id = ?, last_seen_at = ?
WHERE lemma = ? AND pos = ?`,
		surface, batchID, formatTime(seenAt), key.Lemma, string(key.POS))
	return affectedOne(res, err, key)
}

// Transition moves key from one state to another, failing with
// domain.ErrConflict if the candidate is not in from.
func (r *CandidateRepo) Transition(ctx context.Context, key domain.Key, from, to domain.CandidateState) error {
	if err := domain.CheckTransition(from, to); err != nil {
		return err
	}
	res, err := querierFromCtx(ctx, r.db).ExecContext(ctx, `
UPDATE pending_candidates SET state = ?
WHERE lemma = ? AND pos = ? AND state = ?`,
		string(to), key.Lemma, string(key.POS), string(from))
	return r.casResult(ctx, res, err, key, from)
}

// Resolve stores the fetch result and moves TRANSLATING to AWAITING_DECISION.
func (r *CandidateRepo) Resolve(ctx context.Context, key domain.Key, translation *string) error {
	res, err := querierFromCtx(ctx, r.db).ExecContext(ctx, `
UPDATE pending_candidates SET state = ?, translation = ?
WHERE lemma = ? AND pos = ? AND state = ?`,
		string(domain.CandidateStateAwaitingDecision), translation,
		key.Lemma, string(key.POS), string(domain.CandidateStateTranslating))
	return r.casResult(ctx, res, err, key, domain.CandidateStateTranslating)
}

// SetTags replaces the proposed tags.
func (r *CandidateRepo) SetTags(ctx context.Context, key domain.Key, tags []string) error {
	encoded, err := encodeTags(tags)
	if err != nil {
		return err
	}
	res, err := querierFromCtx(ctx, r.db).ExecContext(ctx,
		`UPDATE pending_candidates SET tags = ? WHERE lemma = ? AND pos = ?`,
		encoded, key.Lemma, string(key.POS))
	return affectedOne(res, err, key)
}

// SetTranslation replaces the translation text; nil clears it.
func (r *CandidateRepo) SetTranslation(ctx context.Context, key domain.Key, translation *string) error {
	res, err := querierFromCtx(ctx, r.db).ExecContext(ctx,
		`UPDATE pending_candidates SET translation = ? WHERE lemma = ? AND pos = ?`,
		translation, key.Lemma, string(key.POS))
	return affectedOne(res, err, key)
}

// Delete removes the candidate. Returns domain.ErrNotFound if it is absent.
func (r *CandidateRepo) Delete(ctx context.Context, key domain.Key) error {
	res, err := querierFromCtx(ctx, r.db).ExecContext(ctx,
		`DELETE FROM pending_candidates WHERE lemma = ? AND pos = ?`, key.Lemma, string(key.POS))
	return affectedOne(res, err, key)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func affectedOne(res sql.Result, err error, key domain.Key) error {
	if err != nil {
		return mapError(err, "candidate", key)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("candidate %s: rows affected: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("candidate %s: %w", key, domain.ErrNotFound)
	}
	return nil
}

func (r *CandidateRepo) casResult(ctx context.Context, res sql.Result, err error, key domain.Key, expected domain.CandidateState) error {
	if err != nil {
		return mapError(err, "candidate", key)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("candidate %s: rows affected: %w", key, err)
	}
	if n > 0 {
		return nil
	}
	c, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	return fmt.Errorf("candidate %s in state %s, expected %s: %w", key, c.State, expected, domain.ErrConflict)
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row scanner) (*domain.PendingCandidate, error) {
	var (
		c                   domain.PendingCandidate
		lemma, pos, state   string
		tags                string
		createdAt, lastSeen string
	)
	err := row.Scan(&lemma, &pos, &c.Surface, &c.Translation, &c.Article, &c.IsRegular,
		&tags, &state, &c.BatchID, &createdAt, &lastSeen)
	if err != nil {
		return nil, err
	}
	c.Key = domain.Key{Lemma: lemma, POS: domain.PartOfSpeech(pos)}
	c.State = domain.CandidateState(state)
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.LastSeenAt, err = parseTime(lastSeen); err != nil {
		return nil, err
	}
	return &c, nil
}
