// Package vocabulary implements the permanent vocabulary store using PostgreSQL.
package vocabulary

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/vocab-harvester/internal/adapter/postgres"
	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DefaultLimit applies when a filter carries no limit.
const DefaultLimit = 100

// Repo provides vocabulary persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new vocabulary repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var entryColumns = []string{
	"e.id", "e.lemma", "e.pos", "e.translation", "e.article", "e.is_regular", "e.difficulty", "e.created_at",
}

const tagsByEntryIDsSQL = `
SELECT et.entry_id, t.id, t.name, t.description, t.created_at
FROM entry_tags et
JOIN tags t ON t.id = et.tag_id
WHERE et.entry_id = ANY($1::uuid[])
ORDER BY et.entry_id, t.name`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByKey returns the entry with its tags, or domain.ErrNotFound.
func (r *Repo) GetByKey(ctx context.Context, key domain.Key) (*domain.VocabularyEntry, error) {
	query, args, err := psql.Select(entryColumns...).
		From("vocabulary_entries e").
		Where(sq.Eq{"e.lemma": key.Lemma, "e.pos": string(key.POS)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entry select: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	e, err := scanEntry(q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "entry", key)
	}

	entries := []domain.VocabularyEntry{*e}
	if err := r.attachTags(ctx, entries); err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// List returns entries matching filter, alphabetically by lemma then POS,
// each with its tags.
func (r *Repo) List(ctx context.Context, filter domain.VocabularyFilter) ([]domain.VocabularyEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	qb := applyFilter(psql.Select(entryColumns...).From("vocabulary_entries e"), filter).
		OrderBy("e.lemma ASC", "e.pos ASC").
		Limit(uint64(limit))
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entry list: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.VocabularyEntry, error) {
		e, err := scanEntry(row)
		if err != nil {
			return domain.VocabularyEntry{}, err
		}
		return *e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan entries: %w", err)
	}
	if entries == nil {
		entries = []domain.VocabularyEntry{}
	}

	if err := r.attachTags(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of entries matching filter. Limit and offset are ignored.
func (r *Repo) Count(ctx context.Context, filter domain.VocabularyFilter) (int, error) {
	query, args, err := applyFilter(psql.Select("count(*)").From("vocabulary_entries e"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build entry count: %w", err)
	}
	var n int
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Insert stores e unless its key already exists. It reports whether a row
// was written; an existing key is not an error here.
func (r *Repo) Insert(ctx context.Context, e *domain.VocabularyEntry) (bool, error) {
	query, args, err := psql.Insert("vocabulary_entries").
		Columns("id", "lemma", "pos", "translation", "article", "is_regular", "difficulty", "created_at").
		Values(e.ID, e.Key.Lemma, string(e.Key.POS), e.Translation, e.Article, e.IsRegular, e.Difficulty, e.CreatedAt).
		Suffix("ON CONFLICT (lemma, pos) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build entry insert: %w", err)
	}
	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return false, postgres.MapError(err, "entry", e.Key)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteByKey removes the entry and its tag links. Tags themselves stay.
func (r *Repo) DeleteByKey(ctx context.Context, key domain.Key) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx,
		`DELETE FROM vocabulary_entries WHERE lemma = $1 AND pos = $2`, key.Lemma, string(key.POS))
	if err != nil {
		return postgres.MapError(err, "entry", key)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %s: %w", key, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func applyFilter(qb sq.SelectBuilder, f domain.VocabularyFilter) sq.SelectBuilder {
	if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
		pattern := "%" + escapeLike(domain.NormalizeLemma(*f.Search)) + "%"
		qb = qb.Where(`(e.lemma LIKE ? ESCAPE '\' OR e.translation ILIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if f.Difficulty != nil {
		qb = qb.Where(sq.Eq{"e.difficulty": *f.Difficulty})
	}
	if f.POS != nil {
		qb = qb.Where(sq.Eq{"e.pos": string(*f.POS)})
	}
	if f.Tag != nil {
		qb = qb.Where(`EXISTS (SELECT 1 FROM entry_tags et JOIN tags t ON t.id = et.tag_id WHERE et.entry_id = e.id AND t.name = ?)`,
			domain.NormalizeTagName(*f.Tag))
	}
	return qb
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *Repo) attachTags(ctx context.Context, entries []domain.VocabularyEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(entries))
	pos := make(map[uuid.UUID]int, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
		pos[e.ID] = i
		entries[i].Tags = []domain.Tag{}
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, tagsByEntryIDsSQL, ids)
	if err != nil {
		return fmt.Errorf("load entry tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entryID uuid.UUID
		var t domain.Tag
		if err := rows.Scan(&entryID, &t.ID, &t.Name, &t.Description, &t.CreatedAt); err != nil {
			return fmt.Errorf("scan entry tag: %w", err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		i := pos[entryID]
		entries[i].Tags = append(entries[i].Tags, t)
	}
	return rows.Err()
}

func scanEntry(row pgx.Row) (*domain.VocabularyEntry, error) {
	var (
		e          domain.VocabularyEntry
		lemma, pos string
	)
	if err := row.Scan(&e.ID, &lemma, &pos, &e.Translation, &e.Article, &e.IsRegular, &e.Difficulty, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Key = domain.Key{Lemma: lemma, POS: domain.PartOfSpeech(pos)}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}
