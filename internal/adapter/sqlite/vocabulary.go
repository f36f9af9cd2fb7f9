package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// DefaultLimit applies when a filter carries no limit.
const DefaultLimit = 100

// VocabularyRepo is the permanent vocabulary store.
type VocabularyRepo struct {
	db *sql.DB
}

// NewVocabularyRepo creates a new vocabulary repository.
func NewVocabularyRepo(db *sql.DB) *VocabularyRepo {
	return &VocabularyRepo{db: db}
}

var entryColumns = []string{
	"e.id", "e.lemma", "e.pos", "e.translation", "e.article", "e.is_regular", "e.difficulty", "e.created_at",
}

// GetByKey returns the entry with its tags, or domain.ErrNotFound.
func (r *VocabularyRepo) GetByKey(ctx context.Context, key domain.Key) (*domain.VocabularyEntry, error) {
	query, args, err := sq.Select(entryColumns...).
		From("vocabulary_entries e").
		Where(sq.Eq{"e.lemma": key.Lemma, "e.pos": string(key.POS)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entry select: %w", err)
	}
	e, err := scanEntry(querierFromCtx(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "entry", key)
	}
	entries := []domain.VocabularyEntry{*e}
	if err := r.attachTags(ctx, entries); err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// List returns entries matching filter, alphabetically by lemma then POS.
func (r *VocabularyRepo) List(ctx context.Context, filter domain.VocabularyFilter) ([]domain.VocabularyEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	qb := applyFilter(sq.Select(entryColumns...).From("vocabulary_entries e"), filter).
		OrderBy("e.lemma ASC", "e.pos ASC").
		Limit(uint64(limit))
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entry list: %w", err)
	}

	entries, err := r.collect(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if err := r.attachTags(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of entries matching filter.
func (r *VocabularyRepo) Count(ctx context.Context, filter domain.VocabularyFilter) (int, error) {
	query, args, err := applyFilter(sq.Select("count(*)").From("vocabulary_entries e"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build entry count: %w", err)
	}
	var n int
	if err := querierFromCtx(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Insert stores e unless its key already exists, reporting whether a row
// was written.
func (r *VocabularyRepo) Insert(ctx context.Context, e *domain.VocabularyEntry) (bool, error) {
	query, args, err := sq.Insert("vocabulary_entries").
		Columns("id", "lemma", "pos", "translation", "article", "is_regular", "difficulty", "created_at").
		Values(e.ID, e.Key.Lemma, string(e.Key.POS), e.Translation, e.Article, e.IsRegular, e.Difficulty, formatTime(e.CreatedAt)).
		Suffix("ON CONFLICT (lemma, pos) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build entry insert: %w", err)
	}
	res, err := querierFromCtx(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return false, mapError(err, "entry", e.Key)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("entry %s: rows affected: %w", e.Key, err)
	}
	return n == 1, nil
}

// DeleteByKey removes the entry and its tag links. Tags themselves stay.
func (r *VocabularyRepo) DeleteByKey(ctx context.Context, key domain.Key) error {
	res, err := querierFromCtx(ctx, r.db).ExecContext(ctx,
		`DELETE FROM vocabulary_entries WHERE lemma = ? AND pos = ?`, key.Lemma, string(key.POS))
	if err != nil {
		return mapError(err, "entry", key)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("entry %s: rows affected: %w", key, err)
	}
	if n == 0 {
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
		// LIKE is case-insensitive for ASCII in SQLite.
		qb = qb.Where(`(e.lemma LIKE ? ESCAPE '\' OR e.translation LIKE ? ESCAPE '\')`, pattern, pattern)
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

// collect reads all rows before returning so the single connection is free
// for the follow-up tag query.
func (r *VocabularyRepo) collect(ctx context.Context, query string, args []any) ([]domain.VocabularyEntry, error) {
	rows, err := querierFromCtx(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.VocabularyEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (r *VocabularyRepo) attachTags(ctx context.Context, entries []domain.VocabularyEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]string, len(entries))
	idx := make(map[uuid.UUID]int, len(entries))
	for i, e := range entries {
		ids[i] = e.ID.String()
		idx[e.ID] = i
		entries[i].Tags = []domain.Tag{}
	}

	query, args, err := sq.Select("et.entry_id", "t.id", "t.name", "t.description", "t.created_at").
		From("entry_tags et").
		Join("tags t ON t.id = et.tag_id").
		Where(sq.Eq{"et.entry_id": ids}).
		OrderBy("et.entry_id", "t.name").
		ToSql()
	if err != nil {
		return fmt.Errorf("build entry tags: %w", err)
	}
	rows, err := querierFromCtx(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load entry tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entryID   uuid.UUID
			t         domain.Tag
			createdAt string
		)
		if err := rows.Scan(&entryID, &t.ID, &t.Name, &t.Description, &createdAt); err != nil {
			return fmt.Errorf("scan entry tag: %w", err)
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return err
		}
		i := idx[entryID]
		entries[i].Tags = append(entries[i].Tags, t)
	}
	return rows.Err()
}

func scanEntry(row scanner) (*domain.VocabularyEntry, error) {
	var (
		e          domain.VocabularyEntry
		lemma, pos string
		createdAt  string
	)
	if err := row.Scan(&e.ID, &lemma, &pos, &e.Translation, &e.Article, &e.IsRegular, &e.Difficulty, &createdAt); err != nil {
		return nil, err
	}
	e.Key = domain.Key{Lemma: lemma, POS: domain.PartOfSpeech(pos)}
	var err error
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &e, nil
}
