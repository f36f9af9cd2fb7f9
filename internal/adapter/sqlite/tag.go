package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// TagRepo stores tags and their links to vocabulary entries.
type TagRepo struct {
	db *sql.DB
}

// NewTagRepo creates a new tag repository.
func NewTagRepo(db *sql.DB) *TagRepo {
	return &TagRepo{db: db}
}

// List returns all tags ordered by name, with the number of linked entries.
func (r *TagRepo) List(ctx context.Context) ([]domain.Tag, error) {
	rows, err := querierFromCtx(ctx, r.db).QueryContext(ctx, `
SELECT t.id, t.name, t.description, t.created_at, count(et.entry_id)
FROM tags t
LEFT JOIN entry_tags et ON et.tag_id = t.id
GROUP BY t.id
ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	out := []domain.Tag{}
	for rows.Next() {
		var (
			t         domain.Tag
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &createdAt, &t.EntryCount); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByName returns the tag or domain.ErrNotFound.
func (r *TagRepo) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	row := querierFromCtx(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM tags WHERE name = ?`, name)
	t, err := scanTag(row)
	if err != nil {
		return nil, mapError(err, "tag", name)
	}
	return t, nil
}

// Count returns the number of tags.
func (r *TagRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := querierFromCtx(ctx, r.db).QueryRowContext(ctx, `SELECT count(*) FROM tags`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tags: %w", err)
	}
	return n, nil
}

// Create inserts a tag or, when the name exists, updates its description if
// one is given. The stored tag is returned either way.
func (r *TagRepo) Create(ctx context.Context, name string, description *string) (*domain.Tag, error) {
	row := querierFromCtx(ctx, r.db).QueryRowContext(ctx, `
INSERT INTO tags (id, name, description, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET description = COALESCE(excluded.description, tags.description)
RETURNING id, name, description, created_at`,
		uuid.New(), name, description, formatTime(time.Now()))
	t, err := scanTag(row)
	if err != nil {
		return nil, mapError(err, "tag", name)
	}
	return t, nil
}

// Ensure creates any missing tags and returns all of them in names order.
// Names must already be normalized and unique.
func (r *TagRepo) Ensure(ctx context.Context, names []string) ([]domain.Tag, error) {
	if len(names) == 0 {
		return []domain.Tag{}, nil
	}
	q := querierFromCtx(ctx, r.db)

	now := formatTime(time.Now())
	ins := sq.Insert("tags").Columns("id", "name", "created_at")
	for _, n := range names {
		ins = ins.Values(uuid.New(), n, now)
	}
	query, args, err := ins.Suffix("ON CONFLICT (name) DO NOTHING").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tag insert: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, mapError(err, "tag", names)
	}

	query, args, err = sq.Select("id", "name", "description", "created_at").
		From("tags").
		Where(sq.Eq{"name": names}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tag select: %w", err)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select tags: %w", err)
	}
	defer rows.Close()

	index := make(map[string]domain.Tag, len(names))
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		index[t.Name] = *t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select tags: %w", err)
	}

	out := make([]domain.Tag, 0, len(names))
	for _, n := range names {
		t, ok := index[n]
		if !ok {
			return nil, fmt.Errorf("tag %q: %w", n, domain.ErrNotFound)
		}
		out = append(out, t)
	}
	return out, nil
}

// Link associates tags with an entry. Existing links are kept.
func (r *TagRepo) Link(ctx context.Context, entryID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return nil
	}
	ins := sq.Insert("entry_tags").Columns("entry_id", "tag_id")
	for _, id := range tagIDs {
		ins = ins.Values(entryID, id)
	}
	query, args, err := ins.Suffix("ON CONFLICT (entry_id, tag_id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build link insert: %w", err)
	}
	_, err = querierFromCtx(ctx, r.db).ExecContext(ctx, query, args...)
	return mapError(err, "entry", entryID)
}

// Unlink removes one association; the tag itself is kept.
func (r *TagRepo) Unlink(ctx context.Context, entryID, tagID uuid.UUID) error {
	res, err := querierFromCtx(ctx, r.db).ExecContext(ctx,
		`DELETE FROM entry_tags WHERE entry_id = ? AND tag_id = ?`, entryID, tagID)
	if err != nil {
		return mapError(err, "entry", entryID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unlink: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entry %s tag %s: %w", entryID, tagID, domain.ErrNotFound)
	}
	return nil
}

func scanTag(row scanner) (*domain.Tag, error) {
	var (
		t         domain.Tag
		createdAt string
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}
