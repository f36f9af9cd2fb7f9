// Package tag implements the Tag repository using PostgreSQL.
// It provides tag creation and M2M entry linking via the entry_tags join table.
package tag

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/vocab-harvester/internal/adapter/postgres"
	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides tag persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new tag repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// List returns all tags ordered by name, with the number of linked entries.
func (r *Repo) List(ctx context.Context) ([]domain.Tag, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, `
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
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.EntryCount); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByName returns a tag by its normalized name.
func (r *Repo) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	var t domain.Tag
	err := q.QueryRow(ctx, `SELECT id, name, description, created_at FROM tags WHERE name = $1`, name).
		Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "tag", name)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// Count returns the number of tags.
func (r *Repo) Count(ctx context.Context) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	var n int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM tags`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tags: %w", err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a tag or, when the name exists, updates its description if
// one is given. The stored tag is returned either way.
func (r *Repo) Create(ctx context.Context, name string, description *string) (*domain.Tag, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	var t domain.Tag
	err := q.QueryRow(ctx, `
INSERT INTO tags (id, name, description, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (name) DO UPDATE SET description = COALESCE(EXCLUDED.description, tags.description)
RETURNING id, name, description, created_at`,
		uuid.New(), name, description, time.Now().UTC(),
	).Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "tag", name)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// Ensure creates any missing tags and returns all of them in names order.
// Names must already be normalized and unique.
func (r *Repo) Ensure(ctx context.Context, names []string) ([]domain.Tag, error) {
	if len(names) == 0 {
		return []domain.Tag{}, nil
	}
	q := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC()
	ins := psql.Insert("tags").Columns("id", "name", "created_at")
	for _, n := range names {
		ins = ins.Values(uuid.New(), n, now)
	}
	ins = ins.Suffix("ON CONFLICT (name) DO NOTHING")

	sqlStr, args, err := ins.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tag insert: %w", err)
	}
	if _, err := q.Exec(ctx, sqlStr, args...); err != nil {
		return nil, postgres.MapError(err, "tag", names)
	}

	sel, args, err := psql.Select("id", "name", "description", "created_at").
		From("tags").
		Where(sq.Eq{"name": names}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tag select: %w", err)
	}
	rows, err := q.Query(ctx, sel, args...)
	if err != nil {
		return nil, fmt.Errorf("select tags: %w", err)
	}
	byName, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Tag, error) {
		var t domain.Tag
		err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt)
		t.CreatedAt = t.CreatedAt.UTC()
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan tags: %w", err)
	}

	index := make(map[string]domain.Tag, len(byName))
	for _, t := range byName {
		index[t.Name] = t
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
func (r *Repo) Link(ctx context.Context, entryID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return nil
	}
	ins := psql.Insert("entry_tags").Columns("entry_id", "tag_id")
	for _, id := range tagIDs {
		ins = ins.Values(entryID, id)
	}
	sqlStr, args, err := ins.Suffix("ON CONFLICT (entry_id, tag_id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build link insert: %w", err)
	}
	_, err = postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, sqlStr, args...)
	return postgres.MapError(err, "entry", entryID)
}

// Unlink removes one association. Returns domain.ErrNotFound if it did not exist.
// The tag itself is kept.
func (r *Repo) Unlink(ctx context.Context, entryID, tagID uuid.UUID) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx,
		`DELETE FROM entry_tags WHERE entry_id = $1 AND tag_id = $2`, entryID, tagID)
	if err != nil {
		return postgres.MapError(err, "entry", entryID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %s tag %s: %w", entryID, tagID, domain.ErrNotFound)
	}
	return nil
}
