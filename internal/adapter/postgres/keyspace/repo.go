// Package keyspace answers which store, if any, holds a (lemma, pos) key.
// It is the single presence check used at intake and at decision time.
package keyspace

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/vocab-harvester/internal/adapter/postgres"
	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// Repo looks keys up across the vocabulary and pending tables.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new keyspace repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const keyExistsSQL = `
SELECT CASE
    WHEN EXISTS (SELECT 1 FROM vocabulary_entries WHERE lemma = $1 AND pos = $2) THEN 'vocabulary'
    WHEN EXISTS (SELECT 1 FROM pending_candidates WHERE lemma = $1 AND pos = $2) THEN 'pending'
    ELSE 'none'
END`

// A key found in both stores is reported as vocabulary.
const locateSQL = `
SELECT k.lemma, k.pos,
       CASE
           WHEN v.lemma IS NOT NULL THEN 'vocabulary'
           WHEN p.lemma IS NOT NULL THEN 'pending'
           ELSE 'none'
       END
FROM unnest($1::text[], $2::text[]) AS k(lemma, pos)
LEFT JOIN vocabulary_entries v ON v.lemma = k.lemma AND v.pos = k.pos
LEFT JOIN pending_candidates p ON p.lemma = k.lemma AND p.pos = k.pos`

// KeyExists reports where key lives.
func (r *Repo) KeyExists(ctx context.Context, key domain.Key) (domain.KeyLocation, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	var loc string
	if err := q.QueryRow(ctx, keyExistsSQL, key.Lemma, string(key.POS)).Scan(&loc); err != nil {
		return "", postgres.MapError(err, "key", key)
	}
	return domain.KeyLocation(loc), nil
}

// Locate is KeyExists for many keys in one round trip. Every input key is
// present in the result.
func (r *Repo) Locate(ctx context.Context, keys []domain.Key) (map[domain.Key]domain.KeyLocation, error) {
	out := make(map[domain.Key]domain.KeyLocation, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	lemmas := make([]string, len(keys))
	poses := make([]string, len(keys))
	for i, k := range keys {
		lemmas[i] = k.Lemma
		poses[i] = string(k.POS)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, locateSQL, lemmas, poses)
	if err != nil {
		return nil, fmt.Errorf("locate keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lemma, pos, loc string
		if err := rows.Scan(&lemma, &pos, &loc); err != nil {
			return nil, fmt.Errorf("scan key location: %w", err)
		}
		out[domain.Key{Lemma: lemma, POS: domain.PartOfSpeech(pos)}] = domain.KeyLocation(loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("locate keys: %w", err)
	}
	return out, nil
}
