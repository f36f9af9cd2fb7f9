package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// locateChunk keeps a Locate query well under SQLite's bound-variable limit.
const locateChunk = 400

// KeyspaceRepo answers which store, if any, holds a key.
type KeyspaceRepo struct {
	db *sql.DB
}

// NewKeyspaceRepo creates a new keyspace repository.
func NewKeyspaceRepo(db *sql.DB) *KeyspaceRepo {
	return &KeyspaceRepo{db: db}
}

const keyExistsSQL = `
SELECT CASE
    WHEN EXISTS (SELECT 1 FROM vocabulary_entries WHERE lemma = ? AND pos = ?) THEN 'vocabulary'
    WHEN EXISTS (SELECT 1 FROM pending_candidates WHERE lemma = ? AND pos = ?) THEN 'pending'
    ELSE 'none'
END`

// KeyExists reports where key lives. Vocabulary wins over pending.
func (r *KeyspaceRepo) KeyExists(ctx context.Context, key domain.Key) (domain.KeyLocation, error) {
	var loc string
	err := querierFromCtx(ctx, r.db).QueryRowContext(ctx, keyExistsSQL,
		key.Lemma, string(key.POS), key.Lemma, string(key.POS)).Scan(&loc)
	if err != nil {
		return "", mapError(err, "key", key)
	}
	return domain.KeyLocation(loc), nil
}

// Locate is KeyExists for many keys. Every input key is present in the result.
func (r *KeyspaceRepo) Locate(ctx context.Context, keys []domain.Key) (map[domain.Key]domain.KeyLocation, error) {
	out := make(map[domain.Key]domain.KeyLocation, len(keys))
	for _, k := range keys {
		out[k] = domain.KeyLocationNone
	}

	for start := 0; start < len(keys); start += locateChunk {
		end := min(start+locateChunk, len(keys))
		chunk := keys[start:end]

		// Pending first so that vocabulary overwrites it.
		if err := r.mark(ctx, out, "pending_candidates", chunk, domain.KeyLocationPending); err != nil {
			return nil, err
		}
		if err := r.mark(ctx, out, "vocabulary_entries", chunk, domain.KeyLocationVocabulary); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *KeyspaceRepo) mark(ctx context.Context, out map[domain.Key]domain.KeyLocation, table string, keys []domain.Key, loc domain.KeyLocation) error {
	match := make(sq.Or, len(keys))
	for i, k := range keys {
		match[i] = sq.Eq{"lemma": k.Lemma, "pos": string(k.POS)}
	}
	query, args, err := sq.Select("lemma", "pos").From(table).Where(match).ToSql()
	if err != nil {
		return fmt.Errorf("build locate %s: %w", table, err)
	}

	rows, err := querierFromCtx(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("locate keys in %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var lemma, pos string
		if err := rows.Scan(&lemma, &pos); err != nil {
			return fmt.Errorf("scan key location: %w", err)
		}
		out[domain.Key{Lemma: lemma, POS: domain.PartOfSpeech(pos)}] = loc
	}
	return rows.Err()
}
