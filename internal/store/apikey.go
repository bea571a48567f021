package store

import (
	"context"
	"database/sql"
	"errors"

	reqctx "custos/pkg/requestcontext"
)

// AddAPIKey appends a key row. Cancel-kind rows carry the hash of the key
// being revoked rather than a new secret; revocation is a new row, never a
// mutation.
func (s *Postgres) AddAPIKey(ctx context.Context, creatorUserID int64, keyHash string, kind APIKeyKind, duration int64) (APIKey, error) {
	k := APIKey{
		CreationTime:  reqctx.NowMillis(ctx),
		CreatorUserID: creatorUserID,
		KeyHash:       keyHash,
		Kind:          kind,
		Duration:      duration,
	}
	err := s.q(ctx).QueryRowContext(ctx,
		`INSERT INTO api_key_t(creation_time, creator_user_id, api_key_hash, api_key_kind, duration)
		 VALUES($1, $2, $3, $4, $5) RETURNING api_key_id`,
		k.CreationTime, k.CreatorUserID, k.KeyHash, string(k.Kind), k.Duration,
	).Scan(&k.APIKeyID)
	if err != nil {
		return APIKey{}, err
	}
	return k, nil
}

// GetAPIKeyByKeyHash returns the latest row for a hash; that row alone
// decides whether the credential chain is live or revoked.
func (s *Postgres) GetAPIKeyByKeyHash(ctx context.Context, keyHash string) (*APIKey, error) {
	var k APIKey
	var kind string
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT api_key_id, creation_time, creator_user_id, api_key_hash, api_key_kind, duration
		 FROM api_key_t WHERE api_key_hash = $1
		 ORDER BY api_key_id DESC LIMIT 1`,
		keyHash,
	).Scan(&k.APIKeyID, &k.CreationTime, &k.CreatorUserID, &k.KeyHash, &kind, &k.Duration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	k.Kind = APIKeyKind(kind)
	return &k, nil
}

func (s *Postgres) QueryAPIKeys(ctx context.Context, f APIKeyFilter) ([]APIKey, error) {
	q := newQuery(`SELECT a.api_key_id, a.creation_time, a.creator_user_id, a.api_key_hash, a.api_key_kind, a.duration
		FROM api_key_t a`)
	if f.OnlyRecent {
		q.latestPer("a", "api_key_t", "api_key_id", "api_key_hash")
	}
	q.whereInInt64("a.api_key_id", f.APIKeyID).
		whereMin("a.creation_time", f.MinCreationTime).
		whereMax("a.creation_time", f.MaxCreationTime).
		whereInInt64("a.creator_user_id", f.CreatorUserID).
		whereMin("a.duration", f.MinDuration).
		whereMax("a.duration", f.MaxDuration)
	if f.Kind != nil {
		q.where("a.api_key_kind = ?", string(*f.Kind))
	}
	q.orderBy("a.api_key_id")

	rows, err := s.q(ctx).QueryContext(ctx, q.sql(), q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []APIKey
	for rows.Next() {
		var k APIKey
		var kind string
		if err := rows.Scan(&k.APIKeyID, &k.CreationTime, &k.CreatorUserID, &k.KeyHash, &kind, &k.Duration); err != nil {
			return nil, err
		}
		k.Kind = APIKeyKind(kind)
		out = append(out, k)
	}
	return out, rows.Err()
}
