package store

import (
	"context"
	"database/sql"
	"errors"

	reqctx "custos/pkg/requestcontext"
)

// AddChallenge inserts a challenge row keyed by the content hash of the raw
// token. The raw token is never persisted.
func (s *Postgres) AddChallenge(ctx context.Context, keyHash, email string, creatorUserID int64, toParent bool) (VerificationChallenge, error) {
	vc := VerificationChallenge{
		KeyHash:       keyHash,
		CreationTime:  reqctx.NowMillis(ctx),
		CreatorUserID: creatorUserID,
		ToParent:      toParent,
		Email:         email,
	}
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO verification_challenge_t(
		     verification_challenge_key_hash, creation_time, creator_user_id, to_parent, email)
		 VALUES($1, $2, $3, $4, $5)`,
		vc.KeyHash, vc.CreationTime, vc.CreatorUserID, vc.ToParent, vc.Email,
	)
	if err != nil {
		return VerificationChallenge{}, err
	}
	return vc, nil
}

func (s *Postgres) GetChallengeByKeyHash(ctx context.Context, keyHash string) (*VerificationChallenge, error) {
	var vc VerificationChallenge
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT verification_challenge_key_hash, creation_time, creator_user_id, to_parent, email
		 FROM verification_challenge_t WHERE verification_challenge_key_hash = $1`,
		keyHash,
	).Scan(&vc.KeyHash, &vc.CreationTime, &vc.CreatorUserID, &vc.ToParent, &vc.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vc, nil
}

// LatestChallengeTimeByCreator backs the issue cooldown: a creator may not
// get a fresh challenge within the window of their previous one.
func (s *Postgres) LatestChallengeTimeByCreator(ctx context.Context, creatorUserID int64) (*int64, error) {
	var t sql.NullInt64
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT MAX(creation_time) FROM verification_challenge_t WHERE creator_user_id = $1`,
		creatorUserID,
	).Scan(&t)
	if err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.Int64, nil
}

func (s *Postgres) QueryChallenges(ctx context.Context, f ChallengeFilter) ([]VerificationChallenge, error) {
	q := newQuery(`SELECT vc.verification_challenge_key_hash, vc.creation_time, vc.creator_user_id, vc.to_parent, vc.email
		FROM verification_challenge_t vc`).
		whereMin("vc.creation_time", f.MinCreationTime).
		whereMax("vc.creation_time", f.MaxCreationTime).
		whereInInt64("vc.creator_user_id", f.CreatorUserID).
		whereEq("vc.to_parent", f.ToParent).
		whereInString("vc.email", f.Email).
		orderBy("vc.verification_challenge_key_hash")

	rows, err := s.q(ctx).QueryContext(ctx, q.sql(), q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VerificationChallenge
	for rows.Next() {
		var vc VerificationChallenge
		if err := rows.Scan(&vc.KeyHash, &vc.CreationTime, &vc.CreatorUserID, &vc.ToParent, &vc.Email); err != nil {
			return nil, err
		}
		out = append(out, vc)
	}
	return out, rows.Err()
}
