package store

import (
	"context"
	"database/sql"
	"errors"

	reqctx "custos/pkg/requestcontext"
)

// AddParentPermission records a permission grant. challengeKeyHash is nil
// for self-declared grants made at registration.
func (s *Postgres) AddParentPermission(ctx context.Context, userID int64, challengeKeyHash *string) (ParentPermission, error) {
	pp := ParentPermission{
		CreationTime:     reqctx.NowMillis(ctx),
		UserID:           userID,
		ChallengeKeyHash: challengeKeyHash,
	}
	err := s.q(ctx).QueryRowContext(ctx,
		`INSERT INTO parent_permission_t(creation_time, user_id, verification_challenge_key_hash)
		 VALUES($1, $2, $3) RETURNING parent_permission_id`,
		pp.CreationTime, pp.UserID, pp.ChallengeKeyHash,
	).Scan(&pp.ParentPermissionID)
	if err != nil {
		return ParentPermission{}, err
	}
	return pp, nil
}

// GetParentPermissionByUserID returns the user's current permission row,
// the gate for the verified trust tier.
func (s *Postgres) GetParentPermissionByUserID(ctx context.Context, userID int64) (*ParentPermission, error) {
	q := newQuery(`SELECT pp.parent_permission_id, pp.creation_time, pp.user_id, pp.verification_challenge_key_hash
		FROM parent_permission_t pp`).
		latestPer("pp", "parent_permission_t", "parent_permission_id", "user_id").
		where("pp.user_id = ?", userID)

	var pp ParentPermission
	err := s.q(ctx).QueryRowContext(ctx, q.sql(), q.args...).
		Scan(&pp.ParentPermissionID, &pp.CreationTime, &pp.UserID, &pp.ChallengeKeyHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pp, nil
}

// GetParentPermissionByKeyHash backs the single-use check for
// parent-purpose challenges.
func (s *Postgres) GetParentPermissionByKeyHash(ctx context.Context, challengeKeyHash string) (*ParentPermission, error) {
	var pp ParentPermission
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT parent_permission_id, creation_time, user_id, verification_challenge_key_hash
		 FROM parent_permission_t WHERE verification_challenge_key_hash = $1`,
		challengeKeyHash,
	).Scan(&pp.ParentPermissionID, &pp.CreationTime, &pp.UserID, &pp.ChallengeKeyHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pp, nil
}

// QueryParentPermissions joins permission rows to their originating
// challenge so callers can filter by the parent's email address.
// Self-declared rows have no challenge and drop out when that filter is set.
func (s *Postgres) QueryParentPermissions(ctx context.Context, f ParentPermissionFilter) ([]ParentPermission, error) {
	q := newQuery(`SELECT pp.parent_permission_id, pp.creation_time, pp.user_id, pp.verification_challenge_key_hash
		FROM parent_permission_t pp`)
	if f.OnlyRecent {
		q.latestPer("pp", "parent_permission_t", "parent_permission_id", "user_id")
	}
	q.join(`LEFT JOIN verification_challenge_t vc
		ON vc.verification_challenge_key_hash = pp.verification_challenge_key_hash`).
		whereInInt64("pp.parent_permission_id", f.ParentPermissionID).
		whereMin("pp.creation_time", f.MinCreationTime).
		whereMax("pp.creation_time", f.MaxCreationTime).
		whereInInt64("pp.user_id", f.UserID).
		whereInString("vc.email", f.ParentEmail)
	if f.FromChallenge != nil {
		q.where("(pp.verification_challenge_key_hash IS NOT NULL) = ?", *f.FromChallenge)
	}
	q.orderBy("pp.parent_permission_id")

	rows, err := s.q(ctx).QueryContext(ctx, q.sql(), q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ParentPermission
	for rows.Next() {
		var pp ParentPermission
		if err := rows.Scan(&pp.ParentPermissionID, &pp.CreationTime, &pp.UserID, &pp.ChallengeKeyHash); err != nil {
			return nil, err
		}
		out = append(out, pp)
	}
	return out, rows.Err()
}
