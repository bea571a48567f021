package store

import (
	"context"
	"database/sql"
	"errors"

	reqctx "custos/pkg/requestcontext"
)

// AddPasswordReset persists a recovery token (hash only).
func (s *Postgres) AddPasswordReset(ctx context.Context, keyHash string, creatorUserID int64) (PasswordReset, error) {
	pr := PasswordReset{
		KeyHash:       keyHash,
		CreationTime:  reqctx.NowMillis(ctx),
		CreatorUserID: creatorUserID,
	}
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO password_reset_t(password_reset_key_hash, creation_time, creator_user_id)
		 VALUES($1, $2, $3)`,
		pr.KeyHash, pr.CreationTime, pr.CreatorUserID,
	)
	if err != nil {
		return PasswordReset{}, err
	}
	return pr, nil
}

func (s *Postgres) GetPasswordResetByKeyHash(ctx context.Context, keyHash string) (*PasswordReset, error) {
	var pr PasswordReset
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT password_reset_key_hash, creation_time, creator_user_id
		 FROM password_reset_t WHERE password_reset_key_hash = $1`,
		keyHash,
	).Scan(&pr.KeyHash, &pr.CreationTime, &pr.CreatorUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pr, nil
}
