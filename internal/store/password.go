package store

import (
	"context"
	"database/sql"
	"errors"

	reqctx "custos/pkg/requestcontext"
)

// AddPassword appends a credential row. resetKeyHash marks rows created
// through the recovery flow and blocks reuse of the reset token.
func (s *Postgres) AddPassword(ctx context.Context, creatorUserID int64, passwordHash string, resetKeyHash *string) (Password, error) {
	p := Password{
		CreationTime:  reqctx.NowMillis(ctx),
		CreatorUserID: creatorUserID,
		PasswordHash:  passwordHash,
		ResetKeyHash:  resetKeyHash,
	}
	err := s.q(ctx).QueryRowContext(ctx,
		`INSERT INTO password_t(creation_time, creator_user_id, password_hash, password_reset_key_hash)
		 VALUES($1, $2, $3, $4) RETURNING password_id`,
		p.CreationTime, p.CreatorUserID, p.PasswordHash, p.ResetKeyHash,
	).Scan(&p.PasswordID)
	if err != nil {
		return Password{}, err
	}
	return p, nil
}

// GetPasswordByUserID returns the user's current credential row.
func (s *Postgres) GetPasswordByUserID(ctx context.Context, userID int64) (*Password, error) {
	q := newQuery(`SELECT p.password_id, p.creation_time, p.creator_user_id, p.password_hash, p.password_reset_key_hash
		FROM password_t p`).
		latestPer("p", "password_t", "password_id", "creator_user_id").
		where("p.creator_user_id = ?", userID)

	var p Password
	err := s.q(ctx).QueryRowContext(ctx, q.sql(), q.args...).
		Scan(&p.PasswordID, &p.CreationTime, &p.CreatorUserID, &p.PasswordHash, &p.ResetKeyHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PasswordExistsForResetHash reports whether a reset token has already been
// consumed: any password row referencing the hash blocks reuse.
func (s *Postgres) PasswordExistsForResetHash(ctx context.Context, resetKeyHash string) (bool, error) {
	var count int64
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT count(*) FROM password_t WHERE password_reset_key_hash = $1`,
		resetKeyHash,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count != 0, nil
}

func (s *Postgres) QueryPasswords(ctx context.Context, f PasswordFilter) ([]Password, error) {
	q := newQuery(`SELECT p.password_id, p.creation_time, p.creator_user_id, p.password_hash, p.password_reset_key_hash
		FROM password_t p`)
	if f.OnlyRecent {
		q.latestPer("p", "password_t", "password_id", "creator_user_id")
	}
	q.whereInInt64("p.password_id", f.PasswordID).
		whereMin("p.creation_time", f.MinCreationTime).
		whereMax("p.creation_time", f.MaxCreationTime).
		whereInInt64("p.creator_user_id", f.CreatorUserID)
	if f.FromReset != nil {
		q.where("(p.password_reset_key_hash IS NOT NULL) = ?", *f.FromReset)
	}
	q.orderBy("p.password_id")

	rows, err := s.q(ctx).QueryContext(ctx, q.sql(), q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Password
	for rows.Next() {
		var p Password
		if err := rows.Scan(&p.PasswordID, &p.CreationTime, &p.CreatorUserID, &p.PasswordHash, &p.ResetKeyHash); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
