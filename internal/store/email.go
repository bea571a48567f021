package store

import (
	"context"
	"database/sql"
	"errors"

	reqctx "custos/pkg/requestcontext"
)

// AddEmail records a confirmed email event linked to the challenge that
// proved control of the address.
func (s *Postgres) AddEmail(ctx context.Context, creatorUserID int64, challengeKeyHash string) (Email, error) {
	e := Email{
		CreationTime:     reqctx.NowMillis(ctx),
		CreatorUserID:    creatorUserID,
		ChallengeKeyHash: challengeKeyHash,
	}
	err := s.q(ctx).QueryRowContext(ctx,
		`INSERT INTO email_t(creation_time, creator_user_id, verification_challenge_key_hash)
		 VALUES($1, $2, $3) RETURNING email_id`,
		e.CreationTime, e.CreatorUserID, e.ChallengeKeyHash,
	).Scan(&e.EmailID)
	if err != nil {
		return Email{}, err
	}
	return e, nil
}

// GetEmailByKeyHash backs the single-use check: at most one Email row may
// reference a challenge hash.
func (s *Postgres) GetEmailByKeyHash(ctx context.Context, challengeKeyHash string) (*Email, error) {
	var e Email
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT email_id, creation_time, creator_user_id, verification_challenge_key_hash
		 FROM email_t WHERE verification_challenge_key_hash = $1`,
		challengeKeyHash,
	).Scan(&e.EmailID, &e.CreationTime, &e.CreatorUserID, &e.ChallengeKeyHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEmailByAddress finds the user currently holding an address: the latest
// email row per creator whose originating challenge targeted the address.
func (s *Postgres) GetEmailByAddress(ctx context.Context, address string) (*Email, error) {
	q := newQuery(`SELECT e.email_id, e.creation_time, e.creator_user_id, e.verification_challenge_key_hash FROM email_t e`).
		latestPer("e", "email_t", "email_id", "creator_user_id").
		join(`INNER JOIN verification_challenge_t vc
			ON vc.verification_challenge_key_hash = e.verification_challenge_key_hash`).
		where("vc.email = ?", address).
		orderBy("e.email_id DESC")

	rows, err := s.q(ctx).QueryContext(ctx, q.sql(), q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var e Email
	if err := rows.Scan(&e.EmailID, &e.CreationTime, &e.CreatorUserID, &e.ChallengeKeyHash); err != nil {
		return nil, err
	}
	return &e, rows.Err()
}

// GetEmailByUserID returns the user's current email row.
func (s *Postgres) GetEmailByUserID(ctx context.Context, userID int64) (*Email, error) {
	q := newQuery(`SELECT e.email_id, e.creation_time, e.creator_user_id, e.verification_challenge_key_hash FROM email_t e`).
		latestPer("e", "email_t", "email_id", "creator_user_id").
		where("e.creator_user_id = ?", userID)

	var e Email
	err := s.q(ctx).QueryRowContext(ctx, q.sql(), q.args...).
		Scan(&e.EmailID, &e.CreationTime, &e.CreatorUserID, &e.ChallengeKeyHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Postgres) QueryEmails(ctx context.Context, f EmailFilter) ([]Email, error) {
	q := newQuery(`SELECT e.email_id, e.creation_time, e.creator_user_id, e.verification_challenge_key_hash FROM email_t e`)
	if f.OnlyRecent {
		q.latestPer("e", "email_t", "email_id", "creator_user_id")
	}
	q.join(`INNER JOIN verification_challenge_t vc
		ON vc.verification_challenge_key_hash = e.verification_challenge_key_hash`).
		whereInInt64("e.email_id", f.EmailID).
		whereMin("e.creation_time", f.MinCreationTime).
		whereMax("e.creation_time", f.MaxCreationTime).
		whereInInt64("e.creator_user_id", f.CreatorUserID).
		whereInString("vc.email", f.Email).
		orderBy("e.email_id")

	rows, err := s.q(ctx).QueryContext(ctx, q.sql(), q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Email
	for rows.Next() {
		var e Email
		if err := rows.Scan(&e.EmailID, &e.CreationTime, &e.CreatorUserID, &e.ChallengeKeyHash); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
