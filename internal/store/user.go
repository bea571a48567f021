package store

import (
	"context"
	"database/sql"
	"errors"

	reqctx "custos/pkg/requestcontext"
)

// AddUser inserts the identity anchor row and returns it with its assigned id.
func (s *Postgres) AddUser(ctx context.Context) (User, error) {
	u := User{CreationTime: reqctx.NowMillis(ctx)}
	err := s.q(ctx).QueryRowContext(ctx,
		`INSERT INTO user_t(creation_time) VALUES($1) RETURNING user_id`,
		u.CreationTime,
	).Scan(&u.UserID)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserByID returns the user row, or nil when it does not exist.
func (s *Postgres) GetUserByID(ctx context.Context, userID int64) (*User, error) {
	var u User
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT user_id, creation_time FROM user_t WHERE user_id = $1`,
		userID,
	).Scan(&u.UserID, &u.CreationTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Postgres) QueryUsers(ctx context.Context, f UserFilter) ([]User, error) {
	q := newQuery(`SELECT u.user_id, u.creation_time FROM user_t u`).
		whereInInt64("u.user_id", f.UserID).
		whereMin("u.creation_time", f.MinCreationTime).
		whereMax("u.creation_time", f.MaxCreationTime).
		orderBy("u.user_id")

	rows, err := s.q(ctx).QueryContext(ctx, q.sql(), q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.UserID, &u.CreationTime); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
