package store

import (
	"context"
	"database/sql"
	"errors"

	reqctx "custos/pkg/requestcontext"
)

// AddUserData appends a profile row; the previous row stays as history.
func (s *Postgres) AddUserData(ctx context.Context, creatorUserID int64, name string) (UserData, error) {
	ud := UserData{
		CreationTime:  reqctx.NowMillis(ctx),
		CreatorUserID: creatorUserID,
		Name:          name,
	}
	err := s.q(ctx).QueryRowContext(ctx,
		`INSERT INTO user_data_t(creation_time, creator_user_id, name)
		 VALUES($1, $2, $3) RETURNING user_data_id`,
		ud.CreationTime, ud.CreatorUserID, ud.Name,
	).Scan(&ud.UserDataID)
	if err != nil {
		return UserData{}, err
	}
	return ud, nil
}

// GetUserDataByUserID returns the current (latest) profile row for a user.
func (s *Postgres) GetUserDataByUserID(ctx context.Context, userID int64) (*UserData, error) {
	q := newQuery(`SELECT ud.user_data_id, ud.creation_time, ud.creator_user_id, ud.name FROM user_data_t ud`).
		latestPer("ud", "user_data_t", "user_data_id", "creator_user_id").
		where("ud.creator_user_id = ?", userID)

	var ud UserData
	err := s.q(ctx).QueryRowContext(ctx, q.sql(), q.args...).
		Scan(&ud.UserDataID, &ud.CreationTime, &ud.CreatorUserID, &ud.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ud, nil
}

func (s *Postgres) QueryUserData(ctx context.Context, f UserDataFilter) ([]UserData, error) {
	q := newQuery(`SELECT ud.user_data_id, ud.creation_time, ud.creator_user_id, ud.name FROM user_data_t ud`)
	if f.OnlyRecent {
		q.latestPer("ud", "user_data_t", "user_data_id", "creator_user_id")
	}
	q.whereInInt64("ud.user_data_id", f.UserDataID).
		whereMin("ud.creation_time", f.MinCreationTime).
		whereMax("ud.creation_time", f.MaxCreationTime).
		whereInInt64("ud.creator_user_id", f.CreatorUserID).
		whereInString("ud.name", f.Name).
		orderBy("ud.user_data_id")

	rows, err := s.q(ctx).QueryContext(ctx, q.sql(), q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserData
	for rows.Next() {
		var ud UserData
		if err := rows.Scan(&ud.UserDataID, &ud.CreationTime, &ud.CreatorUserID, &ud.Name); err != nil {
			return nil, err
		}
		out = append(out, ud)
	}
	return out, rows.Err()
}
