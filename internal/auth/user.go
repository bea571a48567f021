package auth

import (
	"context"

	"custos/internal/audit"
	"custos/internal/password"
	"custos/internal/store"
	"custos/internal/token"
	"custos/pkg/autherr"
)

// UserNew registers an account: user row, profile, password, and an email
// verification challenge, all in one transaction. When a parent email is
// given the account additionally gets a parent-purpose challenge instead
// of the self-declared permission row.
func (s *Service) UserNew(ctx context.Context, props UserNewProps) (UserDataResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.UserNew")
	defer span.End()

	if props.UserName == "" {
		return UserDataResp{}, autherr.New(autherr.CodeUserNameEmpty, "user name must not be empty")
	}
	if !password.IsSecure(props.UserPassword) {
		return UserDataResp{}, autherr.New(autherr.CodePasswordInsecure, "password must be at least 8 characters and contain a digit")
	}

	passwordHash, err := password.Hash(props.UserPassword)
	if err != nil {
		return UserDataResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "hash password")
	}

	var userData store.UserData
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.store.AddUser(ctx)
		if err != nil {
			return autherr.Wrap(err, autherr.CodeInternalServerError, "add user")
		}

		userData, err = s.store.AddUserData(ctx, user.UserID, props.UserName)
		if err != nil {
			return autherr.Wrap(err, autherr.CodeInternalServerError, "add user data")
		}

		if _, err := s.store.AddPassword(ctx, user.UserID, passwordHash, nil); err != nil {
			return autherr.Wrap(err, autherr.CodeInternalServerError, "add password")
		}

		rawKey, err := token.Generate()
		if err != nil {
			return autherr.Wrap(err, autherr.CodeInternalServerError, "generate key")
		}
		if err := s.sendEmailVerificationMail(ctx, props.UserEmail, userData.Name, rawKey); err != nil {
			return err
		}
		if _, err := s.store.AddChallenge(ctx, token.Hash(rawKey), props.UserEmail, user.UserID, false); err != nil {
			return autherr.Wrap(err, autherr.CodeInternalServerError, "add challenge")
		}

		if props.ParentEmail != nil {
			parentKey, err := token.Generate()
			if err != nil {
				return autherr.Wrap(err, autherr.CodeInternalServerError, "generate key")
			}
			if err := s.sendParentPermissionMail(ctx, *props.ParentEmail, userData.Name, parentKey); err != nil {
				return err
			}
			if _, err := s.store.AddChallenge(ctx, token.Hash(parentKey), *props.ParentEmail, user.UserID, true); err != nil {
				return autherr.Wrap(err, autherr.CodeInternalServerError, "add challenge")
			}
		} else {
			// account holder declares themselves old enough
			if _, err := s.store.AddParentPermission(ctx, user.UserID, nil); err != nil {
				return autherr.Wrap(err, autherr.CodeInternalServerError, "add parent permission")
			}
		}

		return nil
	})
	if err != nil {
		return UserDataResp{}, err
	}

	s.metrics.IncUsersCreated()
	s.publishAudit(ctx, audit.ActionUserCreated, userData.CreatorUserID, "", props.UserName)
	return fillUserData(userData), nil
}

// UserDataNew appends a new profile row for the key's owner. Any live key
// suffices; email and parent verification are not required to rename.
func (s *Service) UserDataNew(ctx context.Context, props UserDataNewProps) (UserDataResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.UserDataNew")
	defer span.End()

	key, err := s.getAPIKeyIfValidNoVerify(ctx, props.APIKey)
	if err != nil {
		return UserDataResp{}, err
	}

	userData, err := s.store.AddUserData(ctx, key.CreatorUserID, props.UserName)
	if err != nil {
		return UserDataResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "add user data")
	}
	return fillUserData(userData), nil
}
