package auth

import (
	"context"

	"custos/internal/audit"
	"custos/internal/password"
	"custos/internal/store"
	"custos/internal/token"
	"custos/pkg/autherr"
	"custos/pkg/requestcontext"
)

// PasswordResetNew starts account recovery: mail a single-use reset link
// to a verified address. Requires no credentials; holding the mailbox is
// the proof.
func (s *Service) PasswordResetNew(ctx context.Context, props PasswordResetNewProps) (PasswordResetResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.PasswordResetNew")
	defer span.End()

	email, err := s.store.GetEmailByAddress(ctx, props.UserEmail)
	if err != nil {
		return PasswordResetResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup email")
	}
	if email == nil {
		return PasswordResetResp{}, autherr.New(autherr.CodeEmailNonexistent, "no verified account for email")
	}

	rawKey, err := token.Generate()
	if err != nil {
		return PasswordResetResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "generate key")
	}
	if err := s.sendPasswordResetMail(ctx, props.UserEmail, rawKey); err != nil {
		return PasswordResetResp{}, err
	}

	var reset store.PasswordReset
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		reset, err = s.store.AddPasswordReset(ctx, token.Hash(rawKey), email.CreatorUserID)
		if err != nil {
			return autherr.Wrap(err, autherr.CodeInternalServerError, "add password reset")
		}
		return nil
	})
	if err != nil {
		return PasswordResetResp{}, err
	}

	s.publishAudit(ctx, audit.ActionPasswordResetBegun, email.CreatorUserID, reset.KeyHash, "")
	return fillPasswordReset(reset), nil
}

// PasswordNewReset redeems a reset key for a new password. Each reset is
// single use and shares the challenge validity window.
func (s *Service) PasswordNewReset(ctx context.Context, props PasswordNewResetProps) (PasswordResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.PasswordNewReset")
	defer span.End()

	reset, err := s.store.GetPasswordResetByKeyHash(ctx, token.Hash(props.PasswordResetKey))
	if err != nil {
		return PasswordResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup password reset")
	}
	if reset == nil {
		return PasswordResp{}, autherr.New(autherr.CodePasswordResetNonexistent, "password reset does not exist")
	}

	consumed, err := s.store.PasswordExistsForResetHash(ctx, reset.KeyHash)
	if err != nil {
		return PasswordResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup password")
	}
	if consumed {
		return PasswordResp{}, autherr.New(autherr.CodePasswordExistent, "reset already used")
	}

	if requestcontext.NowMillis(ctx) > reset.CreationTime+validityWindowMillis {
		return PasswordResp{}, autherr.New(autherr.CodePasswordResetTimedOut, "password reset timed out")
	}

	if !password.IsSecure(props.NewPassword) {
		return PasswordResp{}, autherr.New(autherr.CodePasswordInsecure, "password must be at least 8 characters and contain a digit")
	}
	hash, err := password.Hash(props.NewPassword)
	if err != nil {
		return PasswordResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "hash password")
	}

	var pw store.Password
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		resetHash := reset.KeyHash
		var err error
		pw, err = s.store.AddPassword(ctx, reset.CreatorUserID, hash, &resetHash)
		if err != nil {
			return autherr.Wrap(err, autherr.CodeInternalServerError, "add password")
		}
		return nil
	})
	if err != nil {
		return PasswordResp{}, err
	}

	s.metrics.IncPasswordsChanged()
	s.publishAudit(ctx, audit.ActionPasswordChanged, pw.CreatorUserID, "", "reset")
	return s.fillPassword(ctx, pw)
}

// PasswordNewChange rotates the password of a logged-in user. Any live
// key authorizes the change.
func (s *Service) PasswordNewChange(ctx context.Context, props PasswordNewChangeProps) (PasswordResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.PasswordNewChange")
	defer span.End()

	key, err := s.getAPIKeyIfValidNoVerify(ctx, props.APIKey)
	if err != nil {
		return PasswordResp{}, err
	}

	if !password.IsSecure(props.NewPassword) {
		return PasswordResp{}, autherr.New(autherr.CodePasswordInsecure, "password must be at least 8 characters and contain a digit")
	}
	hash, err := password.Hash(props.NewPassword)
	if err != nil {
		return PasswordResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "hash password")
	}

	var pw store.Password
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		pw, err = s.store.AddPassword(ctx, key.CreatorUserID, hash, nil)
		if err != nil {
			return autherr.Wrap(err, autherr.CodeInternalServerError, "add password")
		}
		return nil
	})
	if err != nil {
		return PasswordResp{}, err
	}

	s.metrics.IncPasswordsChanged()
	s.publishAudit(ctx, audit.ActionPasswordChanged, pw.CreatorUserID, "", "change")
	return s.fillPassword(ctx, pw)
}
