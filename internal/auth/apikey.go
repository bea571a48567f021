package auth

import (
	"context"

	"custos/internal/audit"
	"custos/internal/password"
	"custos/internal/store"
	"custos/internal/token"
	"custos/pkg/autherr"
)

// APIKeyNewValid authenticates by email and password and issues a fresh
// key with the requested lifetime. The raw key appears in this response
// and nowhere else.
func (s *Service) APIKeyNewValid(ctx context.Context, props APIKeyNewValidProps) (APIKeyResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.APIKeyNewValid")
	defer span.End()

	email, err := s.store.GetEmailByAddress(ctx, props.UserEmail)
	if err != nil {
		return APIKeyResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup email")
	}
	if email == nil {
		return APIKeyResp{}, autherr.New(autherr.CodeEmailNonexistent, "no verified account for email")
	}

	pw, err := s.store.GetPasswordByUserID(ctx, email.CreatorUserID)
	if err != nil {
		return APIKeyResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup password")
	}
	if pw == nil {
		return APIKeyResp{}, autherr.New(autherr.CodePasswordNonexistent, "no password set")
	}

	ok, err := password.Verify(props.UserPassword, pw.PasswordHash)
	if err != nil {
		return APIKeyResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "verify password")
	}
	if !ok {
		return APIKeyResp{}, autherr.New(autherr.CodePasswordIncorrect, "password incorrect")
	}

	rawKey, err := token.Generate()
	if err != nil {
		return APIKeyResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "generate key")
	}

	var key store.APIKey
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		key, err = s.store.AddAPIKey(ctx, email.CreatorUserID, token.Hash(rawKey), store.APIKeyKindValid, props.Duration)
		if err != nil {
			return autherr.Wrap(err, autherr.CodeInternalServerError, "add api key")
		}
		return nil
	})
	if err != nil {
		return APIKeyResp{}, err
	}

	s.metrics.IncAPIKeysIssued()
	s.publishAudit(ctx, audit.ActionAPIKeyIssued, key.CreatorUserID, key.KeyHash, "")
	return fillAPIKey(key, &rawKey), nil
}

// APIKeyNewCancel revokes a key by appending a cancel row that reuses the
// target's hash. Both keys must belong to the same verified account.
func (s *Service) APIKeyNewCancel(ctx context.Context, props APIKeyNewCancelProps) (APIKeyResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.APIKeyNewCancel")
	defer span.End()

	creatorKey, err := s.getAPIKeyIfVerified(ctx, props.APIKey)
	if err != nil {
		return APIKeyResp{}, err
	}
	targetKey, err := s.getAPIKeyIfVerified(ctx, props.APIKeyToCancel)
	if err != nil {
		return APIKeyResp{}, err
	}
	if creatorKey.CreatorUserID != targetKey.CreatorUserID {
		return APIKeyResp{}, autherr.New(autherr.CodeAPIKeyUnauthorized, "key belongs to another user")
	}

	var cancel store.APIKey
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		cancel, err = s.store.AddAPIKey(ctx, creatorKey.CreatorUserID, targetKey.KeyHash, store.APIKeyKindCancel, 0)
		if err != nil {
			return autherr.Wrap(err, autherr.CodeInternalServerError, "add cancel key")
		}
		return nil
	})
	if err != nil {
		return APIKeyResp{}, err
	}

	s.metrics.IncAPIKeysCancelled()
	s.publishAudit(ctx, audit.ActionAPIKeyCancelled, cancel.CreatorUserID, cancel.KeyHash, "")
	return fillAPIKey(cancel, nil), nil
}
