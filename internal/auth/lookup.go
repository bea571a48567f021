package auth

import (
	"context"

	"custos/pkg/autherr"
)

// Service-to-service lookups. These ride on the private listener and are
// never exposed through the public prefix.

func (s *Service) GetUserByID(ctx context.Context, props GetUserByIDProps) (UserResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.GetUserByID")
	defer span.End()

	user, err := s.store.GetUserByID(ctx, props.UserID)
	if err != nil {
		return UserResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup user")
	}
	if user == nil {
		return UserResp{}, autherr.New(autherr.CodeUserNonexistent, "user does not exist")
	}
	return fillUser(*user), nil
}

// GetUserByAPIKeyIfValid resolves a key to its owning user, requiring the
// full verified tier.
func (s *Service) GetUserByAPIKeyIfValid(ctx context.Context, props GetUserByAPIKeyIfValidProps) (UserResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.GetUserByAPIKeyIfValid")
	defer span.End()

	key, err := s.getAPIKeyIfVerified(ctx, props.APIKey)
	if err != nil {
		return UserResp{}, err
	}
	user, err := s.store.GetUserByID(ctx, key.CreatorUserID)
	if err != nil {
		return UserResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup user")
	}
	if user == nil {
		return UserResp{}, autherr.New(autherr.CodeUserNonexistent, "user does not exist")
	}
	return fillUser(*user), nil
}
