package auth

import (
	"context"

	"custos/internal/audit"
	"custos/internal/store"
	"custos/internal/token"
	"custos/pkg/autherr"
	"custos/pkg/requestcontext"
)

// redeemChallenge runs the shared half of challenge redemption: the
// challenge must exist, still be inside its validity window, and carry
// the purpose the caller is redeeming it for.
func (s *Service) redeemChallenge(ctx context.Context, rawKey string, toParent bool) (*store.VerificationChallenge, error) {
	vc, err := s.store.GetChallengeByKeyHash(ctx, token.Hash(rawKey))
	if err != nil {
		return nil, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup challenge")
	}
	if vc == nil {
		return nil, autherr.New(autherr.CodeVerificationChallengeNonexistent, "verification challenge does not exist")
	}
	if requestcontext.NowMillis(ctx) > vc.CreationTime+validityWindowMillis {
		return nil, autherr.New(autherr.CodeVerificationChallengeTimedOut, "verification challenge timed out")
	}
	if vc.ToParent != toParent {
		return nil, autherr.New(autherr.CodeVerificationChallengeWrongKind, "verification challenge serves a different purpose")
	}
	return vc, nil
}

// EmailNew redeems an email-purpose challenge, binding its address to the
// challenge creator. The challenge is single use, and an address can be
// held by at most one user at a time.
func (s *Service) EmailNew(ctx context.Context, props EmailNewProps) (EmailResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.EmailNew")
	defer span.End()

	vc, err := s.redeemChallenge(ctx, props.VerificationChallengeKey, false)
	if err != nil {
		return EmailResp{}, err
	}

	used, err := s.store.GetEmailByKeyHash(ctx, vc.KeyHash)
	if err != nil {
		return EmailResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup email")
	}
	if used != nil {
		return EmailResp{}, autherr.New(autherr.CodeVerificationChallengeUsed, "verification challenge already used")
	}

	held, err := s.store.GetEmailByAddress(ctx, vc.Email)
	if err != nil {
		return EmailResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup email")
	}
	if held != nil {
		return EmailResp{}, autherr.New(autherr.CodeEmailExistent, "email already in use")
	}

	email, err := s.store.AddEmail(ctx, vc.CreatorUserID, vc.KeyHash)
	if err != nil {
		return EmailResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "add email")
	}

	s.publishAudit(ctx, audit.ActionEmailVerified, vc.CreatorUserID, vc.KeyHash, vc.Email)
	return s.fillEmail(ctx, email)
}

// ParentPermissionNew redeems a parent-purpose challenge, recording the
// parent's approval for the challenge creator.
func (s *Service) ParentPermissionNew(ctx context.Context, props ParentPermissionNewProps) (ParentPermissionResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.ParentPermissionNew")
	defer span.End()

	vc, err := s.redeemChallenge(ctx, props.VerificationChallengeKey, true)
	if err != nil {
		return ParentPermissionResp{}, err
	}

	used, err := s.store.GetParentPermissionByKeyHash(ctx, vc.KeyHash)
	if err != nil {
		return ParentPermissionResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup parent permission")
	}
	if used != nil {
		return ParentPermissionResp{}, autherr.New(autherr.CodeVerificationChallengeUsed, "verification challenge already used")
	}

	hash := vc.KeyHash
	pp, err := s.store.AddParentPermission(ctx, vc.CreatorUserID, &hash)
	if err != nil {
		return ParentPermissionResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "add parent permission")
	}

	s.publishAudit(ctx, audit.ActionParentApproved, vc.CreatorUserID, vc.KeyHash, vc.Email)
	return s.fillParentPermission(ctx, pp)
}
