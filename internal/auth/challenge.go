package auth

import (
	"context"

	"custos/internal/audit"
	"custos/internal/token"
	"custos/pkg/autherr"
	"custos/pkg/requestcontext"
)

// VerificationChallengeNew reissues a challenge for the key's owner, to
// their own or a parent's address. One challenge per creator per validity
// window; the cooldown keeps the service from relaying mail spam.
func (s *Service) VerificationChallengeNew(ctx context.Context, props VerificationChallengeNewProps) (VerificationChallengeResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.VerificationChallengeNew")
	defer span.End()

	// avoid handing obviously bad addresses to the mail service
	if props.Email == "" {
		return VerificationChallengeResp{}, autherr.New(autherr.CodeEmailBounced, "email must not be empty")
	}

	key, err := s.getAPIKeyIfValidNoVerify(ctx, props.APIKey)
	if err != nil {
		return VerificationChallengeResp{}, err
	}

	if props.ToParent {
		pp, err := s.store.GetParentPermissionByUserID(ctx, key.CreatorUserID)
		if err != nil {
			return VerificationChallengeResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup parent permission")
		}
		if pp != nil {
			return VerificationChallengeResp{}, autherr.New(autherr.CodeParentPermissionExistent, "parent permission already granted")
		}
	}

	lastIssued, err := s.store.LatestChallengeTimeByCreator(ctx, key.CreatorUserID)
	if err != nil {
		return VerificationChallengeResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup challenge history")
	}
	if lastIssued != nil && *lastIssued+validityWindowMillis > requestcontext.NowMillis(ctx) {
		return VerificationChallengeResp{}, autherr.New(autherr.CodeEmailUnknown, "challenge issue cooldown active")
	}

	userData, err := s.store.GetUserDataByUserID(ctx, key.CreatorUserID)
	if err != nil {
		return VerificationChallengeResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup user data")
	}
	if userData == nil {
		return VerificationChallengeResp{}, autherr.New(autherr.CodeUserDataNonexistent, "user data does not exist")
	}

	rawKey, err := token.Generate()
	if err != nil {
		return VerificationChallengeResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "generate key")
	}

	if props.ToParent {
		err = s.sendParentPermissionMail(ctx, props.Email, userData.Name, rawKey)
	} else {
		err = s.sendEmailVerificationMail(ctx, props.Email, userData.Name, rawKey)
	}
	if err != nil {
		return VerificationChallengeResp{}, err
	}

	vc, err := s.store.AddChallenge(ctx, token.Hash(rawKey), props.Email, key.CreatorUserID, props.ToParent)
	if err != nil {
		return VerificationChallengeResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "add challenge")
	}

	s.metrics.IncChallengesIssued()
	s.publishAudit(ctx, audit.ActionChallengeIssued, key.CreatorUserID, vc.KeyHash, props.Email)
	return fillChallenge(vc), nil
}
