package auth

import (
	"context"

	"custos/internal/store"
	"custos/pkg/autherr"
)

// Response payloads. Key hashes never leave the service; challenges and
// resets are identified to clients only by their creation time, and the
// one place a raw API key appears is the issuance response.

type UserResp struct {
	UserID       int64 `json:"user_id"`
	CreationTime int64 `json:"creation_time"`
}

type UserDataResp struct {
	UserDataID    int64  `json:"user_data_id"`
	CreationTime  int64  `json:"creation_time"`
	CreatorUserID int64  `json:"creator_user_id"`
	Name          string `json:"name"`
}

type VerificationChallengeResp struct {
	CreationTime int64  `json:"creation_time"`
	ToParent     bool   `json:"to_parent"`
	Email        string `json:"email"`
}

type EmailResp struct {
	EmailID               int64                     `json:"email_id"`
	CreationTime          int64                     `json:"creation_time"`
	CreatorUserID         int64                     `json:"creator_user_id"`
	VerificationChallenge VerificationChallengeResp `json:"verification_challenge"`
}

type ParentPermissionResp struct {
	ParentPermissionID    int64                      `json:"parent_permission_id"`
	CreationTime          int64                      `json:"creation_time"`
	UserID                int64                      `json:"user_id"`
	VerificationChallenge *VerificationChallengeResp `json:"verification_challenge"`
}

type PasswordResetResp struct {
	CreationTime int64 `json:"creation_time"`
}

type PasswordResp struct {
	PasswordID    int64              `json:"password_id"`
	CreationTime  int64              `json:"creation_time"`
	CreatorUserID int64              `json:"creator_user_id"`
	PasswordReset *PasswordResetResp `json:"password_reset"`
}

// APIKeyData is the kind-dependent part of an API key response. Key is
// set only on the issuance path; views never echo it.
type APIKeyData struct {
	Kind     store.APIKeyKind `json:"kind"`
	Duration *int64           `json:"duration,omitempty"`
	Key      *string          `json:"key,omitempty"`
}

type APIKeyResp struct {
	APIKeyID      int64      `json:"api_key_id"`
	CreationTime  int64      `json:"creation_time"`
	CreatorUserID int64      `json:"creator_user_id"`
	APIKeyData    APIKeyData `json:"api_key_data"`
}

func fillUser(u store.User) UserResp {
	return UserResp{UserID: u.UserID, CreationTime: u.CreationTime}
}

func fillUserData(ud store.UserData) UserDataResp {
	return UserDataResp{
		UserDataID:    ud.UserDataID,
		CreationTime:  ud.CreationTime,
		CreatorUserID: ud.CreatorUserID,
		Name:          ud.Name,
	}
}

func fillChallenge(vc store.VerificationChallenge) VerificationChallengeResp {
	return VerificationChallengeResp{
		CreationTime: vc.CreationTime,
		ToParent:     vc.ToParent,
		Email:        vc.Email,
	}
}

// fillEmail resolves the challenge behind an email row so clients see the
// address without ever seeing the hash.
func (s *Service) fillEmail(ctx context.Context, e store.Email) (EmailResp, error) {
	vc, err := s.store.GetChallengeByKeyHash(ctx, e.ChallengeKeyHash)
	if err != nil {
		return EmailResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup challenge")
	}
	if vc == nil {
		return EmailResp{}, autherr.New(autherr.CodeVerificationChallengeNonexistent, "challenge missing for email")
	}
	return EmailResp{
		EmailID:               e.EmailID,
		CreationTime:          e.CreationTime,
		CreatorUserID:         e.CreatorUserID,
		VerificationChallenge: fillChallenge(*vc),
	}, nil
}

func (s *Service) fillParentPermission(ctx context.Context, pp store.ParentPermission) (ParentPermissionResp, error) {
	resp := ParentPermissionResp{
		ParentPermissionID: pp.ParentPermissionID,
		CreationTime:       pp.CreationTime,
		UserID:             pp.UserID,
	}
	if pp.ChallengeKeyHash != nil {
		vc, err := s.store.GetChallengeByKeyHash(ctx, *pp.ChallengeKeyHash)
		if err != nil {
			return ParentPermissionResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup challenge")
		}
		if vc == nil {
			return ParentPermissionResp{}, autherr.New(autherr.CodeVerificationChallengeNonexistent, "challenge missing for parent permission")
		}
		filled := fillChallenge(*vc)
		resp.VerificationChallenge = &filled
	}
	return resp, nil
}

func fillPasswordReset(pr store.PasswordReset) PasswordResetResp {
	return PasswordResetResp{CreationTime: pr.CreationTime}
}

func (s *Service) fillPassword(ctx context.Context, p store.Password) (PasswordResp, error) {
	resp := PasswordResp{
		PasswordID:    p.PasswordID,
		CreationTime:  p.CreationTime,
		CreatorUserID: p.CreatorUserID,
	}
	if p.ResetKeyHash != nil {
		pr, err := s.store.GetPasswordResetByKeyHash(ctx, *p.ResetKeyHash)
		if err != nil {
			return PasswordResp{}, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup password reset")
		}
		if pr == nil {
			return PasswordResp{}, autherr.New(autherr.CodePasswordResetNonexistent, "reset missing for password")
		}
		filled := fillPasswordReset(*pr)
		resp.PasswordReset = &filled
	}
	return resp, nil
}

// fillAPIKey shapes the response; rawKey is non-nil only at issuance.
func fillAPIKey(k store.APIKey, rawKey *string) APIKeyResp {
	data := APIKeyData{Kind: k.Kind}
	if k.Kind == store.APIKeyKindValid {
		d := k.Duration
		data.Duration = &d
		data.Key = rawKey
	}
	return APIKeyResp{
		APIKeyID:      k.APIKeyID,
		CreationTime:  k.CreationTime,
		CreatorUserID: k.CreatorUserID,
		APIKeyData:    data,
	}
}
