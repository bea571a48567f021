package auth

import (
	"context"

	"custos/internal/store"
	"custos/pkg/autherr"
)

// Views let any live key holder query the append-only history. Results
// are projections; hashes and password material never appear.

func (s *Service) UserView(ctx context.Context, props UserViewProps) ([]UserResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.UserView")
	defer span.End()

	if _, err := s.getAPIKeyIfValidNoVerify(ctx, props.APIKey); err != nil {
		return nil, err
	}
	users, err := s.store.QueryUsers(ctx, store.UserFilter{
		UserID:          props.UserID,
		MinCreationTime: props.MinCreationTime,
		MaxCreationTime: props.MaxCreationTime,
	})
	if err != nil {
		return nil, autherr.Wrap(err, autherr.CodeInternalServerError, "query users")
	}
	out := make([]UserResp, 0, len(users))
	for _, u := range users {
		out = append(out, fillUser(u))
	}
	return out, nil
}

func (s *Service) UserDataView(ctx context.Context, props UserDataViewProps) ([]UserDataResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.UserDataView")
	defer span.End()

	if _, err := s.getAPIKeyIfValidNoVerify(ctx, props.APIKey); err != nil {
		return nil, err
	}
	rows, err := s.store.QueryUserData(ctx, store.UserDataFilter{
		UserDataID:      props.UserDataID,
		MinCreationTime: props.MinCreationTime,
		MaxCreationTime: props.MaxCreationTime,
		CreatorUserID:   props.CreatorUserID,
		Name:            props.Name,
		OnlyRecent:      props.OnlyRecent,
	})
	if err != nil {
		return nil, autherr.Wrap(err, autherr.CodeInternalServerError, "query user data")
	}
	out := make([]UserDataResp, 0, len(rows))
	for _, ud := range rows {
		out = append(out, fillUserData(ud))
	}
	return out, nil
}

func (s *Service) VerificationChallengeView(ctx context.Context, props VerificationChallengeViewProps) ([]VerificationChallengeResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.VerificationChallengeView")
	defer span.End()

	if _, err := s.getAPIKeyIfValidNoVerify(ctx, props.APIKey); err != nil {
		return nil, err
	}
	rows, err := s.store.QueryChallenges(ctx, store.ChallengeFilter{
		MinCreationTime: props.MinCreationTime,
		MaxCreationTime: props.MaxCreationTime,
		CreatorUserID:   props.CreatorUserID,
		ToParent:        props.ToParent,
		Email:           props.Email,
	})
	if err != nil {
		return nil, autherr.Wrap(err, autherr.CodeInternalServerError, "query challenges")
	}
	out := make([]VerificationChallengeResp, 0, len(rows))
	for _, vc := range rows {
		out = append(out, fillChallenge(vc))
	}
	return out, nil
}

func (s *Service) EmailView(ctx context.Context, props EmailViewProps) ([]EmailResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.EmailView")
	defer span.End()

	if _, err := s.getAPIKeyIfValidNoVerify(ctx, props.APIKey); err != nil {
		return nil, err
	}
	rows, err := s.store.QueryEmails(ctx, store.EmailFilter{
		EmailID:         props.EmailID,
		MinCreationTime: props.MinCreationTime,
		MaxCreationTime: props.MaxCreationTime,
		CreatorUserID:   props.CreatorUserID,
		Email:           props.Email,
		OnlyRecent:      props.OnlyRecent,
	})
	if err != nil {
		return nil, autherr.Wrap(err, autherr.CodeInternalServerError, "query emails")
	}
	out := make([]EmailResp, 0, len(rows))
	for _, e := range rows {
		resp, err := s.fillEmail(ctx, e)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *Service) ParentPermissionView(ctx context.Context, props ParentPermissionViewProps) ([]ParentPermissionResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.ParentPermissionView")
	defer span.End()

	if _, err := s.getAPIKeyIfValidNoVerify(ctx, props.APIKey); err != nil {
		return nil, err
	}
	rows, err := s.store.QueryParentPermissions(ctx, store.ParentPermissionFilter{
		ParentPermissionID: props.ParentPermissionID,
		MinCreationTime:    props.MinCreationTime,
		MaxCreationTime:    props.MaxCreationTime,
		UserID:             props.UserID,
		FromChallenge:      props.FromChallenge,
		ParentEmail:        props.ParentEmail,
		OnlyRecent:         props.OnlyRecent,
	})
	if err != nil {
		return nil, autherr.Wrap(err, autherr.CodeInternalServerError, "query parent permissions")
	}
	out := make([]ParentPermissionResp, 0, len(rows))
	for _, pp := range rows {
		resp, err := s.fillParentPermission(ctx, pp)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *Service) PasswordView(ctx context.Context, props PasswordViewProps) ([]PasswordResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.PasswordView")
	defer span.End()

	if _, err := s.getAPIKeyIfValidNoVerify(ctx, props.APIKey); err != nil {
		return nil, err
	}
	rows, err := s.store.QueryPasswords(ctx, store.PasswordFilter{
		PasswordID:      props.PasswordID,
		MinCreationTime: props.MinCreationTime,
		MaxCreationTime: props.MaxCreationTime,
		CreatorUserID:   props.CreatorUserID,
		FromReset:       props.FromReset,
		OnlyRecent:      props.OnlyRecent,
	})
	if err != nil {
		return nil, autherr.Wrap(err, autherr.CodeInternalServerError, "query passwords")
	}
	out := make([]PasswordResp, 0, len(rows))
	for _, p := range rows {
		resp, err := s.fillPassword(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *Service) APIKeyView(ctx context.Context, props APIKeyViewProps) ([]APIKeyResp, error) {
	ctx, span := s.tracer.Start(ctx, "auth.APIKeyView")
	defer span.End()

	if _, err := s.getAPIKeyIfValidNoVerify(ctx, props.APIKey); err != nil {
		return nil, err
	}
	rows, err := s.store.QueryAPIKeys(ctx, store.APIKeyFilter{
		APIKeyID:        props.APIKeyID,
		MinCreationTime: props.MinCreationTime,
		MaxCreationTime: props.MaxCreationTime,
		CreatorUserID:   props.CreatorUserID,
		MinDuration:     props.MinDuration,
		MaxDuration:     props.MaxDuration,
		Kind:            props.Kind,
		OnlyRecent:      props.OnlyRecent,
	})
	if err != nil {
		return nil, autherr.Wrap(err, autherr.CodeInternalServerError, "query api keys")
	}
	out := make([]APIKeyResp, 0, len(rows))
	for _, k := range rows {
		out = append(out, fillAPIKey(k, nil))
	}
	return out, nil
}
