package auth

import "custos/internal/store"

// Request payloads. Field names follow the wire protocol exactly; every
// endpoint takes a JSON body, including the view endpoints.

type UserNewProps struct {
	UserName     string  `json:"user_name"`
	UserEmail    string  `json:"user_email"`
	UserPassword string  `json:"user_password"`
	ParentEmail  *string `json:"parent_email"`
}

type UserDataNewProps struct {
	APIKey   string `json:"api_key"`
	UserName string `json:"user_name"`
}

type VerificationChallengeNewProps struct {
	APIKey   string `json:"api_key"`
	Email    string `json:"email"`
	ToParent bool   `json:"to_parent"`
}

type EmailNewProps struct {
	VerificationChallengeKey string `json:"verification_challenge_key"`
}

type ParentPermissionNewProps struct {
	VerificationChallengeKey string `json:"verification_challenge_key"`
}

type PasswordResetNewProps struct {
	UserEmail string `json:"user_email"`
}

type PasswordNewResetProps struct {
	PasswordResetKey string `json:"password_reset_key"`
	NewPassword      string `json:"new_password"`
}

type PasswordNewChangeProps struct {
	APIKey      string `json:"api_key"`
	NewPassword string `json:"new_password"`
}

type APIKeyNewValidProps struct {
	UserEmail    string `json:"user_email"`
	UserPassword string `json:"user_password"`
	Duration     int64  `json:"duration"`
}

type APIKeyNewCancelProps struct {
	APIKey         string `json:"api_key"`
	APIKeyToCancel string `json:"api_key_to_cancel"`
}

type UserViewProps struct {
	APIKey          string  `json:"api_key"`
	UserID          []int64 `json:"user_id"`
	MinCreationTime *int64  `json:"min_creation_time"`
	MaxCreationTime *int64  `json:"max_creation_time"`
}

type UserDataViewProps struct {
	APIKey          string   `json:"api_key"`
	UserDataID      []int64  `json:"user_data_id"`
	MinCreationTime *int64   `json:"min_creation_time"`
	MaxCreationTime *int64   `json:"max_creation_time"`
	CreatorUserID   []int64  `json:"creator_user_id"`
	Name            []string `json:"name"`
	OnlyRecent      bool     `json:"only_recent"`
}

type VerificationChallengeViewProps struct {
	APIKey          string   `json:"api_key"`
	MinCreationTime *int64   `json:"min_creation_time"`
	MaxCreationTime *int64   `json:"max_creation_time"`
	CreatorUserID   []int64  `json:"creator_user_id"`
	ToParent        *bool    `json:"to_parent"`
	Email           []string `json:"email"`
}

type EmailViewProps struct {
	APIKey          string   `json:"api_key"`
	EmailID         []int64  `json:"email_id"`
	MinCreationTime *int64   `json:"min_creation_time"`
	MaxCreationTime *int64   `json:"max_creation_time"`
	CreatorUserID   []int64  `json:"creator_user_id"`
	Email           []string `json:"email"`
	OnlyRecent      bool     `json:"only_recent"`
}

type ParentPermissionViewProps struct {
	APIKey             string   `json:"api_key"`
	ParentPermissionID []int64  `json:"parent_permission_id"`
	MinCreationTime    *int64   `json:"min_creation_time"`
	MaxCreationTime    *int64   `json:"max_creation_time"`
	UserID             []int64  `json:"user_id"`
	FromChallenge      *bool    `json:"from_challenge"`
	ParentEmail        []string `json:"parent_email"`
	OnlyRecent         bool     `json:"only_recent"`
}

type PasswordViewProps struct {
	APIKey          string  `json:"api_key"`
	PasswordID      []int64 `json:"password_id"`
	MinCreationTime *int64  `json:"min_creation_time"`
	MaxCreationTime *int64  `json:"max_creation_time"`
	CreatorUserID   []int64 `json:"creator_user_id"`
	FromReset       *bool   `json:"from_reset"`
	OnlyRecent      bool    `json:"only_recent"`
}

type APIKeyViewProps struct {
	APIKey          string            `json:"api_key"`
	APIKeyID        []int64           `json:"api_key_id"`
	MinCreationTime *int64            `json:"min_creation_time"`
	MaxCreationTime *int64            `json:"max_creation_time"`
	CreatorUserID   []int64           `json:"creator_user_id"`
	MinDuration     *int64            `json:"min_duration"`
	MaxDuration     *int64            `json:"max_duration"`
	Kind            *store.APIKeyKind `json:"api_key_kind"`
	OnlyRecent      bool              `json:"only_recent"`
}

type GetUserByIDProps struct {
	UserID int64 `json:"user_id"`
}

type GetUserByAPIKeyIfValidProps struct {
	APIKey string `json:"api_key"`
}
