package store

// Entities are append-only: rows are inserted, never updated or deleted.
// The current state of a logical object is the most recently inserted row
// sharing its logical key.

// User is the minimal identity anchor everything else hangs off.
type User struct {
	UserID       int64
	CreationTime int64
}

// UserData carries the mutable-looking user attributes as append-only rows;
// the latest row per creator is the current profile.
type UserData struct {
	UserDataID    int64
	CreationTime  int64
	CreatorUserID int64
	Name          string
}

// VerificationChallenge is a single-use, time-boxed token proving control
// of an email address. Only the content hash of the raw key is stored.
type VerificationChallenge struct {
	KeyHash       string
	CreationTime  int64
	CreatorUserID int64
	ToParent      bool
	Email         string
}

// Email records one confirmed email event. The current email of a user is
// the latest row for its creator.
type Email struct {
	EmailID          int64
	CreationTime     int64
	CreatorUserID    int64
	ChallengeKeyHash string
}

// ParentPermission marks a user as permission-gated. A nil ChallengeKeyHash
// means the permission was self-declared at registration; otherwise it
// links back to the parent-purpose challenge that authorized it.
type ParentPermission struct {
	ParentPermissionID int64
	CreationTime       int64
	UserID             int64
	ChallengeKeyHash   *string
}

// PasswordReset is a single-use recovery token, stored hash-only.
type PasswordReset struct {
	KeyHash       string
	CreationTime  int64
	CreatorUserID int64
}

// Password is one entry in a user's append-only credential history.
// ResetKeyHash is set when the row was created through the recovery flow.
type Password struct {
	PasswordID    int64
	CreationTime  int64
	CreatorUserID int64
	PasswordHash  string
	ResetKeyHash  *string
}

// APIKeyKind distinguishes live credentials from cancellation tombstones.
type APIKeyKind string

const (
	APIKeyKindValid  APIKeyKind = "valid"
	APIKeyKindCancel APIKeyKind = "cancel"
)

// APIKey rows of kind cancel reuse the hash of the key being revoked, so
// the latest row for a hash decides whether the credential chain is live.
type APIKey struct {
	APIKeyID      int64
	CreationTime  int64
	CreatorUserID int64
	KeyHash       string
	Kind          APIKeyKind
	Duration      int64
}

// Filters for the view operations. Slice fields are set-membership filters
// and are ignored when empty; pointer fields are ignored when nil.
// OnlyRecent restricts to the latest row per logical key before the other
// filters apply.

type UserFilter struct {
	UserID          []int64
	MinCreationTime *int64
	MaxCreationTime *int64
}

type UserDataFilter struct {
	UserDataID      []int64
	MinCreationTime *int64
	MaxCreationTime *int64
	CreatorUserID   []int64
	Name            []string
	OnlyRecent      bool
}

type ChallengeFilter struct {
	MinCreationTime *int64
	MaxCreationTime *int64
	CreatorUserID   []int64
	ToParent        *bool
	Email           []string
}

type EmailFilter struct {
	EmailID         []int64
	MinCreationTime *int64
	MaxCreationTime *int64
	CreatorUserID   []int64
	Email           []string
	OnlyRecent      bool
}

type ParentPermissionFilter struct {
	ParentPermissionID []int64
	MinCreationTime    *int64
	MaxCreationTime    *int64
	UserID             []int64
	FromChallenge      *bool
	ParentEmail        []string
	OnlyRecent         bool
}

type PasswordFilter struct {
	PasswordID      []int64
	MinCreationTime *int64
	MaxCreationTime *int64
	CreatorUserID   []int64
	FromReset       *bool
	OnlyRecent      bool
}

type APIKeyFilter struct {
	APIKeyID        []int64
	MinCreationTime *int64
	MaxCreationTime *int64
	CreatorUserID   []int64
	MinDuration     *int64
	MaxDuration     *int64
	Kind            *APIKeyKind
	OnlyRecent      bool
}
