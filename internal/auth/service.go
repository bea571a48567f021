// Package auth holds the credential workflow engine: account creation,
// email and parent verification, password lifecycle, and API key
// issuance. Transport concerns stay in internal/transport; persistence
// stays behind the Store interface.
package auth

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"custos/internal/audit"
	"custos/internal/mail"
	"custos/internal/platform/metrics"
	"custos/internal/store"
	"custos/internal/token"
	"custos/pkg/autherr"
	"custos/pkg/requestcontext"
)

// ValidityWindow bounds both verification challenges and password resets.
const ValidityWindow = 15 * time.Minute

const validityWindowMillis = int64(ValidityWindow / time.Millisecond)

// Store is the persistence surface the workflows need. *store.Postgres
// serves production; *store.Memory serves tests.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	AddUser(ctx context.Context) (store.User, error)
	GetUserByID(ctx context.Context, userID int64) (*store.User, error)
	QueryUsers(ctx context.Context, f store.UserFilter) ([]store.User, error)

	AddUserData(ctx context.Context, creatorUserID int64, name string) (store.UserData, error)
	GetUserDataByUserID(ctx context.Context, userID int64) (*store.UserData, error)
	QueryUserData(ctx context.Context, f store.UserDataFilter) ([]store.UserData, error)

	AddChallenge(ctx context.Context, keyHash, email string, creatorUserID int64, toParent bool) (store.VerificationChallenge, error)
	GetChallengeByKeyHash(ctx context.Context, keyHash string) (*store.VerificationChallenge, error)
	LatestChallengeTimeByCreator(ctx context.Context, creatorUserID int64) (*int64, error)
	QueryChallenges(ctx context.Context, f store.ChallengeFilter) ([]store.VerificationChallenge, error)

	AddEmail(ctx context.Context, creatorUserID int64, challengeKeyHash string) (store.Email, error)
	GetEmailByKeyHash(ctx context.Context, challengeKeyHash string) (*store.Email, error)
	GetEmailByAddress(ctx context.Context, address string) (*store.Email, error)
	GetEmailByUserID(ctx context.Context, userID int64) (*store.Email, error)
	QueryEmails(ctx context.Context, f store.EmailFilter) ([]store.Email, error)

	AddParentPermission(ctx context.Context, userID int64, challengeKeyHash *string) (store.ParentPermission, error)
	GetParentPermissionByUserID(ctx context.Context, userID int64) (*store.ParentPermission, error)
	GetParentPermissionByKeyHash(ctx context.Context, challengeKeyHash string) (*store.ParentPermission, error)
	QueryParentPermissions(ctx context.Context, f store.ParentPermissionFilter) ([]store.ParentPermission, error)

	AddPasswordReset(ctx context.Context, keyHash string, creatorUserID int64) (store.PasswordReset, error)
	GetPasswordResetByKeyHash(ctx context.Context, keyHash string) (*store.PasswordReset, error)

	AddPassword(ctx context.Context, creatorUserID int64, passwordHash string, resetKeyHash *string) (store.Password, error)
	GetPasswordByUserID(ctx context.Context, userID int64) (*store.Password, error)
	PasswordExistsForResetHash(ctx context.Context, resetKeyHash string) (bool, error)
	QueryPasswords(ctx context.Context, f store.PasswordFilter) ([]store.Password, error)

	AddAPIKey(ctx context.Context, creatorUserID int64, keyHash string, kind store.APIKeyKind, duration int64) (store.APIKey, error)
	GetAPIKeyByKeyHash(ctx context.Context, keyHash string) (*store.APIKey, error)
	QueryAPIKeys(ctx context.Context, f store.APIKeyFilter) ([]store.APIKey, error)
}

// Service runs the credential workflows.
type Service struct {
	store   Store
	mailer  mail.Mailer
	metrics *metrics.Metrics
	audit   audit.Publisher
	log     *slog.Logger
	siteURL string
	tracer  trace.Tracer
}

func NewService(st Store, mailer mail.Mailer, m *metrics.Metrics, pub audit.Publisher, log *slog.Logger, siteURL string) *Service {
	return &Service{
		store:   st,
		mailer:  mailer,
		metrics: m,
		audit:   pub,
		log:     log,
		siteURL: siteURL,
		tracer:  otel.Tracer("custos/auth"),
	}
}

// getAPIKeyIfValidNoVerify resolves a raw API key to its latest row and
// checks that the row is still a live grant: the latest row must be of
// the valid kind and inside its duration. Parent permission is not
// checked here.
func (s *Service) getAPIKeyIfValidNoVerify(ctx context.Context, rawKey string) (*store.APIKey, error) {
	key, err := s.store.GetAPIKeyByKeyHash(ctx, token.Hash(rawKey))
	if err != nil {
		return nil, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup api key")
	}
	if key == nil {
		return nil, autherr.New(autherr.CodeAPIKeyNonexistent, "api key does not exist")
	}
	if key.Kind != store.APIKeyKindValid {
		return nil, autherr.New(autherr.CodeAPIKeyUnauthorized, "api key cancelled")
	}
	if requestcontext.NowMillis(ctx) > key.CreationTime+key.Duration {
		return nil, autherr.New(autherr.CodeAPIKeyUnauthorized, "api key expired")
	}
	return key, nil
}

// getAPIKeyIfVerified additionally requires the key's owner to hold a
// parent permission row.
func (s *Service) getAPIKeyIfVerified(ctx context.Context, rawKey string) (*store.APIKey, error) {
	key, err := s.getAPIKeyIfValidNoVerify(ctx, rawKey)
	if err != nil {
		return nil, err
	}
	pp, err := s.store.GetParentPermissionByUserID(ctx, key.CreatorUserID)
	if err != nil {
		return nil, autherr.Wrap(err, autherr.CodeInternalServerError, "lookup parent permission")
	}
	if pp == nil {
		return nil, autherr.New(autherr.CodeParentPermissionNonexistent, "parent permission required")
	}
	return key, nil
}

func (s *Service) publishAudit(ctx context.Context, action audit.Action, userID int64, keyHash, detail string) {
	s.audit.Publish(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    action,
		UserID:    userID,
		RequestID: requestcontext.RequestID(ctx),
		KeyHash:   keyHash,
		Detail:    detail,
	})
}
