package auth

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custos/internal/audit"
	"custos/internal/mail"
	"custos/internal/mail/mocks"
	"custos/internal/store"
	"custos/pkg/autherr"
	"custos/pkg/requestcontext"
)

var (
	challengeKeyRe = regexp.MustCompile(`verificationChallengeKey=([A-Za-z0-9_-]+)`)
	resetKeyRe     = regexp.MustCompile(`resetKey=([A-Za-z0-9_-]+)`)
)

type ServiceSuite struct {
	suite.Suite

	svc    *Service
	mailer *mocks.MockMailer

	mu   sync.Mutex
	sent []mail.Message
}

func (s *ServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.mailer = mocks.NewMockMailer(ctrl)
	s.sent = nil
	s.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, msg mail.Message) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.sent = append(s.sent, msg)
			return nil
		},
	).AnyTimes()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = NewService(store.NewMemory(), s.mailer, nil, audit.Noop{}, log, "http://site.test")
}

// at pins the request clock to an absolute unix-milli timestamp.
func (s *ServiceSuite) at(ms int64) context.Context {
	return requestcontext.WithTime(context.Background(), time.UnixMilli(ms))
}

func (s *ServiceSuite) lastMail() mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Require().NotEmpty(s.sent)
	return s.sent[len(s.sent)-1]
}

func (s *ServiceSuite) mailCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *ServiceSuite) keyFromMail(re *regexp.Regexp) string {
	m := re.FindStringSubmatch(s.lastMail().Content)
	s.Require().Len(m, 2)
	return m[1]
}

// register creates an adult account and confirms its email, returning the
// profile response.
func (s *ServiceSuite) register(ctx context.Context, name, email, pw string) UserDataResp {
	ud, err := s.svc.UserNew(ctx, UserNewProps{
		UserName:     name,
		UserEmail:    email,
		UserPassword: pw,
	})
	s.Require().NoError(err)

	rawKey := s.keyFromMail(challengeKeyRe)
	_, err = s.svc.EmailNew(ctx, EmailNewProps{VerificationChallengeKey: rawKey})
	s.Require().NoError(err)
	return ud
}

// login issues a one-hour key for a registered account.
func (s *ServiceSuite) login(ctx context.Context, email, pw string) string {
	resp, err := s.svc.APIKeyNewValid(ctx, APIKeyNewValidProps{
		UserEmail:    email,
		UserPassword: pw,
		Duration:     3_600_000,
	})
	s.Require().NoError(err)
	s.Require().NotNil(resp.APIKeyData.Key)
	return *resp.APIKeyData.Key
}

func (s *ServiceSuite) TestUserNewHappyPath() {
	ctx := s.at(1_000)

	ud, err := s.svc.UserNew(ctx, UserNewProps{
		UserName:     "alice",
		UserEmail:    "alice@example.com",
		UserPassword: "longenough1",
	})
	s.Require().NoError(err)
	s.Equal("alice", ud.Name)
	s.Equal(int64(1_000), ud.CreationTime)

	// verification mail went to the account address, with a usable link
	msg := s.lastMail()
	s.Equal("alice@example.com", msg.Destination)
	s.Equal("verification_challenge", msg.Topic)
	s.Contains(msg.Content, "http://site.test/email_confirm?verificationChallengeKey=")

	// adult self-declaration recorded a permission row immediately
	key := s.keyFromMail(challengeKeyRe)
	_, err = s.svc.EmailNew(ctx, EmailNewProps{VerificationChallengeKey: key})
	s.Require().NoError(err)
	raw := s.login(ctx, "alice@example.com", "longenough1")
	_, err = s.svc.GetUserByAPIKeyIfValid(ctx, GetUserByAPIKeyIfValidProps{APIKey: raw})
	s.NoError(err)
}

func (s *ServiceSuite) TestUserNewWithParentEmail() {
	ctx := s.at(1_000)

	_, err := s.svc.UserNew(ctx, UserNewProps{
		UserName:     "kid",
		UserEmail:    "kid@example.com",
		UserPassword: "longenough1",
		ParentEmail:  ptr("parent@example.com"),
	})
	s.Require().NoError(err)

	// one mail to the child, one to the parent
	s.Equal(2, s.mailCount())
	parentMsg := s.lastMail()
	s.Equal("parent@example.com", parentMsg.Destination)
	s.Equal("parent_permission", parentMsg.Topic)
	s.Contains(parentMsg.Content, "/parent_confirm?verificationChallengeKey=")
}

func (s *ServiceSuite) TestUserNewValidation() {
	ctx := s.at(1_000)

	_, err := s.svc.UserNew(ctx, UserNewProps{UserName: "", UserPassword: "longenough1"})
	s.Equal(autherr.CodeUserNameEmpty, autherr.CodeOf(err))

	_, err = s.svc.UserNew(ctx, UserNewProps{UserName: "x", UserPassword: "short1"})
	s.Equal(autherr.CodePasswordInsecure, autherr.CodeOf(err))

	_, err = s.svc.UserNew(ctx, UserNewProps{UserName: "x", UserPassword: "longenough"})
	s.Equal(autherr.CodePasswordInsecure, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestEmailNewSingleUse() {
	ctx := s.at(1_000)
	_, err := s.svc.UserNew(ctx, UserNewProps{
		UserName: "alice", UserEmail: "a@x.y", UserPassword: "longenough1",
	})
	s.Require().NoError(err)
	raw := s.keyFromMail(challengeKeyRe)

	_, err = s.svc.EmailNew(ctx, EmailNewProps{VerificationChallengeKey: raw})
	s.Require().NoError(err)

	_, err = s.svc.EmailNew(ctx, EmailNewProps{VerificationChallengeKey: raw})
	s.Equal(autherr.CodeVerificationChallengeUsed, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestEmailNewUnknownKey() {
	_, err := s.svc.EmailNew(s.at(1_000), EmailNewProps{VerificationChallengeKey: "nope"})
	s.Equal(autherr.CodeVerificationChallengeNonexistent, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestEmailNewValidityWindow() {
	ctx := s.at(1_000)
	_, err := s.svc.UserNew(ctx, UserNewProps{
		UserName: "alice", UserEmail: "a@x.y", UserPassword: "longenough1",
	})
	s.Require().NoError(err)
	raw := s.keyFromMail(challengeKeyRe)

	window := int64(15 * 60 * 1000)

	// exactly at the boundary the challenge still redeems
	_, err = s.svc.EmailNew(s.at(1_000+window), EmailNewProps{VerificationChallengeKey: raw})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestEmailNewTimedOut() {
	ctx := s.at(1_000)
	_, err := s.svc.UserNew(ctx, UserNewProps{
		UserName: "alice", UserEmail: "a@x.y", UserPassword: "longenough1",
	})
	s.Require().NoError(err)
	raw := s.keyFromMail(challengeKeyRe)

	window := int64(15 * 60 * 1000)
	_, err = s.svc.EmailNew(s.at(1_000+window+1), EmailNewProps{VerificationChallengeKey: raw})
	s.Equal(autherr.CodeVerificationChallengeTimedOut, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestEmailNewWrongKind() {
	ctx := s.at(1_000)
	_, err := s.svc.UserNew(ctx, UserNewProps{
		UserName: "kid", UserEmail: "kid@x.y", UserPassword: "longenough1",
		ParentEmail: ptr("parent@x.y"),
	})
	s.Require().NoError(err)

	// last mail carries the parent-purpose key
	parentKey := s.keyFromMail(challengeKeyRe)
	_, err = s.svc.EmailNew(ctx, EmailNewProps{VerificationChallengeKey: parentKey})
	s.Equal(autherr.CodeVerificationChallengeWrongKind, autherr.CodeOf(err))

	// and the parent key redeems fine on the parent endpoint
	_, err = s.svc.ParentPermissionNew(ctx, ParentPermissionNewProps{VerificationChallengeKey: parentKey})
	s.NoError(err)
}

func (s *ServiceSuite) TestEmailNewAddressTaken() {
	ctx := s.at(1_000)
	s.register(ctx, "alice", "shared@x.y", "longenough1")

	// second account asks for the same address, a window later so the
	// issue cooldown does not interfere
	later := s.at(1_000 + 16*60*1000)
	_, err := s.svc.UserNew(later, UserNewProps{
		UserName: "bob", UserEmail: "shared@x.y", UserPassword: "longenough1",
	})
	s.Require().NoError(err)
	raw := s.keyFromMail(challengeKeyRe)

	_, err = s.svc.EmailNew(later, EmailNewProps{VerificationChallengeKey: raw})
	s.Equal(autherr.CodeEmailExistent, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestParentPermissionNewSingleUse() {
	ctx := s.at(1_000)
	_, err := s.svc.UserNew(ctx, UserNewProps{
		UserName: "kid", UserEmail: "kid@x.y", UserPassword: "longenough1",
		ParentEmail: ptr("parent@x.y"),
	})
	s.Require().NoError(err)
	parentKey := s.keyFromMail(challengeKeyRe)

	_, err = s.svc.ParentPermissionNew(ctx, ParentPermissionNewProps{VerificationChallengeKey: parentKey})
	s.Require().NoError(err)
	_, err = s.svc.ParentPermissionNew(ctx, ParentPermissionNewProps{VerificationChallengeKey: parentKey})
	s.Equal(autherr.CodeVerificationChallengeUsed, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestChallengeCooldown() {
	ctx := s.at(1_000)
	s.register(ctx, "alice", "a@x.y", "longenough1")
	key := s.login(ctx, "a@x.y", "longenough1")

	// a challenge was just issued at registration; reissue inside the
	// window is refused
	_, err := s.svc.VerificationChallengeNew(ctx, VerificationChallengeNewProps{
		APIKey: key, Email: "new@x.y",
	})
	s.Equal(autherr.CodeEmailUnknown, autherr.CodeOf(err))

	// past the window it goes through
	later := s.at(1_000 + 15*60*1000 + 1)
	_, err = s.svc.VerificationChallengeNew(later, VerificationChallengeNewProps{
		APIKey: key, Email: "new@x.y",
	})
	s.NoError(err)
}

func (s *ServiceSuite) TestChallengeEmptyEmail() {
	_, err := s.svc.VerificationChallengeNew(s.at(1_000), VerificationChallengeNewProps{
		APIKey: "whatever", Email: "",
	})
	s.Equal(autherr.CodeEmailBounced, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestChallengeToParentWhenAlreadyPermitted() {
	ctx := s.at(1_000)
	s.register(ctx, "alice", "a@x.y", "longenough1")
	key := s.login(ctx, "a@x.y", "longenough1")

	// adult accounts hold a self-declared permission row
	later := s.at(1_000 + 16*60*1000)
	_, err := s.svc.VerificationChallengeNew(later, VerificationChallengeNewProps{
		APIKey: key, Email: "parent@x.y", ToParent: true,
	})
	s.Equal(autherr.CodeParentPermissionExistent, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestAPIKeyNewValidAuth() {
	ctx := s.at(1_000)
	s.register(ctx, "alice", "a@x.y", "longenough1")

	_, err := s.svc.APIKeyNewValid(ctx, APIKeyNewValidProps{
		UserEmail: "nobody@x.y", UserPassword: "longenough1", Duration: 1000,
	})
	s.Equal(autherr.CodeEmailNonexistent, autherr.CodeOf(err))

	_, err = s.svc.APIKeyNewValid(ctx, APIKeyNewValidProps{
		UserEmail: "a@x.y", UserPassword: "wrongpass1", Duration: 1000,
	})
	s.Equal(autherr.CodePasswordIncorrect, autherr.CodeOf(err))

	resp, err := s.svc.APIKeyNewValid(ctx, APIKeyNewValidProps{
		UserEmail: "a@x.y", UserPassword: "longenough1", Duration: 1000,
	})
	s.Require().NoError(err)
	s.Equal(store.APIKeyKindValid, resp.APIKeyData.Kind)
	s.Require().NotNil(resp.APIKeyData.Duration)
	s.Equal(int64(1000), *resp.APIKeyData.Duration)
	s.NotNil(resp.APIKeyData.Key)
}

func (s *ServiceSuite) TestAPIKeyExpiry() {
	ctx := s.at(1_000)
	s.register(ctx, "alice", "a@x.y", "longenough1")

	resp, err := s.svc.APIKeyNewValid(ctx, APIKeyNewValidProps{
		UserEmail: "a@x.y", UserPassword: "longenough1", Duration: 5_000,
	})
	s.Require().NoError(err)
	raw := *resp.APIKeyData.Key

	// inside and at the boundary the key works
	_, err = s.svc.GetUserByAPIKeyIfValid(s.at(6_000), GetUserByAPIKeyIfValidProps{APIKey: raw})
	s.NoError(err)

	// one past the boundary it does not
	_, err = s.svc.GetUserByAPIKeyIfValid(s.at(6_001), GetUserByAPIKeyIfValidProps{APIKey: raw})
	s.Equal(autherr.CodeAPIKeyUnauthorized, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestAPIKeyCancel() {
	ctx := s.at(1_000)
	s.register(ctx, "alice", "a@x.y", "longenough1")
	keyA := s.login(ctx, "a@x.y", "longenough1")
	keyB := s.login(ctx, "a@x.y", "longenough1")

	resp, err := s.svc.APIKeyNewCancel(ctx, APIKeyNewCancelProps{
		APIKey: keyA, APIKeyToCancel: keyB,
	})
	s.Require().NoError(err)
	s.Equal(store.APIKeyKindCancel, resp.APIKeyData.Kind)
	s.Nil(resp.APIKeyData.Key)

	// the cancelled key no longer authenticates; the canceller still does
	_, err = s.svc.GetUserByAPIKeyIfValid(ctx, GetUserByAPIKeyIfValidProps{APIKey: keyB})
	s.Equal(autherr.CodeAPIKeyUnauthorized, autherr.CodeOf(err))
	_, err = s.svc.GetUserByAPIKeyIfValid(ctx, GetUserByAPIKeyIfValidProps{APIKey: keyA})
	s.NoError(err)
}

func (s *ServiceSuite) TestAPIKeyCancelForeignKey() {
	ctx := s.at(1_000)
	s.register(ctx, "alice", "a@x.y", "longenough1")
	keyA := s.login(ctx, "a@x.y", "longenough1")

	later := s.at(1_000 + 16*60*1000)
	s.register(later, "bob", "b@x.y", "longenough1")
	keyB := s.login(later, "b@x.y", "longenough1")

	_, err := s.svc.APIKeyNewCancel(later, APIKeyNewCancelProps{
		APIKey: keyA, APIKeyToCancel: keyB,
	})
	s.Equal(autherr.CodeAPIKeyUnauthorized, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestAPIKeyCancelNeedsParentPermission() {
	ctx := s.at(1_000)
	// minor account: no permission row until the parent confirms
	_, err := s.svc.UserNew(ctx, UserNewProps{
		UserName: "kid", UserEmail: "kid@x.y", UserPassword: "longenough1",
		ParentEmail: ptr("parent@x.y"),
	})
	s.Require().NoError(err)

	s.mu.Lock()
	childKeyRaw := challengeKeyRe.FindStringSubmatch(s.sent[0].Content)[1]
	s.mu.Unlock()
	_, err = s.svc.EmailNew(ctx, EmailNewProps{VerificationChallengeKey: childKeyRaw})
	s.Require().NoError(err)

	key := s.login(ctx, "kid@x.y", "longenough1")
	key2 := s.login(ctx, "kid@x.y", "longenough1")

	_, err = s.svc.APIKeyNewCancel(ctx, APIKeyNewCancelProps{APIKey: key, APIKeyToCancel: key2})
	s.Equal(autherr.CodeParentPermissionNonexistent, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestPasswordResetFlow() {
	ctx := s.at(1_000)
	s.register(ctx, "alice", "a@x.y", "longenough1")

	_, err := s.svc.PasswordResetNew(ctx, PasswordResetNewProps{UserEmail: "a@x.y"})
	s.Require().NoError(err)
	msg := s.lastMail()
	s.Equal("password_reset", msg.Topic)
	resetKey := s.keyFromMail(resetKeyRe)

	_, err = s.svc.PasswordNewReset(ctx, PasswordNewResetProps{
		PasswordResetKey: resetKey, NewPassword: "freshsecret2",
	})
	s.Require().NoError(err)

	// old password refused, new accepted
	_, err = s.svc.APIKeyNewValid(ctx, APIKeyNewValidProps{
		UserEmail: "a@x.y", UserPassword: "longenough1", Duration: 1000,
	})
	s.Equal(autherr.CodePasswordIncorrect, autherr.CodeOf(err))
	s.login(ctx, "a@x.y", "freshsecret2")

	// the reset is spent
	_, err = s.svc.PasswordNewReset(ctx, PasswordNewResetProps{
		PasswordResetKey: resetKey, NewPassword: "anothersecret3",
	})
	s.Equal(autherr.CodePasswordExistent, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestPasswordResetUnknownEmail() {
	_, err := s.svc.PasswordResetNew(s.at(1_000), PasswordResetNewProps{UserEmail: "nobody@x.y"})
	s.Equal(autherr.CodeEmailNonexistent, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestPasswordResetTimedOut() {
	ctx := s.at(1_000)
	s.register(ctx, "alice", "a@x.y", "longenough1")

	_, err := s.svc.PasswordResetNew(ctx, PasswordResetNewProps{UserEmail: "a@x.y"})
	s.Require().NoError(err)
	resetKey := s.keyFromMail(resetKeyRe)

	window := int64(15 * 60 * 1000)
	_, err = s.svc.PasswordNewReset(s.at(1_000+window+1), PasswordNewResetProps{
		PasswordResetKey: resetKey, NewPassword: "freshsecret2",
	})
	s.Equal(autherr.CodePasswordResetTimedOut, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestPasswordNewResetInsecure() {
	ctx := s.at(1_000)
	s.register(ctx, "alice", "a@x.y", "longenough1")
	_, err := s.svc.PasswordResetNew(ctx, PasswordResetNewProps{UserEmail: "a@x.y"})
	s.Require().NoError(err)
	resetKey := s.keyFromMail(resetKeyRe)

	_, err = s.svc.PasswordNewReset(ctx, PasswordNewResetProps{
		PasswordResetKey: resetKey, NewPassword: "weak",
	})
	s.Equal(autherr.CodePasswordInsecure, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestPasswordNewChange() {
	ctx := s.at(1_000)
	s.register(ctx, "alice", "a@x.y", "longenough1")
	key := s.login(ctx, "a@x.y", "longenough1")

	resp, err := s.svc.PasswordNewChange(ctx, PasswordNewChangeProps{
		APIKey: key, NewPassword: "rotated1pass",
	})
	s.Require().NoError(err)
	s.Nil(resp.PasswordReset)

	s.login(ctx, "a@x.y", "rotated1pass")
}

func (s *ServiceSuite) TestUserDataNewAndView() {
	ctx := s.at(1_000)
	ud := s.register(ctx, "alice", "a@x.y", "longenough1")
	key := s.login(ctx, "a@x.y", "longenough1")

	_, err := s.svc.UserDataNew(ctx, UserDataNewProps{APIKey: key, UserName: "alicia"})
	s.Require().NoError(err)

	recent, err := s.svc.UserDataView(ctx, UserDataViewProps{
		APIKey:        key,
		CreatorUserID: []int64{ud.CreatorUserID},
		OnlyRecent:    true,
	})
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal("alicia", recent[0].Name)

	all, err := s.svc.UserDataView(ctx, UserDataViewProps{
		APIKey:        key,
		CreatorUserID: []int64{ud.CreatorUserID},
	})
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *ServiceSuite) TestViewsRequireLiveKey() {
	ctx := s.at(1_000)
	_, err := s.svc.UserView(ctx, UserViewProps{APIKey: "bogus"})
	s.Equal(autherr.CodeAPIKeyNonexistent, autherr.CodeOf(err))

	_, err = s.svc.EmailView(ctx, EmailViewProps{APIKey: "bogus"})
	s.Equal(autherr.CodeAPIKeyNonexistent, autherr.CodeOf(err))

	_, err = s.svc.APIKeyView(ctx, APIKeyViewProps{APIKey: "bogus"})
	s.Equal(autherr.CodeAPIKeyNonexistent, autherr.CodeOf(err))
}

func (s *ServiceSuite) TestParentPermissionView() {
	ctx := s.at(1_000)
	_, err := s.svc.UserNew(ctx, UserNewProps{
		UserName: "kid", UserEmail: "kid@x.y", UserPassword: "longenough1",
		ParentEmail: ptr("parent@x.y"),
	})
	s.Require().NoError(err)
	parentKey := s.keyFromMail(challengeKeyRe)
	_, err = s.svc.ParentPermissionNew(ctx, ParentPermissionNewProps{VerificationChallengeKey: parentKey})
	s.Require().NoError(err)

	s.mu.Lock()
	childKeyRaw := challengeKeyRe.FindStringSubmatch(s.sent[0].Content)[1]
	s.mu.Unlock()
	_, err = s.svc.EmailNew(ctx, EmailNewProps{VerificationChallengeKey: childKeyRaw})
	s.Require().NoError(err)
	key := s.login(ctx, "kid@x.y", "longenough1")

	fromChallenge := true
	rows, err := s.svc.ParentPermissionView(ctx, ParentPermissionViewProps{
		APIKey:        key,
		FromChallenge: &fromChallenge,
	})
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Require().NotNil(rows[0].VerificationChallenge)
	s.Equal("parent@x.y", rows[0].VerificationChallenge.Email)

	byParent, err := s.svc.ParentPermissionView(ctx, ParentPermissionViewProps{
		APIKey:      key,
		ParentEmail: []string{"parent@x.y"},
	})
	s.Require().NoError(err)
	s.Len(byParent, 1)
}

func (s *ServiceSuite) TestAPIKeyViewProjection() {
	ctx := s.at(1_000)
	s.register(ctx, "alice", "a@x.y", "longenough1")
	key := s.login(ctx, "a@x.y", "longenough1")

	rows, err := s.svc.APIKeyView(ctx, APIKeyViewProps{APIKey: key})
	s.Require().NoError(err)
	s.Require().NotEmpty(rows)
	for _, r := range rows {
		s.Nil(r.APIKeyData.Key, "views must never echo raw keys")
	}
}

func (s *ServiceSuite) TestGetUserByID() {
	ctx := s.at(1_000)
	ud := s.register(ctx, "alice", "a@x.y", "longenough1")

	u, err := s.svc.GetUserByID(ctx, GetUserByIDProps{UserID: ud.CreatorUserID})
	s.Require().NoError(err)
	s.Equal(ud.CreatorUserID, u.UserID)

	_, err = s.svc.GetUserByID(ctx, GetUserByIDProps{UserID: 9999})
	s.Equal(autherr.CodeUserNonexistent, autherr.CodeOf(err))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// bouncingMailer tests run outside the suite because they need a mailer
// that fails.
func TestUserNewMailBounce(t *testing.T) {
	ctrl := gomock.NewController(t)
	mailer := mocks.NewMockMailer(ctrl)
	mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(
		autherr.New(autherr.CodeEmailBounced, "mail service: DESTINATION_BOUNCED"),
	)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewMemory()
	svc := NewService(mem, mailer, nil, audit.Noop{}, log, "http://site.test")

	ctx := requestcontext.WithTime(context.Background(), time.UnixMilli(1_000))
	_, err := svc.UserNew(ctx, UserNewProps{
		UserName: "alice", UserEmail: "bad@x.y", UserPassword: "longenough1",
	})
	if autherr.CodeOf(err) != autherr.CodeEmailBounced {
		t.Fatalf("expected EMAIL_BOUNCED, got %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
