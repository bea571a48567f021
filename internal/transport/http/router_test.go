package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/audit"
	"custos/internal/auth"
	"custos/internal/mail"
	"custos/internal/store"
)

// capturingMailer records outbound messages so tests can pull raw keys
// out of the links.
type capturingMailer struct {
	sent []mail.Message
}

func (c *capturingMailer) Send(ctx context.Context, msg mail.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

var keyRe = regexp.MustCompile(`verificationChallengeKey=([A-Za-z0-9_-]+)`)

func newTestServer(t *testing.T) (*httptest.Server, *capturingMailer) {
	t.Helper()
	mailer := &capturingMailer{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := auth.NewService(store.NewMemory(), mailer, nil, audit.Noop{}, log, "http://site.test")
	srv := httptest.NewServer(NewRouter(NewHandler(svc), log, nil))
	t.Cleanup(srv.Close)
	return srv, mailer
}

func post(t *testing.T, url string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestUserNewEnvelope(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, env := post(t, srv.URL+"/public/user/new", map[string]any{
		"user_name":     "alice",
		"user_email":    "alice@example.com",
		"user_password": "longenough1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, env, "Ok")

	var ud auth.UserDataResp
	require.NoError(t, json.Unmarshal(env["Ok"], &ud))
	assert.Equal(t, "alice", ud.Name)
	assert.NotZero(t, ud.CreatorUserID)
}

func TestDomainErrorEnvelope(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, env := post(t, srv.URL+"/public/user/new", map[string]any{
		"user_name":     "",
		"user_email":    "alice@example.com",
		"user_password": "longenough1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, `"USER_NAME_EMPTY"`, string(env["Err"]))
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/public/user/new", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var env map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, "BAD_REQUEST", env["Err"])
}

func TestMalformedEmailBounces(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, env := post(t, srv.URL+"/public/user/new", map[string]any{
		"user_name":     "alice",
		"user_email":    "not-an-address",
		"user_password": "longenough1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, `"EMAIL_BOUNCED"`, string(env["Err"]))
}

func TestUnknownRouteAndMethod(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/public/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/public/user/new")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestInfo(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/info")
	require.NoError(t, err)
	defer resp.Body.Close()

	var info map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "custos", info["name"])
	assert.Equal(t, "0.1", info["version"])
}

func TestRegistrationLoginFlow(t *testing.T) {
	srv, mailer := newTestServer(t)

	resp, _ := post(t, srv.URL+"/public/user/new", map[string]any{
		"user_name":     "alice",
		"user_email":    "alice@example.com",
		"user_password": "longenough1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, mailer.sent, 1)

	m := keyRe.FindStringSubmatch(mailer.sent[0].Content)
	require.Len(t, m, 2)

	resp, env := post(t, srv.URL+"/public/email/new", map[string]any{
		"verification_challenge_key": m[1],
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var email auth.EmailResp
	require.NoError(t, json.Unmarshal(env["Ok"], &email))
	assert.Equal(t, "alice@example.com", email.VerificationChallenge.Email)

	resp, env = post(t, srv.URL+"/public/api_key/new_valid", map[string]any{
		"user_email":    "alice@example.com",
		"user_password": "longenough1",
		"duration":      3600000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var key auth.APIKeyResp
	require.NoError(t, json.Unmarshal(env["Ok"], &key))
	require.NotNil(t, key.APIKeyData.Key)

	// the issued key authorizes views
	resp, env = post(t, srv.URL+"/public/user_data/view", map[string]any{
		"api_key":     *key.APIKeyData.Key,
		"only_recent": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rows []auth.UserDataResp
	require.NoError(t, json.Unmarshal(env["Ok"], &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].Name)

	// and the private lookup resolves the key's owner
	resp, env = post(t, srv.URL+"/get_user_by_api_key_if_valid", map[string]any{
		"api_key": *key.APIKeyData.Key,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user auth.UserResp
	require.NoError(t, json.Unmarshal(env["Ok"], &user))
	assert.Equal(t, rows[0].CreatorUserID, user.UserID)
}
