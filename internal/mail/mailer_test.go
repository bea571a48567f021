package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/pkg/autherr"
)

func TestClientSendOk(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/mail_new", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"Ok":{"mail_id":1}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.Send(context.Background(), Message{
		Destination: "a@b.c",
		Topic:       "verification_challenge",
		Title:       "Email Verification",
		Content:     "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", got.Destination)
	assert.Equal(t, "verification_challenge", got.Topic)
}

func TestClientSendBounced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Err":"DESTINATION_BOUNCED"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Send(context.Background(), Message{Destination: "a@b.c"})
	require.Error(t, err)
	assert.Equal(t, autherr.CodeEmailBounced, autherr.CodeOf(err))
}

func TestClientSendProhibitedIsBounced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Err":"DESTINATION_PROHIBITED"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Send(context.Background(), Message{Destination: "a@b.c"})
	assert.Equal(t, autherr.CodeEmailBounced, autherr.CodeOf(err))
}

func TestClientSendOtherErrorIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Err":"SMTP_FAILURE"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Send(context.Background(), Message{Destination: "a@b.c"})
	assert.Equal(t, autherr.CodeEmailUnknown, autherr.CodeOf(err))
}

func TestClientSendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := NewClient(srv.URL).Send(context.Background(), Message{Destination: "a@b.c"})
	require.Error(t, err)
	assert.Equal(t, autherr.CodeEmailUnknown, autherr.CodeOf(err))
}

func TestNopMailer(t *testing.T) {
	require.NoError(t, NopMailer{}.Send(context.Background(), Message{Destination: "a@b.c"}))
}
