// Package mail delivers transactional email through an external mail
// service. Mailer implementations share one Send method; add other
// transports as separate files in this package.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"custos/pkg/autherr"
)

// Message is the payload handed to the mail service.
type Message struct {
	RequestID   int64  `json:"request_id"`
	Destination string `json:"destination"`
	Topic       string `json:"topic"`
	Title       string `json:"title"`
	Content     string `json:"content"`
}

//go:generate mockgen -source=mailer.go -destination=mocks/mailer_mock.go -package=mocks Mailer

// Mailer sends one transactional message. The raw verification key is
// embedded in Content by the caller; only its hash is ever stored.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NopMailer discards all outbound email. Used when no mail service is
// configured.
type NopMailer struct{}

func (NopMailer) Send(ctx context.Context, msg Message) error { return nil }

// Client posts messages to the mail service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// mailEnvelope mirrors the mail service's response body: exactly one of
// Ok or Err is set.
type mailEnvelope struct {
	Ok  *json.RawMessage `json:"Ok"`
	Err *string          `json:"Err"`
}

// Send posts the message and maps delivery failures onto email error
// codes: bounced or prohibited destinations surface as EMAIL_BOUNCED,
// anything else as EMAIL_UNKNOWN.
func (c *Client) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return autherr.Wrap(err, autherr.CodeEmailUnknown, "encode mail request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mail_new", bytes.NewReader(body))
	if err != nil {
		return autherr.Wrap(err, autherr.CodeEmailUnknown, "build mail request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return autherr.Wrap(err, autherr.CodeEmailUnknown, "mail service unreachable")
	}
	defer resp.Body.Close()

	var env mailEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return autherr.Wrap(err, autherr.CodeEmailUnknown, "decode mail response")
	}
	if env.Err != nil {
		switch *env.Err {
		case "DESTINATION_BOUNCED", "DESTINATION_PROHIBITED":
			return autherr.New(autherr.CodeEmailBounced, fmt.Sprintf("mail service: %s", *env.Err))
		default:
			return autherr.New(autherr.CodeEmailUnknown, fmt.Sprintf("mail service: %s", *env.Err))
		}
	}
	return nil
}
