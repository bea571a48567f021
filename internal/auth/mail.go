package auth

import (
	"context"
	"fmt"

	"custos/internal/mail"
)

// Outbound mail is the only place a raw verification key ever travels.
// Each builder embeds the key in a confirmation link; the store sees the
// hash alone.

func (s *Service) sendEmailVerificationMail(ctx context.Context, targetEmail, userName, rawKey string) error {
	return s.send(ctx, mail.Message{
		Destination: targetEmail,
		Topic:       "verification_challenge",
		Title:       fmt.Sprintf("%s: Email Verification", s.siteURL),
		Content: fmt.Sprintf(
			"<p>This email has been sent to verify for: <code>%s</code> </p>"+
				"<p>If you did not make this request, then feel free to ignore.</p>"+
				"<p>This link is valid for up to 15 minutes.</p>"+
				"<p>Do not share this link with others.</p>"+
				"<p>Verification link: %s/email_confirm?verificationChallengeKey=%s</p>",
			userName, s.siteURL, rawKey,
		),
	})
}

func (s *Service) sendParentPermissionMail(ctx context.Context, targetEmail, userName, rawKey string) error {
	return s.send(ctx, mail.Message{
		Destination: targetEmail,
		Topic:       "parent_permission",
		Title:       fmt.Sprintf("%s: Parent Permission For %s", s.siteURL, userName),
		Content: fmt.Sprintf(
			"<p>Your child, <code>%s</code>, has requested permission to use: <code>%s</code></p>"+
				"<p>If you did not make this request, then feel free to ignore.</p>"+
				"<p>This link is valid for up to 15 minutes.</p>"+
				"<p>Do not share this link with others.</p>"+
				"<p>Verification link: %s/parent_confirm?verificationChallengeKey=%s</p>",
			userName, s.siteURL, s.siteURL, rawKey,
		),
	})
}

func (s *Service) sendPasswordResetMail(ctx context.Context, targetEmail, rawKey string) error {
	return s.send(ctx, mail.Message{
		Destination: targetEmail,
		Topic:       "password_reset",
		Title:       fmt.Sprintf("%s: Password Reset", s.siteURL),
		Content: fmt.Sprintf(
			"<p>Requested password reset service: </p>"+
				"<p>If you did not make this request, then feel free to ignore.</p>"+
				"<p>This link is valid for up to 15 minutes.</p>"+
				"<p>Do not share this link with others.</p>"+
				"<p>Password change link: %s/reset_password?resetKey=%s</p>",
			s.siteURL, rawKey,
		),
	})
}

func (s *Service) send(ctx context.Context, msg mail.Message) error {
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.IncMailFailed()
		return err
	}
	s.metrics.IncMailSent()
	return nil
}
