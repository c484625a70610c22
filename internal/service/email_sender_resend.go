package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

var errEmailSenderNotConfigured = errors.New("email sender not configured")

// ResendEmailSender delivers verification and reset codes through the
// Resend API.
type ResendEmailSender struct {
	client *resend.Client
	from   string
}

func NewResendEmailSender(apiKey string, from string) *ResendEmailSender {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return &ResendEmailSender{}
	}
	return &ResendEmailSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *ResendEmailSender) SendVerificationEmail(ctx context.Context, email string, name string, otp string) error {
	subject := "Welcome to BidBuy - Your Verification Code"
	html := codeEmailHTML(
		fmt.Sprintf("Welcome to BidBuy, %s!", displayName(name)),
		"To complete your registration, enter this code in the verification page.",
		otp,
		"This code will expire in 5 minutes.",
	)
	text := fmt.Sprintf("Your verification code is: %s. Please enter this code in the verification page.", otp)
	return s.send(ctx, email, subject, html, text)
}

func (s *ResendEmailSender) SendPasswordResetEmail(ctx context.Context, email string, name string, otp string) error {
	subject := "BidBuy - Password Reset Request"
	html := codeEmailHTML(
		fmt.Sprintf("Hello %s,", displayName(name)),
		"We received a request to reset your password. Use this code to continue.",
		otp,
		"This code will expire in 10 minutes. If you didn't request a reset, ignore this email.",
	)
	text := fmt.Sprintf("Your password reset code is: %s. It expires in 10 minutes.", otp)
	return s.send(ctx, email, subject, html, text)
}

func (s *ResendEmailSender) SendPasswordChangedEmail(ctx context.Context, email string, name string) error {
	subject := "BidBuy - Your Password Was Changed"
	html := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your BidBuy password was just changed. If this was you, no action is needed.</p><p>If you didn't change it, reset your password immediately and contact support.</p>",
		displayName(name),
	)
	text := "Your BidBuy password was just changed. If this wasn't you, reset your password immediately."
	return s.send(ctx, email, subject, html, text)
}

func (s *ResendEmailSender) send(ctx context.Context, to string, subject string, html string, text string) error {
	if s.client == nil {
		return errEmailSenderNotConfigured
	}
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
	})
	return err
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}

func codeEmailHTML(heading string, intro string, code string, expiryNote string) string {
	return fmt.Sprintf(`<div style="max-width:600px;margin:auto;background:#ffffff;padding:30px;border-radius:8px;font-family:Arial,sans-serif;">
<h2 style="color:#333;margin-top:0;">%s</h2>
<p>%s</p>
<div style="background:#f8f9fa;padding:20px;margin:25px 0;text-align:center;border-radius:4px;border:1px dashed #ddd;">
<p style="margin:0 0 15px 0;color:#555;">Your code is:</p>
<div style="font-size:32px;font-weight:bold;letter-spacing:5px;color:#2c3e50;">%s</div>
<p style="margin:15px 0 0 0;color:#777;font-size:14px;">%s</p>
</div>
<p style="font-size:0.9em;color:#777;">Thank you,<br>The BidBuy Team</p>
</div>`, heading, intro, code, expiryNote)
}
