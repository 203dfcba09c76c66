package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"subsonic-backend/config"
	"subsonic-backend/internal/domain"
)

// ErrNotConfigured is returned when notification settings are incomplete.
var ErrNotConfigured = errors.New("email service is not configured")

// Message is one notification email.
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// Sender delivers a message and returns once delivery reached a terminal state.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// EmailService renders and sends owner notifications for new quotes
type EmailService struct {
	sender      Sender
	fromEmail   string
	toEmail     string
	siteDomain  string
	location    *time.Location
	sendTimeout time.Duration
}

// NewSender picks a transport from the connection string:
// smtp:// URLs use SMTP, anything else is read as an ACS connection string.
func NewSender(connStr string, pollInterval time.Duration) (Sender, error) {
	if strings.HasPrefix(strings.ToLower(connStr), "smtp://") {
		return NewSMTPSender(connStr)
	}
	return NewACSClient(connStr, pollInterval)
}

// NewEmailService returns an unconfigured service when any of connection
// string, sender or recipient is missing.
func NewEmailService(cfg *config.Config) (*EmailService, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}

	s := &EmailService{
		fromEmail:   cfg.EmailSenderAddress,
		toEmail:     cfg.NotificationEmail,
		siteDomain:  cfg.SiteDomain,
		location:    loc,
		sendTimeout: cfg.EmailSendTimeout,
	}
	if !cfg.EmailConfigured() {
		return s, nil
	}

	sender, err := NewSender(cfg.EmailConnectionString, cfg.EmailPollInterval)
	if err != nil {
		return s, fmt.Errorf("failed to build email sender: %w", err)
	}
	s.sender = sender
	return s, nil
}

// NewEmailServiceWithSender is used by tests and alternative transports.
func NewEmailServiceWithSender(sender Sender, from, to, siteDomain string, loc *time.Location, sendTimeout time.Duration) *EmailService {
	if loc == nil {
		loc = time.UTC
	}
	return &EmailService{
		sender:      sender,
		fromEmail:   from,
		toEmail:     to,
		siteDomain:  siteDomain,
		location:    loc,
		sendTimeout: sendTimeout,
	}
}

// IsConfigured checks if the email service can send
func (s *EmailService) IsConfigured() bool {
	return s != nil && s.sender != nil && s.fromEmail != "" && s.toEmail != ""
}

// NotifyQuote sends the new-quote email and waits for delivery, bounded by the send timeout.
func (s *EmailService) NotifyQuote(ctx context.Context, n domain.QuoteNotification) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}

	received := n.ReceivedAt
	if received.IsZero() {
		received = time.Now()
	}

	html, err := RenderQuoteEmail(QuoteEmailData{
		TipoLabel:    n.TipoLabel,
		Nombre:       n.Nombre,
		Email:        n.Email,
		FechaEvento:  n.FechaEvento,
		Mensaje:      n.Mensaje,
		ReceivedDate: received.In(s.location).Format("02-01-2006"),
		SiteDomain:   s.siteDomain,
	})
	if err != nil {
		return err
	}

	if s.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.sendTimeout)
		defer cancel()
	}

	err = s.sender.Send(ctx, Message{
		From:    s.fromEmail,
		To:      s.toEmail,
		ReplyTo: n.Email,
		Subject: QuoteSubject(n.TipoLabel),
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to send quote email: %w", err)
	}
	return nil
}
