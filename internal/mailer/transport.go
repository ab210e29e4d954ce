// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds outbound mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPTransport delivers messages through an SMTP relay. A connection is
// opened per message; volume is a handful of emails per booking.
type SMTPTransport struct {
	cfg SMTPConfig
}

// NewSMTPTransport creates an SMTP transport.
func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

// Send implements Transport.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(t.cfg.From); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return fmt.Errorf("reply-to address: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	opts := []mail.Option{
		mail.WithPort(t.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if t.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.Username),
			mail.WithPassword(t.cfg.Password),
		)
	}

	client, err := mail.NewClient(t.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	slog.Info("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// LogTransport writes messages to the structured log instead of sending
// them. Used when no SMTP host is configured.
type LogTransport struct{}

// Send implements Transport.
func (LogTransport) Send(_ context.Context, msg Message) error {
	slog.Info("email (not sent, SMTP not configured)",
		"to", msg.To,
		"reply_to", msg.ReplyTo,
		"subject", msg.Subject,
		"bytes", len(msg.HTML),
	)
	return nil
}
