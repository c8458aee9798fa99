// Copyright (c) 2026 Bloomify. All rights reserved.

// Package mail delivers plain-text messages through an SMTP relay.
//
// When no relay is configured in development, [LogSender] writes the message
// to the structured log instead so the signup flow stays usable locally.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
)

// Sender delivers one message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPConfig holds relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPSender sends mail with PLAIN auth over the configured relay.
type SMTPSender struct {
	config SMTPConfig
	send   func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender builds a sender. From defaults to Username.
func NewSMTPSender(config SMTPConfig) *SMTPSender {
	if config.From == "" {
		config.From = config.Username
	}
	return &SMTPSender{config: config, send: smtp.SendMail}
}

// Send implements [Sender].
func (sender *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("mail: header injection rejected")
	}

	var auth smtp.Auth
	if sender.config.Username != "" {
		auth = smtp.PlainAuth("", sender.config.Username, sender.config.Password, sender.config.Host)
	}

	addr := net.JoinHostPort(sender.config.Host, sender.config.Port)
	if err := sender.send(addr, auth, sender.config.From, []string{to}, buildMessage(sender.config.From, to, subject, body)); err != nil {
		return fmt.Errorf("mail: smtp send failed: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var builder strings.Builder
	builder.WriteString("From: " + from + "\r\n")
	builder.WriteString("To: " + to + "\r\n")
	builder.WriteString("Subject: " + subject + "\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	builder.WriteString(body)
	builder.WriteString("\r\n")
	return []byte(builder.String())
}

// LogSender writes messages to the log. Development only.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender returns a sender that logs instead of delivering.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send implements [Sender].
func (sender *LogSender) Send(ctx context.Context, to, subject, body string) error {
	sender.logger.WarnContext(ctx, "mail_not_sent_dev_fallback",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}
