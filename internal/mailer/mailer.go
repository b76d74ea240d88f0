// Package mailer abstracts the outbound email transport.
package mailer

import (
	"github.com/rs/zerolog"

	"github.com/leadpilot/crm-mailer/internal/config"
)

// Sender delivers one rendered message. Implementations return an error
// only for transport-level failures; the caller decides whether that
// aborts anything.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// New picks the transport from config. Without an SMTP host the service
// deliberately degrades to a logged no-op success so the rest of the
// pipeline stays exercisable without a live mail server.
func New(cfg config.Config, log zerolog.Logger) Sender {
	if cfg.SMTPHost == "" {
		log.Warn().Msg("SMTP not configured, outbound mail degrades to logged no-op")
		return &Noop{Log: log}
	}
	return &SMTP{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}
}
