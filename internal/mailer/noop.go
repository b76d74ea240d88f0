package mailer

import "github.com/rs/zerolog"

// Noop reports success without sending and logs what would have gone
// out. Not an error condition: unconfigured transport is a supported
// deployment for development and staging.
type Noop struct {
	Log zerolog.Logger
}

var _ Sender = (*Noop)(nil)

func (n *Noop) Send(to, subject, htmlBody string) error {
	n.Log.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(htmlBody)).
		Msg("mail transport unconfigured, message dropped as delivered")
	return nil
}
