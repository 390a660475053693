package mail

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogMailer records outgoing emails in the log instead of sending them. It is
// used in development when no SMTP host is configured. Bodies carry one-time
// codes and reset tokens, so only the envelope is logged.
type LogMailer struct {
	log      zerolog.Logger
	renderer *Renderer
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log, renderer: NewRenderer()}
}

func (m *LogMailer) SendOTP(_ context.Context, to, code string, ttl time.Duration) error {
	msg, err := m.renderer.OTP(code, ttl)
	if err != nil {
		return err
	}
	m.write(to, msg)
	return nil
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, link string, ttl time.Duration) error {
	msg, err := m.renderer.PasswordReset(link, ttl)
	if err != nil {
		return err
	}
	m.write(to, msg)
	return nil
}

func (m *LogMailer) write(to string, msg Message) {
	m.log.Info().
		Str("to", to).
		Str("subject", msg.Subject).
		Msg("mail not sent: smtp disabled")
}
