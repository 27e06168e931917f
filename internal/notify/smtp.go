package notify

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/stemsi/exstem-online/internal/config"
)

// SMTPSender mails notifications over authenticated SMTP with STARTTLS.
type SMTPSender struct {
	cfg config.MailConfig
	log zerolog.Logger
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(cfg config.MailConfig, log zerolog.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: log.With().Str("component", "smtp").Logger()}
}

// Send implements Sender. Missing credentials skip delivery.
func (s *SMTPSender) Send(ctx context.Context, n Notification) bool {
	if !s.cfg.Configured() {
		s.log.Warn().Msg("Email credentials not configured, skipping")
		return false
	}

	msg, err := s.message(n)
	if err != nil {
		s.log.Error().Err(err).Str("to", n.Email).Msg("Build message failed")
		return false
	}

	client, err := mail.NewClient(s.cfg.Server,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		s.log.Error().Err(err).Msg("Create SMTP client failed")
		return false
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("to", n.Email).Msg("Send failed")
		return false
	}

	s.log.Info().Str("to", n.Email).Str("result_id", n.ResultID.String()).Msg("Result email sent")
	return true
}

func (s *SMTPSender) message(n Notification) (*mail.Msg, error) {
	from := s.cfg.From
	if from == "" {
		from = s.cfg.Username
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, err
	}
	if err := msg.To(n.Email); err != nil {
		return nil, err
	}
	msg.Subject(n.Subject())
	msg.SetBodyString(mail.TypeTextPlain, n.Body())
	return msg, nil
}
