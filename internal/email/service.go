package email

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/clinicore/clinic-ops-api/internal/config"
)

// Service sends transactional mail to patients and staff.
type Service interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendPasswordReset(ctx context.Context, to, token string) error
	SendAppointmentConfirmation(ctx context.Context, to string, startTime time.Time) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	logger zerolog.Logger
}

func NewSMTPService(cfg config.SMTPConfig, logger zerolog.Logger) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger.With().Str("component", "email").Logger(),
	}
}

func (s *smtpService) SendWelcome(ctx context.Context, to, name string) error {
	body := fmt.Sprintf(`
		<h2>Welcome to the clinic portal, %s</h2>
		<p>Your account has been created. A member of staff will activate it shortly.</p>
	`, name)
	return s.send(ctx, to, "Welcome to the clinic portal", body)
}

func (s *smtpService) SendPasswordReset(ctx context.Context, to, token string) error {
	body := fmt.Sprintf(`
		<h2>Password Reset</h2>
		<p>Use the token below to reset your password. It expires in one hour.</p>
		<p><strong>%s</strong></p>
		<p>If you did not request a reset, you can ignore this email.</p>
	`, token)
	return s.send(ctx, to, "Password reset request", body)
}

func (s *smtpService) SendAppointmentConfirmation(ctx context.Context, to string, startTime time.Time) error {
	body := fmt.Sprintf(`
		<h2>Appointment Confirmed</h2>
		<p>Your appointment is booked for <strong>%s</strong>.</p>
		<p>Please arrive 15 minutes early for check-in.</p>
	`, startTime.Format("Monday, 2 January 2006 at 15:04"))
	return s.send(ctx, to, "Your appointment is confirmed", body)
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error().Err(err).Str("to", to).Str("subject", subject).Msg("failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}

// NoopService is used when SMTP is not configured, e.g. in development.
type NoopService struct {
	Logger zerolog.Logger
}

func (n *NoopService) SendWelcome(_ context.Context, to, _ string) error {
	n.Logger.Info().Str("to", to).Msg("email disabled, skipping welcome mail")
	return nil
}

func (n *NoopService) SendPasswordReset(_ context.Context, to, _ string) error {
	n.Logger.Info().Str("to", to).Msg("email disabled, skipping password reset mail")
	return nil
}

func (n *NoopService) SendAppointmentConfirmation(_ context.Context, to string, _ time.Time) error {
	n.Logger.Info().Str("to", to).Msg("email disabled, skipping appointment confirmation")
	return nil
}
