package email

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/dkravets/photoshare-service/internal/config"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// Enabled reports whether SMTP is configured. Notifications are skipped
// silently when it is not.
func (s *Sender) Enabled() bool {
	return s.cfg.SMTPHost != ""
}

// SendWelcome sends a welcome email to a newly registered user
func (s *Sender) SendWelcome(to, username string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Welcome to PhotoShare! Your account has been created.\n"+
			"You can now upload photos, tag them and rate what others share.\n"+
			"\nBest regards,\nPhotoShare",
		username,
	)
	return s.send(to, "Welcome to PhotoShare", body)
}

// SendBanNotice notifies a user that their account status changed
func (s *Sender) SendBanNotice(to, username string, banned bool) error {
	var subject, action string
	if banned {
		subject = "Account Suspended"
		action = "Your account has been suspended by an administrator.\n" +
			"You will not be able to log in or access the service until it is reinstated.\n"
	} else {
		subject = "Account Reinstated"
		action = "Your account has been reinstated. You can log in again.\n"
	}
	body := fmt.Sprintf("Dear %s,\n\n%s\nBest regards,\nPhotoShare", username, action)
	return s.send(to, subject, body)
}

func (s *Sender) send(to, subject, body string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
