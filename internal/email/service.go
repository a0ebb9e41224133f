// Package email sends patient-facing mail over SMTP. Delivery is best
// effort; callers log failures and move on.
package email

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/pkg/errors"
)

type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From     string `mapstructure:"from"`
}

type Service interface {
	SendAppointmentConfirmation(to, patientName string, apt *model.Appointment) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg Config) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendAppointmentConfirmation(to, patientName string, apt *model.Appointment) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your appointment is registered")
	m.SetBody("text/plain", fmt.Sprintf(
		"Hello %s,\n\nYour visit for %q on %s has been registered. Please arrive a few minutes early and check in at the front desk.\n\nReference: %s\n",
		patientName,
		apt.PurposeOfVisit,
		apt.AppointmentDate.Format(time.RFC1123),
		apt.ID,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return errors.External("failed to send confirmation email", err)
	}
	return nil
}
