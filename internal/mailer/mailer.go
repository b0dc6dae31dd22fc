package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

type Config struct {
	Host     string
	Port     string
	From     string
	Password string
}

func (c Config) addr() string {
	return c.Host + ":" + c.Port
}

// SendBookingEmail notifies a booker about their booking's state. Status is
// one of "pending_payment", "reminder", "paid".
func SendBookingEmail(log *zerolog.Logger, cfg Config, eventTitle, status, recipientEmail string) error {
	if recipientEmail == "" {
		return nil
	}

	var subject, body string
	switch status {
	case "pending_payment":
		subject = "Booking saved, pending payment"
		body = fmt.Sprintf("Hello!\n\nYour booking for \"%s\" has been saved and is awaiting payment.\nYou can pay at any time from My Bookings.", eventTitle)
	case "reminder":
		subject = "Payment reminder"
		body = fmt.Sprintf("Hello!\n\nYour booking for \"%s\" is still unpaid.\nPlease complete payment from My Bookings before the pickup date.", eventTitle)
	case "paid":
		subject = "Payment received"
		body = fmt.Sprintf("Hello!\n\nWe received your payment for \"%s\". See you at the pickup location!", eventTitle)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		cfg.From, recipientEmail, subject, body,
	)

	auth := smtp.PlainAuth("", cfg.From, cfg.Password, cfg.Host)

	if err := smtp.SendMail(cfg.addr(), auth, cfg.From, []string{recipientEmail}, []byte(msg)); err != nil {
		log.Warn().Msgf("failed to send email to %s: %v", recipientEmail, err)
		return fmt.Errorf("send email: %w", err)
	}

	log.Info().Msgf("email sent to %s (status: %s)", recipientEmail, status)
	return nil
}
