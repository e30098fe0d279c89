package email

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

// Sender dispatches a message to one or more recipients. The blog module
// depends on this interface so tests can substitute a recorder.
type Sender interface {
	Send(subject, body string, to []string) error
}

type Service struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewService() *Service {
	return &Service{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		user:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     os.Getenv("SMTP_FROM"),
	}
}

// Send delivers the message synchronously over SMTP. There is no retry or
// timeout policy at this layer; a failure is the caller's problem.
func (e *Service) Send(subject, body string, to []string) error {
	message := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", e.from, strings.Join(to, ", "), subject, body)

	auth := smtp.PlainAuth("", e.user, e.password, e.host)
	addr := fmt.Sprintf("%s:%s", e.host, e.port)

	if err := smtp.SendMail(addr, auth, e.from, to, []byte(message)); err != nil {
		return fmt.Errorf("sending email: %v", err)
	}

	return nil
}
