package mailer

import (
	"fmt"
	"net/smtp"
)

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var _ Sender = (*SMTP)(nil)

func (s *SMTP) Send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n",
		s.From, to, subject, htmlBody,
	))
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	return smtp.SendMail(addr, auth, s.From, []string{to}, msg)
}
