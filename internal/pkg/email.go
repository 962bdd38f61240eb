package pkg

import (
	"crypto/tls"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends HTML mail through a single SMTP relay.
type Mailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewMailer(cfg SMTPConfig) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return &Mailer{cfg: cfg, dialer: d}
}

func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}

// ApplicationStatusHTML renders the applicant notification for an accepted or rejected application.
func ApplicationStatusHTML(jobTitle, status, feedback string) string {
	body := fmt.Sprintf(`<p>Hello,</p><p>Your application for <b>%s</b> was <b>%s</b>.</p>`,
		html.EscapeString(jobTitle), html.EscapeString(status))
	if feedback != "" {
		body += fmt.Sprintf(`<p>Message from the poster:</p><blockquote>%s</blockquote>`, html.EscapeString(feedback))
	}
	return body + `<p>Backstage Jobs</p>`
}
