package mail

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/smtp"
	"net/url"
	"strings"
	"time"
)

type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	mailFrom     string
	mailFromName string

	inviteBaseURL string
	resetBaseURL  string
}

func NewService(
	smtpHost string,
	smtpPort string,
	smtpUser string,
	smtpPassword string,
	mailFrom string,
	mailFromName string,
	inviteBaseURL string,
	resetBaseURL string,
) *Service {
	return &Service{
		smtpHost:      smtpHost,
		smtpPort:      smtpPort,
		smtpUser:      smtpUser,
		smtpPassword:  smtpPassword,
		mailFrom:      mailFrom,
		mailFromName:  mailFromName,
		inviteBaseURL: inviteBaseURL,
		resetBaseURL:  resetBaseURL,
	}
}

func (s *Service) SendInviteEmail(to, invitedBy, token string) error {
	link := fmt.Sprintf("%s?token=%s", s.inviteBaseURL, url.QueryEscape(token))

	htmlBody, err := renderTemplate("internal/mail/templates/invite-email.html", map[string]string{
		"Link":      link,
		"InvitedBy": invitedBy,
	})
	if err != nil {
		return err
	}

	return s.send(to, "You're invited to Bruton's Tribunal", htmlBody)
}

func (s *Service) SendResetEmail(to, token string) error {
	link := fmt.Sprintf("%s?token=%s", s.resetBaseURL, url.QueryEscape(token))

	htmlBody, err := renderTemplate("internal/mail/templates/reset-password.html", map[string]string{
		"Link": link,
	})
	if err != nil {
		return err
	}

	return s.send(to, "Reset your password", htmlBody)
}

func renderTemplate(path string, data map[string]string) (string, error) {
	tmpl, err := template.ParseFiles(path)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Service) send(to, subject, htmlBody string) error {
	fromHeader := fmt.Sprintf("%s <%s>", s.mailFromName, s.mailFrom)

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		htmlBody,
	}, "\r\n")

	addr := net.JoinHostPort(s.smtpHost, s.smtpPort)
	log.Printf("[MAIL] smtp sending to=%s via=%s", to, addr)

	if err := s.sendSMTPWithTimeout(addr, to, []byte(msg)); err != nil {
		return err
	}

	log.Printf("[MAIL] sent to=%s", to)
	return nil
}

func (s *Service) sendSMTPWithTimeout(addr, to string, msg []byte) error {
	conn, err := net.DialTimeout("tcp", addr, 8*time.Second)
	if err != nil {
		return err
	}
	// deadline covers the whole session, not just the dial
	_ = conn.SetDeadline(time.Now().Add(15 * time.Second))

	c, err := smtp.NewClient(conn, s.smtpHost)
	if err != nil {
		return err
	}
	defer func() { _ = c.Quit() }()

	// STARTTLS
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.smtpHost}); err != nil {
			return err
		}
	}
	// Auth
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	if err := c.Auth(auth); err != nil {
		return err
	}

	// From/To
	if err := c.Mail(s.mailFrom); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}

	// Data
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
