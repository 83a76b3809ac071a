package notification

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"sync"

	"gopkg.in/gomail.v2"

	"maintenance-backend/config"
)

var ErrNotConfigured = errors.New("smtp is not configured")

// Attachment is a file sent along with a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is a rendered email ready to send.
type Message struct {
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// NewMessage renders kind with data into a message for to.
func NewMessage(to, subject string, kind Kind, data any) (Message, error) {
	if to == "" {
		return Message{}, errors.New("message has no recipient")
	}
	body, err := Render(kind, data)
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{to}, Subject: subject, HTML: body}, nil
}

// Sender delivers a message.
type Sender interface {
	Send(msg Message) error
}

// SMTPSender is a real implementation of Sender using gomail.
type SMTPSender struct {
	mu  sync.RWMutex
	cfg config.SMTPConfig
}

// NewSMTPSender creates a sender for cfg.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Update swaps the relay settings used by later sends.
func (s *SMTPSender) Update(cfg config.SMTPConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// Send dials the relay and delivers msg.
func (s *SMTPSender) Send(msg Message) error {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	if !cfg.Enabled() {
		return ErrNotConfigured
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	for _, a := range msg.Attachments {
		data := a.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}))
		}
		m.Attach(a.Name, settings...)
	}

	d := gomail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Secure
	if !cfg.TLS {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true, ServerName: cfg.Server}
	}
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send %q to %v: %w", msg.Subject, msg.To, err)
	}
	return nil
}
