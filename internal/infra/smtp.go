package infra

import (
	"bytes"
	"errors"
	"fmt"
	"net/smtp"

	"dulceriapos/internal/config"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog/log"
)

// ErrMailerNoConfigurado is returned when SMTP_HOST is empty.
var ErrMailerNoConfigurado = errors.New("mailer: SMTP no configurado")

// Adjunto is an in-memory attachment.
type Adjunto struct {
	Nombre      string
	ContentType string
	Datos       []byte
}

// Mailer sends mail through the configured SMTP relay. Every send passes
// through a circuit breaker so a dead relay fails fast.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
	cb       *CircuitBreaker
	send     func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		cb:       NewCircuitBreaker("smtp", DefaultCBConfig()),
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Breaker exposes the breaker for the health endpoint.
func (m *Mailer) Breaker() *CircuitBreaker { return m.cb }

// Enviar sends a plain-text mail with optional file and in-memory attachments.
func (m *Mailer) Enviar(to, subject, body, archivo string, adjuntos ...Adjunto) error {
	if m.host == "" {
		return ErrMailerNoConfigurado
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if archivo != "" {
		if _, err := e.AttachFile(archivo); err != nil {
			return fmt.Errorf("mailer: adjuntar %s: %w", archivo, err)
		}
	}
	for _, a := range adjuntos {
		if _, err := e.Attach(bytes.NewReader(a.Datos), a.Nombre, a.ContentType); err != nil {
			return fmt.Errorf("mailer: adjuntar %s: %w", a.Nombre, err)
		}
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	err := m.cb.Execute(func() error { return m.send(e, m.addr, auth) })
	if err != nil {
		log.Warn().Err(err).Str("to", to).Str("breaker", m.cb.State().String()).Msg("mailer: envio fallido")
	}
	return err
}
