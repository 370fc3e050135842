// Package mail implementa el correo saliente (códigos 2FA) sobre SMTP.
package mail

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/jfacosta/facturapos-api/pkg/config"
)

// SMTPMailer envía correos usando gomail. Satisface auth.Mailer.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer construye el mailer a partir de la configuración SMTP.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// SendVerificationCode envía el código 2FA de seis dígitos al usuario.
func (m *SMTPMailer) SendVerificationCode(to, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Tu código de verificación")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Tu código de verificación es: %s\n\nVence en 10 minutos. Si no intentaste iniciar sesión, ignora este correo.", code))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mail: enviar código a %s: %w", to, err)
	}
	return nil
}
