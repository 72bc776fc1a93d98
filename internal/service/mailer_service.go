// Package service contains the service layer for the Expedientes API
package service

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/stratandtax/expedientesapi/internal/config"
	"gopkg.in/gomail.v2"
)

// ErrMailTooLarge is returned when the SMTP server rejects the message for
// exceeding its size limit, so the caller can tell the user to retry with a
// smaller image instead of showing a generic failure.
var ErrMailTooLarge = errors.New("mail message exceeds the transport size limit")

// MailDialer abstracts the gomail dialer for tests
type MailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailerService sends the generated expediente and the periodic
// accumulated-total reports over SMTP.
type MailerService struct {
	dialer     MailDialer
	from       string
	recipients []string
	reportTo   string
}

// NewMailerService creates a mailer from the SMTP configuration
func NewMailerService(cfg *config.Config) *MailerService {
	return &MailerService{
		dialer:     gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPortNumber(), cfg.SMTPUser, cfg.SMTPPassword),
		from:       cfg.SMTPUser,
		recipients: cfg.MailRecipients(),
		reportTo:   cfg.MailReportTo,
	}
}

// SendExpediente mails the zip archive as a single attachment to the
// configured recipient list.
func (m *MailerService) SendExpediente(zipBytes []byte, razonSocial, rfc, servicio string) error {
	subjectContext := razonSocial
	if subjectContext == "" {
		subjectContext = "Nuevo Registro"
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, "Sistema StratandTax")
	msg.SetHeader("To", m.recipients...)
	msg.SetHeader("Subject", "Expediente: "+subjectContext)
	msg.SetBody("text/plain", "Se adjuntan los documentos generados para el servicio: "+servicio)
	msg.Attach(AttachmentFilename(rfc), gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(zipBytes)
		return err
	}))

	if err := m.dialer.DialAndSend(msg); err != nil {
		if isOversizeError(err) {
			return fmt.Errorf("%w: %v", ErrMailTooLarge, err)
		}
		return fmt.Errorf("failed to send expediente mail: %v", err)
	}
	return nil
}

// SendReporte mails the accumulated billing total to the reporting address
func (m *MailerService) SendReporte(periodo string, total float64) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, "Sistema de Facturación")
	msg.SetHeader("To", m.reportTo)
	msg.SetHeader("Subject", "Reporte de Facturación Acumulada - "+periodo)
	msg.SetBody("text/plain", fmt.Sprintf(
		"El total acumulado registrado para facturación es: $%.2f (Sin IVA).\nPeriodo: %s", total, periodo))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send reporte mail: %v", err)
	}
	return nil
}

// AttachmentFilename names the mailed archive after the submission's RFC,
// falling back to a generic name when the field was left empty.
func AttachmentFilename(rfc string) string {
	if rfc == "" {
		rfc = "archivos"
	}
	return "Expediente_" + rfc + ".zip"
}

// isOversizeError reports whether the SMTP failure was a size rejection.
// 552 is the "exceeded storage allocation" reply most servers use for
// oversized messages.
func isOversizeError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "552") ||
		strings.Contains(msg, "size limit") ||
		strings.Contains(msg, "too large") ||
		strings.Contains(msg, "exceeded storage")
}
