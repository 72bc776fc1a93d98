// Package service contains the service layer for the Expedientes API
package service

import (
	"fmt"
)

// MontoSummer reads the accumulated total of recorded amounts
type MontoSummer interface {
	SumMontos() (float64, error)
}

// ReporteSender mails an accumulated-total report
type ReporteSender interface {
	SendReporte(periodo string, total float64) error
}

// ReportService computes and mails the periodic billing summary.
// Report failures are never user-visible; the cron wrapper logs them.
type ReportService struct {
	ledger MontoSummer
	mailer ReporteSender
}

// NewReportService creates a report service over the ledger and mailer
func NewReportService(ledger MontoSummer, mailer ReporteSender) *ReportService {
	return &ReportService{ledger: ledger, mailer: mailer}
}

// SendSummary sums all recorded amounts and mails the total for the period
func (s *ReportService) SendSummary(periodo string) error {
	total, err := s.ledger.SumMontos()
	if err != nil {
		return fmt.Errorf("failed to sum montos: %v", err)
	}
	if err := s.mailer.SendReporte(periodo, total); err != nil {
		return err
	}
	return nil
}
