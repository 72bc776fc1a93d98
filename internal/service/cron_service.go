// Package service contains the service layer for the Expedientes API
package service

import (
	"github.com/robfig/cron/v3"
	"github.com/stratandtax/expedientesapi/pkg/utils/zaplogger"
)

// CronService schedules the periodic accumulated-total reports.
// The jobs are read-only over the ledger, so an overlapping run cannot
// corrupt anything; failures are logged and never user-visible.
type CronService struct {
	c      *cron.Cron
	report *ReportService
}

// NewCronService creates a new CronService
func NewCronService(report *ReportService) *CronService {
	return &CronService{
		c:      cron.New(),
		report: report,
	}
}

// Start starts the cron service
func (cs *CronService) Start() {
	zaplogger.Info("Initializing CronService")

	// Once at 11:59pm daily, Sundays, the 15th/30th, and 09:00am on the 5th
	cs.addScheduledJob("Reporte Diario", func() { cs.reporteSumatoriaJob("Diario") }, "59 23 * * *")
	cs.addScheduledJob("Reporte Semanal", func() { cs.reporteSumatoriaJob("Semanal") }, "59 23 * * 0")
	cs.addScheduledJob("Reporte Quincenal", func() { cs.reporteSumatoriaJob("Quincenal") }, "59 23 15,30 * *")
	cs.addScheduledJob("Reporte Mensual", func() { cs.reporteSumatoriaJob("Mensual (Día 5)") }, "0 9 5 * *")

	cs.c.Start()
}

// Stop stops the cron service
func (cs *CronService) Stop() {
	cs.c.Stop()
}

func (cs *CronService) addScheduledJob(name string, job func(), schedule string) {
	_, err := cs.c.AddFunc(schedule, func() {
		zaplogger.Info("STARTED SCHEDULED JOB", zaplogger.Fields{
			"job": name,
		})
		job()
		zaplogger.Info("COMPLETED SCHEDULED JOB", zaplogger.Fields{
			"job": name,
		})
	})
	if err != nil {
		zaplogger.Error("FAILED TO QUEUE SCHEDULED JOB", zaplogger.Fields{
			"job":   name,
			"error": err.Error(),
		})
		return
	}
	zaplogger.Info("QUEUED SCHEDULED job", zaplogger.Fields{
		"job": name,
	})
}

// reporteSumatoriaJob mails the accumulated total for a reporting period
func (cs *CronService) reporteSumatoriaJob(periodo string) {
	if err := cs.report.SendSummary(periodo); err != nil {
		zaplogger.Error("Reporte Sumatoria Job", zaplogger.Fields{
			"periodo": periodo,
			"error":   err.Error(),
		})
	}
}
