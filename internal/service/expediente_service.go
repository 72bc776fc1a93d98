// Package service contains the service layer for the Expedientes API
package service

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/stratandtax/expedientesapi/internal/docgen"
	"github.com/stratandtax/expedientesapi/pkg/utils/zaplogger"
)

// montoField is the form field carrying the operation amount
const montoField = "monto_de_la_operacion_sin_iva"

// ServicioResolver maps a service label to a template folder
type ServicioResolver interface {
	Resolve(serviceLabel string) (string, error)
}

// DocumentRenderer renders the template set of a folder
type DocumentRenderer interface {
	RenderAll(folder string, fields map[string]string, imagePath string) ([]docgen.RenderedDocument, error)
}

// ExpedienteMailer sends the generated archive
type ExpedienteMailer interface {
	SendExpediente(zipBytes []byte, razonSocial, rfc, servicio string) error
}

// MontoLedger appends submitted amounts
type MontoLedger interface {
	InsertMonto(monto float64) error
}

// ExpedienteResult is the outcome of a successful submission
type ExpedienteResult struct {
	ZipBytes []byte
	Filename string
}

// ExpedienteService runs one submission end to end: record the amount,
// resolve the service, render the documents, zip them and mail the archive.
type ExpedienteService struct {
	resolver ServicioResolver
	renderer DocumentRenderer
	mailer   ExpedienteMailer
	ledger   MontoLedger

	// optimizeImage is swappable in tests
	optimizeImage func(uploadPath string) (string, error)
}

// NewExpedienteService wires the submission pipeline
func NewExpedienteService(resolver ServicioResolver, renderer DocumentRenderer, mailer ExpedienteMailer, ledger MontoLedger) *ExpedienteService {
	return &ExpedienteService{
		resolver:      resolver,
		renderer:      renderer,
		mailer:        mailer,
		ledger:        ledger,
		optimizeImage: docgen.OptimizeImage,
	}
}

// GenerateExpediente processes one submission. uploadPath is the caller's
// temporary upload file (may be empty); the caller owns and deletes it. The
// derived optimized copy is created and deleted here.
func (s *ExpedienteService) GenerateExpediente(fields map[string]string, uploadPath string) (*ExpedienteResult, error) {
	// Recording the amount is a hard dependency: a submission whose monto
	// cannot be persisted is rejected rather than silently unbilled.
	if monto, ok := parseMonto(fields[montoField]); ok {
		if err := s.ledger.InsertMonto(monto); err != nil {
			return nil, fmt.Errorf("failed to record monto: %v", err)
		}
	}

	servicio := fields["servicio"]
	folder, err := s.resolver.Resolve(servicio)
	if err != nil {
		return nil, err
	}

	var imagePath string
	if uploadPath != "" {
		imagePath, err = s.optimizeImage(uploadPath)
		if err != nil {
			return nil, fmt.Errorf("failed to optimize image: %v", err)
		}
		defer RemoveFileQuietly(imagePath)
	}

	documents, err := s.renderer.RenderAll(folder, fields, imagePath)
	if err != nil {
		return nil, err
	}

	zipBytes, err := docgen.BuildZip(documents)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendExpediente(zipBytes, fields["razon_social"], fields["r_f_c"], servicio); err != nil {
		return nil, err
	}

	return &ExpedienteResult{
		ZipBytes: zipBytes,
		Filename: AttachmentFilename(fields["r_f_c"]),
	}, nil
}

// parseMonto reports whether the raw field value is a finite amount
func parseMonto(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	monto, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(monto) || math.IsInf(monto, 0) {
		return 0, false
	}
	return monto, true
}

// RemoveFileQuietly deletes a temporary file; a missing file is not an
// error and anything else is logged only.
func RemoveFileQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		zaplogger.Warn("failed to remove temporary file", zaplogger.Fields{
			"path":  path,
			"error": err.Error(),
		})
	}
}
