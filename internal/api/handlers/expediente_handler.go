// Package handlers contains the handlers for the API
package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stratandtax/expedientesapi/internal/catalog"
	"github.com/stratandtax/expedientesapi/internal/config"
	"github.com/stratandtax/expedientesapi/internal/service"
	"github.com/stratandtax/expedientesapi/pkg/utils/response"
	"github.com/stratandtax/expedientesapi/pkg/utils/zaplogger"
)

// imageField is the multipart file field carrying the optional user image
const imageField = "imagen_usuario"

// ExpedienteHandler is the handler for the expediente generation endpoint
type ExpedienteHandler struct {
	service *service.ExpedienteService
	cfg     *config.Config
}

// NewExpedienteHandler creates a new handler for the expediente endpoint
func NewExpedienteHandler(service *service.ExpedienteService, cfg *config.Config) *ExpedienteHandler {
	return &ExpedienteHandler{service: service, cfg: cfg}
}

// GenerateWord accepts the multipart submission form, runs the document
// pipeline and reports the outcome. The uploaded image is written to a
// temporary file that is removed on every exit path.
func (h *ExpedienteHandler) GenerateWord(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "Invalid multipart form")
	}

	fields := make(map[string]string, len(form.Value))
	for key, values := range form.Value {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	uploadPath, err := h.saveUpload(c)
	if err != nil {
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", err.Error())
	}
	if uploadPath != "" {
		defer service.RemoveFileQuietly(uploadPath)
	}

	result, err := h.service.GenerateExpediente(fields, uploadPath)
	if err != nil {
		return h.errorResponse(c, err)
	}

	if h.cfg.ResponseMode == "zip" {
		return response.AttachmentResponse(c, "application/zip", result.Filename, result.ZipBytes)
	}
	return response.SuccessResponse(c, map[string]string{"filename": result.Filename})
}

// saveUpload stores the optional image upload under the uploads directory
// and returns its path, or "" when no file was sent.
func (h *ExpedienteHandler) saveUpload(c echo.Context) (string, error) {
	fileHeader, err := c.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", errors.New("invalid image upload")
	}
	if fileHeader.Size > h.cfg.MaxUploadBytes() {
		return "", errors.New("la imagen excede el tamaño máximo permitido")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", errors.New("invalid image upload")
	}
	defer src.Close()

	if err := os.MkdirAll(h.cfg.UploadsDir, 0o755); err != nil {
		return "", errors.New("failed to store upload")
	}
	uploadPath := filepath.Join(h.cfg.UploadsDir, uuid.NewString())
	dst, err := os.Create(uploadPath)
	if err != nil {
		return "", errors.New("failed to store upload")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		service.RemoveFileQuietly(uploadPath)
		return "", errors.New("failed to store upload")
	}
	return uploadPath, nil
}

// errorResponse maps pipeline failures to user-visible responses.
// Internal detail stays in the logs.
func (h *ExpedienteHandler) errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, catalog.ErrServicioNotFound):
		return response.ErrorResponse(c, http.StatusBadRequest, "InputException", "Servicio no reconocido.")
	case errors.Is(err, service.ErrMailTooLarge):
		return response.ErrorResponse(c, http.StatusInternalServerError, "MailException",
			"El archivo ZIP es demasiado pesado para enviarse por correo. Intente con una imagen más pequeña o contacte soporte.")
	default:
		zaplogger.Error("expediente generation failed", zaplogger.Fields{
			"error": err.Error(),
		})
		return response.ErrorResponse(c, http.StatusInternalServerError, "ServerException",
			"Error interno al generar el expediente.")
	}
}
