package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stratandtax/expedientesapi/internal/api/handlers"
	"github.com/stratandtax/expedientesapi/internal/api/middleware"
	"github.com/stratandtax/expedientesapi/internal/catalog"
	"github.com/stratandtax/expedientesapi/internal/config"
	"github.com/stratandtax/expedientesapi/internal/docgen"
	"github.com/stratandtax/expedientesapi/internal/models"
	"github.com/stratandtax/expedientesapi/internal/repository"
	"github.com/stratandtax/expedientesapi/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSessionStore is an in-memory SessionStore for handler tests
type memSessionStore struct {
	sessions map[string]models.SessionModel
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[string]models.SessionModel{}}
}

func (m *memSessionStore) Put(_ context.Context, s *models.SessionModel) error {
	m.sessions[s.Username] = *s
	return nil
}

func (m *memSessionStore) Get(_ context.Context, username string) (*models.SessionModel, error) {
	s, ok := m.sessions[username]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return &s, nil
}

func (m *memSessionStore) Touch(_ context.Context, username string, at time.Time) error {
	if s, ok := m.sessions[username]; ok {
		s.LastAccess = at
		m.sessions[username] = s
	}
	return nil
}

func (m *memSessionStore) Delete(_ context.Context, username string) error {
	delete(m.sessions, username)
	return nil
}

type recordingRenderer struct {
	calls        int
	gotImagePath string
}

func (r *recordingRenderer) RenderAll(folder string, fields map[string]string, imagePath string) ([]docgen.RenderedDocument, error) {
	r.calls++
	r.gotImagePath = imagePath
	return []docgen.RenderedDocument{{Name: "Documento_Orden_de_servicio.docx", Bytes: []byte("orden")}}, nil
}

type recordingMailer struct {
	calls int
}

func (m *recordingMailer) SendExpediente(zipBytes []byte, razonSocial, rfc, servicio string) error {
	m.calls++
	return nil
}

type recordingLedger struct {
	inserted []float64
}

func (l *recordingLedger) InsertMonto(monto float64) error {
	l.inserted = append(l.inserted, monto)
	return nil
}

type testEnv struct {
	e        *echo.Echo
	cfg      *config.Config
	renderer *recordingRenderer
	mailer   *recordingMailer
	ledger   *recordingLedger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		UploadsDir:   t.TempDir(),
		ResponseMode: "json",
		MaxUploadMB:  "15",
	}

	sessionService, err := service.NewSessionService(newMemSessionStore(), map[string]string{"admin": "secreto1"})
	require.NoError(t, err)

	servicios, err := catalog.Load("")
	require.NoError(t, err)

	renderer := &recordingRenderer{}
	mailer := &recordingMailer{}
	ledger := &recordingLedger{}
	expedienteService := service.NewExpedienteService(servicios, renderer, mailer, ledger)

	e := echo.New()
	authRequired := middleware.AuthMiddleware(sessionService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	e.POST("/login", sessionHandler.Login)
	e.POST("/logout", sessionHandler.Logout, authRequired)
	expedienteHandler := handlers.NewExpedienteHandler(expedienteService, cfg)
	e.POST("/generate-word", expedienteHandler.GenerateWord, authRequired)

	return &testEnv{e: e, cfg: cfg, renderer: renderer, mailer: mailer, ledger: ledger}
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"u": username, "p": password})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Status string            `json:"status"`
		Data   map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "success", envelope.Status)
	require.NotEmpty(t, envelope.Data["token"])
	return envelope.Data["username"] + ":" + envelope.Data["token"]
}

func multipartBody(t *testing.T, fields map[string]string, imageBytes []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if imageBytes != nil {
		fw, err := w.CreateFormFile("imagen_usuario", "foto.png")
		require.NoError(t, err)
		_, err = fw.Write(imageBytes)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func smallPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.NRGBA{R: 10, G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func submissionFields() map[string]string {
	return map[string]string{
		"servicio":                      "Ingenieria civil",
		"razon_social":                  "ACME SA de CV",
		"r_f_c":                         "XAXX010101000",
		"monto_de_la_operacion_sin_iva": "100.50",
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	authHeader := env.login(t, "admin", "secreto1")
	assert.True(t, strings.HasPrefix(authHeader, "admin:"))
}

func TestLoginBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	body, _ := json.Marshal(map[string]string{"u": "admin", "p": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := env.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "No autorizado")
}

// brokenSessionStore fails every write, like a session backend outage
type brokenSessionStore struct {
	*memSessionStore
}

func (b *brokenSessionStore) Put(_ context.Context, _ *models.SessionModel) error {
	return errors.New("connection refused")
}

func TestLoginStoreFailureIsNotUnauthorized(t *testing.T) {
	sessionService, err := service.NewSessionService(
		&brokenSessionStore{newMemSessionStore()},
		map[string]string{"admin": "secreto1"},
	)
	require.NoError(t, err)

	e := echo.New()
	e.POST("/login", handlers.NewSessionHandler(sessionService).Login)

	body, _ := json.Marshal(map[string]string{"u": "admin", "p": "secreto1"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// valid credentials against a failing store is a server error,
	// not a credentials rejection
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "ServerException")
	assert.NotContains(t, rec.Body.String(), "No autorizado")
}

func TestLogoutInvalidatesSession(t *testing.T) {
	env := newTestEnv(t)
	authHeader := env.login(t, "admin", "secreto1")

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", authHeader)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	// the old token no longer opens protected routes
	body, contentType := multipartBody(t, submissionFields(), nil)
	req = httptest.NewRequest(http.MethodPost, "/generate-word", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set("Authorization", authHeader)
	rec = env.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateWordRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, submissionFields(), nil)
	req := httptest.NewRequest(http.MethodPost, "/generate-word", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := env.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body, contentType = multipartBody(t, submissionFields(), nil)
	req = httptest.NewRequest(http.MethodPost, "/generate-word", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set("Authorization", "admin:forged-token")
	rec = env.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// authentication failed before any side effect
	assert.Equal(t, 0, env.renderer.calls)
	assert.Equal(t, 0, env.mailer.calls)
	assert.Empty(t, env.ledger.inserted)
}

func TestGenerateWord(t *testing.T) {
	env := newTestEnv(t)
	authHeader := env.login(t, "admin", "secreto1")

	body, contentType := multipartBody(t, submissionFields(), nil)
	req := httptest.NewRequest(http.MethodPost, "/generate-word", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set("Authorization", authHeader)

	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Expediente_XAXX010101000.zip")
	assert.Equal(t, 1, env.renderer.calls)
	assert.Equal(t, 1, env.mailer.calls)
	assert.Equal(t, []float64{100.50}, env.ledger.inserted)
}

func TestGenerateWordUnknownServicio(t *testing.T) {
	env := newTestEnv(t)
	authHeader := env.login(t, "admin", "secreto1")

	fields := submissionFields()
	fields["servicio"] = "Servicio inexistente"
	body, contentType := multipartBody(t, fields, nil)
	req := httptest.NewRequest(http.MethodPost, "/generate-word", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set("Authorization", authHeader)

	rec := env.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Servicio no reconocido.")
	assert.Equal(t, 0, env.renderer.calls)
	assert.Equal(t, 0, env.mailer.calls)
}

func TestGenerateWordStreamsZipWhenConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.ResponseMode = "zip"
	authHeader := env.login(t, "admin", "secreto1")

	body, contentType := multipartBody(t, submissionFields(), nil)
	req := httptest.NewRequest(http.MethodPost, "/generate-word", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set("Authorization", authHeader)

	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "Expediente_XAXX010101000.zip")
	assert.Equal(t, 1, env.mailer.calls)
}

func TestGenerateWordCleansUpUpload(t *testing.T) {
	env := newTestEnv(t)
	authHeader := env.login(t, "admin", "secreto1")

	body, contentType := multipartBody(t, submissionFields(), smallPNG(t))
	req := httptest.NewRequest(http.MethodPost, "/generate-word", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set("Authorization", authHeader)

	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	// the renderer saw an optimized copy, and nothing is left behind
	assert.NotEmpty(t, env.renderer.gotImagePath)
	entries, err := os.ReadDir(env.cfg.UploadsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateWordCleansUpUploadOnFailure(t *testing.T) {
	env := newTestEnv(t)
	authHeader := env.login(t, "admin", "secreto1")

	fields := submissionFields()
	fields["servicio"] = "Servicio inexistente"
	body, contentType := multipartBody(t, fields, smallPNG(t))
	req := httptest.NewRequest(http.MethodPost, "/generate-word", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set("Authorization", authHeader)

	rec := env.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	entries, err := os.ReadDir(env.cfg.UploadsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
