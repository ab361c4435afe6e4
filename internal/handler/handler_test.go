package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/skillfolio-api/internal/certificate"
	"github.com/noah-isme/skillfolio-api/internal/config"
	"github.com/noah-isme/skillfolio-api/internal/credential"
	"github.com/noah-isme/skillfolio-api/internal/handler"
	"github.com/noah-isme/skillfolio-api/internal/middleware"
	"github.com/noah-isme/skillfolio-api/internal/models"
	"github.com/noah-isme/skillfolio-api/internal/repository"
	"github.com/noah-isme/skillfolio-api/internal/router"
	"github.com/noah-isme/skillfolio-api/internal/service"
	"github.com/noah-isme/skillfolio-api/internal/storage"
)

const (
	testIssuer = "http://localhost:5000"
	testSecret = "handler-test-secret"
	pdfPrefix  = "/public/pdfs"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	app *fiber.App
	db  *gorm.DB
	dir string
}

func testConfig() config.Config {
	return config.Config{
		AppName:         "Skillfolio API",
		AppEnv:          "test",
		VerifyRateLimit: 1000,
		Credential: config.CredentialConfig{
			Algorithm: config.AlgorithmHS256,
			Secret:    testSecret,
			Issuer:    testIssuer,
		},
		Storage: config.StorageConfig{
			Driver:            config.StorageLocal,
			LocalPublicPrefix: pdfPrefix,
		},
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", name)), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Activity{}, &models.Student{}, &models.AuditLog{}))
	return db
}

// newTestServer wires the real service graph over sqlite and a temp directory sink.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.New(io.Discard)
	cfg := testConfig()
	db := setupTestDB(t)
	dir := t.TempDir()

	keys := credential.KeyMaterial{Algorithm: config.AlgorithmHS256, Secret: []byte(testSecret)}
	signer, err := credential.NewSigner(keys, testIssuer)
	require.NoError(t, err)
	verifier, err := credential.NewVerifier(keys, credential.WithIssuer(testIssuer))
	require.NoError(t, err)

	sink, err := storage.NewLocalSink(dir, pdfPrefix)
	require.NoError(t, err)

	validate := validator.New(validator.WithRequiredStructEnabled())
	activityRepo := repository.NewActivityRepository(db)

	issuer := service.NewIssuerService(signer, certificate.NewRenderer("", nil), sink, testIssuer+"/api/verify", log)
	audit := service.NewAuditService(repository.NewAuditLogRepository(db), log)
	activities := service.NewActivityService(activityRepo, validate, log)
	moderation := service.NewModerationService(activityRepo, issuer, audit, nil, validate, 0, log)
	students := service.NewStudentService(repository.NewStudentRepository(db), nil, 0, validate, log)

	app := fiber.New()
	middleware.Register(app, middleware.Config{})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:     handler.NewActivityHandler(activities, moderation, audit, log),
		VerificationHandler: handler.NewVerificationHandler(service.NewVerificationService(verifier, log), log),
		StudentHandler:      handler.NewStudentHandler(students, log),
		DocumentHandler:     handler.NewDocumentHandler(sink, log),
	})

	return &testServer{app: app, db: db, dir: dir}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func decodeEnvelope(t *testing.T, resp *http.Response, data interface{}) envelope {
	t.Helper()
	var env envelope
	decodeBody(t, resp, &env)
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func (s *testServer) submit(t *testing.T, payload map[string]interface{}) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/activities", payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var record struct {
		ID string `json:"id"`
	}
	decodeEnvelope(t, resp, &record)
	require.NotEmpty(t, record.ID)
	return record.ID
}

func internship() map[string]interface{} {
	return map[string]interface{}{
		"student_id":   "2025CS001",
		"student_name": "Asha Verma",
		"title":        "Internship",
		"type":         "internship",
		"date":         "2024-06-01",
		"hours":        40,
		"description":  "Backend internship",
	}
}
