package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillfolio-api/internal/config"
	"github.com/noah-isme/skillfolio-api/internal/handler"
	"github.com/noah-isme/skillfolio-api/internal/router"
)

func TestDocumentHandlerServesStoredFiles(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(srv.dir, "act-1.pdf"), []byte("%PDF-1.4 test"), 0o600))

	resp := srv.do(t, http.MethodGet, pdfPrefix+"/act-1.pdf", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 test", string(body))

	require.Equal(t, fiber.StatusNotFound, srv.do(t, http.MethodGet, pdfPrefix+"/act-2.pdf", nil).StatusCode)
	require.Equal(t, fiber.StatusBadRequest, srv.do(t, http.MethodGet, pdfPrefix+"/act..pdf", nil).StatusCode)
}

func TestJWKSEndpoint(t *testing.T) {
	app := fiber.New()
	router.Register(app, testConfig(), router.Dependencies{})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	document := []byte(`{"keys":[{"kty":"RSA","kid":"k1","n":"xyz","e":"AQAB"}]}`)
	app = fiber.New()
	app.Get("/.well-known/jwks.json", handler.JWKSHandler(document))
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, fiber.MIMEApplicationJSON, resp.Header.Get(fiber.HeaderContentType))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.JSONEq(t, string(document), string(body))
}

func TestHealthReportsSigningSetup(t *testing.T) {
	cfg := testConfig()
	cfg.Credential.Algorithm = config.AlgorithmRS256

	app := fiber.New()
	app.Get("/health", handler.HealthCheck(cfg))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health handler.HealthResponse
	decodeEnvelope(t, resp, &health)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "RS256", health.Algorithm)
	require.Equal(t, config.StorageLocal, health.Storage)
}

func TestRouterTagsAPIResponses(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(t, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Skillfolio API", resp.Header.Get("X-Application"))
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))

}
