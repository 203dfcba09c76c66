package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"subsonic-backend/config"
	v1 "subsonic-backend/internal/delivery/http/v1"
	"subsonic-backend/internal/domain"
	"subsonic-backend/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockContactUsecase struct {
	mock.Mock
}

func (m *MockContactUsecase) SubmitQuote(ctx context.Context, req *domain.ContactRequest) error {
	return m.Called(ctx, req).Error(0)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		AllowedOrigins: []string{"https://subsonicproducciones.cl"},
	}
}

func newTestRouter(contactUC domain.ContactUsecase) *gin.Engine {
	return v1.NewRouter(v1.RouterDeps{
		ContactUC: contactUC,
		HealthUC:  usecase.NewHealthUsecase(nil, "", false, false),
		Config:    testConfig(),
	})
}

func post(t *testing.T, r http.Handler, path, body string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

const validBody = `{"nombre":"Ana","email":"ana@example.com","tipoEvento":"festival","fecha":"2025-12-31","mensaje":"Año nuevo"}`

func TestSubmitContact(t *testing.T) {
	// The real usecase with no storage or email configured.
	router := newTestRouter(usecase.NewContactUsecase(nil, nil, nil, 0))

	t.Run("Should accept a valid quote", func(t *testing.T) {
		code, body := post(t, router, "/api/contact", validBody)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, map[string]string{"message": "¡Mensaje enviado con éxito!"}, body)
	})

	t.Run("Should serve the legacy path", func(t *testing.T) {
		code, body := post(t, router, "/contact", validBody)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "¡Mensaje enviado con éxito!", body["message"])
	})

	t.Run("Should reject missing fields", func(t *testing.T) {
		code, body := post(t, router, "/api/contact", `{"nombre":"Ana","email":"ana@example.com"}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, map[string]string{"error": "Todos los campos son requeridos"}, body)
	})

	t.Run("Should reject an empty object", func(t *testing.T) {
		code, body := post(t, router, "/api/contact", `{}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Todos los campos son requeridos", body["error"])
	})

	t.Run("Should reject a bad email", func(t *testing.T) {
		code, body := post(t, router, "/api/contact", strings.Replace(validBody, "ana@example.com", "ana@example", 1))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, map[string]string{"error": "Email inválido"}, body)
	})

	t.Run("Should reject an email with Unicode whitespace", func(t *testing.T) {
		code, body := post(t, router, "/api/contact", strings.Replace(validBody, "ana@example.com", `ana\u00a0x@example.com`, 1))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, map[string]string{"error": "Email inválido"}, body)
	})

	t.Run("Should treat malformed JSON as a server error", func(t *testing.T) {
		code, body := post(t, router, "/api/contact", `{"nombre":`)
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, map[string]string{"error": "Error interno del servidor"}, body)
	})

	t.Run("Should treat wrong field types as a server error", func(t *testing.T) {
		code, body := post(t, router, "/api/contact", `{"nombre":42,"email":"ana@example.com","tipoEvento":"otro","fecha":"2025-01-01","mensaje":"x"}`)
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "Error interno del servidor", body["error"])
	})

	t.Run("Should treat an empty body as a server error", func(t *testing.T) {
		code, _ := post(t, router, "/api/contact", "")
		assert.Equal(t, http.StatusInternalServerError, code)
	})
}

func TestSubmitContactPanicsBecome500(t *testing.T) {
	contactUC := new(MockContactUsecase)
	contactUC.On("SubmitQuote", mock.Anything, mock.Anything).Panic("boom")

	code, body := post(t, newTestRouter(contactUC), "/api/contact", validBody)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, map[string]string{"error": "Error interno del servidor"}, body)
}

func TestSubmitContactSetsRequestID(t *testing.T) {
	router := newTestRouter(usecase.NewContactUsecase(nil, nil, nil, 0))

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(validBody))
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestHealth(t *testing.T) {
	router := newTestRouter(new(MockContactUsecase))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["message"])
	assert.Equal(t, "disabled", body["storage"])
}

// clearEnv unsets key for the test; t.Setenv restores the previous value.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestDefaultConfigNeverRateLimits(t *testing.T) {
	clearEnv(t, "GIN_MODE", "ALLOWED_ORIGINS", "RATE_LIMIT_CONTACT_THRESHOLD", "RATE_LIMIT_WINDOW_SECONDS", "UPSTASH_REDIS_URL")
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	router := v1.NewRouter(v1.RouterDeps{
		ContactUC: usecase.NewContactUsecase(nil, nil, nil, 0),
		HealthUC:  usecase.NewHealthUsecase(nil, "", false, false),
		Config:    cfg,
	})

	counts := map[int]int{}
	for i := 0; i < 30; i++ {
		code, _ := post(t, router, "/api/contact", validBody)
		counts[code]++
	}
	assert.Equal(t, map[int]int{http.StatusOK: 30}, counts)
}

func TestRateLimitWhenEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitContactThreshold = 2
	cfg.RateLimitWindowSeconds = 60
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC: usecase.NewContactUsecase(nil, nil, nil, 0),
		HealthUC:  usecase.NewHealthUsecase(nil, "", false, true),
		Config:    cfg,
	})

	for i := 0; i < 2; i++ {
		code, _ := post(t, router, "/api/contact", validBody)
		require.Equal(t, http.StatusOK, code)
	}
	code, body := post(t, router, "/api/contact", validBody)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "Demasiadas solicitudes, intenta más tarde", body["error"])
}

func TestSubmitContactRejectsForeignOrigin(t *testing.T) {
	router := newTestRouter(usecase.NewContactUsecase(nil, nil, nil, 0))

	send := func(origin string) (int, map[string]string) {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(validBody))
		// A simple cross-site request skips the preflight.
		req.Header.Set("Content-Type", "text/plain")
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		var out map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
		return w.Code, out
	}

	code, body := send("https://evil.example")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Origen no permitido", body["error"])

	code, _ = send("https://subsonicproducciones.cl")
	assert.Equal(t, http.StatusOK, code)
}
