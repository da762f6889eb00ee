package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"relaybot.io/relaybot/internal/api/handlers"
	"relaybot.io/relaybot/internal/config"
	"relaybot.io/relaybot/internal/pkg/logger"
	"relaybot.io/relaybot/internal/pkg/worker"
	"relaybot.io/relaybot/internal/stats"
	"relaybot.io/relaybot/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

func newTestApp(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()

	pools, err := worker.NewPools(context.Background(), worker.DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(pools.Shutdown)

	server := handlers.NewServer(handlers.ServerDeps{
		Recorder: stats.NewRecorder(testutil.NewMemStatsRepo()),
		Pools:    pools,
	})
	return newRouter(cfg, server)
}

func TestHealthIsOpen(t *testing.T) {
	cfg := &config.Config{}
	cfg.Bot.WebhookSecret = "secret"
	router := newTestApp(t, cfg)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookRequiresToken(t *testing.T) {
	cfg := &config.Config{}
	cfg.Bot.WebhookSecret = "secret"
	router := newTestApp(t, cfg)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/messages", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "AUTH_FAILED")
}

func TestStatsCORS(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"https://dashboard.example.com"}
	router := newTestApp(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/rooms/stats", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "https://dashboard.example.com",
		w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatsCORSRejectsUnknownOrigin(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"https://dashboard.example.com"}
	router := newTestApp(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/rooms/stats", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}
