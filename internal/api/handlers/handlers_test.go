package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"relaybot.io/relaybot/internal/admin"
	"relaybot.io/relaybot/internal/api/middleware"
	"relaybot.io/relaybot/internal/approval"
	"relaybot.io/relaybot/internal/bot"
	"relaybot.io/relaybot/internal/domain"
	"relaybot.io/relaybot/internal/pkg/logger"
	"relaybot.io/relaybot/internal/pkg/worker"
	"relaybot.io/relaybot/internal/quota"
	"relaybot.io/relaybot/internal/stats"
	"relaybot.io/relaybot/internal/testutil"
)

const chiefHash = "chief-hash"

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

// echoHandler replies with the message content. Keeps webhook tests
// independent of the real command set.
type echoHandler struct{}

func (echoHandler) Command() string            { return "!echo" }
func (echoHandler) Description() string        { return "echo" }
func (echoHandler) QuotaExempt() bool          { return false }
func (echoHandler) CanHandle(text string) bool { return strings.HasPrefix(text, "!echo") }

func (echoHandler) Handle(_ context.Context, msg *domain.Message) (domain.Reply, error) {
	return domain.TextReply(msg.RoomID, strings.TrimSpace(strings.TrimPrefix(msg.Content, "!echo"))), nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *stats.Recorder) {
	t.Helper()

	pools, err := worker.NewPools(context.Background(), worker.DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(pools.Shutdown)

	codes := approval.NewStore(testutil.NewMemApprovalRepo())
	admins := admin.NewRegistry(testutil.NewMemAdminRepo(), codes, chiefHash)
	ledger := quota.NewLedger(testutil.NewMemQuotaRepo(), admins, codes)
	recorder := stats.NewRecorder(testutil.NewMemStatsRepo())

	registry := bot.NewRegistry()
	registry.Register(echoHandler{})

	server := NewServer(ServerDeps{
		Pipeline: bot.NewPipeline(registry, recorder, ledger),
		Recorder: recorder,
		Pools:    pools,
	})

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.ErrorHandler())
	router.POST("/api/v1/messages", server.HandleMessage)
	router.GET("/api/v1/health", server.HandleHealth)
	router.GET("/api/v1/rooms/stats", server.HandleRoomTotals)
	router.GET("/api/v1/rooms/:roomID/stats", server.HandleRoomStats)
	return router, recorder
}

func postMessage(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleMessageReply(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postMessage(t, router, `{
		"room_id": "room-1",
		"room_name": "lobby",
		"sender_hash": "hash-a",
		"sender_name": "alice",
		"content": "!echo hello"
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	var reply domain.Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	require.Equal(t, domain.ActionSendText, reply.Action)
	require.Equal(t, "room-1", reply.RoomID)
	require.Equal(t, "hello", reply.Message)
}

func TestHandleMessageSilent(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postMessage(t, router, `{
		"room_id": "room-1",
		"sender_hash": "hash-a",
		"content": "just chatting"
	}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{}`, w.Body.String())
}

func TestHandleMessageValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"missing room_id", `{"sender_hash": "hash-a", "content": "hi"}`},
		{"missing sender_hash", `{"room_id": "room-1", "content": "hi"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postMessage(t, router, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Contains(t, w.Body.String(), "INVALID_REQUEST")
		})
	}
}

func TestHandleHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Contains(t, body, "workers")
}

func TestHandleRoomStats(t *testing.T) {
	router, recorder := newTestRouter(t)
	ctx := context.Background()

	for _, content := range []string{"good morning", "good morning", "bye"} {
		require.NoError(t, recorder.RecordMessage(ctx, &domain.Message{
			RoomID:     "room-1",
			RoomName:   "lobby",
			SenderHash: "hash-a",
			SenderName: "alice",
			Content:    content,
			Time:       time.Now().UTC(),
		}))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/room-1/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		RoomID      string                   `json:"room_id"`
		TopSenders  []map[string]interface{} `json:"top_senders"`
		TopContents []map[string]interface{} `json:"top_contents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "room-1", body.RoomID)
	require.Len(t, body.TopSenders, 1)
	require.Len(t, body.TopContents, 2)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/room-1/stats?limit=0", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRoomTotals(t *testing.T) {
	router, recorder := newTestRouter(t)

	require.NoError(t, recorder.RecordMessage(context.Background(), &domain.Message{
		RoomID:     "room-1",
		RoomName:   "lobby",
		SenderHash: "hash-a",
		SenderName: "alice",
		Content:    "hello",
		Time:       time.Now().UTC(),
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "lobby")
}
