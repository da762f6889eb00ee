package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "relaybot.io/relaybot/internal/pkg/errors"
)

// HandleRoomStats processes GET /api/v1/rooms/:roomID/stats. Read-only
// projection for dashboards; the CORS policy is applied in the router.
func (s *Server) HandleRoomStats(c *gin.Context) {
	roomID := c.Param("roomID")
	ctx := c.Request.Context()

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequest,
				"limit must be an integer between 1 and 100"))
			return
		}
		limit = n
	}

	topSenders, err := s.recorder.TopSenders(ctx, roomID, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	topContents, err := s.recorder.TopContents(ctx, roomID, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	senders := make([]gin.H, 0, len(topSenders))
	for _, sc := range topSenders {
		senders = append(senders, gin.H{
			"sender_hash": sc.SenderHash,
			"sender_name": sc.SenderName,
			"count":       sc.Count,
		})
	}
	contents := make([]gin.H, 0, len(topContents))
	for _, cc := range topContents {
		contents = append(contents, gin.H{
			"content": cc.Content,
			"count":   cc.Count,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":      roomID,
		"top_senders":  senders,
		"top_contents": contents,
	})
}

// HandleRoomTotals processes GET /api/v1/rooms/stats.
func (s *Server) HandleRoomTotals(c *gin.Context) {
	totals, err := s.recorder.RoomTotals(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	rooms := make([]gin.H, 0, len(totals))
	for _, rt := range totals {
		rooms = append(rooms, gin.H{
			"room_id":       rt.RoomID,
			"room_name":     rt.RoomName,
			"message_count": rt.MessageCount,
			"sender_count":  rt.SenderCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}
