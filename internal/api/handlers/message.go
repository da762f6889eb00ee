package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"relaybot.io/relaybot/internal/domain"
	apperrors "relaybot.io/relaybot/internal/pkg/errors"
)

// notificationRequest is the webhook payload the relay client posts for
// every observed chat message.
type notificationRequest struct {
	RoomID      string    `json:"room_id" binding:"required"`
	RoomName    string    `json:"room_name"`
	SenderHash  string    `json:"sender_hash" binding:"required"`
	SenderName  string    `json:"sender_name"`
	IsGroupChat bool      `json:"is_group_chat"`
	Content     string    `json:"content"`
	Time        time.Time `json:"time"`
}

// HandleMessage processes POST /api/v1/messages.
//
// The pipeline runs on the message pool; the handler blocks until the
// task finishes or the request context ends, so the relay client always
// gets its reply in the same HTTP exchange.
func (s *Server) HandleMessage(c *gin.Context) {
	var req notificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeInvalidRequest,
			"invalid notification payload", http.StatusBadRequest))
		return
	}
	if req.Time.IsZero() {
		req.Time = time.Now().UTC()
	}

	msg := &domain.Message{
		RoomID:      req.RoomID,
		RoomName:    req.RoomName,
		SenderHash:  req.SenderHash,
		SenderName:  req.SenderName,
		IsGroupChat: req.IsGroupChat,
		Content:     req.Content,
		Time:        req.Time,
	}

	reqCtx := c.Request.Context()
	done := make(chan domain.Reply, 1)
	err := s.pools.Message.Submit(reqCtx, func(ctx context.Context) {
		done <- s.pipeline.HandleMessage(ctx, msg)
	})
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, "MESSAGE_REJECTED",
			"message processing unavailable", http.StatusServiceUnavailable))
		return
	}

	// A queued task is skipped when the request context ends first, so
	// wait on both.
	select {
	case reply := <-done:
		c.JSON(http.StatusOK, reply)
	case <-reqCtx.Done():
		c.Status(http.StatusRequestTimeout)
	}
}
