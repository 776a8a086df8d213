package http

import (
	"net/http"

	"reelsync/internal/core/domain"
	"reelsync/internal/core/ports"
	"reelsync/internal/infrastructure/middleware"
	"reelsync/pkg/validation"

	"github.com/gin-gonic/gin"
)

// RoomHandler exposes the synchronous companion surface: the resync
// snapshot, chat pages for scrollback, and explicit room teardown.
type RoomHandler struct {
	resync       ports.ResyncService
	rooms        ports.RoomService
	messages     ports.MessageRepository
	defaultLimit int
	maxLimit     int
}

func NewRoomHandler(
	resync ports.ResyncService,
	rooms ports.RoomService,
	messages ports.MessageRepository,
	defaultLimit, maxLimit int,
) *RoomHandler {
	return &RoomHandler{
		resync:       resync,
		rooms:        rooms,
		messages:     messages,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

func (h *RoomHandler) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	api := router.Group("/api/v1", auth)
	{
		api.GET("/rooms/:id/state", h.GetState)
		api.GET("/rooms/:id/messages", h.GetMessages)
		api.DELETE("/rooms/:id", h.DeleteRoom)
	}
}

type pageQuery struct {
	FromMessageID string `form:"from_message_id"`
	Limit         int    `form:"limit"`
}

func (h *RoomHandler) pageParams(c *gin.Context) (domain.MessageID, int, bool) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", 0, false
	}
	limit := q.Limit
	if limit <= 0 {
		limit = h.defaultLimit
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}
	return domain.MessageID(q.FromMessageID), limit, true
}

// GetState returns the point-in-time snapshot clients use before their
// socket is (re)established.
func (h *RoomHandler) GetState(c *gin.Context) {
	roomID := c.Param("id")
	if err := validation.ValidateRoomID(roomID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fromID, limit, ok := h.pageParams(c)
	if !ok {
		return
	}

	snapshot, err := h.resync.Snapshot(c.Request.Context(), domain.RoomID(roomID), fromID, limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot})
}

// GetMessages pages chat history by keyset cursor for scrollback.
func (h *RoomHandler) GetMessages(c *gin.Context) {
	roomID := c.Param("id")
	if err := validation.ValidateRoomID(roomID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fromID, limit, ok := h.pageParams(c)
	if !ok {
		return
	}

	msgs, err := h.messages.ListBefore(c.Request.Context(), domain.RoomID(roomID), fromID, limit)
	if err != nil {
		c.Error(err)
		return
	}

	resp := gin.H{"messages": msgs}
	if len(msgs) > 0 {
		resp["next_cursor"] = msgs[len(msgs)-1].ID
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteRoom tears the room down and bulk-deletes its history. Owner only.
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	roomID := c.Param("id")
	if err := validation.ValidateRoomID(roomID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := h.rooms.DeleteRoom(c.Request.Context(), domain.RoomID(roomID), claims.ViewerID); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
