package history

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/log"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// APIResponse is the envelope for history API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Handler exposes the room history over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/rooms/:room_id/messages", h.GetMessages)
	}
}

func (h *Handler) GetMessages(c *gin.Context) {
	roomID := c.Param("room_id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   "room_id is required",
		})
		return
	}

	page := store.Page{Limit: defaultLimit}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, APIResponse{
				Success: false,
				Error:   "limit must be a positive integer",
			})
			return
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		page.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, APIResponse{
				Success: false,
				Error:   "offset must be a non-negative integer",
			})
			return
		}
		page.Offset = offset
	}

	msgs, err := h.service.GetRoomMessages(c.Request.Context(), roomID, page)
	if err != nil {
		l := log.FromCtx(c.Request.Context())
		l.Error().Str(log.FieldRoomID, roomID).Err(err).Msg("history read failed")
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Error:   "failed to get room messages",
		})
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    msgs,
	})
}
