package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatrelay/logger"
	"chatrelay/module/chat/service"
	"chatrelay/tools/errs"
)

type Handler struct {
	chats *service.Chats
}

func NewHandler(chats *service.Chats) *Handler {
	return &Handler{chats: chats}
}

// HandlerGetUserChats returns the user's chat list grouped by counterpart.
// GET /chat?userId=...
func (h *Handler) HandlerGetUserChats(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "User id required"})
		return
	}

	chats, err := h.chats.ForUser(c.Request.Context(), userID)
	if err != nil {
		if errs.Code(err) == errs.CodeNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Errorf("[chat] fetch user chats failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching chats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}
