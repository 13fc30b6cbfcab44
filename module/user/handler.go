package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatrelay/logger"
	"chatrelay/tools/errs"
	security "chatrelay/tools/security"
)

type Handler struct {
	store *Store
	jwt   security.Options
}

func NewHandler(store *Store, jwtOpts security.Options) *Handler {
	return &Handler{store: store, jwt: jwtOpts}
}

// HandlerLogin finds or creates the user by name and issues a session token.
// POST /auth/login {userName}
func (h *Handler) HandlerLogin(c *gin.Context) {
	var req struct {
		UserName string `json:"userName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userName required"})
		return
	}

	u, err := h.store.EnsureByName(c.Request.Context(), req.UserName)
	if err != nil {
		logger.Errorf("[login] ensure user failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	token, _, err := security.Generate(h.jwt, u.ID.Hex())
	if err != nil {
		logger.Errorf("[login] token generate failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": u, "token": token})
}

// HandlerGetUsers lists users, optionally excluding ids.
// GET /user?excludeIds=a&excludeIds=b
func (h *Handler) HandlerGetUsers(c *gin.Context) {
	exclude := c.QueryArray("excludeIds")

	users, err := h.store.List(c.Request.Context(), exclude)
	if err != nil {
		logger.Errorf("[users] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error fetching users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// HandlerGetUser returns one user.
// GET /user/:userId
func (h *Handler) HandlerGetUser(c *gin.Context) {
	u, err := h.store.FindByID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		if errs.Code(err) == errs.CodeNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logger.Errorf("[users] get failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error fetching user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
