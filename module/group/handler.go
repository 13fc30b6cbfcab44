package group

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatrelay/logger"
	groupmodel "chatrelay/module/group/model"
	"chatrelay/module/user"
	"chatrelay/tools/errs"
)

type Handler struct {
	store *Store
	users *user.Store
}

func NewHandler(store *Store, users *user.Store) *Handler {
	return &Handler{store: store, users: users}
}

// HandlerCreateGroup creates a group after verifying every listed user exists.
// POST /group {name, userInfo: [{user, isAdmin}]}
func (h *Handler) HandlerCreateGroup(c *gin.Context) {
	var req struct {
		Name     string             `json:"name" binding:"required"`
		UserInfo []groupmodel.Member `json:"userInfo" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and userInfo required"})
		return
	}

	ids := make([]string, 0, len(req.UserInfo))
	for _, m := range req.UserInfo {
		ids = append(ids, m.User)
	}
	found, err := h.users.FindByIDs(c.Request.Context(), ids)
	if err != nil {
		logger.Errorf("[group] verify users failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error creating group"})
		return
	}
	if len(found) != len(ids) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	g, err := h.store.Create(c.Request.Context(), req.Name, req.UserInfo)
	if err != nil {
		logger.Errorf("[group] create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error creating group"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Group successfully created.", "id": g.ID.Hex()})
}

// HandlerGetGroup returns the group with its roster.
// GET /group/:groupId
func (h *Handler) HandlerGetGroup(c *gin.Context) {
	g, err := h.store.FindByID(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		if errs.Code(err) == errs.CodeNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		logger.Errorf("[group] get failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error fetching group"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g})
}

// HandlerAddMembers appends members to the durable roster.
// PUT /group/:groupId/members {userIds}
func (h *Handler) HandlerAddMembers(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"userIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userIds required"})
		return
	}

	found, err := h.users.FindByIDs(c.Request.Context(), req.UserIDs)
	if err != nil {
		logger.Errorf("[group] verify users failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error adding users to group"})
		return
	}
	if len(found) != len(req.UserIDs) {
		c.JSON(http.StatusNotFound, gin.H{"error": "some users not found"})
		return
	}

	added, err := h.store.AddMembers(c.Request.Context(), c.Param("groupId"), req.UserIDs)
	if err != nil {
		switch errs.Code(err) {
		case errs.CodeNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		case errs.CodeValidation:
			c.JSON(http.StatusBadRequest, gin.H{"error": "all users are already in the group"})
		default:
			logger.Errorf("[group] add members failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "error adding users to group"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%d user(s) added to the group", added)})
}

// HandlerRemoveMember removes one member from the durable roster.
// DELETE /group/:groupId/members?userId=...
func (h *Handler) HandlerRemoveMember(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "User id required"})
		return
	}

	if err := h.store.RemoveMember(c.Request.Context(), c.Param("groupId"), userID); err != nil {
		if errs.Code(err) == errs.CodeNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		logger.Errorf("[group] remove member failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error removing user from group"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User removed from the group successfully"})
}
