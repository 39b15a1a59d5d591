package handlers

import (
	"net/http"

	"taskboard/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct {
	db          *gorm.DB
	userService services.UserService
}

func NewUserHandler(db *gorm.DB, userService services.UserService) *UserHandler {
	return &UserHandler{db: db, userService: userService}
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.userService.GetUsers(h.db.WithContext(c.Request.Context()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetMembers(c *gin.Context) {
	members, err := h.userService.GetMembers(h.db.WithContext(c.Request.Context()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id", services.ErrUserNotFound)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(h.db.WithContext(c.Request.Context()), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.CreateUser(h.db.WithContext(c.Request.Context()), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id", services.ErrUserNotFound)
	if !ok {
		return
	}

	var req services.UpdateUserRequest
	if err := bindJSON(c, &req, true); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.UpdateUser(h.db.WithContext(c.Request.Context()), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id", services.ErrUserNotFound)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(h.db.WithContext(c.Request.Context()), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
