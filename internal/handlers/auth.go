package handlers

import (
	"net/http"

	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db          *gorm.DB
	authService services.AuthService
	userService services.UserService
}

type RegistrationResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

type LoginResponse struct {
	Message     string      `json:"message"`
	User        models.User `json:"user"`
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
}

func NewAuthHandler(db *gorm.DB, authService services.AuthService, userService services.UserService) *AuthHandler {
	return &AuthHandler{db: db, authService: authService, userService: userService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegistrationRequest
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.authService.RegisterUser(h.db.WithContext(c.Request.Context()), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, RegistrationResponse{
		Message: "Registration successful",
		User:    user,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.authService.LoginUser(h.db.WithContext(c.Request.Context()), req)
	if err != nil {
		respondError(c, err)
		return
	}

	token, expiresIn, err := h.authService.GenerateToken(user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Message:     "Login successful",
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
	})
}

// Me returns the user named by the bearer token.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := h.userService.GetUser(h.db.WithContext(c.Request.Context()), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
