package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openfleet/autoscaler/internal/auth"
)

type AuthHandler struct {
	// users maps a username to its bcrypt password hash.
	users       map[string]string
	authService *auth.Service
}

func NewAuthHandler(users map[string]string, authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		users:       users,
		authService: authService,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
	Username  string `json:"username"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	hash, ok := h.users[req.Username]
	if !ok || !auth.CheckPassword(req.Password, hash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.authService.GenerateToken(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresIn: int(h.authService.TokenDuration().Seconds()),
		Username:  req.Username,
	})
}
