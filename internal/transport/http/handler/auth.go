package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"rewear-api/internal/app"
	"rewear-api/internal/transport/http/middleware"
	"rewear-api/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), app.SignupInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		RemoteIP: c.ClientIP(),
	})
	if err != nil {
		writeError(c, err, "signup failed")
		return
	}

	response.Created(c, user.Public())
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		RemoteIP: c.ClientIP(),
	})
	if err != nil {
		writeError(c, err, "login failed")
		return
	}

	response.OK(c, result)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, app.ErrUnauthorized.Error())
		return
	}
	response.OK(c, user.Public())
}

// Events lists the caller's recent signup and login activity.
func (h *AuthHandler) Events(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, app.ErrUnauthorized.Error())
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c)
			return
		}
		limit = parsed
	}

	events, err := h.authService.RecentActivity(c.Request.Context(), user.ID, limit)
	if err != nil {
		writeError(c, err, "list auth events failed")
		return
	}
	response.OK(c, gin.H{"events": events})
}
