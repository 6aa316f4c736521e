package handler

import (
	"github.com/driveease/service-rental/internal/application"
	"github.com/driveease/service-rental/internal/common/auth"
	"github.com/driveease/service-rental/internal/common/middleware"
	"github.com/driveease/service-rental/internal/common/response"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles registration, login and the caller's own account.
type AuthHandler struct {
	service *application.AccountService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *application.AccountService) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterRoutes registers the account routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	public := r.Group("/api/v1/auth")
	{
		public.POST("/register", h.Register)
		public.POST("/login", h.Login)
		public.POST("/refresh", h.Refresh)
		public.POST("/verify-email", h.VerifyEmail)
		public.POST("/password-reset", h.RequestPasswordReset)
		public.POST("/password-reset/confirm", h.ResetPassword)
	}

	me := r.Group("/api/v1/me")
	me.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleCustomer))
	{
		me.GET("", h.GetProfile)
		me.PUT("", h.UpdateProfile)
		me.PUT("/password", h.ChangePassword)
	}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req application.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req application.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Refresh(c.Request.Context(), body.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// VerifyEmail handles POST /api/v1/auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var body struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.VerifyEmail(c.Request.Context(), body.Token); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "e-mail address verified"})
}

// RequestPasswordReset handles POST /api/v1/auth/password-reset.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), body.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "if the address is registered, a reset link has been sent"})
}

// ResetPassword handles POST /api/v1/auth/password-reset/confirm.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req application.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "password updated"})
}

// GetProfile handles GET /api/v1/me.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	result, err := h.service.GetProfile(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateProfile handles PUT /api/v1/me.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req application.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateProfile(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ChangePassword handles PUT /api/v1/me/password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req application.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), p, req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "password changed"})
}
