package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/scholarpoint/scholarpoint/internal/config"
	"github.com/scholarpoint/scholarpoint/internal/middleware"
	"github.com/scholarpoint/scholarpoint/internal/services"
	"github.com/scholarpoint/scholarpoint/pkg/response"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: services.NewAuthService(db, &cfg.JWT),
	}
}

// Register handles account creation
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.authService.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, user)
}

// Logout handles user logout (client-side token removal)
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	response.SuccessWithMessage(c, "logged out successfully", nil)
}

// CreateAdminIfNotExists creates default admin user
func (h *AuthHandler) CreateAdminIfNotExists() error {
	return h.authService.CreateAdminIfNotExists()
}
