package services

import (
	"errors"
	"strings"
	"time"

	"github.com/scholarpoint/scholarpoint/internal/config"
	"github.com/scholarpoint/scholarpoint/internal/models"
	"github.com/scholarpoint/scholarpoint/internal/utils"
	"github.com/scholarpoint/scholarpoint/pkg/response"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{db: db, jwtConfig: jwtCfg}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=8"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token    string       `json:"token"`
	User     *models.User `json:"user"`
	ExpireAt time.Time    `json:"expire_at"`
}

// Register creates a new platform account.
func (s *AuthService) Register(req *RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)

	var count int64
	s.db.Model(&models.User{}).Where("username = ?", username).Count(&count)
	if count > 0 {
		return nil, response.NewConflict("username already taken")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username: username,
		Password: hash,
		Email:    strings.TrimSpace(req.Email),
		Name:     strings.TrimSpace(req.Name),
		Role:     "user",
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	LogActivity("auth", "registered", "account created: "+user.Username, &user.ID, nil)

	return &user, nil
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	var user models.User
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("invalid username or password")
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, response.NewUnauthorized("account disabled")
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, response.NewUnauthorized("invalid username or password")
	}

	expireHours := s.jwtConfig.ExpireHour
	if expireHours <= 0 {
		expireHours = 24
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, expireHours)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	s.db.Save(&user)

	return &LoginResponse{
		Token:    token,
		User:     &user,
		ExpireAt: now.Add(time.Duration(expireHours) * time.Hour),
	}, nil
}

// GetUserByID returns a user by ID
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// CreateAdminIfNotExists seeds the default admin account.
func (s *AuthService) CreateAdminIfNotExists() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}

	admin := models.User{
		Username: "admin",
		Password: hash,
		Name:     "Administrator",
		Role:     "admin",
		IsActive: true,
	}
	return s.db.Create(&admin).Error
}
