package services

import (
	"testing"

	"github.com/scholarpoint/scholarpoint/internal/config"
	"github.com/scholarpoint/scholarpoint/internal/models"
	"github.com/scholarpoint/scholarpoint/internal/utils"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	utils.SetJWTSecret("test-secret")
	db := setupTestDB(t)
	return NewAuthService(db, &config.JWTConfig{Secret: "test-secret", ExpireHour: 1})
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Register(&RegisterRequest{
		Username: "ada",
		Password: "strong-password",
		Email:    "ada@example.org",
		Name:     "Ada",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Password == "strong-password" {
		t.Error("stored password should be hashed")
	}
	if user.Role != "user" {
		t.Errorf("Role = %q, expected user", user.Role)
	}

	resp, err := svc.Login(&LoginRequest{Username: "ada", Password: "strong-password"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Token == "" {
		t.Error("login should return a token")
	}

	claims, err := utils.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token should parse: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token UserID = %d, expected %d", claims.UserID, user.ID)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := newTestAuthService(t)

	req := &RegisterRequest{
		Username: "ada",
		Password: "strong-password",
		Email:    "ada@example.org",
		Name:     "Ada",
	}
	if _, err := svc.Register(req); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(req)
	assertAppError(t, err, 400, "already taken")
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.Register(&RegisterRequest{
		Username: "ada", Password: "strong-password", Email: "ada@example.org", Name: "Ada",
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Login(&LoginRequest{Username: "ada", Password: "wrong"})
	assertAppError(t, err, 401, "invalid username or password")

	_, err = svc.Login(&LoginRequest{Username: "nobody", Password: "whatever"})
	assertAppError(t, err, 401, "invalid username or password")
}

func TestLogin_DisabledAccount(t *testing.T) {
	svc := newTestAuthService(t)

	user, err := svc.Register(&RegisterRequest{
		Username: "ada", Password: "strong-password", Email: "ada@example.org", Name: "Ada",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	svc.db.Model(user).Update("is_active", false)

	_, err = svc.Login(&LoginRequest{Username: "ada", Password: "strong-password"})
	assertAppError(t, err, 401, "account disabled")
}

func TestCreateAdminIfNotExists(t *testing.T) {
	svc := newTestAuthService(t)

	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("CreateAdminIfNotExists() error = %v", err)
	}
	// Second call is a no-op
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("second CreateAdminIfNotExists() error = %v", err)
	}

	var count int64
	svc.db.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	if count != 1 {
		t.Errorf("admin count = %d, expected 1", count)
	}
}
