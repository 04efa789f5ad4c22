package service

import (
	"context"
	"errors"
	"testing"

	"github.com/hinsy/accounts-service/internal/constants"
	"github.com/hinsy/accounts-service/internal/dto"
	apperrors "github.com/hinsy/accounts-service/internal/errors"
	"github.com/hinsy/accounts-service/internal/security"
)

func newAuthFixture() (*AuthService, *fakeUserStore, *fakeRoleStore, *TokenService) {
	users := newFakeUserStore()
	roles := newFakeRoleStore(constants.RoleAdmin, constants.RoleUser)
	tokens := NewTokenService(newFakeTokenStore(), nil, 0)
	return NewAuthService(users, roles, tokens), users, roles, tokens
}

func registerRequest() dto.RegisterRequest {
	return dto.RegisterRequest{
		FirstName:            "John",
		LastName:             "Doe",
		Username:             "johndoe",
		Email:                "john@example.com",
		Password:             "secret123",
		PasswordConfirmation: "secret123",
	}
}

func TestAuthService_Register(t *testing.T) {
	svc, users, _, tokens := newAuthFixture()
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerRequest(), "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if resp.Token == "" {
		t.Error("Expected a token on register")
	}
	if resp.Username != "johndoe" {
		t.Errorf("Expected username johndoe, got %q", resp.Username)
	}
	if !resp.IsActive {
		t.Error("Expected new account to be active")
	}
	if len(resp.Roles) != 1 || resp.Roles[0].Name != constants.RoleUser {
		t.Errorf("Expected default user role, got %+v", resp.Roles)
	}

	stored, err := users.GetByEmail(ctx, "john@example.com")
	if err != nil {
		t.Fatalf("Stored user missing: %v", err)
	}
	if stored.Password == "secret123" {
		t.Error("Password must be stored hashed")
	}
	if err := security.CheckPassword(stored.Password, "secret123"); err != nil {
		t.Errorf("Stored hash does not verify: %v", err)
	}
	if stored.EmailVerifiedAt == nil {
		t.Error("Expected email_verified_at to be stamped")
	}

	userID, _, err := tokens.Resolve(ctx, resp.Token)
	if err != nil || userID != resp.ID {
		t.Errorf("Issued token should resolve to the new user, got (%d, %v)", userID, err)
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest(), ""); err != nil {
		t.Fatalf("First register failed: %v", err)
	}

	req := registerRequest()
	req.Username = "different"
	if _, err := svc.Register(ctx, req, ""); !errors.Is(err, apperrors.ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got %v", err)
	}
}

func TestAuthService_RegisterDuplicateUsername(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest(), ""); err != nil {
		t.Fatalf("First register failed: %v", err)
	}

	req := registerRequest()
	req.Email = "other@example.com"
	if _, err := svc.Register(ctx, req, ""); !errors.Is(err, apperrors.ErrUsernameExists) {
		t.Errorf("Expected ErrUsernameExists, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest(), ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	resp, err := svc.Login(ctx, dto.LoginRequest{Email: "john@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.Token == "" {
		t.Error("Expected a token on login")
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc, users, _, _ := newAuthFixture()
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest(), ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Unknown email and wrong password are indistinguishable.
	if _, err := svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "secret123"}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, err := svc.Login(ctx, dto.LoginRequest{Email: "john@example.com", Password: "wrong"}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for wrong password, got %v", err)
	}

	// Deactivated accounts cannot log in.
	stored, _ := users.GetByEmail(ctx, "john@example.com")
	if err := users.Update(ctx, stored.ID, map[string]interface{}{"is_active": false}); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if _, err := svc.Login(ctx, dto.LoginRequest{Email: "john@example.com", Password: "secret123"}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for inactive account, got %v", err)
	}
}

func TestAuthService_LogoutRevokesOnlyPresentingToken(t *testing.T) {
	svc, _, _, tokens := newAuthFixture()
	ctx := context.Background()

	first, err := svc.Register(ctx, registerRequest(), "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	second, err := svc.Login(ctx, dto.LoginRequest{Email: "john@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := svc.Logout(ctx, first.Token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, _, err := tokens.Resolve(ctx, first.Token); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("Logged-out token should be invalid, got %v", err)
	}
	if _, _, err := tokens.Resolve(ctx, second.Token); err != nil {
		t.Errorf("Other session should survive logout, got %v", err)
	}
}

func TestAuthService_Me(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	created, err := svc.Register(ctx, registerRequest(), "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	resp, err := svc.Me(ctx, created.ID)
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if resp.Token != "" {
		t.Error("Me must not mint a token")
	}
	if resp.Email != "john@example.com" {
		t.Errorf("Unexpected email %q", resp.Email)
	}

	if _, err := svc.Me(ctx, 999); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	created, err := svc.Register(ctx, registerRequest(), "old.png")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	newEmail := "john.doe@example.com"
	resp, oldAvatar, err := svc.UpdateProfile(ctx, created.ID, dto.UpdateProfileRequest{
		FirstName: "Johnny",
		LastName:  "Doe",
		Email:     &newEmail,
	}, "new.png")
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if resp.FirstName != "Johnny" {
		t.Errorf("Expected first name Johnny, got %q", resp.FirstName)
	}
	if resp.Email != newEmail {
		t.Errorf("Expected email %q, got %q", newEmail, resp.Email)
	}
	if resp.Avatar != "new.png" {
		t.Errorf("Expected avatar new.png, got %q", resp.Avatar)
	}
	if oldAvatar != "old.png" {
		t.Errorf("Expected displaced avatar old.png, got %q", oldAvatar)
	}
}

func TestAuthService_UpdateProfileEmailConflict(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	created, err := svc.Register(ctx, registerRequest(), "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	other := registerRequest()
	other.Username = "janedoe"
	other.Email = "jane@example.com"
	if _, err := svc.Register(ctx, other, ""); err != nil {
		t.Fatalf("Second register failed: %v", err)
	}

	taken := "jane@example.com"
	_, _, err = svc.UpdateProfile(ctx, created.ID, dto.UpdateProfileRequest{
		FirstName: "John",
		LastName:  "Doe",
		Email:     &taken,
	}, "")
	if !errors.Is(err, apperrors.ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got %v", err)
	}

	// Keeping one's own email is not a conflict.
	own := "john@example.com"
	if _, _, err := svc.UpdateProfile(ctx, created.ID, dto.UpdateProfileRequest{
		FirstName: "John",
		LastName:  "Doe",
		Email:     &own,
	}, ""); err != nil {
		t.Errorf("Own email should not conflict: %v", err)
	}
}

func TestAuthService_UpdatePassword(t *testing.T) {
	svc, users, _, _ := newAuthFixture()
	ctx := context.Background()

	created, err := svc.Register(ctx, registerRequest(), "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	err = svc.UpdatePassword(ctx, created.ID, dto.UpdatePasswordRequest{
		CurrentPassword:    "secret123",
		NewPassword:        "brandnew456",
		ConfirmNewPassword: "brandnew456",
	})
	if err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}

	stored, _ := users.GetByID(ctx, created.ID)
	if err := security.CheckPassword(stored.Password, "brandnew456"); err != nil {
		t.Errorf("New password does not verify: %v", err)
	}
	if err := security.CheckPassword(stored.Password, "secret123"); err == nil {
		t.Error("Old password must no longer verify")
	}
}

func TestAuthService_UpdatePasswordRejections(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	ctx := context.Background()

	created, err := svc.Register(ctx, registerRequest(), "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	err = svc.UpdatePassword(ctx, created.ID, dto.UpdatePasswordRequest{
		CurrentPassword:    "secret123",
		NewPassword:        "brandnew456",
		ConfirmNewPassword: "other",
	})
	if !errors.Is(err, apperrors.ErrPasswordMismatch) {
		t.Errorf("Expected ErrPasswordMismatch, got %v", err)
	}

	err = svc.UpdatePassword(ctx, created.ID, dto.UpdatePasswordRequest{
		CurrentPassword:    "wrong",
		NewPassword:        "brandnew456",
		ConfirmNewPassword: "brandnew456",
	})
	if !errors.Is(err, apperrors.ErrIncorrectPassword) {
		t.Errorf("Expected ErrIncorrectPassword, got %v", err)
	}
}
