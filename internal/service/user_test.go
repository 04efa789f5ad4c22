package service

import (
	"context"
	"errors"
	"testing"

	"github.com/hinsy/accounts-service/internal/constants"
	"github.com/hinsy/accounts-service/internal/dto"
	apperrors "github.com/hinsy/accounts-service/internal/errors"
	"github.com/hinsy/accounts-service/internal/repository"
)

func newUserFixture() (*UserService, *fakeUserStore, *fakeRoleStore, *fakeTokenStore, *TokenService) {
	users := newFakeUserStore()
	roles := newFakeRoleStore(constants.RoleAdmin, constants.RoleUser)
	tokenStore := newFakeTokenStore()
	tokens := NewTokenService(tokenStore, nil, 0)
	return NewUserService(users, roles, tokens), users, roles, tokenStore, tokens
}

func createUserRequest(username, email string) dto.CreateUserRequest {
	return dto.CreateUserRequest{
		FirstName:            "Jane",
		LastName:             "Smith",
		Username:             username,
		Email:                email,
		Password:             "secret123",
		PasswordConfirmation: "secret123",
	}
}

func TestUserService_CreateDefaultsToUserRole(t *testing.T) {
	svc, _, _, _, _ := newUserFixture()
	ctx := context.Background()

	resp, err := svc.Create(ctx, createUserRequest("jane", "jane@example.com"), nil, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(resp.Roles) != 1 || resp.Roles[0].Name != constants.RoleUser {
		t.Errorf("Expected default user role, got %+v", resp.Roles)
	}
}

func TestUserService_CreateWithRoles(t *testing.T) {
	svc, _, _, _, _ := newUserFixture()
	ctx := context.Background()

	resp, err := svc.Create(ctx, createUserRequest("jane", "jane@example.com"), []uint{1, 2}, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(resp.Roles) != 2 {
		t.Errorf("Expected 2 roles, got %+v", resp.Roles)
	}
}

func TestUserService_CreateUnknownRole(t *testing.T) {
	svc, _, _, _, _ := newUserFixture()
	ctx := context.Background()

	if _, err := svc.Create(ctx, createUserRequest("jane", "jane@example.com"), []uint{99}, ""); !errors.Is(err, apperrors.ErrRoleNotFound) {
		t.Errorf("Expected ErrRoleNotFound, got %v", err)
	}
}

func TestUserService_CreateDuplicate(t *testing.T) {
	svc, _, _, _, _ := newUserFixture()
	ctx := context.Background()

	if _, err := svc.Create(ctx, createUserRequest("jane", "jane@example.com"), nil, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Create(ctx, createUserRequest("other", "jane@example.com"), nil, ""); !errors.Is(err, apperrors.ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got %v", err)
	}
	if _, err := svc.Create(ctx, createUserRequest("jane", "other@example.com"), nil, ""); !errors.Is(err, apperrors.ErrUsernameExists) {
		t.Errorf("Expected ErrUsernameExists, got %v", err)
	}
}

func TestUserService_UpdatePartial(t *testing.T) {
	svc, users, _, _, _ := newUserFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, createUserRequest("jane", "jane@example.com"), nil, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	originalPassword := func() string {
		u, _ := users.GetByID(ctx, created.ID)
		return u.Password
	}()

	first := "Janet"
	resp, _, err := svc.Update(ctx, created.ID, dto.UpdateUserRequest{FirstName: &first}, nil, "")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if resp.FirstName != "Janet" {
		t.Errorf("Expected Janet, got %q", resp.FirstName)
	}
	if resp.LastName != "Smith" {
		t.Errorf("Untouched field changed: %q", resp.LastName)
	}

	// No password in the request, no rehash.
	if got := func() string {
		u, _ := users.GetByID(ctx, created.ID)
		return u.Password
	}(); got != originalPassword {
		t.Error("Password hash must not change without a password field")
	}
}

func TestUserService_UpdateReplacesRoles(t *testing.T) {
	svc, users, _, _, _ := newUserFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, createUserRequest("jane", "jane@example.com"), []uint{1, 2}, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	resp, _, err := svc.Update(ctx, created.ID, dto.UpdateUserRequest{}, []uint{2}, "")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(resp.Roles) != 1 || resp.Roles[0].ID != 2 {
		t.Errorf("Expected roles replaced with [2], got %+v", resp.Roles)
	}

	stored, _ := users.GetByID(ctx, created.ID)
	if len(stored.Roles) != 1 {
		t.Errorf("Stored roles not replaced: %+v", stored.Roles)
	}
}

func TestUserService_UpdateDeactivationRevokesTokens(t *testing.T) {
	svc, _, _, tokenStore, tokens := newUserFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, createUserRequest("jane", "jane@example.com"), nil, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	plaintext, _ := tokens.Issue(ctx, created.ID)

	inactive := false
	if _, _, err := svc.Update(ctx, created.ID, dto.UpdateUserRequest{IsActive: &inactive}, nil, ""); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, _, err := tokens.Resolve(ctx, plaintext); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("Expected tokens revoked on deactivation, got %v", err)
	}
	if len(tokenStore.tokens) != 0 {
		t.Errorf("Expected empty token store, got %d records", len(tokenStore.tokens))
	}
}

func TestUserService_UpdateAvatarReturnsDisplacedFile(t *testing.T) {
	svc, _, _, _, _ := newUserFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, createUserRequest("jane", "jane@example.com"), nil, "1000_old.png")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	resp, oldAvatar, err := svc.Update(ctx, created.ID, dto.UpdateUserRequest{}, nil, "2000_new.png")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if resp.Avatar != "2000_new.png" {
		t.Errorf("Expected new avatar, got %q", resp.Avatar)
	}
	if oldAvatar != "1000_old.png" {
		t.Errorf("Expected displaced avatar, got %q", oldAvatar)
	}
}

func TestUserService_DeleteCascades(t *testing.T) {
	svc, users, _, tokenStore, tokens := newUserFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, createUserRequest("jane", "jane@example.com"), nil, "1000_jane.png")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	tokens.Issue(ctx, created.ID)
	tokens.Issue(ctx, created.ID)

	avatar, err := svc.Delete(ctx, created.ID, 99)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if avatar != "1000_jane.png" {
		t.Errorf("Expected avatar filename for cleanup, got %q", avatar)
	}
	if _, err := users.GetByID(ctx, created.ID); err == nil {
		t.Error("Expected user row gone")
	}
	if len(tokenStore.tokens) != 0 {
		t.Errorf("Expected all tokens revoked, got %d", len(tokenStore.tokens))
	}
}

func TestUserService_DeleteSelfRejected(t *testing.T) {
	svc, _, _, _, _ := newUserFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, createUserRequest("jane", "jane@example.com"), nil, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Delete(ctx, created.ID, created.ID); !errors.Is(err, apperrors.ErrSelfDeletion) {
		t.Errorf("Expected ErrSelfDeletion, got %v", err)
	}
}

func TestUserService_DeleteUnknown(t *testing.T) {
	svc, _, _, _, _ := newUserFixture()

	if _, err := svc.Delete(context.Background(), 404, 1); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_ListFilters(t *testing.T) {
	svc, _, _, _, _ := newUserFixture()
	ctx := context.Background()

	if _, err := svc.Create(ctx, createUserRequest("jane", "jane@example.com"), []uint{1}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	req := createUserRequest("bob", "bob@example.com")
	req.FirstName = "Bob"
	if _, err := svc.Create(ctx, req, []uint{2}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	params := constants.PaginationParams{Page: 1, Size: 15, SortCol: "id", SortDir: "asc"}

	all, total, err := svc.List(ctx, params, repository.UserFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("Expected 2 users, got total=%d len=%d", total, len(all))
	}

	params.Search = "bob"
	found, total, err := svc.List(ctx, params, repository.UserFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(found) != 1 || found[0].Username != "bob" {
		t.Errorf("Expected only bob, got %+v", found)
	}

	params.Search = ""
	admins, total, err := svc.List(ctx, params, repository.UserFilter{RoleIDs: []uint{1}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(admins) != 1 || admins[0].Username != "jane" {
		t.Errorf("Expected only jane for role filter, got %+v", admins)
	}
}

func TestUserService_ListPaginationConsistency(t *testing.T) {
	svc, _, _, _, _ := newUserFixture()
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		if _, err := svc.Create(ctx, createUserRequest(name, name+"@example.com"), nil, ""); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	pageOne, total, err := svc.List(ctx, constants.PaginationParams{Page: 1, Size: 2, Offset: 0}, repository.UserFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	pageThree, _, err := svc.List(ctx, constants.PaginationParams{Page: 3, Size: 2, Offset: 4}, repository.UserFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if total != 5 {
		t.Errorf("Expected total 5, got %d", total)
	}
	if len(pageOne) != 2 {
		t.Errorf("Expected full first page, got %d", len(pageOne))
	}
	if len(pageThree) != 1 {
		t.Errorf("Expected short last page, got %d", len(pageThree))
	}
}
