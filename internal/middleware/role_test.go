package middleware

import (
	"net/http"
	"testing"

	"github.com/hinsy/accounts-service/internal/constants"
)

func TestRequireRole_AdminAllowed(t *testing.T) {
	resolver := &stubResolver{userID: 1, tokenID: 10}
	loader := &stubLoader{user: activeUser(constants.RoleAdmin, constants.RoleUser)}
	router := guardedRouter(resolver, loader, RequireRole(constants.RoleAdmin))

	w := doRequest(router, "Bearer 10|secret")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequireRole_NonAdminForbidden(t *testing.T) {
	resolver := &stubResolver{userID: 1, tokenID: 10}
	loader := &stubLoader{user: activeUser(constants.RoleUser)}
	router := guardedRouter(resolver, loader, RequireRole(constants.RoleAdmin))

	w := doRequest(router, "Bearer 10|secret")
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", w.Code)
	}

	env := decodeEnvelope(t, w)
	if env.Result {
		t.Error("Expected result false")
	}
	if env.Message != constants.MsgForbidden {
		t.Errorf("Expected %q, got %q", constants.MsgForbidden, env.Message)
	}
}

func TestRequireRole_NoRoles(t *testing.T) {
	resolver := &stubResolver{userID: 1, tokenID: 10}
	loader := &stubLoader{user: activeUser()}
	router := guardedRouter(resolver, loader, RequireRole(constants.RoleAdmin))

	w := doRequest(router, "Bearer 10|secret")
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", w.Code)
	}
}

func TestRequireRole_UnauthenticatedIs401(t *testing.T) {
	// A role gate reached without the auth guard running first must not
	// grant access.
	router := guardedRouter(&stubResolver{userID: 1, tokenID: 10}, &stubLoader{user: activeUser(constants.RoleAdmin)}, RequireRole(constants.RoleAdmin))

	w := doRequest(router, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}
}
