package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hinsy/accounts-service/internal/constants"
	apperrors "github.com/hinsy/accounts-service/internal/errors"
	"github.com/hinsy/accounts-service/internal/model"
	"github.com/hinsy/accounts-service/internal/response"
	"gorm.io/gorm"
)

type stubResolver struct {
	userID  uint
	tokenID uint
	err     error
	seen    string
}

func (s *stubResolver) Resolve(_ context.Context, plaintext string) (uint, uint, error) {
	s.seen = plaintext
	if s.err != nil {
		return 0, 0, s.err
	}
	return s.userID, s.tokenID, nil
}

type stubLoader struct {
	user *model.User
	err  error
}

func (s *stubLoader) GetByID(_ context.Context, _ uint) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func activeUser(roles ...string) *model.User {
	user := &model.User{
		Model:    gorm.Model{ID: 1},
		Username: "johndoe",
		IsActive: true,
	}
	for i, name := range roles {
		user.Roles = append(user.Roles, model.Role{Model: gorm.Model{ID: uint(i + 1)}, Name: name})
	}
	return user
}

func guardedRouter(resolver TokenResolver, loader UserLoader, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	m := NewAuthMiddleware(resolver, loader)

	handlers := []gin.HandlerFunc{m.RequireAuth()}
	handlers = append(handlers, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, response.Success("ok", gin.H{
			"user_id":  c.GetUint(constants.GinKeyUserID),
			"username": c.GetString(constants.GinKeyUsername),
		}))
	})

	router.GET("/protected", handlers...)
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set(constants.HeaderAuthorization, authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Invalid envelope JSON: %v", err)
	}
	return env
}

func TestRequireAuth_ValidToken(t *testing.T) {
	resolver := &stubResolver{userID: 1, tokenID: 10}
	router := guardedRouter(resolver, &stubLoader{user: activeUser(constants.RoleUser)})

	w := doRequest(router, "Bearer 10|secret")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resolver.seen != "10|secret" {
		t.Errorf("Expected resolver to see plaintext, got %q", resolver.seen)
	}

	env := decodeEnvelope(t, w)
	if !env.Result {
		t.Errorf("Expected result true, got %+v", env)
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	router := guardedRouter(&stubResolver{}, &stubLoader{user: activeUser()})

	w := doRequest(router, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}

	env := decodeEnvelope(t, w)
	if env.Result {
		t.Error("Expected result false")
	}
	if env.Message != constants.MsgUnauthorized {
		t.Errorf("Expected %q, got %q", constants.MsgUnauthorized, env.Message)
	}
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	router := guardedRouter(&stubResolver{userID: 1}, &stubLoader{user: activeUser()})

	for _, header := range []string{"Basic abc", "Bearer", "Bearer ", "justgarbage"} {
		w := doRequest(router, header)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestRequireAuth_RevokedToken(t *testing.T) {
	router := guardedRouter(&stubResolver{err: apperrors.ErrInvalidToken}, &stubLoader{user: activeUser()})

	w := doRequest(router, "Bearer 1|revoked")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_DeletedUser(t *testing.T) {
	router := guardedRouter(&stubResolver{userID: 1, tokenID: 10}, &stubLoader{err: gorm.ErrRecordNotFound})

	w := doRequest(router, "Bearer 10|secret")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_DeactivatedUser(t *testing.T) {
	user := activeUser(constants.RoleUser)
	user.IsActive = false
	router := guardedRouter(&stubResolver{userID: 1, tokenID: 10}, &stubLoader{user: user})

	w := doRequest(router, "Bearer 10|secret")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}
}
