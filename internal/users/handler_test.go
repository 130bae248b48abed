package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/shared/auth"
	"docqa-backend/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T) (*gin.Engine, *auth.Signer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	signer := auth.NewSigner("test-secret", time.Hour)
	handler := NewHandler(NewService(NewMemoryRepo()), signer)

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterPublicRoutes(api)
	authed := api.Group("")
	authed.Use(middleware.Auth(signer))
	handler.RegisterRoutes(authed)
	return router, signer
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginMeFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "alice",
		"password": "password123",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", rec.Code, rec.Body.String())
	}
	var loginResp struct {
		AccessToken string `json:"accessToken"`
		TokenType   string `json:"tokenType"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if loginResp.AccessToken == "" || loginResp.TokenType != "bearer" {
		t.Fatalf("unexpected login response: %+v", loginResp)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/me", nil, loginResp.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d body=%s", rec.Code, rec.Body.String())
	}
	var me struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	if me.Username != "alice" {
		t.Fatalf("me username = %q", me.Username)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "ghost",
		"password": "whatever",
	}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRegisterConflict(t *testing.T) {
	router, _ := newTestRouter(t)

	body := gin.H{"username": "bob", "email": "bob@example.com", "password": "password123"}
	if rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", body, ""); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", body, ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
