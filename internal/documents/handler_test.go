package documents_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/bootstrap"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/shared/storage/db"
)

func newTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		JWTSecret:       "test-secret",
	}
	app, err := bootstrap.Build(cfg, db.DefaultServerOptions())
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func registerAndLogin(t *testing.T, router *gin.Engine) string {
	t.Helper()

	body, _ := json.Marshal(gin.H{
		"username": "uploader",
		"email":    "uploader@example.com",
		"password": "password123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d body=%s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", rec.Code, rec.Body.String())
	}

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if out.AccessToken == "" {
		t.Fatal("expected access token")
	}
	return out.AccessToken
}

func uploadFile(t *testing.T, router *gin.Engine, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDocumentsUploadListAndGet(t *testing.T) {
	app := newTestApp(t)
	token := registerAndLogin(t, app.Router)

	resp := uploadFile(t, app.Router, token, "notes.txt", []byte("hello world, this is a plain text document"))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("upload status = %d body=%s", resp.Code, resp.Body.String())
	}

	var created struct {
		DocumentID string `json:"documentId"`
		Status     string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if created.DocumentID == "" {
		t.Fatal("expected documentId")
	}
	if created.Status != "pending" {
		t.Fatalf("status = %q, want pending", created.Status)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d body=%s", rec.Code, rec.Body.String())
	}
	var listed struct {
		Documents []struct {
			DocumentID string `json:"documentId"`
		} `json:"documents"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed.Documents) != 1 || listed.Documents[0].DocumentID != created.DocumentID {
		t.Fatalf("unexpected list response: %+v", listed)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.DocumentID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestDocumentsRequireAuth(t *testing.T) {
	app := newTestApp(t)

	resp := uploadFile(t, app.Router, "", "notes.txt", []byte("hello"))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("upload without token status = %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("list without token status = %d", rec.Code)
	}
}

func TestDocumentsUploadRateLimited(t *testing.T) {
	app := newTestApp(t)
	token := registerAndLogin(t, app.Router)

	for i := 0; i < 2; i++ {
		resp := uploadFile(t, app.Router, token, "notes.txt", []byte("some plain text content"))
		if resp.Code != http.StatusAccepted {
			t.Fatalf("upload %d status = %d body=%s", i+1, resp.Code, resp.Body.String())
		}
	}

	resp := uploadFile(t, app.Router, token, "notes.txt", []byte("one more"))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("third upload status = %d, want 429", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestDocumentsRejectUnsupportedContent(t *testing.T) {
	app := newTestApp(t)
	token := registerAndLogin(t, app.Router)

	binary := []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0x00, 0x10, 0x20}
	resp := uploadFile(t, app.Router, token, "blob.bin", binary)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("binary upload status = %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestDocumentNotFoundForOtherID(t *testing.T) {
	app := newTestApp(t)
	token := registerAndLogin(t, app.Router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/does-not-exist", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get status = %d, want 404", rec.Code)
	}
}
