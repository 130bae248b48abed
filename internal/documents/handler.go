package documents

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/shared/server/respond"
	"docqa-backend/internal/shared/telemetry"
)

const defaultMaxUploadBytes = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
}

// UploadRoute is the path the upload rate limit is keyed on.
const UploadRoute = "/documents"

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > h.MaxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", "file exceeds size limit", nil)
		return
	}

	questions, err := parseQuestions(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "questions must be strings", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	ctx := WithRequestID(c.Request.Context(), c.GetString("requestId"))
	doc, err := h.Svc.Upload(ctx, userID, fileHeader.Filename, questions, file)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		telemetry.Error("documents.upload.failed", map[string]any{
			"user_id":    userID,
			"filename":   fileHeader.Filename,
			"err":        err.Error(),
			"request_id": c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		return
	}

	respond.Accepted(c, gin.H{
		"documentId": doc.ID,
		"status":     doc.Status,
	})
}

// parseQuestions accepts repeated "questions" form fields, a single
// field holding a JSON array, or a single newline-separated field.
func parseQuestions(c *gin.Context) ([]string, error) {
	values := c.PostFormArray("questions")
	if len(values) == 1 {
		raw := strings.TrimSpace(values[0])
		if strings.HasPrefix(raw, "[") {
			var parsed []string
			if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
				return nil, err
			}
			return parsed, nil
		}
		if strings.Contains(raw, "\n") {
			return strings.Split(raw, "\n"), nil
		}
	}
	return values, nil
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	docs, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toResponse(doc))
	}
	respond.JSON(c, http.StatusOK, gin.H{"documents": out})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")

	doc, err := h.Svc.Get(c.Request.Context(), userID, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load document", nil)
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(doc))
}
