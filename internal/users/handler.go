package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/shared/auth"
	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc    *Service
	Signer *auth.Signer
}

func NewHandler(svc *Service, signer *auth.Signer) *Handler {
	return &Handler{Svc: svc, Signer: signer}
}

// RegisterPublicRoutes mounts the routes that do not require a token.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.register)
	rg.POST("/auth/login", h.login)
}

// RegisterRoutes mounts the authenticated routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	user, err := h.Svc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			respond.Error(c, http.StatusConflict, "conflict", "username or email already taken", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	if h.Svc == nil || h.Signer == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	user, err := h.Svc.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid username or password", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "login failed", nil)
		return
	}
	token, err := h.Signer.Sign(auth.Claims{Sub: user.ID, Username: user.Username})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"accessToken": token,
		"tokenType":   "bearer",
	})
}

func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"id":        user.ID,
		"username":  user.Username,
		"email":     user.Email,
		"createdAt": user.CreatedAt,
	})
}
