package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qm/backend/internal/infrastructure/auth"
	"github.com/qm/backend/internal/infrastructure/logger"
	"github.com/qm/backend/internal/interfaces/http/dto"
	"github.com/qm/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// AuthHandler describes and revokes the caller's access token
type AuthHandler struct {
	BaseHandler
	blacklist auth.TokenBlacklist
	now       func() time.Time
}

// NewAuthHandler creates a new AuthHandler. A nil blacklist disables logout.
func NewAuthHandler(blacklist auth.TokenBlacklist) *AuthHandler {
	return &AuthHandler{blacklist: blacklist, now: time.Now}
}

// MeResponse is the caller as the token describes it
type MeResponse struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Groups    []string  `json:"groups"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		h.Error(c, dto.ErrCodeUnauthorized, "authentication required")
		return
	}
	resp := MeResponse{
		TenantID: claims.TenantID,
		UserID:   claims.UserID,
		Username: claims.Username,
		Groups:   claims.Groups,
	}
	if resp.Groups == nil {
		resp.Groups = []string{}
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	h.Success(c, resp)
}

// Logout handles POST /auth/logout by revoking the token until it expires
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		h.Error(c, dto.ErrCodeUnauthorized, "authentication required")
		return
	}
	if h.blacklist == nil {
		h.Error(c, dto.ErrCodeUnavailable, "token revocation is not configured")
		return
	}
	ttl := claims.RemainingTTL(h.now())
	if ttl > 0 {
		if err := h.blacklist.Revoke(c.Request.Context(), claims.ID, ttl); err != nil {
			logger.L(c.Request.Context()).Error("revoke token", zap.Error(err))
			h.Error(c, dto.ErrCodeUnavailable, "token revocation failed")
			return
		}
	}
	h.NoContent(c)
}
