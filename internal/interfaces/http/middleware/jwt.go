package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qm/backend/internal/infrastructure/auth"
	"github.com/qm/backend/internal/infrastructure/logger"
	"github.com/qm/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	claimsKey   = "jwt_claims"
	tenantIDKey = "tenant_id"
	userIDKey   = "user_id"
)

type claimsContextKey struct{}

// JWTAuth validates the bearer token, checks revocation and publishes the
// caller's claims on the gin and request contexts. A nil blacklist skips
// the revocation check.
func JWTAuth(svc *auth.JWTService, blacklist auth.TokenBlacklist, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			Abort(c, dto.ErrCodeUnauthorized, "missing or malformed authorization header")
			return
		}

		claims, err := svc.Validate(raw)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				Abort(c, dto.ErrCodeTokenExpired, "token has expired")
				return
			}
			Abort(c, dto.ErrCodeUnauthorized, "invalid token")
			return
		}

		if blacklist != nil && claims.ID != "" {
			revoked, err := blacklist.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Enrich(c.Request.Context(), log).Error("token revocation check failed", zap.Error(err))
				Abort(c, dto.ErrCodeUnavailable, "authorization backend unavailable")
				return
			}
			if revoked {
				Abort(c, dto.ErrCodeUnauthorized, auth.ErrTokenRevoked.Error())
				return
			}
		}

		SetClaims(c, claims)
		c.Next()
	}
}

// SetClaims publishes claims on the gin context and the request context,
// where the request-scoped logger picks up tenant and user
func SetClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(claimsKey, claims)
	c.Set(tenantIDKey, claims.TenantID)
	c.Set(userIDKey, claims.UserID)

	ctx := context.WithValue(c.Request.Context(), claimsContextKey{}, claims)
	ctx = logger.WithTenantID(ctx, claims.TenantID.String())
	ctx = logger.WithUserID(ctx, claims.UserID.String())
	ctx = logger.WithContext(ctx, logger.FromContext(c.Request.Context()).With(
		zap.String("tenant_id", claims.TenantID.String()),
		zap.String("user_id", claims.UserID.String()),
	))
	c.Request = c.Request.WithContext(ctx)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Claims returns the authenticated caller, nil on public routes
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// ClaimsFromContext returns the claims JWTAuth stored on the request context
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*auth.Claims)
	return claims
}

// TenantID returns the caller's company, uuid.Nil when unauthenticated
func TenantID(c *gin.Context) uuid.UUID {
	if claims := Claims(c); claims != nil {
		return claims.TenantID
	}
	return uuid.Nil
}

// UserID returns the caller, uuid.Nil when unauthenticated
func UserID(c *gin.Context) uuid.UUID {
	if claims := Claims(c); claims != nil {
		return claims.UserID
	}
	return uuid.Nil
}
