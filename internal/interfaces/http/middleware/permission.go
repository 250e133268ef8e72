package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/qm/backend/internal/interfaces/http/dto"
)

// Access groups carried in the token's groups claim.
const (
	GroupSalesManager    = "sales_manager"
	GroupPurchaseManager = "purchase_manager"
	GroupStockManager    = "stock_manager"
	GroupAccountant      = "accountant"
	GroupAdmin           = "admin"
)

// RequireGroup lets the request through when the caller is in any of the
// groups. Admins pass every check. Must run after JWTAuth.
func RequireGroup(groups ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			Abort(c, dto.ErrCodeUnauthorized, "authentication required")
			return
		}
		if claims.InGroup(GroupAdmin) {
			c.Next()
			return
		}
		for _, g := range groups {
			if claims.InGroup(g) {
				c.Next()
				return
			}
		}
		Abort(c, dto.ErrCodeForbidden, "insufficient permissions")
	}
}
