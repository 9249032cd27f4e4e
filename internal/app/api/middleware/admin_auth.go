package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/fatflowers/patron/pkg/logctx"
	"github.com/fatflowers/patron/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"
)

// AdminClaimsKey is the gin.Context key holding the verified admin claims.
const AdminClaimsKey = "admin_claims"

// AdminClaims is the token payload issued to staff tools.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

// AdminAuthMiddleware accepts HS256 bearer tokens signed with secret whose
// role is "admin". An empty secret rejects every request.
func AdminAuthMiddleware(secret string, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, base)

		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" || secret == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(response.CodeUnauthorized))
			return
		}

		claims := &AdminClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || claims.Role != "admin" {
			log.Warnw("admin_auth_rejected", "err", err, "role", claims.Role)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(response.CodeUnauthorized))
			return
		}

		c.Set(AdminClaimsKey, claims)
		c.Next()
	}
}
