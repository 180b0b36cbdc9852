package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nanakusa/frontier/cache"
	"github.com/nanakusa/frontier/config"
)

// AccountIDKey is the gin context key holding the authenticated account ID.
const AccountIDKey = "account_id"

// Auth validates the bearer token and requires a live session entry for
// it. Login writes the account ID as the session value, so a token that
// parses but no longer matches its stored owner is treated the same as
// an expired session.
func Auth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims, err := ParseToken(tokenStr, sec.JWTSecret)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		cacheCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		owner, err := c.Get(cacheCtx, "session:"+tokenStr)
		if err != nil || owner != strconv.FormatInt(claims.AccountID, 10) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		ctx.Set(AccountIDKey, claims.AccountID)
		ctx.Next()
	}
}

// GetAccountID returns the authenticated account ID, or 0 outside Auth.
func GetAccountID(c *gin.Context) int64 {
	if v, ok := c.Get(AccountIDKey); ok {
		return v.(int64)
	}
	return 0
}
