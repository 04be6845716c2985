package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/DandaAkhilReddy/dailyscan-backend/internal/http/response"
)

const userIDKey = "request_user_id"

// RequireUser resolves the caller's identity from the X-User-ID header.
// Authentication is handled upstream (gateway); the backend trusts the
// forwarded id.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if raw == "" {
			response.RespondError(c, http.StatusUnauthorized, "missing_user", fmt.Errorf("missing X-User-ID header"))
			c.Abort()
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			response.RespondError(c, http.StatusUnauthorized, "invalid_user", fmt.Errorf("invalid X-User-ID header"))
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// RequestUserID returns the identity set by RequireUser.
func RequestUserID(c *gin.Context) uuid.UUID {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil
	}
	id, _ := v.(uuid.UUID)
	return id
}
