package middleware

import (
	"account-service/internal/config"
	"account-service/pkg/utils"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	UserIDKey = "userID"
	EmailKey  = "email"
)

// AuthMiddleware accepts only access tokens; refresh tokens are rejected.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := utils.ValidateTokenOfType(parts[1], cfg.JWT.Secret, utils.TokenTypeAccess)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)

		c.Next()
	}
}
