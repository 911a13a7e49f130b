package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bitwise74/readstack/internal/model"
	"bitwise74/readstack/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AccessTokenParser interface {
	ParseAccessToken(token string) (string, error)
}

type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (*model.User, error)
}

func abortAuth(c *gin.Context, status int, msg, requestID string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":   false,
		"error":     msg,
		"requestID": requestID,
	})
}

// NewJWTMiddleware authenticates requests carrying a bearer access token.
// The token owner must still exist and be verified. On success the user's
// ID is stored as userID.
func NewJWTMiddleware(tokens AccessTokenParser, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		header := c.GetHeader("Authorization")
		scheme, tokenStr, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenStr) == "" {
			abortAuth(c, http.StatusUnauthorized, "No token provided", requestID)
			return
		}

		userID, err := tokens.ParseAccessToken(strings.TrimSpace(tokenStr))
		if err != nil {
			abortAuth(c, http.StatusUnauthorized, "Authorization token invalid or expired", requestID)
			return
		}

		user, err := users.FindUserByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				abortAuth(c, http.StatusUnauthorized, "User not found", requestID)
				return
			}

			abortAuth(c, http.StatusInternalServerError, "Internal server error", requestID)

			zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if !user.Verified {
			abortAuth(c, http.StatusUnauthorized, "Please verify your account before using the service", requestID)
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
