// Package response writes the JSON envelopes shared by every handler
package response

import (
	"errors"
	"net/http"

	"bitwise74/readstack/internal/apperr"
	"bitwise74/readstack/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OK writes {"success": true, "message": msg} merged with payload
func OK(c *gin.Context, status int, msg string, payload gin.H) {
	body := gin.H{
		"success": true,
		"message": msg,
	}

	for k, v := range payload {
		body[k] = v
	}

	c.JSON(status, body)
}

func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{
		"success":   false,
		"error":     msg,
		"requestID": c.GetString("requestID"),
	})
}

// Error maps a workflow error to a response. Internal causes are logged and
// replaced by a generic message.
func Error(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	var e *apperr.Error
	if !errors.As(err, &e) {
		e = apperr.Internal(err).(*apperr.Error)
	}

	if e.Kind == apperr.KindInternal {
		zap.L().Error("Request failed",
			zap.Error(err),
			zap.String("requestID", requestID),
			zap.String("route", c.FullPath()),
		)
	}

	Fail(c, e.Kind.Status(), e.Message)
}

// BindError answers a request whose body or query failed to bind
func BindError(c *gin.Context, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		Fail(c, http.StatusRequestEntityTooLarge, "Request body size exceeds limit")
		return
	}

	zap.L().Debug("Can't bind request", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
	Fail(c, http.StatusBadRequest, validators.Message(err))
}
