// Package root contains endpoints not tied to any resource
package root

import (
	"context"
	"net/http"
	"time"

	"bitwise74/readstack/app/response"
	"bitwise74/readstack/internal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

func Health(c *gin.Context, d *internal.Deps) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		zap.L().Error("Store ping failed", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
		response.Fail(c, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	response.OK(c, http.StatusOK, "OK", nil)
}
