package controller

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"tasklist/internal/apperror"
	"tasklist/pkg/logger"
)

// StatusClientClosedRequest is recorded when the client disconnects before the response.
const StatusClientClosedRequest = 499

// respondError writes err as {"message": ...}. Internal causes are logged, never returned.
func respondError(c *gin.Context, op string, err error) {
	ctx := c.Request.Context()
	if isContextErr(err) && ctx.Err() != nil {
		logger.Debug(ctx, op+" abandoned by client", "error", err)
		c.AbortWithStatus(StatusClientClosedRequest)
		return
	}
	appErr := apperror.From(err)
	if appErr.Kind() == apperror.KindInternal {
		logger.Error(ctx, op+" failed", "error", err)
	} else {
		logger.Debug(ctx, op+" rejected", "error", appErr.Message())
	}
	c.AbortWithStatusJSON(appErr.Status(), gin.H{"message": appErr.Message()})
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
