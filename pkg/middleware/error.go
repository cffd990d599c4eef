package middleware

import (
	"errors"

	"earnplay-backend/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error renders the last handler error as the errutil JSON envelope. Errors
// that are not a BaseError are logged with context and reported as a generic
// internal error.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		var be errutil.BaseError
		if !errors.As(last.Err, &be) {
			zap.L().Error("unhandled error",
				zap.String("path", c.FullPath()),
				zap.Error(last.Err),
			)
			be = errutil.BaseError{Code: errutil.StatusInternal, Message: "internal error"}
		}

		c.JSON(be.Code.HTTPStatus(), be.JSON())
	}
}
