package middlewares

import (
	"errors"
	"net/http"
	"time"

	"github.com/b9aurav/marketplace-api-sub000/utils"
	"github.com/gin-gonic/gin"
)

// AbortWithEnvelope writes the admin error envelope and stops the chain.
func AbortWithEnvelope(ctx *gin.Context, status int, code string, message string, details any) {
	ctx.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"path":      ctx.Request.URL.Path,
	})
}

// ErrorHandler normalizes errors attached via ctx.Error into the admin error
// envelope. Unrecognized errors become an opaque 500.
func ErrorHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		if len(ctx.Errors) == 0 || ctx.Writer.Written() {
			return
		}
		err := ctx.Errors.Last().Err

		var validationErr *utils.ValidationError
		var conflictErr *utils.ConflictError
		switch {
		case errors.Is(err, utils.ErrNotFound):
			AbortWithEnvelope(ctx, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		case errors.As(err, &validationErr):
			AbortWithEnvelope(ctx, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Message, nil)
		case errors.As(err, &conflictErr):
			AbortWithEnvelope(ctx, http.StatusConflict, "CONFLICT", conflictErr.Message, nil)
		default:
			utils.Log.WithError(err).WithField("path", ctx.Request.URL.Path).Error("Unhandled error")
			AbortWithEnvelope(ctx, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
		}
	}
}
