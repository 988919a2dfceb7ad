package api

import (
	"errors"
	"net/http"

	"audicore/file-api/registry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// abortRegistryError maps registry failures onto transport responses.
// Anything not in the taxonomy is a plain 500 with the details kept in
// the logs only
func abortRegistryError(c *gin.Context, requestID string, err error) {
	switch {
	case errors.Is(err, registry.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
	case errors.Is(err, registry.ErrEncoding):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Failed to decode base64 content",
			"requestID": requestID,
		})
	case errors.Is(err, registry.ErrAlreadyExists):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":     "File already exists in storage",
			"requestID": requestID,
		})
	case errors.Is(err, registry.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "File not found",
			"requestID": requestID,
		})
	case errors.Is(err, registry.ErrNotFoundInStore):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "File not found in storage",
			"requestID": requestID,
		})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Registry operation failed", zap.String("requestID", requestID), zap.Error(err))
	}
}
