package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// FileDelete soft deletes by default. With ?permanent=true the blob
// and the metadata row are both removed for good
func (a *API) FileDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	fileID := c.Param("id")
	if fileID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file ID provided",
			"requestID": requestID,
		})
		return
	}

	permanent, err := strconv.ParseBool(c.DefaultQuery("permanent", "false"))
	if err != nil {
		permanent = false
	}

	if permanent {
		err = a.Registry.HardDelete(c.Request.Context(), fileID)
	} else {
		err = a.Registry.SoftDelete(c.Request.Context(), fileID)
	}
	if err != nil {
		abortRegistryError(c, requestID, err)
		return
	}

	// Evict the cached metadata response so the deletion is visible
	// right away instead of after the cache TTL
	store.Delete("/api/files/" + fileID)

	msg := "File marked as inactive"
	if permanent {
		msg = "File permanently deleted"
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   msg,
		"requestID": requestID,
	})
}
