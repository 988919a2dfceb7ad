package api

import (
	"net/http"
	"strconv"

	"audicore/file-api/registry"

	"github.com/gin-gonic/gin"
)

func (a *API) FileList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	limitStr := c.DefaultQuery("limit", "100")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Limit is not a valid integer",
			"requestID": requestID,
		})
		return
	}

	if limit <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Limit must be bigger than 0",
			"requestID": requestID,
		})
		return
	}

	offsetStr := c.DefaultQuery("offset", "0")
	offset, err := strconv.Atoi(offsetStr)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Offset is not a valid integer",
			"requestID": requestID,
		})
		return
	}

	if offset < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Offset can't be negative",
			"requestID": requestID,
		})
		return
	}

	entries, err := a.Registry.List(c.Request.Context(), registry.ListQuery{
		Limit:  limit,
		Offset: offset,
		Folder: c.Query("folder"),
	})
	if err != nil {
		abortRegistryError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"files": entries,
		"total": len(entries),
	})
}
