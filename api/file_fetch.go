package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) FileFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	fileID := c.Param("id")
	if fileID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file ID provided",
			"requestID": requestID,
		})
		return
	}

	file, err := a.Registry.Lookup(c.Request.Context(), fileID)
	if err != nil {
		abortRegistryError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, file)
}
