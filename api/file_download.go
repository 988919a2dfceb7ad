package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

// FileDownload serves the full file content as an attachment under its
// original name
func (a *API) FileDownload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	fileID := c.Param("id")
	if fileID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file ID provided",
			"requestID": requestID,
		})
		return
	}

	res, err := a.Registry.Download(c.Request.Context(), fileID)
	if err != nil {
		abortRegistryError(c, requestID, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.OriginalName))
	c.Data(http.StatusOK, res.ContentType, res.Content)
}

// FileDownloadURL returns a pre-signed URL so clients can fetch the
// file straight from the object store without proxying through the API
func (a *API) FileDownloadURL(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	fileID := c.Param("id")
	if fileID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file ID provided",
			"requestID": requestID,
		})
		return
	}

	expiry := viper.GetDuration("download.default_expiry")

	if raw := c.Query("expires_in"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "expires_in must be a positive number of seconds",
				"requestID": requestID,
			})
			return
		}

		expiry = time.Duration(secs) * time.Second
	}

	link, err := a.Registry.DownloadURL(c.Request.Context(), fileID, expiry)
	if err != nil {
		abortRegistryError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, link)
}
