package api

import (
	"io"
	"net/http"
	"strings"

	"audicore/file-api/registry"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// base64UploadRequest is the JSON upload format used by low-code
// front-ends that can't send multipart forms
type base64UploadRequest struct {
	Content     string `json:"content" binding:"required"`
	Name        string `json:"name" binding:"required"`
	ContentType string `json:"content_type"`
	UploadedBy  string `json:"uploaded_by"`
	Tags        string `json:"tags"`
	Folder      string `json:"folder"`
}

// FileUpload accepts either a multipart form with a "file" field or a
// JSON body carrying the payload as base64
func (a *API) FileUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	if strings.HasPrefix(c.Request.Header.Get("Content-Type"), "application/json") {
		a.uploadBase64(c, requestID)
		return
	}

	if !strings.HasPrefix(c.Request.Header.Get("Content-Type"), "multipart/form-data") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request",
			"requestID": requestID,
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to parse multipart form", zap.Error(err))
		return
	}

	files := form.File["file"]
	if len(files) <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	fh := files[0]

	f, err := fh.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open uploaded file", zap.Error(err))
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to read uploaded file", zap.Error(err))
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" && len(content) > 0 {
		contentType = mimetype.Detect(content).String()
	}

	file, err := a.Registry.Upload(c.Request.Context(), registry.UploadInput{
		Content:      content,
		OriginalName: fh.Filename,
		ContentType:  contentType,
		UploadedBy:   c.PostForm("uploaded_by"),
		Tags:         c.PostForm("tags"),
		Folder:       c.PostForm("folder"),
	})
	if err != nil {
		abortRegistryError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, file)
}

func (a *API) uploadBase64(c *gin.Context, requestID string) {
	var req base64UploadRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Fields 'content' (base64) and 'name' are required",
			"requestID": requestID,
		})
		return
	}

	file, err := a.Registry.UploadBase64(c.Request.Context(), req.Content, registry.UploadInput{
		OriginalName: req.Name,
		ContentType:  req.ContentType,
		UploadedBy:   req.UploadedBy,
		Tags:         req.Tags,
		Folder:       req.Folder,
	})
	if err != nil {
		abortRegistryError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, file)
}
