// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"audicore/file-api/db"
	"audicore/file-api/middleware"
	"audicore/file-api/registry"
	"audicore/file-api/storage"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Registry *registry.Registry
	Store    storage.ObjectStore
}

func NewRouter() (*API, error) {
	a := &API{}

	db, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	a.DB = db

	makeLogger()

	switch viper.GetString("storage.type") {
	case "memory":
		a.Store = storage.NewMemory(viper.GetString("aws.bucket"))
	default:
		s3, err := storage.NewS3()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		a.Store = s3
	}

	a.Registry = registry.New(db, a.Store)

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     viper.GetStringSlice("host.cors_origins"),
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	a.mount()

	return a, nil
}

// mount hangs all routes off the engine. Split out so tests can build
// an API by hand and still get the same routing table
func (a *API) mount() {
	maxUploadSize := viper.GetInt64("upload.max_size")

	main := a.Router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// GET /api/health		-> Reports which bucket backs the service
		main.GET("/health", a.Health)
	}

	files := main.Group("/files")
	{
		// POST /api/files		-> Uploads a new file (multipart or base64 JSON)
		files.POST("", middleware.BodySizeLimiter(maxUploadSize), a.FileUpload)

		// GET /api/files		-> Lists active files with pagination.
		// Deliberately uncached: every limit/offset/folder combination is
		// its own cache key, so stale entries couldn't be evicted on delete
		files.GET("", a.FileList)

		// GET /api/files/:id		-> Returns a file's metadata
		files.GET("/:id", cacheFor(30), a.FileFetch)

		// GET /api/files/:id/download	-> Serves the file content directly
		files.GET("/:id/download", a.FileDownload)

		// GET /api/files/:id/url	-> Returns a time-limited pre-signed URL
		files.GET("/:id/url", a.FileDownloadURL)

		// DELETE /api/files/:id	-> Soft deletes a file, ?permanent=true removes it for good
		files.DELETE("/:id", a.FileDelete)
	}
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
