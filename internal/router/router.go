// Package router assembles the HTTP surface of the registration API.
package router

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/pchs-registration-api/api/swagger"
	"github.com/noah-isme/pchs-registration-api/internal/handler"
	"github.com/noah-isme/pchs-registration-api/internal/middleware"
	"github.com/noah-isme/pchs-registration-api/internal/service"
	"github.com/noah-isme/pchs-registration-api/pkg/config"
	appErrors "github.com/noah-isme/pchs-registration-api/pkg/errors"
	"github.com/noah-isme/pchs-registration-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/pchs-registration-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pchs-registration-api/pkg/middleware/requestid"
	"github.com/noah-isme/pchs-registration-api/pkg/response"
)

// PhotoRoute is where signed passport photo links are served.
const PhotoRoute = "/uploads/photos"

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth      *handler.AuthHandler
	Students  *handler.StudentHandler
	Reference *handler.ReferenceHandler
	Photos    *handler.PhotoHandler
	Ops       *handler.MetricsHandler
}

// New builds the gin engine with the full middleware chain and every route.
func New(cfg *config.Config, logr *zap.Logger, tokens middleware.TokenValidator, metrics *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes() + 1<<20
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Ops.Health)
	r.GET("/ready", h.Ops.Ready)
	r.GET("/metrics", h.Ops.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	r.GET(PhotoRoute+"/:token", h.Photos.Serve)

	api := r.Group(cfg.APIPrefix)
	api.GET("/fees", h.Reference.Fees)
	api.GET("/validation-rules", h.Reference.ValidationRules)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/register", h.Auth.Register)
	auth.GET("/me", middleware.JWT(tokens), h.Auth.Me)

	students := api.Group("/students")
	students.POST("", h.Students.Submit)

	desk := students.Group("", middleware.JWT(tokens))
	desk.GET("", h.Students.List)
	desk.GET("/stats", h.Students.Stats)
	desk.GET("/export/csv", h.Students.ExportCSV)
	desk.GET("/export/pdf", h.Students.ExportPDF)
	desk.GET("/:id", h.Students.Get)
	desk.PATCH("/:id/status", h.Students.Review)
	desk.DELETE("/:id", h.Students.Delete)

	r.NoRoute(fallback(cfg.APIPrefix, cfg.StaticDir))
	return r
}

// fallback serves the registration pages from staticDir for unknown GET paths
// and answers everything else with a JSON 404.
func fallback(apiPrefix, staticDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqPath := c.Request.URL.Path
		if staticDir == "" || c.Request.Method != http.MethodGet || strings.HasPrefix(reqPath, apiPrefix+"/") || reqPath == apiPrefix {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "Route not found."))
			return
		}
		clean := path.Clean("/" + reqPath)
		candidate := filepath.Join(staticDir, filepath.FromSlash(clean))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			c.File(candidate)
			return
		}
		c.File(filepath.Join(staticDir, "index.html"))
	}
}
