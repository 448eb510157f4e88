// Package router provides LabelHub routing.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/kart-io/labelhub/internal/labelhub/handler"
	"github.com/kart-io/labelhub/pkg/middleware"
	"github.com/kart-io/labelhub/pkg/validator"
)

// HealthCheck reports the health of one dependency.
type HealthCheck func(ctx context.Context) error

// Config carries what the router wires.
type Config struct {
	// ServiceName names the server spans.
	ServiceName string
	// MaxBodyBytes caps request bodies, 0 disables the cap.
	MaxBodyBytes int64
	// RequestTimeout bounds each API request, 0 disables it.
	RequestTimeout time.Duration
	// CORSAllowOrigins enables CORS for the listed origins.
	CORSAllowOrigins []string
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
	// HTTPMetrics records request metrics when set.
	HTTPMetrics *middleware.HTTPMetrics
	// Checks are run by /healthz, keyed by dependency name.
	Checks map[string]HealthCheck

	Users    *handler.UserHandler
	Datasets *handler.DatasetHandler
	Records  *handler.RecordHandler
}

// New builds the gin engine serving the LabelHub API.
func New(cfg *Config) *gin.Engine {
	logger.Info("Registering labelhub routes...")
	validator.UseWithGin()

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		otelgin.Middleware(cfg.ServiceName),
		middleware.Logger(),
	)
	if cfg.HTTPMetrics != nil {
		r.Use(middleware.Metrics(cfg.HTTPMetrics))
	}
	if len(cfg.CORSAllowOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSAllowOrigins...))
	}
	if cfg.MaxBodyBytes > 0 {
		r.Use(limitBody(cfg.MaxBodyBytes))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout, "/healthz", "/metrics"))
	}

	r.GET("/healthz", healthz(cfg.Checks))
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/users", cfg.Users.Create)
		v1.GET("/users/:id", cfg.Users.Get)

		v1.POST("/workspaces", cfg.Users.CreateWorkspace)
		v1.POST("/workspaces/:id/users", cfg.Users.AddWorkspaceUser)

		datasets := v1.Group("/datasets")
		{
			datasets.POST("", cfg.Datasets.Create)
			datasets.GET("/:id", cfg.Datasets.Get)
			datasets.PUT("/:id/publish", cfg.Datasets.Publish)

			datasets.POST("/:id/fields", cfg.Datasets.AddField)
			datasets.POST("/:id/questions", cfg.Datasets.AddQuestion)
			datasets.POST("/:id/metadata-properties", cfg.Datasets.AddMetadataProperty)
			datasets.POST("/:id/vectors-settings", cfg.Datasets.AddVectorSettings)

			datasets.POST("/:id/records/bulk", cfg.Records.BulkCreate)
			datasets.PUT("/:id/records/bulk", cfg.Records.BulkUpsert)
			datasets.GET("/:id/records", cfg.Records.List)
			datasets.DELETE("/:id/records", cfg.Records.Delete)
		}

		v1.GET("/records/:id", cfg.Records.Get)
	}

	return r
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// healthz runs every check with a short deadline and reports each result.
func healthz(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": results})
	}
}
