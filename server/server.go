// Package server owns the HTTP boundary: routing, CORS gatekeeping, request
// logging, and the single translation from the error taxonomy to HTTP
// statuses. Handlers stay thin; all orchestration lives below this layer.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scalisek3/CareCompanionAIWebsite/assistant"
	"github.com/scalisek3/CareCompanionAIWebsite/logging"
	"github.com/scalisek3/CareCompanionAIWebsite/upstream"
)

// Config configures a Server.
type Config struct {
	Assistant      *assistant.Assistant
	Providers      *upstream.ProviderDirectory
	Topics         *upstream.HealthTopics
	Labels         *upstream.DrugLabels
	Trials         *upstream.ClinicalTrials
	Coverage       *upstream.Coverage
	AllowedOrigins []string
	// RequestTimeout bounds the upstream work of one request.
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	Logger         logging.Logger
}

// Server is the CareCompanion HTTP API server.
type Server struct {
	cfg    Config
	logger logging.Logger
}

// New creates a Server with the given configuration.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.NoOpLogger{}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 45 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &Server{cfg: cfg, logger: cfg.Logger}
}

// Handler returns the fully wired gin handler.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLog())
	r.Use(s.cors())
	r.Use(s.maxBody())

	r.GET("/healthz", s.handleHealth)
	r.POST("/chat-with-tools", s.handleChat)
	r.GET("/provider-directory", s.handleProviderDirectory)
	r.GET("/health-topic", s.handleHealthTopic)
	r.GET("/drug-label", s.handleDrugLabel)
	r.GET("/clinical-trials", s.handleClinicalTrials)
	r.POST("/coverage-check", s.handleCoverageCheck)

	return r
}

// requestLog attaches a request id and logs one line per request.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		start := time.Now()

		c.Next()

		s.logger.Info("http.request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// cors admits only configured origins. Requests without an Origin header
// (curl, server-to-server) pass through untouched.
func (s *Server) cors() gin.HandlerFunc {
	allowed := make(map[string]bool, len(s.cfg.AllowedOrigins))
	allowAll := false
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if !allowAll && !allowed[origin] {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
				return
			}
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// maxBody caps request body reads.
func (s *Server) maxBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes)
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
