package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IceyWu/live-photo/internal/handle"
	"github.com/IceyWu/live-photo/internal/history"
	"github.com/IceyWu/live-photo/internal/livephoto"
	"github.com/IceyWu/live-photo/internal/service"
)

// StatusClientClosedRequest is reported when the client went away before
// the extraction finished.
const StatusClientClosedRequest = 499

// Server represents the REST API server
type Server struct {
	router    *gin.Engine
	svc       *service.ExtractService
	handles   *handle.Registry    // Optional: segment routes answer 503 without it
	history   *history.Repository // Optional
	maxUpload int64
}

// NewServer creates a new API server. maxUpload bounds request bodies in
// bytes.
func NewServer(svc *service.ExtractService, maxUpload int64) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:    gin.New(),
		svc:       svc,
		handles:   svc.Handles(),
		history:   svc.History(),
		maxUpload: maxUpload,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// Logging middleware
	s.router.Use(func(c *gin.Context) {
		c.Next()
		slog.Info("API request",
			"component", "api",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	})

	// CORS for browser clients
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Range")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, Content-Range")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	// Splits
	api.POST("/split", s.createSplit)
	api.DELETE("/splits/:group", s.releaseSplit)

	// Segments
	api.GET("/segments/:id", s.getSegment)
	api.HEAD("/segments/:id", s.getSegment)
	api.DELETE("/segments/:id", s.releaseSegment)

	// History
	api.GET("/history", s.listHistory)

	// Status
	api.GET("/status", s.getStatus)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Error response helper
func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// failureResponse maps an extraction failure to a status code and reports
// its kind alongside the message.
func failureResponse(c *gin.Context, err error) {
	kind := livephoto.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case livephoto.KindNoContainerFound, livephoto.KindInvalidContainer:
		status = http.StatusUnprocessableEntity
	case livephoto.KindIO:
		status = http.StatusBadRequest
	case livephoto.KindCancelled:
		status = StatusClientClosedRequest
	}

	c.JSON(status, gin.H{"error": err.Error(), "kind": kind.String()})
}
