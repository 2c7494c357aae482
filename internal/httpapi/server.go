// Package httpapi exposes the dataset catalog over HTTP using
// github.com/gofiber/fiber/v2, the way the teacher's api server wires
// its own Fiber app.
package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/AusClimateService/dataset-finder/internal/catalog"
	"github.com/AusClimateService/dataset-finder/internal/logging"
	"github.com/AusClimateService/dataset-finder/internal/metrics"
)

// Server serves the read-only dataset catalog API.
type Server struct {
	app     *fiber.App
	loader  *catalog.Loader
	metrics *metrics.Metrics
	diag    *logging.DiagnosticsBuffer
}

// NewServer builds a Server backed by loader. diag may be nil, in
// which case /diagnostics reports an empty list.
func NewServer(loader *catalog.Loader, m *metrics.Metrics, diag *logging.DiagnosticsBuffer) *Server {
	s := &Server{
		app:     fiber.New(fiber.Config{AppName: "dataset-finder"}),
		loader:  loader,
		metrics: m,
		diag:    diag,
	}

	s.app.Use(recover.New())
	s.app.Use(logger.New())
	s.app.Use(cors.New())
	s.app.Use(requestIDMiddleware())
	s.app.Use(s.metricsMiddleware())
	s.app.Use(perIPRateLimiter(60))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Get("/healthz", s.handleHealthz)
	s.app.Get("/metrics", s.handleMetrics)
	s.app.Get("/diagnostics", s.handleDiagnostics)
	s.app.Get("/catalog/:key/datasets", s.handleGetDatasets)
}

// Listen starts the server on addr, blocking until it exits.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
