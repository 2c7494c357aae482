package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AusClimateService/dataset-finder/internal/catalog"
	"github.com/AusClimateService/dataset-finder/internal/dataset"
	"github.com/AusClimateService/dataset-finder/internal/logging"
)

// handleHealthz always reports status "ok"; it does not inspect the
// catalog loader.
func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleMetrics exposes the default Prometheus registry, adapting
// Fiber's request/response types to net/http the way the teacher's own
// metrics handler does.
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	handler := promhttp.Handler()
	writer := &fiberResponseWriter{c: c}

	uri := c.Request().URI()
	httpReqURL, err := url.ParseRequestURI(string(uri.RequestURI()))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to parse request URI")
	}

	req := &http.Request{
		Method: c.Method(),
		URL:    httpReqURL,
		Header: make(http.Header),
	}
	c.Request().Header.VisitAll(func(key, value []byte) {
		req.Header.Set(string(key), string(value))
	})

	handler.ServeHTTP(writer, req)
	return nil
}

// handleDiagnostics returns recently retained log lines.
func (s *Server) handleDiagnostics(c *fiber.Ctx) error {
	if s.diag == nil {
		return c.JSON(fiber.Map{"entries": []any{}})
	}
	return c.JSON(fiber.Map{"entries": s.diag.Recent()})
}

// handleGetDatasets serves GET /catalog/:key/datasets?exact=&<search key>=.
func (s *Server) handleGetDatasets(c *fiber.Ctx) error {
	key := c.Params("key")
	exact, _ := strconv.ParseBool(c.Query("exact", "false"))

	search := map[string][]string{}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		name := string(k)
		if name == "exact" {
			return
		}
		search[name] = append(search[name], string(v))
	})

	start := time.Now()
	coll, err := s.loader.GetDatasets(c.Context(), key, exact, search)
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, catalog.ErrConfigKeyMissing) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	if s.metrics != nil {
		s.metrics.SetDatasetsDiscovered(key, coll.Len())
	}

	type datasetView struct {
		Coordinates map[string]string `json:"coordinates"`
		Roots       []string          `json:"roots"`
		Files       []string          `json:"files,omitempty"`
		Error       string            `json:"error,omitempty"`
	}
	logger := logging.GetGlobalLogger()
	views := make([]datasetView, 0, coll.Len())
	filesMatched := 0
	for _, ds := range coll.All() {
		view := datasetView{Coordinates: ds.Data, Roots: ds.Roots}

		files, err := ds.GetFiles()
		if err != nil {
			var unresolved *dataset.UnresolvedClashError
			if errors.As(err, &unresolved) && s.metrics != nil {
				s.metrics.RecordClashUnresolved(unresolved.Key)
			}
			view.Error = err.Error()
			views = append(views, view)
			continue
		}
		view.Files = files
		filesMatched += len(files)

		for _, notice := range ds.Notices() {
			logger.LogClashResolution(notice.Key, notice.WinnerPath, notice.WinnerValue, notice.LoserPath, notice.LoserValue)
			if s.metrics != nil {
				s.metrics.RecordClashResolved(notice.Key)
			}
		}

		views = append(views, view)
	}

	if s.metrics != nil {
		s.metrics.RecordWalk(key, 0, filesMatched, duration)
	}

	return c.JSON(fiber.Map{"key": key, "count": coll.Len(), "datasets": views})
}

// fiberResponseWriter adapts *fiber.Ctx to http.ResponseWriter.
type fiberResponseWriter struct {
	c *fiber.Ctx
}

func (w *fiberResponseWriter) Header() http.Header { return make(http.Header) }

func (w *fiberResponseWriter) Write(data []byte) (int, error) {
	return w.c.Write(data)
}

func (w *fiberResponseWriter) WriteHeader(statusCode int) {
	w.c.Status(statusCode)
}
