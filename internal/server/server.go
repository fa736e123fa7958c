package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pagetrail/pagetrail/internal/capture"
	"github.com/pagetrail/pagetrail/internal/pipeline"
)

// SearchService is the slice of the query pipeline the API needs.
type SearchService interface {
	Query(ctx context.Context, text string, topK int, minSimilarity float64) ([]pipeline.Result, error)
}

// Server exposes the capture and search API.
type Server struct {
	Echo     *echo.Echo
	recorder *capture.Recorder
	search   SearchService
	logger   *log.Logger
}

// New wires routes and middleware. search may be nil when the node only
// captures; the search endpoint then answers 503.
func New(recorder *capture.Recorder, search SearchService, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	s := &Server{Echo: e, recorder: recorder, search: search, logger: logger}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/visits", s.postVisit)
	api.GET("/sessions", s.listSessions)
	api.GET("/sessions/export", s.exportSessions)
	api.DELETE("/sessions", s.clearSessions)
	api.POST("/search", s.postSearch)

	return s
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	s.logger.Printf("listening on %s", addr)
	return s.Echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
