package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pagetrail/pagetrail/internal/capture"
	"github.com/pagetrail/pagetrail/internal/embed"
	"github.com/pagetrail/pagetrail/internal/telemetry"
)

// visitRequest is the capture input event emitted by the content extractor.
type visitRequest struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	TS      int64  `json:"ts"`
}

type searchRequest struct {
	Query         string  `json:"query"`
	TopK          int     `json:"top_k"`
	MinSimilarity float64 `json:"min_similarity"`
}

func (s *Server) postVisit(c echo.Context) error {
	var req visitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit payload")
	}
	if req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url required")
	}
	if req.TS <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ts required")
	}
	telemetry.VisitsTotal.Inc()

	sess, recorded, err := s.recorder.Record(c.Request().Context(), capture.Visit{
		URL:       req.URL,
		Title:     req.Title,
		Snippet:   req.Snippet,
		Timestamp: req.TS,
	})
	if err != nil {
		return err
	}
	if !recorded {
		telemetry.VisitsBlocked.Inc()
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, map[string]string{"session_id": sess.ID})
}

func (s *Server) listSessions(c echo.Context) error {
	sessions, err := s.recorder.Sessions(c.Request().Context())
	if err != nil {
		return err
	}
	if sessions == nil {
		sessions = []capture.Session{}
	}
	return c.JSON(http.StatusOK, sessions)
}

// exportSessions streams the boundary artifact consumed by `pagetrail
// ingest`: a plain JSON array of sessions.
func (s *Server) exportSessions(c echo.Context) error {
	sessions, err := s.recorder.Sessions(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="sessions.json"`)
	c.Response().WriteHeader(http.StatusOK)
	return capture.WriteJSON(c.Response(), sessions)
}

func (s *Server) clearSessions(c echo.Context) error {
	if err := s.recorder.Clear(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) postSearch(c echo.Context) error {
	if s.search == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search not configured on this node")
	}
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid search payload")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}

	results, err := s.search.Query(c.Request().Context(), req.Query, req.TopK, req.MinSimilarity)
	if err != nil {
		var provErr *embed.ProviderError
		if errors.As(err, &provErr) {
			// Surface the outage; an empty 200 would read as "no matches".
			return echo.NewHTTPError(http.StatusBadGateway, "embedding provider unavailable")
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"results": results})
}
