// Package httpapi exposes the orchestrator over HTTP with echo: one JSON
// endpoint per port, element upload for in-memory documents and a websocket
// endpoint that runs a full port session.
package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/user/labelkit/pkg/adapters/wsbus"
	"github.com/user/labelkit/pkg/orchestrator"
	"github.com/user/labelkit/pkg/pipeline"
	"github.com/user/labelkit/pkg/ports"
)

// MaxBodySize limits request bodies, including uploaded SVG markup.
const MaxBodySize = "32M"

const shutdownTimeout = 10 * time.Second

// Server is the HTTP transport.
type Server struct {
	echo   *echo.Echo
	orch   *orchestrator.Orchestrator
	doc    ports.Document
	logger ports.Logger
}

// New creates a Server. doc is the document the raster stage reads; element
// upload routes are enabled when it is a ports.ElementStore.
func New(orch *orchestrator.Orchestrator, doc ports.Document, logger ports.Logger) *Server {
	s := &Server{
		echo:   echo.New(),
		orch:   orch,
		doc:    doc,
		logger: logger.WithComponent("http"),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(echomiddleware.Recover())
	s.echo.Use(echomiddleware.BodyLimit(MaxBodySize))
	s.echo.Use(s.requestLogger)

	s.echo.GET("/healthz", s.health)
	s.echo.GET("/v1/flags", s.flags)
	s.echo.POST("/v1/measure", s.measure)
	s.echo.POST("/v1/measure/recipe", s.measureRecipe)
	s.echo.POST("/v1/rasterize", s.rasterize)
	s.echo.GET("/v1/elements", s.listElements)
	s.echo.PUT("/v1/elements/:id", s.putElement)
	s.echo.DELETE("/v1/elements/:id", s.deleteElement)
	s.echo.GET("/v1/ws", s.websocket)

	return s
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.logger.Debug("%s %s %d (%d ms)", c.Request().Method, c.Request().URL.Path, c.Response().Status, time.Since(start).Milliseconds())
		return nil
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) flags(c echo.Context) error {
	return c.JSON(http.StatusOK, s.orch.Flags())
}

// ensureID mints a request id for callers that did not send one.
func ensureID(id *pipeline.RequestID) {
	if id.IsZero() {
		*id = pipeline.NewRequestID(uuid.NewString())
	}
}

func badRequest(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request: "+err.Error())
}

func (s *Server) measure(c echo.Context) error {
	var req pipeline.MeasureRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	ensureID(&req.RequestID)

	res, err := s.orch.Measure(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) measureRecipe(c echo.Context) error {
	var req pipeline.RecipeMeasureRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	ensureID(&req.RequestID)

	res, err := s.orch.MeasureRecipe(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

// rasterize answers with the RasterResult JSON, or with the PNG itself when
// called with ?format=png.
func (s *Server) rasterize(c echo.Context) error {
	var req pipeline.RasterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}
	ensureID(&req.RequestID)

	res := s.orch.Rasterize(c.Request().Context(), req)
	if c.QueryParam("format") != "png" {
		return c.JSON(http.StatusOK, res)
	}

	if !res.OK() {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, *res.Error)
	}
	_, encoded, _ := strings.Cut(*res.DataURL, ",")
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, ports.FormatPNG.MIMEType(), data)
}

func (s *Server) listElements(c echo.Context) error {
	lister, ok := s.doc.(ports.ElementLister)
	if !ok {
		return echo.NewHTTPError(http.StatusNotImplemented, "document cannot list elements")
	}
	ids, err := lister.IDs(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string][]string{"ids": ids})
}

func (s *Server) putElement(c echo.Context) error {
	store, ok := s.doc.(ports.ElementStore)
	if !ok {
		return echo.NewHTTPError(http.StatusMethodNotAllowed, "document is read-only")
	}
	markup, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return badRequest(err)
	}
	if len(strings.TrimSpace(string(markup))) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "empty markup")
	}
	store.Put(c.Param("id"), markup)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteElement(c echo.Context) error {
	store, ok := s.doc.(ports.ElementStore)
	if !ok {
		return echo.NewHTTPError(http.StatusMethodNotAllowed, "document is read-only")
	}
	if !store.Remove(c.Param("id")) {
		return echo.NewHTTPError(http.StatusNotFound, "SVG element not found: "+c.Param("id"))
	}
	return c.NoContent(http.StatusNoContent)
}

// websocket runs one port session on the upgraded connection.
func (s *Server) websocket(c echo.Context) error {
	bus, err := wsbus.Upgrade(c.Response(), c.Request())
	if err != nil {
		s.logger.Warn("Websocket upgrade failed: %s", err)
		return nil
	}
	defer bus.Close()

	s.logger.Debug("Websocket session from %s", c.RealIP())
	if err := s.orch.Serve(c.Request().Context(), bus); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("Websocket session ended: %s", err)
	}
	return nil
}
