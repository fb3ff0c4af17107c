package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stacklok/toolhive-action-authz/pkg/authz/echoauthz"
)

// NewEchoServer creates the echo flavor of the demo API. Route names use the
// chi "<METHOD> <pattern>" form so that one rule set serves both servers.
func NewEchoServer(store *ThingStore, registry *echoauthz.Registry, opts ...ServerOption) (*echo.Echo, error) {
	cfg := newServerConfig(opts...)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	for _, mw := range cfg.middlewares {
		e.Use(echo.WrapMiddleware(mw))
	}

	authorizer, err := echoauthz.New(e, registry, echoauthz.WithAuthzOptions(cfg.authzOpts...))
	if err != nil {
		return nil, err
	}
	e.Use(authorizer.Middleware())

	h := &echoThingHandlers{store: store}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
	}).Name = "GET /health"
	if cfg.metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.metricsHandler)).Name = "GET /metrics"
	}

	e.GET("/things", h.list).Name = "GET /things"
	e.POST("/things", h.create).Name = "POST /things"
	e.GET("/things/:id", h.get).Name = "GET /things/{id}"
	e.DELETE("/things/:id", h.delete).Name = "DELETE /things/{id}"

	return e, nil
}

type echoThingHandlers struct {
	store *ThingStore
}

func (h *echoThingHandlers) list(c echo.Context) error {
	things := h.store.List()
	return c.JSON(http.StatusOK, ThingListResponse{Things: things, Total: len(things)})
}

func (h *echoThingHandlers) get(c echo.Context) error {
	thing, err := h.store.Get(c.Param("id"))
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, thing)
}

func (h *echoThingHandlers) create(c echo.Context) error {
	var req CreateThingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	thing, err := h.store.Create(req.Name)
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, thing)
}

func (h *echoThingHandlers) delete(c echo.Context) error {
	if err := h.store.Delete(c.Param("id")); err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
