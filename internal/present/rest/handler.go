package rest

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
	"github.com/quarrydata/quarry/internal/present/rest/presenter"
	"github.com/quarrydata/quarry/internal/usecase"
)

// EventSubscriber feeds catalog events to the push endpoints. Implementations
// must stop on ctx.Done and never close output; the handlers keep the channel
// open for the lifetime of the request.
type EventSubscriber interface {
	Subscribe(ctx context.Context, input <-chan []string, output chan<- quarry.Event)
}

type Handler struct {
	source     *usecase.DataSourceUsecase
	pattern    *usecase.PatternUsecase
	catalog    *usecase.CatalogUsecase
	connection *usecase.ApiConnectionUsecase
	pipeline   *usecase.PipelineUsecase
	quality    *usecase.QualityUsecase
	synthetic  *usecase.SyntheticUsecase
	relational *usecase.RelationalUsecase
	query      *usecase.QueryContextUsecase
	signal     EventSubscriber
}

func NewHandler(
	source *usecase.DataSourceUsecase,
	pattern *usecase.PatternUsecase,
	catalog *usecase.CatalogUsecase,
	connection *usecase.ApiConnectionUsecase,
	pipeline *usecase.PipelineUsecase,
	quality *usecase.QualityUsecase,
	synthetic *usecase.SyntheticUsecase,
	relational *usecase.RelationalUsecase,
	query *usecase.QueryContextUsecase,
	signal EventSubscriber,
) *Handler {
	return &Handler{
		source:     source,
		pattern:    pattern,
		catalog:    catalog,
		connection: connection,
		pipeline:   pipeline,
		quality:    quality,
		synthetic:  synthetic,
		relational: relational,
		query:      query,
		signal:     signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.handleHealth)

	api := e.Group("/api/v1")

	api.POST("/sources", h.handleCreateSource)
	api.GET("/sources", h.handleListSources)
	api.GET("/sources/:id", h.handleGetSource)
	api.PUT("/sources/:id", h.handleUpdateSource)
	api.DELETE("/sources/:id", h.handleDeleteSource)
	api.POST("/sources/:id/test", h.handleTestSource)
	api.GET("/sources/:id/tables", h.handleListTables)
	api.POST("/sources/:id/discover", h.handleDiscover)
	api.POST("/sources/:id/quality/run", h.handleRunQuality)

	api.POST("/patterns", h.handleCreatePattern)
	api.GET("/patterns", h.handleListPatterns)
	api.GET("/patterns/:id", h.handleGetPattern)
	api.PUT("/patterns/:id", h.handleUpdatePattern)
	api.DELETE("/patterns/:id", h.handleDeletePattern)
	api.POST("/patterns/scan", h.handleScan)

	api.POST("/fields", h.handleCreateField)
	api.GET("/fields", h.handleListFields)
	api.GET("/fields/suggest", h.handleSuggest)
	api.GET("/fields/:id", h.handleGetField)
	api.PUT("/fields/:id", h.handleUpdateField)
	api.DELETE("/fields/:id", h.handleDeleteField)
	api.POST("/fields/:id/classify", h.handleClassifyField)
	api.POST("/fields/:id/annotations", h.handleAnnotate)
	api.GET("/fields/:id/annotations", h.handleListAnnotations)
	api.DELETE("/annotations/:id", h.handleDeleteAnnotation)

	api.POST("/connections", h.handleCreateConnection)
	api.GET("/connections", h.handleListConnections)
	api.GET("/connections/:id", h.handleGetConnection)
	api.PUT("/connections/:id", h.handleUpdateConnection)
	api.DELETE("/connections/:id", h.handleDeleteConnection)
	api.POST("/connections/:id/test", h.handleTestConnection)

	api.POST("/pipelines", h.handleCreatePipeline)
	api.GET("/pipelines", h.handleListPipelines)
	api.GET("/pipelines/:id", h.handleGetPipeline)
	api.PUT("/pipelines/:id", h.handleUpdatePipeline)
	api.DELETE("/pipelines/:id", h.handleDeletePipeline)
	api.POST("/pipelines/:id/status", h.handlePipelineStatus)

	api.POST("/quality/rules", h.handleCreateRule)
	api.GET("/quality/rules", h.handleListRules)
	api.GET("/quality/rules/:id", h.handleGetRule)
	api.PUT("/quality/rules/:id", h.handleUpdateRule)
	api.DELETE("/quality/rules/:id", h.handleDeleteRule)
	api.GET("/quality/runs", h.handleListRuns)

	api.POST("/synthetic", h.handleCreateSynthetic)
	api.GET("/synthetic", h.handleListSynthetic)
	api.GET("/synthetic/:id", h.handleGetSynthetic)
	api.PUT("/synthetic/:id", h.handleUpdateSynthetic)
	api.DELETE("/synthetic/:id", h.handleDeleteSynthetic)
	api.POST("/synthetic/:id/generate", h.handleGenerateSynthetic)
	api.GET("/synthetic/:id/download", h.handleDownloadSynthetic)

	api.POST("/query", h.handleQuery)
	api.GET("/query/history", h.handleQueryHistory)

	api.GET("/events", h.handleEvents)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

// --- data sources ---

func (h *Handler) handleCreateSource(c echo.Context) error {
	ctx := c.Request().Context()

	var source models.DataSource
	if err := c.Bind(&source); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.source.Create(ctx, source)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleListSources(c echo.Context) error {
	ctx := c.Request().Context()

	sources, err := h.source.List(ctx, c.QueryParam("type"), c.QueryParam("status"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, sources)
}

func (h *Handler) handleGetSource(c echo.Context) error {
	ctx := c.Request().Context()

	source, err := h.source.Get(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, source)
}

func (h *Handler) handleUpdateSource(c echo.Context) error {
	ctx := c.Request().Context()

	var source models.DataSource
	if err := c.Bind(&source); err != nil {
		return presenter.BadRequest(c, err)
	}
	source.ID = c.Param("id")

	updated, err := h.source.Update(ctx, source)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleDeleteSource(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.source.Delete(ctx, c.Param("id")); err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleTestSource(c echo.Context) error {
	ctx := c.Request().Context()

	source, err := h.source.TestConnection(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, source)
}

// --- patterns ---

func (h *Handler) handleCreatePattern(c echo.Context) error {
	ctx := c.Request().Context()

	var pattern models.Pattern
	if err := c.Bind(&pattern); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.pattern.Create(ctx, pattern)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleListPatterns(c echo.Context) error {
	ctx := c.Request().Context()

	patterns, err := h.pattern.List(ctx, c.QueryParam("category"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, patterns)
}

func (h *Handler) handleGetPattern(c echo.Context) error {
	ctx := c.Request().Context()

	pattern, err := h.pattern.Get(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, pattern)
}

func (h *Handler) handleUpdatePattern(c echo.Context) error {
	ctx := c.Request().Context()

	var pattern models.Pattern
	if err := c.Bind(&pattern); err != nil {
		return presenter.BadRequest(c, err)
	}
	pattern.ID = c.Param("id")

	updated, err := h.pattern.Update(ctx, pattern)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleDeletePattern(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.pattern.Delete(ctx, c.Param("id")); err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

type scanRequest struct {
	Values []string `json:"values"`
}

func (h *Handler) handleScan(c echo.Context) error {
	ctx := c.Request().Context()

	var req scanRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if len(req.Values) == 0 {
		return presenter.BadRequestMessage(c, "values must not be empty")
	}

	findings, err := h.pattern.Scan(ctx, req.Values)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, findings)
}
