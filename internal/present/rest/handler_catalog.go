package rest

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
	"github.com/quarrydata/quarry/internal/present/rest/presenter"
	"github.com/quarrydata/quarry/internal/usecase"
)

// --- catalog fields ---

func (h *Handler) handleCreateField(c echo.Context) error {
	ctx := c.Request().Context()

	var field models.CatalogField
	if err := c.Bind(&field); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.catalog.CreateField(ctx, field)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleListFields(c echo.Context) error {
	ctx := c.Request().Context()

	piiOnly, _ := strconv.ParseBool(c.QueryParam("pii"))
	fields, err := h.catalog.ListFields(ctx, c.QueryParam("source"), piiOnly)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, fields)
}

func (h *Handler) handleGetField(c echo.Context) error {
	ctx := c.Request().Context()

	field, err := h.catalog.GetField(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, field)
}

func (h *Handler) handleUpdateField(c echo.Context) error {
	ctx := c.Request().Context()

	var field models.CatalogField
	if err := c.Bind(&field); err != nil {
		return presenter.BadRequest(c, err)
	}
	field.ID = c.Param("id")

	updated, err := h.catalog.UpdateField(ctx, field)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleDeleteField(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.catalog.DeleteField(ctx, c.Param("id")); err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

type classifyRequest struct {
	Samples []string `json:"samples"`
}

func (h *Handler) handleClassifyField(c echo.Context) error {
	ctx := c.Request().Context()

	var req classifyRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	field, err := h.catalog.Classify(ctx, c.Param("id"), req.Samples)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, field)
}

func (h *Handler) handleAnnotate(c echo.Context) error {
	ctx := c.Request().Context()

	var annotation models.FieldAnnotation
	if err := c.Bind(&annotation); err != nil {
		return presenter.BadRequest(c, err)
	}
	annotation.FieldID = c.Param("id")

	created, err := h.catalog.Annotate(ctx, annotation)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleListAnnotations(c echo.Context) error {
	ctx := c.Request().Context()

	annotations, err := h.catalog.ListAnnotations(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, annotations)
}

func (h *Handler) handleDeleteAnnotation(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.catalog.DeleteAnnotation(ctx, c.Param("id")); err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleSuggest(c echo.Context) error {
	ctx := c.Request().Context()

	source := c.QueryParam("source")
	if source == "" {
		return presenter.BadRequestMessage(c, "source is required")
	}

	suggestions, err := h.catalog.Suggest(ctx, source)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, suggestions)
}

// --- api connections ---

func (h *Handler) handleCreateConnection(c echo.Context) error {
	ctx := c.Request().Context()

	var conn models.ApiConnection
	if err := c.Bind(&conn); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.connection.Create(ctx, conn)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleListConnections(c echo.Context) error {
	ctx := c.Request().Context()

	conns, err := h.connection.List(ctx)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, conns)
}

func (h *Handler) handleGetConnection(c echo.Context) error {
	ctx := c.Request().Context()

	conn, err := h.connection.Get(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, conn)
}

func (h *Handler) handleUpdateConnection(c echo.Context) error {
	ctx := c.Request().Context()

	var conn models.ApiConnection
	if err := c.Bind(&conn); err != nil {
		return presenter.BadRequest(c, err)
	}
	conn.ID = c.Param("id")

	updated, err := h.connection.Update(ctx, conn)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleDeleteConnection(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.connection.Delete(ctx, c.Param("id")); err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleTestConnection(c echo.Context) error {
	ctx := c.Request().Context()

	conn, err := h.connection.Test(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, conn)
}

// --- pipelines ---

func (h *Handler) handleCreatePipeline(c echo.Context) error {
	ctx := c.Request().Context()

	var pipeline models.Pipeline
	if err := c.Bind(&pipeline); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.pipeline.Create(ctx, pipeline)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleListPipelines(c echo.Context) error {
	ctx := c.Request().Context()

	pipelines, err := h.pipeline.List(ctx, c.QueryParam("status"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, pipelines)
}

func (h *Handler) handleGetPipeline(c echo.Context) error {
	ctx := c.Request().Context()

	pipeline, err := h.pipeline.Get(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, pipeline)
}

func (h *Handler) handleUpdatePipeline(c echo.Context) error {
	ctx := c.Request().Context()

	var pipeline models.Pipeline
	if err := c.Bind(&pipeline); err != nil {
		return presenter.BadRequest(c, err)
	}
	pipeline.ID = c.Param("id")

	updated, err := h.pipeline.Update(ctx, pipeline)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleDeletePipeline(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.pipeline.Delete(ctx, c.Param("id")); err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

type pipelineStatusRequest struct {
	Status      string `json:"status"`
	StatusError string `json:"statusError"`
}

func (h *Handler) handlePipelineStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req pipelineStatusRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.Status == "" {
		return presenter.BadRequestMessage(c, "status is required")
	}

	pipeline, err := h.pipeline.Transition(ctx, c.Param("id"), req.Status, req.StatusError)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, pipeline)
}

// --- quality ---

func (h *Handler) handleCreateRule(c echo.Context) error {
	ctx := c.Request().Context()

	var rule models.QualityRule
	if err := c.Bind(&rule); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.quality.CreateRule(ctx, rule)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleListRules(c echo.Context) error {
	ctx := c.Request().Context()

	rules, err := h.quality.ListRules(ctx, c.QueryParam("field"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, rules)
}

func (h *Handler) handleGetRule(c echo.Context) error {
	ctx := c.Request().Context()

	rule, err := h.quality.GetRule(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, rule)
}

func (h *Handler) handleUpdateRule(c echo.Context) error {
	ctx := c.Request().Context()

	var rule models.QualityRule
	if err := c.Bind(&rule); err != nil {
		return presenter.BadRequest(c, err)
	}
	rule.ID = c.Param("id")

	updated, err := h.quality.UpdateRule(ctx, rule)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleDeleteRule(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.quality.DeleteRule(ctx, c.Param("id")); err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleListRuns(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	runs, err := h.quality.ListRuns(ctx, c.QueryParam("source"), limit)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, runs)
}

type qualityRunRequest struct {
	SampleSize int `json:"sampleSize"`
}

func (h *Handler) handleRunQuality(c echo.Context) error {
	ctx := c.Request().Context()

	var req qualityRunRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	run, err := h.quality.Run(ctx, c.Param("id"), req.SampleSize)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, run)
}

// --- synthetic datasets ---

func (h *Handler) handleCreateSynthetic(c echo.Context) error {
	ctx := c.Request().Context()

	var dataset models.SyntheticDataset
	if err := c.Bind(&dataset); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.synthetic.Create(ctx, dataset)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleListSynthetic(c echo.Context) error {
	ctx := c.Request().Context()

	datasets, err := h.synthetic.List(ctx, c.QueryParam("status"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, datasets)
}

func (h *Handler) handleGetSynthetic(c echo.Context) error {
	ctx := c.Request().Context()

	dataset, err := h.synthetic.Get(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, dataset)
}

func (h *Handler) handleUpdateSynthetic(c echo.Context) error {
	ctx := c.Request().Context()

	var dataset models.SyntheticDataset
	if err := c.Bind(&dataset); err != nil {
		return presenter.BadRequest(c, err)
	}
	dataset.ID = c.Param("id")

	updated, err := h.synthetic.Update(ctx, dataset)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleDeleteSynthetic(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.synthetic.Delete(ctx, c.Param("id")); err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleGenerateSynthetic(c echo.Context) error {
	ctx := c.Request().Context()

	dataset, err := h.synthetic.Generate(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, dataset)
}

func (h *Handler) handleDownloadSynthetic(c echo.Context) error {
	ctx := c.Request().Context()

	body, size, contentType, err := h.synthetic.Download(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	defer body.Close()

	if size > 0 {
		c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(size, 10))
	}
	return c.Stream(200, contentType, body)
}

// --- relationships ---

func (h *Handler) handleListTables(c echo.Context) error {
	ctx := c.Request().Context()

	tables, err := h.relational.ListTables(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, tables)
}

func (h *Handler) handleDiscover(c echo.Context) error {
	ctx := c.Request().Context()

	var opts usecase.DiscoverOptions
	if err := c.Bind(&opts); err != nil {
		return presenter.BadRequest(c, err)
	}

	graph, err := h.relational.Discover(ctx, c.Param("id"), opts)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, graph)
}

// --- query context ---

type queryRequest struct {
	Query string `json:"query"`
}

func (h *Handler) handleQuery(c echo.Context) error {
	ctx := c.Request().Context()

	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	answer, err := h.query.Ask(ctx, req.Query)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, answer)
}

func (h *Handler) handleQueryHistory(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	logs, err := h.query.History(ctx, limit)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, logs)
}
