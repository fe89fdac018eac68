package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
	"github.com/quarrydata/quarry/internal/usecase"
)

// --- mocks ---

type mockEvents struct{}

func (m *mockEvents) Notify(ctx context.Context, kind, action, id string) {}

type mockSourceRepo struct {
	sources map[string]models.DataSource
}

func (m *mockSourceRepo) Create(ctx context.Context, source models.DataSource) (models.DataSource, error) {
	if source.ID == "" {
		source.ID = "src-1"
	}
	m.sources[source.ID] = source
	return source, nil
}

func (m *mockSourceRepo) Get(ctx context.Context, id string) (models.DataSource, error) {
	source, ok := m.sources[id]
	if !ok {
		return models.DataSource{}, domain.NotFoundError{Resource: "data source"}
	}
	return source, nil
}

func (m *mockSourceRepo) List(ctx context.Context, sourceType, status string) ([]models.DataSource, error) {
	out := []models.DataSource{}
	for _, source := range m.sources {
		out = append(out, source)
	}
	return out, nil
}

func (m *mockSourceRepo) Update(ctx context.Context, source models.DataSource) (models.DataSource, error) {
	m.sources[source.ID] = source
	return source, nil
}

func (m *mockSourceRepo) SetStatus(ctx context.Context, id, status, statusError string) error {
	return nil
}

func (m *mockSourceRepo) Delete(ctx context.Context, id string) error { return nil }

type mockPatternRepo struct {
	patterns []models.Pattern
}

func (m *mockPatternRepo) Create(ctx context.Context, pattern models.Pattern) (models.Pattern, error) {
	return pattern, nil
}
func (m *mockPatternRepo) Get(ctx context.Context, id string) (models.Pattern, error) {
	return models.Pattern{}, domain.NotFoundError{Resource: "pattern"}
}
func (m *mockPatternRepo) List(ctx context.Context, category string) ([]models.Pattern, error) {
	return m.patterns, nil
}
func (m *mockPatternRepo) ListEnabled(ctx context.Context) ([]models.Pattern, error) {
	return m.patterns, nil
}
func (m *mockPatternRepo) Update(ctx context.Context, pattern models.Pattern) (models.Pattern, error) {
	return pattern, nil
}
func (m *mockPatternRepo) Delete(ctx context.Context, id string) error { return nil }

type mockPipelineRepo struct {
	pipeline models.Pipeline
}

func (m *mockPipelineRepo) Create(ctx context.Context, pipeline models.Pipeline) (models.Pipeline, error) {
	return pipeline, nil
}
func (m *mockPipelineRepo) Get(ctx context.Context, id string) (models.Pipeline, error) {
	return m.pipeline, nil
}
func (m *mockPipelineRepo) List(ctx context.Context, status string) ([]models.Pipeline, error) {
	return nil, nil
}
func (m *mockPipelineRepo) Update(ctx context.Context, pipeline models.Pipeline) (models.Pipeline, error) {
	return pipeline, nil
}
func (m *mockPipelineRepo) SetStatus(ctx context.Context, id, status, statusError string) (models.Pipeline, error) {
	if !domain.ValidPipelineTransition(m.pipeline.Status, status) {
		return models.Pipeline{}, domain.TransitionError{From: m.pipeline.Status, To: status}
	}
	m.pipeline.Status = status
	return m.pipeline, nil
}
func (m *mockPipelineRepo) Delete(ctx context.Context, id string) error { return nil }

// --- helpers ---

func newTestServer(sources *mockSourceRepo, patterns *mockPatternRepo, pipelines *mockPipelineRepo) *echo.Echo {
	events := &mockEvents{}

	h := NewHandler(
		usecase.NewDataSourceUsecase(sources, nil, events),
		usecase.NewPatternUsecase(patterns, events),
		nil,
		nil,
		usecase.NewPipelineUsecase(pipelines, events),
		nil,
		nil,
		nil,
		nil,
		nil,
	)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, path string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	return res
}

// --- tests ---

func TestHandleCreateSource(t *testing.T) {
	sources := &mockSourceRepo{sources: map[string]models.DataSource{}}
	e := newTestServer(sources, &mockPatternRepo{}, &mockPipelineRepo{})

	res := do(e, http.MethodPost, "/api/v1/sources", models.DataSource{
		Name: "crm",
		Type: domain.SourceTypePostgres,
	})

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}

	var created models.DataSource
	if err := json.Unmarshal(res.Body.Bytes(), &created); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected an id to be assigned")
	}
}

func TestHandleCreateSourceValidation(t *testing.T) {
	sources := &mockSourceRepo{sources: map[string]models.DataSource{}}
	e := newTestServer(sources, &mockPatternRepo{}, &mockPipelineRepo{})

	res := do(e, http.MethodPost, "/api/v1/sources", models.DataSource{Name: "crm", Type: "oracle"})

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestHandleGetSourceNotFound(t *testing.T) {
	sources := &mockSourceRepo{sources: map[string]models.DataSource{}}
	e := newTestServer(sources, &mockPatternRepo{}, &mockPipelineRepo{})

	res := do(e, http.MethodGet, "/api/v1/sources/missing", nil)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestHandleScan(t *testing.T) {
	patterns := &mockPatternRepo{patterns: []models.Pattern{
		{ID: "pat-email", Name: "Email", Expression: `[a-z]+@[a-z.]+`, Enabled: true},
	}}
	e := newTestServer(&mockSourceRepo{sources: map[string]models.DataSource{}}, patterns, &mockPipelineRepo{})

	res := do(e, http.MethodPost, "/api/v1/patterns/scan", map[string]any{
		"values": []string{"reach me at alice@example.com"},
	})

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var findings []quarry.ScanFinding
	if err := json.Unmarshal(res.Body.Bytes(), &findings); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(findings) != 1 || findings[0].MatchCount != 1 {
		t.Fatalf("unexpected findings: %+v", findings)
	}
}

func TestHandleScanRejectsEmptyValues(t *testing.T) {
	e := newTestServer(&mockSourceRepo{sources: map[string]models.DataSource{}}, &mockPatternRepo{}, &mockPipelineRepo{})

	res := do(e, http.MethodPost, "/api/v1/patterns/scan", map[string]any{"values": []string{}})

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestHandlePipelineStatusConflict(t *testing.T) {
	pipelines := &mockPipelineRepo{pipeline: models.Pipeline{
		ID:     "pipe-1",
		Name:   "ingest",
		Status: domain.PipelineStatusDraft,
	}}
	e := newTestServer(&mockSourceRepo{sources: map[string]models.DataSource{}}, &mockPatternRepo{}, pipelines)

	res := do(e, http.MethodPost, "/api/v1/pipelines/pipe-1/status", map[string]string{
		"status": domain.PipelineStatusCompleted,
	})

	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", res.Code, res.Body.String())
	}
}
