package usecase

import (
	"context"
	"errors"
	"testing"

	"gorm.io/datatypes"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

type mockPipelineRepo struct {
	pipeline models.Pipeline
}

func (m *mockPipelineRepo) Create(ctx context.Context, pipeline models.Pipeline) (models.Pipeline, error) {
	if pipeline.ID == "" {
		pipeline.ID = "pipe-1"
	}
	if pipeline.Status == "" {
		pipeline.Status = domain.PipelineStatusDraft
	}
	m.pipeline = pipeline
	return pipeline, nil
}

func (m *mockPipelineRepo) Get(ctx context.Context, id string) (models.Pipeline, error) {
	return m.pipeline, nil
}

func (m *mockPipelineRepo) List(ctx context.Context, status string) ([]models.Pipeline, error) {
	return []models.Pipeline{m.pipeline}, nil
}

func (m *mockPipelineRepo) Update(ctx context.Context, pipeline models.Pipeline) (models.Pipeline, error) {
	m.pipeline = pipeline
	return pipeline, nil
}

func (m *mockPipelineRepo) SetStatus(ctx context.Context, id, status, statusError string) (models.Pipeline, error) {
	if !domain.ValidPipelineTransition(m.pipeline.Status, status) {
		return models.Pipeline{}, domain.TransitionError{From: m.pipeline.Status, To: status}
	}
	m.pipeline.Status = status
	m.pipeline.StatusError = statusError
	return m.pipeline, nil
}

func (m *mockPipelineRepo) Delete(ctx context.Context, id string) error { return nil }

func TestPipelineCreateRejectsUnnamedStage(t *testing.T) {
	uc := NewPipelineUsecase(&mockPipelineRepo{}, &mockEvents{})

	_, err := uc.Create(context.Background(), models.Pipeline{
		Name:   "ingest",
		Stages: datatypes.JSON(`[{"name":"extract","kind":"extract"},{"kind":"load"}]`),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPipelineTransitions(t *testing.T) {
	repo := &mockPipelineRepo{}
	events := &mockEvents{}
	uc := NewPipelineUsecase(repo, events)

	_, err := uc.Create(context.Background(), models.Pipeline{Name: "ingest"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	pipeline, err := uc.Transition(context.Background(), "pipe-1", domain.PipelineStatusRunning, "")
	if err != nil {
		t.Fatalf("draft to running failed: %v", err)
	}
	if pipeline.Status != domain.PipelineStatusRunning {
		t.Fatalf("expected running, got %s", pipeline.Status)
	}

	pipeline, err = uc.Transition(context.Background(), "pipe-1", domain.PipelineStatusFailed, "stage exploded")
	if err != nil {
		t.Fatalf("running to failed failed: %v", err)
	}
	if pipeline.StatusError != "stage exploded" {
		t.Fatalf("expected failure reason to persist, got %q", pipeline.StatusError)
	}

	// Failed pipelines can be retried.
	_, err = uc.Transition(context.Background(), "pipe-1", domain.PipelineStatusRunning, "")
	if err != nil {
		t.Fatalf("failed to running failed: %v", err)
	}
}

func TestPipelineTransitionRejectsInvalid(t *testing.T) {
	repo := &mockPipelineRepo{pipeline: models.Pipeline{ID: "pipe-1", Name: "ingest", Status: domain.PipelineStatusDraft}}
	uc := NewPipelineUsecase(repo, &mockEvents{})

	_, err := uc.Transition(context.Background(), "pipe-1", domain.PipelineStatusCompleted, "")
	if !errors.Is(err, domain.TransitionError{}) {
		t.Fatalf("expected transition error, got %v", err)
	}
}

func TestPipelineTransitionRejectsUnknownStatus(t *testing.T) {
	uc := NewPipelineUsecase(&mockPipelineRepo{}, &mockEvents{})

	_, err := uc.Transition(context.Background(), "pipe-1", "paused", "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
