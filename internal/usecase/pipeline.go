package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

// PipelineRepository defines persistence for pipelines.
type PipelineRepository interface {
	Create(ctx context.Context, pipeline models.Pipeline) (models.Pipeline, error)
	Get(ctx context.Context, id string) (models.Pipeline, error)
	List(ctx context.Context, status string) ([]models.Pipeline, error)
	Update(ctx context.Context, pipeline models.Pipeline) (models.Pipeline, error)
	SetStatus(ctx context.Context, id, status, statusError string) (models.Pipeline, error)
	Delete(ctx context.Context, id string) error
}

type PipelineUsecase struct {
	repo   PipelineRepository
	events EventPublisher
}

func NewPipelineUsecase(repo PipelineRepository, events EventPublisher) *PipelineUsecase {
	return &PipelineUsecase{
		repo:   repo,
		events: events,
	}
}

type pipelineStage struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (uc *PipelineUsecase) validate(pipeline models.Pipeline) error {
	if pipeline.Name == "" {
		return domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len(pipeline.Stages) > 0 {
		var stages []pipelineStage
		if err := json.Unmarshal(pipeline.Stages, &stages); err != nil {
			return domain.ValidationError{Field: "stages", Reason: "must be a JSON array of stages"}
		}
		for i, stage := range stages {
			if stage.Name == "" {
				return domain.ValidationError{Field: "stages", Reason: fmt.Sprintf("stage %d has no name", i)}
			}
		}
	}
	return nil
}

func (uc *PipelineUsecase) Create(ctx context.Context, pipeline models.Pipeline) (models.Pipeline, error) {
	if err := uc.validate(pipeline); err != nil {
		return models.Pipeline{}, err
	}

	created, err := uc.repo.Create(ctx, pipeline)
	if err != nil {
		return models.Pipeline{}, err
	}

	uc.events.Notify(ctx, "pipeline", "created", created.ID)
	return created, nil
}

func (uc *PipelineUsecase) Get(ctx context.Context, id string) (models.Pipeline, error) {
	return uc.repo.Get(ctx, id)
}

func (uc *PipelineUsecase) List(ctx context.Context, status string) ([]models.Pipeline, error) {
	return uc.repo.List(ctx, status)
}

func (uc *PipelineUsecase) Update(ctx context.Context, pipeline models.Pipeline) (models.Pipeline, error) {
	if err := uc.validate(pipeline); err != nil {
		return models.Pipeline{}, err
	}

	updated, err := uc.repo.Update(ctx, pipeline)
	if err != nil {
		return models.Pipeline{}, err
	}

	uc.events.Notify(ctx, "pipeline", "updated", updated.ID)
	return updated, nil
}

// Transition moves a pipeline to a new status; the repository enforces
// the transition rules under a row lock.
func (uc *PipelineUsecase) Transition(ctx context.Context, id, status, statusError string) (models.Pipeline, error) {
	switch status {
	case domain.PipelineStatusDraft, domain.PipelineStatusRunning,
		domain.PipelineStatusCompleted, domain.PipelineStatusFailed:
	default:
		return models.Pipeline{}, domain.ValidationError{Field: "status", Reason: "unknown status"}
	}

	pipeline, err := uc.repo.SetStatus(ctx, id, status, statusError)
	if err != nil {
		return models.Pipeline{}, err
	}

	uc.events.Notify(ctx, "pipeline", "status", id)
	return pipeline, nil
}

func (uc *PipelineUsecase) Delete(ctx context.Context, id string) error {
	err := uc.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	uc.events.Notify(ctx, "pipeline", "deleted", id)
	return nil
}
