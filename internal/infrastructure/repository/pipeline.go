package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

type PipelineRepository struct {
	db *gorm.DB
}

func NewPipelineRepository(db *gorm.DB) *PipelineRepository {
	return &PipelineRepository{db: db}
}

func (r *PipelineRepository) Create(ctx context.Context, pipeline models.Pipeline) (models.Pipeline, error) {
	if pipeline.ID == "" {
		pipeline.ID = uuid.NewString()
	}
	if pipeline.Status == "" {
		pipeline.Status = domain.PipelineStatusDraft
	}
	err := r.db.WithContext(ctx).Create(&pipeline).Error
	return pipeline, err
}

func (r *PipelineRepository) Get(ctx context.Context, id string) (models.Pipeline, error) {
	var pipeline models.Pipeline
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&pipeline).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pipeline, domain.NotFoundError{Resource: "pipeline"}
	}
	return pipeline, err
}

func (r *PipelineRepository) List(ctx context.Context, status string) ([]models.Pipeline, error) {
	query := r.db.WithContext(ctx).Order("c_date DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var pipelines []models.Pipeline
	err := query.Find(&pipelines).Error
	return pipelines, err
}

func (r *PipelineRepository) Update(ctx context.Context, pipeline models.Pipeline) (models.Pipeline, error) {
	result := r.db.WithContext(ctx).Model(&models.Pipeline{}).
		Where("id = ?", pipeline.ID).
		Updates(map[string]any{
			"name":        pipeline.Name,
			"description": pipeline.Description,
			"stages":      pipeline.Stages,
		})
	if result.Error != nil {
		return models.Pipeline{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Pipeline{}, domain.NotFoundError{Resource: "pipeline"}
	}
	return r.Get(ctx, pipeline.ID)
}

// SetStatus moves a pipeline to a new status under the transition rules,
// holding a row lock so concurrent transitions serialize.
func (r *PipelineRepository) SetStatus(ctx context.Context, id, status, statusError string) (models.Pipeline, error) {
	var pipeline models.Pipeline

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(lockingClause()).Where("id = ?", id).Take(&pipeline).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFoundError{Resource: "pipeline"}
		}
		if err != nil {
			return err
		}

		if !domain.ValidPipelineTransition(pipeline.Status, status) {
			return domain.TransitionError{From: pipeline.Status, To: status}
		}

		updates := map[string]any{
			"status":       status,
			"status_error": statusError,
		}
		if status == domain.PipelineStatusRunning {
			now := time.Now().UTC()
			updates["last_run_at"] = now
			pipeline.LastRunAt = &now
		}
		pipeline.Status = status
		pipeline.StatusError = statusError

		return tx.Model(&models.Pipeline{}).Where("id = ?", id).Updates(updates).Error
	})

	return pipeline, err
}

func (r *PipelineRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Pipeline{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "pipeline"}
	}
	return nil
}
