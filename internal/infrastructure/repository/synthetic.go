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

type SyntheticRepository struct {
	db *gorm.DB
}

func NewSyntheticRepository(db *gorm.DB) *SyntheticRepository {
	return &SyntheticRepository{db: db}
}

func (r *SyntheticRepository) Create(ctx context.Context, dataset models.SyntheticDataset) (models.SyntheticDataset, error) {
	if dataset.ID == "" {
		dataset.ID = uuid.NewString()
	}
	if dataset.Status == "" {
		dataset.Status = domain.SyntheticStatusDraft
	}
	err := r.db.WithContext(ctx).Create(&dataset).Error
	return dataset, err
}

func (r *SyntheticRepository) Get(ctx context.Context, id string) (models.SyntheticDataset, error) {
	var dataset models.SyntheticDataset
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&dataset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dataset, domain.NotFoundError{Resource: "synthetic dataset"}
	}
	return dataset, err
}

func (r *SyntheticRepository) List(ctx context.Context, status string) ([]models.SyntheticDataset, error) {
	query := r.db.WithContext(ctx).Order("c_date DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var datasets []models.SyntheticDataset
	err := query.Find(&datasets).Error
	return datasets, err
}

func (r *SyntheticRepository) Update(ctx context.Context, dataset models.SyntheticDataset) (models.SyntheticDataset, error) {
	result := r.db.WithContext(ctx).Model(&models.SyntheticDataset{}).
		Where("id = ?", dataset.ID).
		Updates(map[string]any{
			"name":        dataset.Name,
			"description": dataset.Description,
			"fields":      dataset.Fields,
			"row_count":   dataset.RowCount,
			"format":      dataset.Format,
		})
	if result.Error != nil {
		return models.SyntheticDataset{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.SyntheticDataset{}, domain.NotFoundError{Resource: "synthetic dataset"}
	}
	return r.Get(ctx, dataset.ID)
}

// MarkGenerating claims a dataset for generation. Claiming a dataset that
// is already generating fails so only one generation runs at a time.
func (r *SyntheticRepository) MarkGenerating(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dataset models.SyntheticDataset
		err := tx.Clauses(lockingClause()).Where("id = ?", id).Take(&dataset).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFoundError{Resource: "synthetic dataset"}
		}
		if err != nil {
			return err
		}

		if dataset.Status == domain.SyntheticStatusGenerating {
			return domain.TransitionError{From: dataset.Status, To: domain.SyntheticStatusGenerating}
		}

		return tx.Model(&models.SyntheticDataset{}).Where("id = ?", id).
			Updates(map[string]any{
				"status":       domain.SyntheticStatusGenerating,
				"status_error": "",
			}).Error
	})
}

func (r *SyntheticRepository) MarkReady(ctx context.Context, id, objectKey string, byteSize int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&models.SyntheticDataset{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       domain.SyntheticStatusReady,
			"object_key":   objectKey,
			"byte_size":    byteSize,
			"generated_at": now,
		}).Error
}

func (r *SyntheticRepository) MarkFailed(ctx context.Context, id, reason string) error {
	return r.db.WithContext(ctx).Model(&models.SyntheticDataset{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       domain.SyntheticStatusFailed,
			"status_error": reason,
		}).Error
}

func (r *SyntheticRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.SyntheticDataset{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "synthetic dataset"}
	}
	return nil
}
