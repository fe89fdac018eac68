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

type DataSourceRepository struct {
	db *gorm.DB
}

func NewDataSourceRepository(db *gorm.DB) *DataSourceRepository {
	return &DataSourceRepository{db: db}
}

func (r *DataSourceRepository) Create(ctx context.Context, source models.DataSource) (models.DataSource, error) {
	if source.ID == "" {
		source.ID = uuid.NewString()
	}
	if source.Status == "" {
		source.Status = domain.SourceStatusPending
	}
	err := r.db.WithContext(ctx).Create(&source).Error
	return source, err
}

func (r *DataSourceRepository) Get(ctx context.Context, id string) (models.DataSource, error) {
	var source models.DataSource
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&source).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return source, domain.NotFoundError{Resource: "data source"}
	}
	return source, err
}

func (r *DataSourceRepository) List(ctx context.Context, sourceType, status string) ([]models.DataSource, error) {
	query := r.db.WithContext(ctx).Order("c_date DESC")
	if sourceType != "" {
		query = query.Where("type = ?", sourceType)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var sources []models.DataSource
	err := query.Find(&sources).Error
	return sources, err
}

func (r *DataSourceRepository) Update(ctx context.Context, source models.DataSource) (models.DataSource, error) {
	result := r.db.WithContext(ctx).Model(&models.DataSource{}).
		Where("id = ?", source.ID).
		Updates(map[string]any{
			"name":        source.Name,
			"type":        source.Type,
			"description": source.Description,
			"config":      source.Config,
			"tags":        source.Tags,
		})
	if result.Error != nil {
		return models.DataSource{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.DataSource{}, domain.NotFoundError{Resource: "data source"}
	}
	return r.Get(ctx, source.ID)
}

// SetStatus records the outcome of a connection test. A successful test
// also bumps the last-sync timestamp.
func (r *DataSourceRepository) SetStatus(ctx context.Context, id, status, statusError string) error {
	updates := map[string]any{
		"status":       status,
		"status_error": statusError,
	}
	if status == domain.SourceStatusConnected {
		updates["last_sync_at"] = time.Now().UTC()
	}

	result := r.db.WithContext(ctx).Model(&models.DataSource{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "data source"}
	}
	return nil
}

func (r *DataSourceRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.DataSource{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "data source"}
	}
	return nil
}
