package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

type PatternRepository struct {
	db *gorm.DB
}

func NewPatternRepository(db *gorm.DB) *PatternRepository {
	return &PatternRepository{db: db}
}

func (r *PatternRepository) Create(ctx context.Context, pattern models.Pattern) (models.Pattern, error) {
	if pattern.ID == "" {
		pattern.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Create(&pattern).Error
	return pattern, err
}

func (r *PatternRepository) Get(ctx context.Context, id string) (models.Pattern, error) {
	var pattern models.Pattern
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&pattern).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pattern, domain.NotFoundError{Resource: "pattern"}
	}
	return pattern, err
}

func (r *PatternRepository) List(ctx context.Context, category string) ([]models.Pattern, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var patterns []models.Pattern
	err := query.Find(&patterns).Error
	return patterns, err
}

func (r *PatternRepository) ListEnabled(ctx context.Context) ([]models.Pattern, error) {
	var patterns []models.Pattern
	err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("name ASC").Find(&patterns).Error
	return patterns, err
}

func (r *PatternRepository) Update(ctx context.Context, pattern models.Pattern) (models.Pattern, error) {
	result := r.db.WithContext(ctx).Model(&models.Pattern{}).
		Where("id = ?", pattern.ID).
		Updates(map[string]any{
			"name":        pattern.Name,
			"category":    pattern.Category,
			"expression":  pattern.Expression,
			"sensitivity": pattern.Sensitivity,
			"examples":    pattern.Examples,
			"enabled":     pattern.Enabled,
		})
	if result.Error != nil {
		return models.Pattern{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Pattern{}, domain.NotFoundError{Resource: "pattern"}
	}
	return r.Get(ctx, pattern.ID)
}

func (r *PatternRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Pattern{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "pattern"}
	}
	return nil
}
