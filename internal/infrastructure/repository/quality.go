package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

type QualityRepository struct {
	db *gorm.DB
}

func NewQualityRepository(db *gorm.DB) *QualityRepository {
	return &QualityRepository{db: db}
}

func (r *QualityRepository) CreateRule(ctx context.Context, rule models.QualityRule) (models.QualityRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Create(&rule).Error
	return rule, err
}

func (r *QualityRepository) GetRule(ctx context.Context, id string) (models.QualityRule, error) {
	var rule models.QualityRule
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rule, domain.NotFoundError{Resource: "quality rule"}
	}
	return rule, err
}

func (r *QualityRepository) ListRules(ctx context.Context, fieldID string) ([]models.QualityRule, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if fieldID != "" {
		query = query.Where("field_id = ?", fieldID)
	}

	var rules []models.QualityRule
	err := query.Find(&rules).Error
	return rules, err
}

// ListEnabledForSource joins through catalog fields so a quality run can
// pick up every enabled rule targeting a data source in one query.
func (r *QualityRepository) ListEnabledForSource(ctx context.Context, dataSourceID string) ([]models.QualityRule, error) {
	var rules []models.QualityRule
	err := r.db.WithContext(ctx).Preload("Field").
		Joins("JOIN catalog_fields ON catalog_fields.id = quality_rules.field_id").
		Where("catalog_fields.data_source_id = ? AND quality_rules.enabled = ?", dataSourceID, true).
		Find(&rules).Error
	return rules, err
}

func (r *QualityRepository) UpdateRule(ctx context.Context, rule models.QualityRule) (models.QualityRule, error) {
	result := r.db.WithContext(ctx).Model(&models.QualityRule{}).
		Where("id = ?", rule.ID).
		Updates(map[string]any{
			"name":      rule.Name,
			"rule_type": rule.RuleType,
			"config":    rule.Config,
			"severity":  rule.Severity,
			"enabled":   rule.Enabled,
		})
	if result.Error != nil {
		return models.QualityRule{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.QualityRule{}, domain.NotFoundError{Resource: "quality rule"}
	}
	return r.GetRule(ctx, rule.ID)
}

func (r *QualityRepository) DeleteRule(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.QualityRule{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "quality rule"}
	}
	return nil
}

func (r *QualityRepository) CreateRun(ctx context.Context, run models.QualityRun) (models.QualityRun, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Create(&run).Error
	return run, err
}

func (r *QualityRepository) ListRuns(ctx context.Context, dataSourceID string, limit int) ([]models.QualityRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := r.db.WithContext(ctx).Order("c_date DESC").Limit(limit)
	if dataSourceID != "" {
		query = query.Where("data_source_id = ?", dataSourceID)
	}

	var runs []models.QualityRun
	err := query.Find(&runs).Error
	return runs, err
}
