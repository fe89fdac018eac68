package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

type QueryLogRepository struct {
	db *gorm.DB
}

func NewQueryLogRepository(db *gorm.DB) *QueryLogRepository {
	return &QueryLogRepository{db: db}
}

func (r *QueryLogRepository) Create(ctx context.Context, log models.QueryLog) (models.QueryLog, error) {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Create(&log).Error
	return log, err
}

func (r *QueryLogRepository) Recent(ctx context.Context, limit int) ([]models.QueryLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var logs []models.QueryLog
	err := r.db.WithContext(ctx).Order("c_date DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
