package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

type ApiConnectionRepository struct {
	db *gorm.DB
}

func NewApiConnectionRepository(db *gorm.DB) *ApiConnectionRepository {
	return &ApiConnectionRepository{db: db}
}

func (r *ApiConnectionRepository) Create(ctx context.Context, conn models.ApiConnection) (models.ApiConnection, error) {
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Create(&conn).Error
	return conn, err
}

func (r *ApiConnectionRepository) Get(ctx context.Context, id string) (models.ApiConnection, error) {
	var conn models.ApiConnection
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return conn, domain.NotFoundError{Resource: "api connection"}
	}
	return conn, err
}

func (r *ApiConnectionRepository) List(ctx context.Context) ([]models.ApiConnection, error) {
	var conns []models.ApiConnection
	err := r.db.WithContext(ctx).Order("name ASC").Find(&conns).Error
	return conns, err
}

func (r *ApiConnectionRepository) Update(ctx context.Context, conn models.ApiConnection) (models.ApiConnection, error) {
	result := r.db.WithContext(ctx).Model(&models.ApiConnection{}).
		Where("id = ?", conn.ID).
		Updates(map[string]any{
			"name":      conn.Name,
			"base_url":  conn.BaseURL,
			"auth_type": conn.AuthType,
			"headers":   conn.Headers,
		})
	if result.Error != nil {
		return models.ApiConnection{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.ApiConnection{}, domain.NotFoundError{Resource: "api connection"}
	}
	return r.Get(ctx, conn.ID)
}

func (r *ApiConnectionRepository) SetStatus(ctx context.Context, id, status string) error {
	result := r.db.WithContext(ctx).Model(&models.ApiConnection{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "api connection"}
	}
	return nil
}

func (r *ApiConnectionRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.ApiConnection{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "api connection"}
	}
	return nil
}
