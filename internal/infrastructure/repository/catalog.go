package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/database/models"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) CreateField(ctx context.Context, field models.CatalogField) (models.CatalogField, error) {
	if field.ID == "" {
		field.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Create(&field).Error
	return field, err
}

func (r *CatalogRepository) GetField(ctx context.Context, id string) (models.CatalogField, error) {
	var field models.CatalogField
	err := r.db.WithContext(ctx).Preload("Annotations").Where("id = ?", id).Take(&field).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return field, domain.NotFoundError{Resource: "catalog field"}
	}
	return field, err
}

func (r *CatalogRepository) ListFields(ctx context.Context, dataSourceID string, piiOnly bool) ([]models.CatalogField, error) {
	query := r.db.WithContext(ctx).Preload("Annotations").Order("name ASC")
	if dataSourceID != "" {
		query = query.Where("data_source_id = ?", dataSourceID)
	}
	if piiOnly {
		query = query.Where("pii = ?", true)
	}

	var fields []models.CatalogField
	err := query.Find(&fields).Error
	return fields, err
}

// ListUnannotatedFields returns fields with no canonical mapping yet,
// the input set for mapping suggestions.
func (r *CatalogRepository) ListUnannotatedFields(ctx context.Context, dataSourceID string) ([]models.CatalogField, error) {
	query := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM field_annotations WHERE field_annotations.field_id = catalog_fields.id)")
	if dataSourceID != "" {
		query = query.Where("data_source_id = ?", dataSourceID)
	}

	var fields []models.CatalogField
	err := query.Order("name ASC").Find(&fields).Error
	return fields, err
}

func (r *CatalogRepository) UpdateField(ctx context.Context, field models.CatalogField) (models.CatalogField, error) {
	result := r.db.WithContext(ctx).Model(&models.CatalogField{}).
		Where("id = ?", field.ID).
		Updates(map[string]any{
			"name":           field.Name,
			"data_type":      field.DataType,
			"description":    field.Description,
			"classification": field.Classification,
			"pii":            field.PII,
			"tags":           field.Tags,
		})
	if result.Error != nil {
		return models.CatalogField{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.CatalogField{}, domain.NotFoundError{Resource: "catalog field"}
	}
	return r.GetField(ctx, field.ID)
}

func (r *CatalogRepository) DeleteField(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.CatalogField{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "catalog field"}
	}
	return nil
}

func (r *CatalogRepository) CreateAnnotation(ctx context.Context, annotation models.FieldAnnotation) (models.FieldAnnotation, error) {
	if annotation.ID == "" {
		annotation.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Create(&annotation).Error
	return annotation, err
}

func (r *CatalogRepository) ListAnnotations(ctx context.Context, fieldID string) ([]models.FieldAnnotation, error) {
	var annotations []models.FieldAnnotation
	err := r.db.WithContext(ctx).
		Where("field_id = ?", fieldID).
		Order("c_date DESC").
		Find(&annotations).Error
	return annotations, err
}

func (r *CatalogRepository) DeleteAnnotation(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.FieldAnnotation{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "annotation"}
	}
	return nil
}
