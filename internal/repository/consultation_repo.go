package repository

import (
	"context"
	"time"

	"credit-api/internal/model"
	"credit-api/pkg/pagination"

	"gorm.io/gorm"
)

type ConsultationRepository interface {
	Create(ctx context.Context, consultation *model.Consultation) error
	CountByTaxIDSince(ctx context.Context, taxID string, since time.Time) (int64, error)
	ListByTaxID(ctx context.Context, taxID string, p pagination.Params) ([]model.Consultation, int64, error)
}

type consultationRepository struct {
	db *gorm.DB
}

func NewConsultationRepository(db *gorm.DB) ConsultationRepository {
	return &consultationRepository{db: db}
}

func (r *consultationRepository) Create(ctx context.Context, consultation *model.Consultation) error {
	return GetDB(ctx, r.db).Create(consultation).Error
}

func (r *consultationRepository) CountByTaxIDSince(ctx context.Context, taxID string, since time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Consultation{}).
		Where("client_tax_id = ? AND created_at >= ?", taxID, since).
		Count(&count).Error
	return count, err
}

func (r *consultationRepository) ListByTaxID(ctx context.Context, taxID string, p pagination.Params) ([]model.Consultation, int64, error) {
	var consultations []model.Consultation
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Consultation{}).Where("client_tax_id = ?", taxID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Where("client_tax_id = ?", taxID).Order("created_at desc").Offset(p.Offset).Limit(p.Limit).Find(&consultations).Error; err != nil {
		return nil, 0, err
	}

	return consultations, total, nil
}
