package repository

import (
	"context"

	"credit-api/internal/model"
	"credit-api/pkg/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	DeleteByCode(ctx context.Context, code string) error
	FindByCodeForUpdate(ctx context.Context, code string) (*model.Product, error)
	List(ctx context.Context, p pagination.Params) ([]model.Product, int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) DeleteByCode(ctx context.Context, code string) error {
	return GetDB(ctx, r.db).Where("code = ?", code).Delete(&model.Product{}).Error
}

func (r *productRepository) FindByCodeForUpdate(ctx context.Context, code string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).First(&product).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, p pagination.Params) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("code asc").Offset(p.Offset).Limit(p.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}
