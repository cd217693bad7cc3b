package repository

import (
	"context"

	"credit-api/internal/model"
	"credit-api/pkg/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClientSummary is a client row with its consultation count
type ClientSummary struct {
	model.Client
	ConsultationCount int64 `json:"consultation_count"`
}

type ClientRepository interface {
	FindByTaxID(ctx context.Context, taxID string) (*model.Client, error)
	// CreateIfAbsent inserts client unless its tax id already exists; created reports whether a row was written
	CreateIfAbsent(ctx context.Context, client *model.Client) (created bool, err error)
	List(ctx context.Context, p pagination.Params) ([]ClientSummary, int64, error)
}

type clientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) FindByTaxID(ctx context.Context, taxID string) (*model.Client, error) {
	var client model.Client
	if err := GetDB(ctx, r.db).Where("tax_id = ?", taxID).First(&client).Error; err != nil {
		return nil, notFound(err)
	}
	return &client, nil
}

func (r *clientRepository) CreateIfAbsent(ctx context.Context, client *model.Client) (bool, error) {
	res := GetDB(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tax_id"}}, DoNothing: true}).
		Create(client)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *clientRepository) List(ctx context.Context, p pagination.Params) ([]ClientSummary, int64, error) {
	var clients []ClientSummary
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Client{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Model(&model.Client{}).
		Select("clients.*, (SELECT COUNT(*) FROM consultations WHERE consultations.client_tax_id = clients.tax_id) AS consultation_count").
		Order("clients.created_at desc").
		Offset(p.Offset).Limit(p.Limit).
		Find(&clients).Error
	if err != nil {
		return nil, 0, err
	}

	return clients, total, nil
}
