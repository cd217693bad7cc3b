package model

import (
	"time"

	"github.com/google/uuid"
)

// Client is the owner of credit consultations, identified by a unique tax id
type Client struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaxID         string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"tax_id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Consultations []Consultation `gorm:"foreignKey:ClientTaxID;references:TaxID" json:"consultations,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
