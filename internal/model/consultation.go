package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Consultation is one credit simulation. Rows are append-only.
type Consultation struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientTaxID      string          `gorm:"type:varchar(20);not null;index" json:"client_tax_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	InstallmentCount int             `gorm:"type:int;not null" json:"installment_count"`
	InterestRate     decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"interest_rate"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	FirstInstallment decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"first_installment"`
	Installments     Installments    `gorm:"type:text;not null" json:"installments"`
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`
}

// Installments is an ordered payment schedule stored as comma-separated cents ("35.64,35.63")
type Installments []decimal.Decimal

// Value implements driver.Valuer
func (in Installments) Value() (driver.Value, error) {
	parts := make([]string, 0, len(in))
	for _, v := range in {
		parts = append(parts, v.StringFixed(2))
	}
	return strings.Join(parts, ","), nil
}

// Scan implements sql.Scanner
func (in *Installments) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*in = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("installments: unsupported source type %T", src)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		*in = Installments{}
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(Installments, 0, len(parts))
	for _, p := range parts {
		d, err := decimal.NewFromString(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("installments: %w", err)
		}
		out = append(out, d)
	}
	*in = out
	return nil
}
