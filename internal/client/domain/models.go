package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/tidybill/internal/tax/domain"
)

// Client is the tenant-scoped billing subject.
type Client struct {
	ID                 snowflake.ID    `gorm:"primaryKey" json:"id"`
	CompanyID          snowflake.ID    `gorm:"column:company_id;not null;index" json:"company_id"`
	Name               string          `gorm:"not null" json:"name"`
	TaxRate            decimal.Decimal `gorm:"column:tax_rate;type:decimal(10,4);not null;default:0" json:"tax_rate"`
	TaxExempt          bool            `gorm:"column:tax_exempt;not null;default:false" json:"tax_exempt"`
	BillingDisplayMode string          `gorm:"column:billing_display_mode;not null;default:''" json:"billing_display_mode"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Client) TableName() string { return "clients" }

// TaxPolicy returns the client half of the tax decision.
func (c Client) TaxPolicy() taxdomain.ClientTaxPolicy {
	return taxdomain.ClientTaxPolicy{Rate: c.TaxRate, Exempt: c.TaxExempt}
}

// Ref identifies one client within its company.
type Ref struct {
	CompanyID snowflake.ID
	ClientID  snowflake.ID
}
