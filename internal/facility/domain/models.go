package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/tidybill/internal/tax/domain"
	"gorm.io/datatypes"
)

// Status is the operational status of a facility.
type Status string

const (
	StatusActive          Status = "ACTIVE"
	StatusPaused          Status = "PAUSED"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusClosed          Status = "CLOSED"
	// StatusSeasonalPaused is only ever produced by resolution, never stored.
	StatusSeasonalPaused Status = "SEASONAL_PAUSED"
)

// Normalize maps a stored status onto a known value. Empty means ACTIVE;
// anything unrecognized is treated as CLOSED so it is never billed.
func (s Status) Normalize() Status {
	switch s {
	case "":
		return StatusActive
	case StatusActive, StatusPaused, StatusPendingApproval, StatusClosed:
		return s
	default:
		return StatusClosed
	}
}

// OverrideStatus is the status a monthly override may force.
type OverrideStatus string

const (
	OverrideStatusActive    OverrideStatus = "ACTIVE"
	OverrideStatusPaused    OverrideStatus = "PAUSED"
	OverrideStatusCancelled OverrideStatus = "CANCELLED"
)

// FacilityStatus maps an override status onto the facility status it forces.
// Unknown values report false and are ignored.
func (s OverrideStatus) FacilityStatus() (Status, bool) {
	switch s {
	case OverrideStatusActive:
		return StatusActive, true
	case OverrideStatusPaused:
		return StatusPaused, true
	case OverrideStatusCancelled:
		return StatusClosed, true
	default:
		return "", false
	}
}

// Profile is one serviced location owned by a client.
type Profile struct {
	ID                     snowflake.ID             `gorm:"primaryKey" json:"id"`
	CompanyID              snowflake.ID             `gorm:"column:company_id;not null;index" json:"company_id"`
	ClientID               snowflake.ID             `gorm:"column:client_id;not null;index" json:"client_id"`
	Name                   string                   `gorm:"not null" json:"name"`
	DefaultMonthlyRate     decimal.Decimal          `gorm:"column:default_monthly_rate;type:decimal(12,2);not null;default:0" json:"default_monthly_rate"`
	Status                 Status                   `gorm:"type:text;not null;default:'ACTIVE'" json:"status"`
	NormalFrequencyPerWeek int                      `gorm:"column:normal_frequency_per_week;not null;default:0" json:"normal_frequency_per_week"`
	NormalDaysOfWeek       datatypes.JSONSlice[int] `gorm:"column:normal_days_of_week;not null" json:"normal_days_of_week"`
	Category               string                   `gorm:"not null;default:''" json:"category"`
	TaxBehavior            taxdomain.TaxBehavior    `gorm:"column:tax_behavior;type:text;not null;default:'INHERIT_CLIENT'" json:"tax_behavior"`
	SeasonalRulesEnabled   bool                     `gorm:"column:seasonal_rules_enabled;not null;default:false" json:"seasonal_rules_enabled"`
	CreatedAt              time.Time                `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt              time.Time                `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Profile) TableName() string { return "facility_profiles" }

// SeasonalRule is a recurring, year-scoped activation policy.
type SeasonalRule struct {
	ID                 snowflake.ID             `gorm:"primaryKey" json:"id"`
	FacilityID         snowflake.ID             `gorm:"column:facility_id;not null;index" json:"facility_id"`
	ActiveMonths       datatypes.JSONSlice[int] `gorm:"column:active_months;not null" json:"active_months"`
	PausedMonths       datatypes.JSONSlice[int] `gorm:"column:paused_months;not null" json:"paused_months"`
	EffectiveYearStart *int                     `gorm:"column:effective_year_start" json:"effective_year_start,omitempty"`
	EffectiveYearEnd   *int                     `gorm:"column:effective_year_end" json:"effective_year_end,omitempty"`
	IsActive           bool                     `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt          time.Time                `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (SeasonalRule) TableName() string { return "seasonal_rules" }

// AppliesToYear reports whether year falls within the optional bounds.
func (r SeasonalRule) AppliesToYear(year int) bool {
	if r.EffectiveYearStart != nil && year < *r.EffectiveYearStart {
		return false
	}
	if r.EffectiveYearEnd != nil && year > *r.EffectiveYearEnd {
		return false
	}
	return true
}

// MonthlyOverride is a one-off exception for (facility, year, month).
// Nil fields leave the facility default in place.
type MonthlyOverride struct {
	ID                 snowflake.ID              `gorm:"primaryKey" json:"id"`
	FacilityID         snowflake.ID              `gorm:"column:facility_id;not null;uniqueIndex:ux_override_facility_month" json:"facility_id"`
	Year               int                       `gorm:"not null;uniqueIndex:ux_override_facility_month" json:"year"`
	Month              int                       `gorm:"not null;uniqueIndex:ux_override_facility_month" json:"month"`
	OverrideRate       decimal.NullDecimal       `gorm:"column:override_rate;type:decimal(12,2)" json:"override_rate"`
	OverrideStatus     *OverrideStatus           `gorm:"column:override_status;type:text" json:"override_status,omitempty"`
	OverrideFrequency  *int                      `gorm:"column:override_frequency" json:"override_frequency,omitempty"`
	OverrideDaysOfWeek *datatypes.JSONSlice[int] `gorm:"column:override_days_of_week" json:"override_days_of_week,omitempty"`
	PauseStartDay      *int                      `gorm:"column:pause_start_day" json:"pause_start_day,omitempty"`
	PauseEndDay        *int                      `gorm:"column:pause_end_day" json:"pause_end_day,omitempty"`
	OverrideNotes      *string                   `gorm:"column:override_notes;type:text" json:"override_notes,omitempty"`
	CreatedAt          time.Time                 `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time                 `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (MonthlyOverride) TableName() string { return "monthly_overrides" }

// HasPauseRange reports whether both ends of a date-range pause are set.
func (o *MonthlyOverride) HasPauseRange() bool {
	return o != nil && o.PauseStartDay != nil && o.PauseEndDay != nil
}

// Snapshot is one facility with its active rules and the override for the
// requested month. It is loaded once and never re-read during a computation.
type Snapshot struct {
	Profile       Profile
	SeasonalRules []SeasonalRule
	Override      *MonthlyOverride
}
