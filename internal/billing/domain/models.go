package domain

import (
	"time"

	"github.com/shopspring/decimal"
	facilitydomain "github.com/smallbiznis/tidybill/internal/facility/domain"
	taxdomain "github.com/smallbiznis/tidybill/internal/tax/domain"
)

// LineItem is the computed billing record for one facility in one month.
type LineItem struct {
	FacilityID          string                `json:"facility_id"`
	FacilityName        string                `json:"facility_name"`
	Category            string                `json:"category"`
	EffectiveRate       decimal.Decimal       `json:"effective_rate"`
	EffectiveFrequency  int                   `json:"effective_frequency"`
	EffectiveDaysOfWeek []int                 `json:"effective_days_of_week"`
	EffectiveStatus     facilitydomain.Status `json:"effective_status"`
	TaxBehavior         taxdomain.TaxBehavior `json:"tax_behavior"`
	IsOverridden        bool                  `json:"is_overridden"`
	IsSeasonallyPaused  bool                  `json:"is_seasonally_paused"`
	IncludedInTotal     bool                  `json:"included_in_total"`

	IsProRated    bool `json:"is_pro_rated"`
	ScheduledDays *int `json:"scheduled_days,omitempty"`
	ActiveDays    *int `json:"active_days,omitempty"`
	PauseStartDay *int `json:"pause_start_day,omitempty"`
	PauseEndDay   *int `json:"pause_end_day,omitempty"`

	LineItemTotal decimal.Decimal `json:"line_item_total"`
	LineItemTax   decimal.Decimal `json:"line_item_tax"`
}

// CategoryBreakdown sums the included line items of one facility category.
type CategoryBreakdown struct {
	Key           string          `json:"key"`
	Label         string          `json:"label"`
	FacilityCount int             `json:"facility_count"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// Explanation classifies every facility into exactly one status list and
// describes the overrides that shaped the month.
type Explanation struct {
	Active           []string            `json:"active"`
	Paused           []string            `json:"paused"`
	SeasonallyPaused []string            `json:"seasonally_paused"`
	Pending          []string            `json:"pending"`
	Closed           []string            `json:"closed"`
	Overrides        []string            `json:"overrides"`
	Categories       []CategoryBreakdown `json:"categories"`
	Delta            *string             `json:"delta,omitempty"`
}

// Preview is the priced, taxed and explained result for one client month.
// It is recomputed on every request.
type Preview struct {
	CompanyID          string `json:"company_id"`
	ClientID           string `json:"client_id"`
	ClientName         string `json:"client_name"`
	Year               int    `json:"year"`
	Month              int    `json:"month"`
	BillingDisplayMode string `json:"billing_display_mode"`

	LineItems []LineItem      `json:"line_items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`

	Explanation Explanation `json:"explanation"`

	PreviousMonthTotal *decimal.Decimal `json:"previous_month_total"`
	DeltaAmount        *decimal.Decimal `json:"delta_amount"`

	TotalFacilityCount    int `json:"total_facility_count"`
	ActiveFacilityCount   int `json:"active_facility_count"`
	ExcludedFacilityCount int `json:"excluded_facility_count"`

	GeneratedAt time.Time `json:"generated_at"`
}
