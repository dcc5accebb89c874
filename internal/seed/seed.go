package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/tidybill/internal/client/domain"
	facilitydomain "github.com/smallbiznis/tidybill/internal/facility/domain"
	taxdomain "github.com/smallbiznis/tidybill/internal/tax/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// DemoCompanyID is the tenant the demo data lives under.
	DemoCompanyID snowflake.ID = 1001

	demoClientName = "Harbor Office Park"
)

// EnsureDemoData seeds one client with a representative facility mix for
// local development. It is a no-op when the demo client already exists.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&clientdomain.Client{}).
			Where("company_id = ? AND name = ?", DemoCompanyID, demoClientName).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}
		return insertDemo(tx, node, time.Now().UTC())
	})
}

func insertDemo(tx *gorm.DB, node *snowflake.Node, now time.Time) error {
	client := clientdomain.Client{
		ID:        node.Generate(),
		CompanyID: DemoCompanyID,
		Name:      demoClientName,
		TaxRate:   decimal.RequireFromString("0.0825"),
	}
	if err := tx.Create(&client).Error; err != nil {
		return err
	}

	profile := func(name, rate, category string, days []int, status facilitydomain.Status, behavior taxdomain.TaxBehavior) facilitydomain.Profile {
		return facilitydomain.Profile{
			ID:                     node.Generate(),
			CompanyID:              DemoCompanyID,
			ClientID:               client.ID,
			Name:                   name,
			DefaultMonthlyRate:     decimal.RequireFromString(rate),
			Status:                 status,
			NormalFrequencyPerWeek: len(days),
			NormalDaysOfWeek:       datatypes.NewJSONSlice(days),
			Category:               category,
			TaxBehavior:            behavior,
		}
	}

	lobby := profile("Lobby & Restrooms", "1000.00", "Common Areas", []int{1, 3, 5}, facilitydomain.StatusActive, taxdomain.TaxBehaviorInheritClient)
	pool := profile("Pool House", "400.00", "Amenities", []int{2, 4}, facilitydomain.StatusActive, taxdomain.TaxBehaviorInheritClient)
	pool.SeasonalRulesEnabled = true
	suite := profile("Suite 200", "800.00", "Tenant Suites", []int{1, 2, 3, 4, 5}, facilitydomain.StatusActive, taxdomain.TaxBehaviorTaxIncluded)
	warehouse := profile("Warehouse B", "600.00", "Industrial", []int{2}, facilitydomain.StatusPendingApproval, taxdomain.TaxBehaviorPreTax)

	profiles := []facilitydomain.Profile{lobby, pool, suite, warehouse}
	if err := tx.Create(&profiles).Error; err != nil {
		return err
	}

	rule := facilitydomain.SeasonalRule{
		ID:           node.Generate(),
		FacilityID:   pool.ID,
		ActiveMonths: datatypes.NewJSONSlice([]int{5, 6, 7, 8, 9}),
		PausedMonths: datatypes.NewJSONSlice([]int{}),
		IsActive:     true,
	}
	if err := tx.Create(&rule).Error; err != nil {
		return err
	}

	start, end := 10, 20
	note := "tenant renovation"
	override := facilitydomain.MonthlyOverride{
		ID:            node.Generate(),
		FacilityID:    suite.ID,
		Year:          now.Year(),
		Month:         int(now.Month()),
		PauseStartDay: &start,
		PauseEndDay:   &end,
		OverrideNotes: &note,
	}
	return tx.Create(&override).Error
}
