package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertProfile(ctx context.Context, db *gorm.DB, profile *Profile) error
	InsertSeasonalRule(ctx context.Context, db *gorm.DB, rule *SeasonalRule) error
	InsertOverride(ctx context.Context, db *gorm.DB, override *MonthlyOverride) error

	// ListSnapshots returns the client's facilities ordered by id, each with
	// its active seasonal rules and at most one override for (year, month).
	ListSnapshots(ctx context.Context, db *gorm.DB, companyID, clientID snowflake.ID, year, month int) ([]Snapshot, error)
}
