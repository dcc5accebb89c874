package repository

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tidybill/internal/facility/domain"
	taxdomain "github.com/smallbiznis/tidybill/internal/tax/domain"
	"github.com/smallbiznis/tidybill/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	return dbtest.Open(t, &domain.Profile{}, &domain.SeasonalRule{}, &domain.MonthlyOverride{})
}

func TestListSnapshots_LoadsRulesAndMonthOverride(t *testing.T) {
	db := openDB(t)
	repo := Provide()
	ctx := context.Background()
	now := time.Now().UTC()

	for _, p := range []domain.Profile{
		{ID: 2, CompanyID: 1, ClientID: 10, Name: "Lobby", DefaultMonthlyRate: decimal.NewFromInt(1000), Status: domain.StatusActive, NormalFrequencyPerWeek: 5, NormalDaysOfWeek: datatypes.NewJSONSlice([]int{1, 2, 3, 4, 5}), TaxBehavior: taxdomain.TaxBehaviorPreTax, SeasonalRulesEnabled: true},
		{ID: 1, CompanyID: 1, ClientID: 10, Name: "Warehouse", DefaultMonthlyRate: decimal.RequireFromString("450.50"), Status: domain.StatusPaused, NormalDaysOfWeek: datatypes.NewJSONSlice([]int{}), TaxBehavior: taxdomain.TaxBehaviorTaxIncluded},
		{ID: 3, CompanyID: 2, ClientID: 10, Name: "Other tenant", DefaultMonthlyRate: decimal.NewFromInt(1), Status: domain.StatusActive, NormalDaysOfWeek: datatypes.NewJSONSlice([]int{})},
	} {
		p.CreatedAt, p.UpdatedAt = now, now
		require.NoError(t, repo.InsertProfile(ctx, db, &p))
	}

	require.NoError(t, repo.InsertSeasonalRule(ctx, db, &domain.SeasonalRule{
		ID: 20, FacilityID: 2, ActiveMonths: datatypes.NewJSONSlice([]int{4, 5, 6}), PausedMonths: datatypes.NewJSONSlice([]int{}),
		EffectiveYearStart: lo.ToPtr(2024), IsActive: true, CreatedAt: now,
	}))
	require.NoError(t, repo.InsertSeasonalRule(ctx, db, &domain.SeasonalRule{
		ID: 21, FacilityID: 2, ActiveMonths: datatypes.NewJSONSlice([]int{}), PausedMonths: datatypes.NewJSONSlice([]int{12}),
		IsActive: false, CreatedAt: now,
	}))

	paused := domain.OverrideStatusPaused
	days := datatypes.NewJSONSlice([]int{1, 3})
	require.NoError(t, repo.InsertOverride(ctx, db, &domain.MonthlyOverride{
		ID: 30, FacilityID: 2, Year: 2025, Month: 4,
		OverrideRate:       decimal.NewNullDecimal(decimal.NewFromInt(1200)),
		OverrideStatus:     &paused,
		OverrideDaysOfWeek: &days,
		PauseStartDay:      lo.ToPtr(1),
		PauseEndDay:        lo.ToPtr(15),
		OverrideNotes:      lo.ToPtr("renovation"),
		CreatedAt:          now, UpdatedAt: now,
	}))
	require.NoError(t, repo.InsertOverride(ctx, db, &domain.MonthlyOverride{
		ID: 31, FacilityID: 2, Year: 2025, Month: 5, CreatedAt: now, UpdatedAt: now,
	}))

	snapshots, err := repo.ListSnapshots(ctx, db, 1, 10, 2025, 4)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	assert.Equal(t, "Warehouse", snapshots[0].Profile.Name)
	assert.Empty(t, snapshots[0].SeasonalRules)
	assert.Nil(t, snapshots[0].Override)
	assert.Equal(t, taxdomain.TaxBehaviorTaxIncluded, snapshots[0].Profile.TaxBehavior)

	lobby := snapshots[1]
	assert.Equal(t, []int{1, 2, 3, 4, 5}, []int(lobby.Profile.NormalDaysOfWeek))
	require.Len(t, lobby.SeasonalRules, 1)
	assert.Equal(t, []int{4, 5, 6}, []int(lobby.SeasonalRules[0].ActiveMonths))
	require.NotNil(t, lobby.SeasonalRules[0].EffectiveYearStart)
	assert.Nil(t, lobby.SeasonalRules[0].EffectiveYearEnd)

	require.NotNil(t, lobby.Override)
	assert.True(t, lobby.Override.OverrideRate.Valid)
	assert.True(t, decimal.NewFromInt(1200).Equal(lobby.Override.OverrideRate.Decimal))
	require.NotNil(t, lobby.Override.OverrideStatus)
	assert.Equal(t, domain.OverrideStatusPaused, *lobby.Override.OverrideStatus)
	require.NotNil(t, lobby.Override.OverrideDaysOfWeek)
	assert.Equal(t, []int{1, 3}, []int(*lobby.Override.OverrideDaysOfWeek))
	assert.True(t, lobby.Override.HasPauseRange())
	assert.Nil(t, lobby.Override.OverrideFrequency)

	may, err := repo.ListSnapshots(ctx, db, 1, 10, 2025, 5)
	require.NoError(t, err)
	require.NotNil(t, may[1].Override)
	assert.False(t, may[1].Override.OverrideRate.Valid)
	assert.Nil(t, may[1].Override.OverrideStatus)
	assert.Nil(t, may[1].Override.OverrideDaysOfWeek)
	assert.False(t, may[1].Override.HasPauseRange())
}

func TestListSnapshots_Empty(t *testing.T) {
	db := openDB(t)
	snapshots, err := Provide().ListSnapshots(context.Background(), db, 1, 99, 2025, 1)
	require.NoError(t, err)
	assert.NotNil(t, snapshots)
	assert.Empty(t, snapshots)
}

func TestInsertOverride_UniquePerMonth(t *testing.T) {
	db := openDB(t)
	repo := Provide()
	ctx := context.Background()
	now := time.Now().UTC()

	first := &domain.MonthlyOverride{ID: 1, FacilityID: 5, Year: 2025, Month: 3, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.InsertOverride(ctx, db, first))

	dup := &domain.MonthlyOverride{ID: 2, FacilityID: 5, Year: 2025, Month: 3, CreatedAt: now, UpdatedAt: now}
	assert.ErrorIs(t, repo.InsertOverride(ctx, db, dup), domain.ErrDuplicateOverride)
}
