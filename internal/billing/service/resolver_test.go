package service

import (
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	facilitydomain "github.com/smallbiznis/tidybill/internal/facility/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func activeProfile() facilitydomain.Profile {
	return facilitydomain.Profile{
		ID:                     1,
		Name:                   "Lobby",
		DefaultMonthlyRate:     decimal.NewFromInt(1000),
		Status:                 facilitydomain.StatusActive,
		NormalFrequencyPerWeek: 5,
		NormalDaysOfWeek:       datatypes.NewJSONSlice([]int{1, 2, 3, 4, 5}),
		SeasonalRulesEnabled:   true,
	}
}

func summerOnly() facilitydomain.SeasonalRule {
	return facilitydomain.SeasonalRule{ActiveMonths: datatypes.NewJSONSlice([]int{6, 7, 8}), IsActive: true}
}

func overrideStatus(s facilitydomain.OverrideStatus) *facilitydomain.OverrideStatus {
	return &s
}

func TestResolveFacility_DefaultsOnly(t *testing.T) {
	r := resolveFacility(facilitydomain.Snapshot{Profile: activeProfile()}, newPeriod(2025, 4))

	assert.True(t, decimal.NewFromInt(1000).Equal(r.rate))
	assert.Equal(t, 5, r.frequency)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, r.days)
	assert.Equal(t, facilitydomain.StatusActive, r.status)
	assert.False(t, r.isOverridden)
	assert.False(t, r.isSeasonallyPaused)
	assert.True(t, r.included())
}

func TestResolveFacility_PartialOverrideKeepsDefaults(t *testing.T) {
	snap := facilitydomain.Snapshot{
		Profile: activeProfile(),
		Override: &facilitydomain.MonthlyOverride{
			OverrideRate: decimal.NewNullDecimal(decimal.NewFromInt(1200)),
		},
	}
	r := resolveFacility(snap, newPeriod(2025, 4))

	assert.True(t, decimal.NewFromInt(1200).Equal(r.rate))
	assert.Equal(t, 5, r.frequency)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, r.days)
	assert.Equal(t, facilitydomain.StatusActive, r.status)
	assert.True(t, r.isOverridden)
}

func TestResolveFacility_OverrideFields(t *testing.T) {
	days := datatypes.NewJSONSlice([]int{2, 4})
	snap := facilitydomain.Snapshot{
		Profile: activeProfile(),
		Override: &facilitydomain.MonthlyOverride{
			OverrideFrequency:  lo.ToPtr(2),
			OverrideDaysOfWeek: &days,
		},
	}
	r := resolveFacility(snap, newPeriod(2025, 4))

	assert.Equal(t, 2, r.frequency)
	assert.Equal(t, []int{2, 4}, r.days)
	assert.True(t, decimal.NewFromInt(1000).Equal(r.rate))
}

func TestResolveFacility_OverrideStatusBeatsSeasonal(t *testing.T) {
	// June is in season, but the override pauses it anyway.
	paused := facilitydomain.Snapshot{
		Profile:       activeProfile(),
		SeasonalRules: []facilitydomain.SeasonalRule{summerOnly()},
		Override:      &facilitydomain.MonthlyOverride{OverrideStatus: overrideStatus(facilitydomain.OverrideStatusPaused)},
	}
	r := resolveFacility(paused, newPeriod(2025, 6))
	assert.Equal(t, facilitydomain.StatusPaused, r.status)
	assert.False(t, r.included())
	assert.False(t, r.isSeasonallyPaused)

	// January is out of season, but the override forces service.
	active := facilitydomain.Snapshot{
		Profile:       activeProfile(),
		SeasonalRules: []facilitydomain.SeasonalRule{summerOnly()},
		Override:      &facilitydomain.MonthlyOverride{OverrideStatus: overrideStatus(facilitydomain.OverrideStatusActive)},
	}
	r = resolveFacility(active, newPeriod(2025, 1))
	assert.Equal(t, facilitydomain.StatusActive, r.status)
	assert.False(t, r.isSeasonallyPaused)

	cancelled := facilitydomain.Snapshot{
		Profile:  activeProfile(),
		Override: &facilitydomain.MonthlyOverride{OverrideStatus: overrideStatus(facilitydomain.OverrideStatusCancelled)},
	}
	assert.Equal(t, facilitydomain.StatusClosed, resolveFacility(cancelled, newPeriod(2025, 1)).status)
}

func TestResolveFacility_OverrideActiveRevivesPausedFacility(t *testing.T) {
	profile := activeProfile()
	profile.Status = facilitydomain.StatusPaused
	snap := facilitydomain.Snapshot{
		Profile:  profile,
		Override: &facilitydomain.MonthlyOverride{OverrideStatus: overrideStatus(facilitydomain.OverrideStatusActive)},
	}
	assert.Equal(t, facilitydomain.StatusActive, resolveFacility(snap, newPeriod(2025, 1)).status)
}

func TestResolveFacility_UnknownOverrideStatusIgnored(t *testing.T) {
	snap := facilitydomain.Snapshot{
		Profile:       activeProfile(),
		SeasonalRules: []facilitydomain.SeasonalRule{summerOnly()},
		Override:      &facilitydomain.MonthlyOverride{OverrideStatus: overrideStatus("ON_HOLD")},
	}
	r := resolveFacility(snap, newPeriod(2025, 1))
	assert.Equal(t, facilitydomain.StatusSeasonalPaused, r.status)
	assert.True(t, r.isOverridden)
}

func TestResolveFacility_Seasonal(t *testing.T) {
	snap := facilitydomain.Snapshot{Profile: activeProfile(), SeasonalRules: []facilitydomain.SeasonalRule{summerOnly()}}

	r := resolveFacility(snap, newPeriod(2025, 1))
	assert.Equal(t, facilitydomain.StatusSeasonalPaused, r.status)
	assert.True(t, r.isSeasonallyPaused)
	assert.False(t, r.included())

	r = resolveFacility(snap, newPeriod(2025, 7))
	assert.Equal(t, facilitydomain.StatusActive, r.status)
}

func TestResolveFacility_SeasonalDisabled(t *testing.T) {
	profile := activeProfile()
	profile.SeasonalRulesEnabled = false
	snap := facilitydomain.Snapshot{Profile: profile, SeasonalRules: []facilitydomain.SeasonalRule{summerOnly()}}

	assert.Equal(t, facilitydomain.StatusActive, resolveFacility(snap, newPeriod(2025, 1)).status)
}

func TestResolveFacility_SeasonalOnlyForActiveDefault(t *testing.T) {
	for _, status := range []facilitydomain.Status{
		facilitydomain.StatusPaused,
		facilitydomain.StatusPendingApproval,
		facilitydomain.StatusClosed,
	} {
		profile := activeProfile()
		profile.Status = status
		snap := facilitydomain.Snapshot{Profile: profile, SeasonalRules: []facilitydomain.SeasonalRule{summerOnly()}}

		r := resolveFacility(snap, newPeriod(2025, 1))
		assert.Equal(t, status, r.status)
		assert.False(t, r.isSeasonallyPaused)
	}
}

func TestResolveFacility_ZeroRulesNeverSeasonallyPaused(t *testing.T) {
	snap := facilitydomain.Snapshot{Profile: activeProfile()}
	for month := 1; month <= 12; month++ {
		r := resolveFacility(snap, newPeriod(2025, month))
		assert.False(t, r.isSeasonallyPaused, "month %d", month)
		assert.Equal(t, facilitydomain.StatusActive, r.status)
	}
}

func TestResolveFacility_UnknownStoredStatusIsClosed(t *testing.T) {
	profile := activeProfile()
	profile.Status = "ARCHIVED"
	assert.Equal(t, facilitydomain.StatusClosed, resolveFacility(facilitydomain.Snapshot{Profile: profile}, newPeriod(2025, 1)).status)
}

func TestResolveFacility_DoesNotAliasProfileDays(t *testing.T) {
	snap := facilitydomain.Snapshot{Profile: activeProfile()}
	r := resolveFacility(snap, newPeriod(2025, 1))
	r.days[0] = 6

	assert.Equal(t, 1, snap.Profile.NormalDaysOfWeek[0])
}

func TestSeasonallyDisqualified(t *testing.T) {
	cases := []struct {
		name  string
		rules []facilitydomain.SeasonalRule
		month int
		want  bool
	}{
		{name: "no rules", month: 1, want: false},
		{name: "in active months", rules: []facilitydomain.SeasonalRule{summerOnly()}, month: 7, want: false},
		{name: "outside active months", rules: []facilitydomain.SeasonalRule{summerOnly()}, month: 9, want: true},
		{
			name:  "in paused months",
			rules: []facilitydomain.SeasonalRule{{PausedMonths: datatypes.NewJSONSlice([]int{12}), IsActive: true}},
			month: 12,
			want:  true,
		},
		{
			name:  "both lists on one rule must agree",
			rules: []facilitydomain.SeasonalRule{{ActiveMonths: datatypes.NewJSONSlice([]int{6, 7, 8}), PausedMonths: datatypes.NewJSONSlice([]int{7}), IsActive: true}},
			month: 7,
			want:  true,
		},
		{
			name: "every rule must agree",
			rules: []facilitydomain.SeasonalRule{
				summerOnly(),
				{ActiveMonths: datatypes.NewJSONSlice([]int{1, 2, 3, 4, 5, 6}), IsActive: true},
			},
			month: 7,
			want:  true,
		},
		{
			name:  "inactive rule ignored",
			rules: []facilitydomain.SeasonalRule{{ActiveMonths: datatypes.NewJSONSlice([]int{6}), IsActive: false}},
			month: 1,
			want:  false,
		},
		{
			name:  "rule before its start year ignored",
			rules: []facilitydomain.SeasonalRule{{ActiveMonths: datatypes.NewJSONSlice([]int{6}), EffectiveYearStart: lo.ToPtr(2026), IsActive: true}},
			month: 1,
			want:  false,
		},
		{
			name:  "rule after its end year ignored",
			rules: []facilitydomain.SeasonalRule{{ActiveMonths: datatypes.NewJSONSlice([]int{6}), EffectiveYearEnd: lo.ToPtr(2024), IsActive: true}},
			month: 1,
			want:  false,
		},
		{
			name:  "rule within bounds applies",
			rules: []facilitydomain.SeasonalRule{{ActiveMonths: datatypes.NewJSONSlice([]int{6}), EffectiveYearStart: lo.ToPtr(2025), EffectiveYearEnd: lo.ToPtr(2025), IsActive: true}},
			month: 1,
			want:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, seasonallyDisqualified(tc.rules, newPeriod(2025, tc.month)))
		})
	}
}
