package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tidybill/internal/facility/domain"
	"github.com/smallbiznis/tidybill/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertProfile(ctx context.Context, conn *gorm.DB, p *domain.Profile) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO facility_profiles (
			id, company_id, client_id, name, default_monthly_rate, status, normal_frequency_per_week,
			normal_days_of_week, category, tax_behavior, seasonal_rules_enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.CompanyID,
		p.ClientID,
		p.Name,
		p.DefaultMonthlyRate,
		p.Status,
		p.NormalFrequencyPerWeek,
		p.NormalDaysOfWeek,
		p.Category,
		p.TaxBehavior,
		p.SeasonalRulesEnabled,
		p.CreatedAt,
		p.UpdatedAt,
	).Error
}

func (r *repo) InsertSeasonalRule(ctx context.Context, conn *gorm.DB, rule *domain.SeasonalRule) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO seasonal_rules (
			id, facility_id, active_months, paused_months, effective_year_start, effective_year_end, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID,
		rule.FacilityID,
		rule.ActiveMonths,
		rule.PausedMonths,
		rule.EffectiveYearStart,
		rule.EffectiveYearEnd,
		rule.IsActive,
		rule.CreatedAt,
	).Error
}

func (r *repo) InsertOverride(ctx context.Context, conn *gorm.DB, o *domain.MonthlyOverride) error {
	err := conn.WithContext(ctx).Exec(
		`INSERT INTO monthly_overrides (
			id, facility_id, year, month, override_rate, override_status, override_frequency,
			override_days_of_week, pause_start_day, pause_end_day, override_notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID,
		o.FacilityID,
		o.Year,
		o.Month,
		o.OverrideRate,
		o.OverrideStatus,
		o.OverrideFrequency,
		o.OverrideDaysOfWeek,
		o.PauseStartDay,
		o.PauseEndDay,
		o.OverrideNotes,
		o.CreatedAt,
		o.UpdatedAt,
	).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrDuplicateOverride
	}
	return err
}

func (r *repo) ListSnapshots(ctx context.Context, conn *gorm.DB, companyID, clientID snowflake.ID, year, month int) ([]domain.Snapshot, error) {
	var profiles []domain.Profile
	err := conn.WithContext(ctx).Raw(
		`SELECT id, company_id, client_id, name, default_monthly_rate, status, normal_frequency_per_week,
			normal_days_of_week, category, tax_behavior, seasonal_rules_enabled, created_at, updated_at
		 FROM facility_profiles
		 WHERE company_id = ? AND client_id = ?
		 ORDER BY id ASC`,
		companyID,
		clientID,
	).Scan(&profiles).Error
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return []domain.Snapshot{}, nil
	}

	ids := make([]snowflake.ID, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}

	var rules []domain.SeasonalRule
	err = conn.WithContext(ctx).Raw(
		`SELECT id, facility_id, active_months, paused_months, effective_year_start, effective_year_end, is_active, created_at
		 FROM seasonal_rules
		 WHERE facility_id IN ? AND is_active = ?
		 ORDER BY id ASC`,
		ids,
		true,
	).Scan(&rules).Error
	if err != nil {
		return nil, err
	}

	var overrides []domain.MonthlyOverride
	err = conn.WithContext(ctx).Raw(
		`SELECT id, facility_id, year, month, override_rate, override_status, override_frequency,
			override_days_of_week, pause_start_day, pause_end_day, override_notes, created_at, updated_at
		 FROM monthly_overrides
		 WHERE facility_id IN ? AND year = ? AND month = ?`,
		ids,
		year,
		month,
	).Scan(&overrides).Error
	if err != nil {
		return nil, err
	}

	rulesByFacility := make(map[snowflake.ID][]domain.SeasonalRule, len(profiles))
	for _, rule := range rules {
		rulesByFacility[rule.FacilityID] = append(rulesByFacility[rule.FacilityID], rule)
	}
	overrideByFacility := make(map[snowflake.ID]*domain.MonthlyOverride, len(overrides))
	for i := range overrides {
		overrideByFacility[overrides[i].FacilityID] = &overrides[i]
	}

	snapshots := make([]domain.Snapshot, 0, len(profiles))
	for _, p := range profiles {
		snapshots = append(snapshots, domain.Snapshot{
			Profile:       p,
			SeasonalRules: rulesByFacility[p.ID],
			Override:      overrideByFacility[p.ID],
		})
	}
	return snapshots, nil
}
