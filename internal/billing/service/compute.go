package service

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/tidybill/internal/billing/domain"
	facilitydomain "github.com/smallbiznis/tidybill/internal/facility/domain"
	taxdomain "github.com/smallbiznis/tidybill/internal/tax/domain"
)

type facilityResult struct {
	item     billingdomain.LineItem
	override *facilitydomain.MonthlyOverride
}

// computeMonth prices every facility independently, preserving load order.
func computeMonth(snapshots []facilitydomain.Snapshot, policy taxdomain.ClientTaxPolicy, p period, calc taxdomain.Calculator) []facilityResult {
	results := make([]facilityResult, 0, len(snapshots))
	for _, snap := range snapshots {
		results = append(results, facilityResult{
			item:     priceFacility(snap, policy, p, calc),
			override: snap.Override,
		})
	}
	return results
}

func priceFacility(snap facilitydomain.Snapshot, policy taxdomain.ClientTaxPolicy, p period, calc taxdomain.Calculator) billingdomain.LineItem {
	r := resolveFacility(snap, p)
	profile := snap.Profile

	item := billingdomain.LineItem{
		FacilityID:          profile.ID.String(),
		FacilityName:        profile.Name,
		Category:            profile.Category,
		EffectiveRate:       r.rate,
		EffectiveFrequency:  r.frequency,
		EffectiveDaysOfWeek: r.days,
		EffectiveStatus:     r.status,
		TaxBehavior:         profile.TaxBehavior.Normalize(),
		IsOverridden:        r.isOverridden,
		IsSeasonallyPaused:  r.isSeasonallyPaused,
		IncludedInTotal:     r.included(),
		LineItemTotal:       decimal.Zero,
		LineItemTax:         decimal.Zero,
	}
	if item.EffectiveDaysOfWeek == nil {
		item.EffectiveDaysOfWeek = []int{}
	}
	if !item.IncludedInTotal {
		return item
	}

	item.LineItemTotal = r.rate
	if snap.Override.HasPauseRange() {
		start, end := *snap.Override.PauseStartDay, *snap.Override.PauseEndDay
		pr := prorate(r.rate, r.days, p, start, end)
		item.LineItemTotal = pr.total
		item.IsProRated = pr.isProRated
		item.ScheduledDays = lo.ToPtr(pr.scheduledDays)
		item.ActiveDays = lo.ToPtr(pr.activeDays)
		item.PauseStartDay = lo.ToPtr(start)
		item.PauseEndDay = lo.ToPtr(end)
	}

	item.LineItemTax = calc.LineTax(taxdomain.LineTaxInput{
		Amount:          item.LineItemTotal,
		Behavior:        item.TaxBehavior,
		IncludedInTotal: item.IncludedInTotal,
		Policy:          policy,
	})
	return item
}
