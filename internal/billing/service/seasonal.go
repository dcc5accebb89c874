package service

import (
	"github.com/samber/lo"
	facilitydomain "github.com/smallbiznis/tidybill/internal/facility/domain"
)

// seasonallyDisqualified reports whether any active, year-applicable rule
// rules the month out. Every such rule must agree the month is active.
// Zero rules never disqualify.
func seasonallyDisqualified(rules []facilitydomain.SeasonalRule, p period) bool {
	month := int(p.month)
	for _, rule := range rules {
		if !rule.IsActive || !rule.AppliesToYear(p.year) {
			continue
		}
		if len(rule.ActiveMonths) > 0 && !lo.Contains(rule.ActiveMonths, month) {
			return true
		}
		if len(rule.PausedMonths) > 0 && lo.Contains(rule.PausedMonths, month) {
			return true
		}
	}
	return false
}
