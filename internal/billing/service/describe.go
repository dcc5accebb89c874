package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/tidybill/internal/billing/domain"
	facilitydomain "github.com/smallbiznis/tidybill/internal/facility/domain"
)

const uncategorizedKey = "uncategorized"

func newExplanation() billingdomain.Explanation {
	return billingdomain.Explanation{
		Active:           []string{},
		Paused:           []string{},
		SeasonallyPaused: []string{},
		Pending:          []string{},
		Closed:           []string{},
		Overrides:        []string{},
		Categories:       []billingdomain.CategoryBreakdown{},
	}
}

// explain places each facility in exactly one status list and, independently,
// describes any override that set at least one field.
func explain(results []facilityResult, symbol string) billingdomain.Explanation {
	exp := newExplanation()
	categories := newCategoryIndex()

	for _, r := range results {
		name := r.item.FacilityName
		switch r.item.EffectiveStatus {
		case facilitydomain.StatusActive:
			exp.Active = append(exp.Active, name)
		case facilitydomain.StatusPaused:
			exp.Paused = append(exp.Paused, name)
		case facilitydomain.StatusSeasonalPaused:
			exp.SeasonallyPaused = append(exp.SeasonallyPaused, name)
		case facilitydomain.StatusPendingApproval:
			exp.Pending = append(exp.Pending, name)
		default:
			exp.Closed = append(exp.Closed, name)
		}

		if desc, ok := describeOverride(name, r.override, symbol); ok {
			exp.Overrides = append(exp.Overrides, desc)
		}
		if r.item.IncludedInTotal {
			categories.add(r.item)
		}
	}

	exp.Categories = categories.list()
	return exp
}

func describeOverride(name string, o *facilitydomain.MonthlyOverride, symbol string) (string, bool) {
	if o == nil {
		return "", false
	}

	var changes []string
	if o.OverrideRate.Valid {
		changes = append(changes, "rate → "+formatMoney(symbol, o.OverrideRate.Decimal))
	}
	if o.OverrideStatus != nil {
		changes = append(changes, "status → "+string(*o.OverrideStatus))
	}
	if o.OverrideFrequency != nil {
		changes = append(changes, fmt.Sprintf("frequency → %dx/week", *o.OverrideFrequency))
	}
	if o.OverrideDaysOfWeek != nil {
		changes = append(changes, "days → "+formatWeekdays(*o.OverrideDaysOfWeek))
	}
	if o.HasPauseRange() {
		changes = append(changes, fmt.Sprintf("paused %d–%d", *o.PauseStartDay, *o.PauseEndDay))
	}
	if len(changes) == 0 {
		return "", false
	}

	desc := name + ": " + strings.Join(changes, ", ")
	if o.OverrideNotes != nil {
		if note := strings.TrimSpace(*o.OverrideNotes); note != "" {
			desc += " (" + note + ")"
		}
	}
	return desc, true
}

func formatWeekdays(days []int) string {
	if len(days) == 0 {
		return "none"
	}
	names := make([]string, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			continue
		}
		names = append(names, time.Weekday(d).String()[:3])
	}
	return strings.Join(names, "/")
}

func describeDelta(symbol string, delta decimal.Decimal, previous period) *string {
	if delta.IsZero() {
		return nil
	}
	direction := "increase"
	if delta.IsNegative() {
		direction = "decrease"
	}
	desc := fmt.Sprintf("%s %s from %s", formatMoney(symbol, delta.Abs()), direction, previous.month.String())
	return &desc
}

type categoryIndex struct {
	order []string
	byKey map[string]*billingdomain.CategoryBreakdown
}

func newCategoryIndex() *categoryIndex {
	return &categoryIndex{byKey: map[string]*billingdomain.CategoryBreakdown{}}
}

func (c *categoryIndex) add(item billingdomain.LineItem) {
	label := strings.TrimSpace(item.Category)
	key := slug.Make(label)
	if key == "" {
		key, label = uncategorizedKey, "Uncategorized"
	}

	entry, ok := c.byKey[key]
	if !ok {
		entry = &billingdomain.CategoryBreakdown{Key: key, Label: label, Subtotal: decimal.Zero}
		c.byKey[key] = entry
		c.order = append(c.order, key)
	}
	entry.FacilityCount++
	entry.Subtotal = round2(entry.Subtotal.Add(item.LineItemTotal))
}

func (c *categoryIndex) list() []billingdomain.CategoryBreakdown {
	out := make([]billingdomain.CategoryBreakdown, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, *c.byKey[key])
	}
	return out
}
