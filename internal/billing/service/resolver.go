package service

import (
	"github.com/shopspring/decimal"
	facilitydomain "github.com/smallbiznis/tidybill/internal/facility/domain"
)

type resolution struct {
	rate               decimal.Decimal
	frequency          int
	days               []int
	status             facilitydomain.Status
	isOverridden       bool
	isSeasonallyPaused bool
}

func (r resolution) included() bool {
	return r.status == facilitydomain.StatusActive
}

// resolveStep refines the resolution and returns true once status is final.
type resolveStep func(snap *facilitydomain.Snapshot, p period, r *resolution) bool

// Order is precedence: monthly override, then seasonal rules, then defaults.
var resolutionChain = []resolveStep{
	applyDefaults,
	applyOverrideFields,
	applyOverrideStatus,
	applySeasonalRules,
}

func resolveFacility(snap facilitydomain.Snapshot, p period) resolution {
	var r resolution
	for _, step := range resolutionChain {
		if step(&snap, p, &r) {
			break
		}
	}
	return r
}

func applyDefaults(snap *facilitydomain.Snapshot, _ period, r *resolution) bool {
	profile := snap.Profile
	r.rate = profile.DefaultMonthlyRate
	r.frequency = profile.NormalFrequencyPerWeek
	r.days = append([]int(nil), profile.NormalDaysOfWeek...)
	r.status = profile.Status.Normalize()
	return false
}

// applyOverrideFields copies only the fields the override actually sets.
func applyOverrideFields(snap *facilitydomain.Snapshot, _ period, r *resolution) bool {
	o := snap.Override
	if o == nil {
		return false
	}
	r.isOverridden = true
	if o.OverrideRate.Valid {
		r.rate = o.OverrideRate.Decimal
	}
	if o.OverrideFrequency != nil {
		r.frequency = *o.OverrideFrequency
	}
	if o.OverrideDaysOfWeek != nil {
		r.days = append([]int(nil), (*o.OverrideDaysOfWeek)...)
	}
	return false
}

// applyOverrideStatus wins outright; seasonal rules are not consulted.
func applyOverrideStatus(snap *facilitydomain.Snapshot, _ period, r *resolution) bool {
	o := snap.Override
	if o == nil || o.OverrideStatus == nil {
		return false
	}
	status, ok := o.OverrideStatus.FacilityStatus()
	if !ok {
		return false
	}
	r.status = status
	return true
}

func applySeasonalRules(snap *facilitydomain.Snapshot, p period, r *resolution) bool {
	if !snap.Profile.SeasonalRulesEnabled || r.status != facilitydomain.StatusActive {
		return true
	}
	if seasonallyDisqualified(snap.SeasonalRules, p) {
		r.status = facilitydomain.StatusSeasonalPaused
		r.isSeasonallyPaused = true
	}
	return true
}
