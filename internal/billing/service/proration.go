package service

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type proration struct {
	scheduledDays int
	activeDays    int
	isProRated    bool
	total         decimal.Decimal
}

// prorate scales rate by scheduled service days, not calendar days: a
// facility serviced only on Mondays loses a full week's share for one
// paused Monday. Zero scheduled days bill nothing.
func prorate(rate decimal.Decimal, days []int, p period, pauseStart, pauseEnd int) proration {
	var scheduled, paused int
	for day := 1; day <= p.daysIn(); day++ {
		if !lo.Contains(days, p.weekday(day)) {
			continue
		}
		scheduled++
		if day >= pauseStart && day <= pauseEnd {
			paused++
		}
	}

	result := proration{
		scheduledDays: scheduled,
		activeDays:    scheduled - paused,
		isProRated:    scheduled > 0 && scheduled-paused < scheduled,
		total:         decimal.Zero,
	}
	if scheduled == 0 {
		return result
	}
	result.total = round2(rate.Mul(decimal.NewFromInt(int64(result.activeDays))).Div(decimal.NewFromInt(int64(scheduled))))
	return result
}
