package service

import "time"

type period struct {
	year  int
	month time.Month
}

func newPeriod(year, month int) period {
	return period{year: year, month: time.Month(month)}
}

func (p period) daysIn() int {
	return time.Date(p.year, p.month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (p period) weekday(day int) int {
	return int(time.Date(p.year, p.month, day, 0, 0, 0, 0, time.UTC).Weekday())
}

// previous wraps January to December of the prior year.
func (p period) previous() period {
	if p.month == time.January {
		return period{year: p.year - 1, month: time.December}
	}
	return period{year: p.year, month: p.month - 1}
}
