package service

import (
	"context"

	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/tidybill/internal/client/domain"
	"go.uber.org/zap"
)

const (
	comparisonReasonDisabled  = "disabled"
	comparisonReasonLoadError = "load_error"
	comparisonReasonCanceled  = "canceled"
)

type comparison struct {
	previousTotal *decimal.Decimal
	delta         *decimal.Decimal
	description   *string
}

// compare prices the previous month with the same rules. It is best effort:
// any failure yields an empty comparison and never fails the preview.
func (s *Service) compare(ctx context.Context, client clientdomain.Client, current period, currentTotal decimal.Decimal, symbol string) comparison {
	previous := current.previous()

	if err := ctx.Err(); err != nil {
		s.comparisonUnavailable(ctx, client, previous, comparisonReasonCanceled, err)
		return comparison{}
	}

	facilities, err := s.loadFacilities(ctx, client.CompanyID, client.ID, previous)
	if err != nil {
		s.comparisonUnavailable(ctx, client, previous, comparisonReasonLoadError, err)
		return comparison{}
	}

	results := computeMonth(facilities, client.TaxPolicy(), previous, s.tax)
	previousTotal := sumLineItems(lineItems(results)).total
	delta := round2(currentTotal.Sub(previousTotal))

	return comparison{
		previousTotal: &previousTotal,
		delta:         &delta,
		description:   describeDelta(symbol, delta, previous),
	}
}

func (s *Service) comparisonUnavailable(ctx context.Context, client clientdomain.Client, previous period, reason string, err error) {
	s.log.Warn("previous month comparison unavailable",
		zap.String("client_id", client.ID.String()),
		zap.Int("year", previous.year),
		zap.Int("month", int(previous.month)),
		zap.String("reason", reason),
		zap.Error(err),
	)
	s.metrics.RecordComparisonUnavailable(ctx, reason)
}
