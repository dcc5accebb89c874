package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/tidybill/internal/billing/domain"
	clientdomain "github.com/smallbiznis/tidybill/internal/client/domain"
	"github.com/smallbiznis/tidybill/internal/clock"
	"github.com/smallbiznis/tidybill/internal/config"
	facilitydomain "github.com/smallbiznis/tidybill/internal/facility/domain"
	"github.com/smallbiznis/tidybill/internal/observability/metrics"
	"github.com/smallbiznis/tidybill/internal/orgcontext"
	taxdomain "github.com/smallbiznis/tidybill/internal/tax/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	previewOutcomeOK       = "ok"
	previewOutcomeInvalid  = "invalid"
	previewOutcomeNotFound = "not_found"
	previewOutcomeError    = "error"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Clients    clientdomain.Repository
	Facilities facilitydomain.Repository
	Tax        taxdomain.Calculator
	Config     *config.BillingConfigHolder
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	clients    clientdomain.Repository
	facilities facilitydomain.Repository
	tax        taxdomain.Calculator
	cfg        *config.BillingConfigHolder
	metrics    *metrics.Metrics
}

func NewService(p Params) billingdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("billing.service"),
		clock:      p.Clock,
		clients:    p.Clients,
		facilities: p.Facilities,
		tax:        p.Tax,
		cfg:        p.Config,
		metrics:    p.Metrics,
	}
}

func (s *Service) Preview(ctx context.Context, req billingdomain.PreviewRequest) (*billingdomain.Preview, error) {
	ctx, span := otel.Tracer("tidybill/billing").Start(ctx, "billing.preview")
	defer span.End()

	start := time.Now()
	preview, err := s.preview(ctx, req)
	s.metrics.RecordPreview(ctx, previewOutcome(err), time.Since(start))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("billing.year", preview.Year),
		attribute.Int("billing.month", preview.Month),
		attribute.Int("billing.facility_count", preview.TotalFacilityCount),
	)
	return preview, nil
}

func (s *Service) preview(ctx context.Context, req billingdomain.PreviewRequest) (*billingdomain.Preview, error) {
	companyID, ok := orgcontext.CompanyIDFromContext(ctx)
	if !ok {
		return nil, billingdomain.ErrInvalidCompany
	}
	clientID, err := parseID(req.ClientID)
	if err != nil {
		return nil, billingdomain.ErrInvalidClient
	}
	p, err := validatePeriod(req.Year, req.Month)
	if err != nil {
		return nil, err
	}

	snap, err := s.loadMonth(ctx, companyID, clientID, p)
	if err != nil {
		return nil, err
	}

	cfg := s.cfg.Get()
	results := computeMonth(snap.facilities, snap.client.TaxPolicy(), p, s.tax)
	items := lineItems(results)
	sums := sumLineItems(items)

	preview := &billingdomain.Preview{
		CompanyID:          companyID.String(),
		ClientID:           clientID.String(),
		ClientName:         snap.client.Name,
		Year:               p.year,
		Month:              int(p.month),
		BillingDisplayMode: snap.client.BillingDisplayMode,
		LineItems:          items,
		Subtotal:           sums.subtotal,
		TaxAmount:          sums.taxAmount,
		Total:              sums.total,
		Explanation:        explain(results, cfg.CurrencySymbol),
		TotalFacilityCount: len(items),
		GeneratedAt:        s.clock.Now(),
	}
	for _, item := range items {
		if item.IncludedInTotal {
			preview.ActiveFacilityCount++
		}
		s.metrics.RecordFacilityStatus(ctx, string(item.EffectiveStatus))
		s.log.Debug("facility resolved",
			zap.String("facility_id", item.FacilityID),
			zap.String("effective_status", string(item.EffectiveStatus)),
			zap.Bool("is_overridden", item.IsOverridden),
			zap.Bool("is_pro_rated", item.IsProRated),
			zap.String("line_item_total", item.LineItemTotal.StringFixed(2)),
		)
	}
	preview.ExcludedFacilityCount = preview.TotalFacilityCount - preview.ActiveFacilityCount

	if cfg.CompareEnabled {
		cmp := s.compare(ctx, snap.client, p, sums.total, cfg.CurrencySymbol)
		preview.PreviousMonthTotal = cmp.previousTotal
		preview.DeltaAmount = cmp.delta
		preview.Explanation.Delta = cmp.description
	} else {
		s.metrics.RecordComparisonUnavailable(ctx, comparisonReasonDisabled)
	}

	s.log.Info("billing preview computed",
		zap.String("company_id", preview.CompanyID),
		zap.String("client_id", preview.ClientID),
		zap.Int("year", preview.Year),
		zap.Int("month", preview.Month),
		zap.Int("facilities", preview.TotalFacilityCount),
		zap.String("total", preview.Total.StringFixed(2)),
	)
	return preview, nil
}

func validatePeriod(year, month int) (period, error) {
	if month < 1 || month > 12 {
		return period{}, billingdomain.ErrInvalidMonth
	}
	if year < 1 || year > 9999 {
		return period{}, billingdomain.ErrInvalidYear
	}
	return newPeriod(year, month), nil
}

func previewOutcome(err error) string {
	switch {
	case err == nil:
		return previewOutcomeOK
	case errors.Is(err, billingdomain.ErrClientNotFound):
		return previewOutcomeNotFound
	case errors.Is(err, billingdomain.ErrInvalidCompany),
		errors.Is(err, billingdomain.ErrInvalidClient),
		errors.Is(err, billingdomain.ErrInvalidYear),
		errors.Is(err, billingdomain.ErrInvalidMonth):
		return previewOutcomeInvalid
	default:
		return previewOutcomeError
	}
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, billingdomain.ErrInvalidClient
	}
	return id, nil
}
