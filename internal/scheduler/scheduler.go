package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/robfig/cron/v3"
	billingdomain "github.com/smallbiznis/tidybill/internal/billing/domain"
	"github.com/smallbiznis/tidybill/internal/cache"
	clientdomain "github.com/smallbiznis/tidybill/internal/client/domain"
	"github.com/smallbiznis/tidybill/internal/clock"
	obsmetrics "github.com/smallbiznis/tidybill/internal/observability/metrics"
	"github.com/smallbiznis/tidybill/internal/orgcontext"
	"github.com/smallbiznis/tidybill/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	jobWarmPreviews = "warm_previews"
	warmLockKey     = "tidybill:lock:scheduler:warm_previews"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type clientRef = clientdomain.Ref

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	GenID   *snowflake.Node
	Clients clientdomain.Repository
	Billing billingdomain.Service
	Cache   cache.PreviewCache
	Locker  *ratelimit.Locker `optional:"true"`
	Config  Config            `optional:"true"`
}

// Scheduler precomputes the current month's preview for every client so the
// first dashboard load of a new month is served from cache.
type Scheduler struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     Config
	clock   clock.Clock
	genID   *snowflake.Node
	clients clientdomain.Repository
	billing billingdomain.Service
	cache   cache.PreviewCache
	locker  *ratelimit.Locker
	metrics *obsmetrics.SchedulerMetrics

	mu   sync.Mutex
	cron *cron.Cron
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.GenID == nil || p.Clients == nil || p.Billing == nil || p.Cache == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &Scheduler{
		db:      p.DB,
		log:     p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:     cfg,
		clock:   p.Clock,
		genID:   p.GenID,
		clients: p.Clients,
		billing: p.Billing,
		cache:   p.Cache,
		locker:  p.Locker,
		metrics: obsmetrics.Scheduler(),
	}, nil
}

// Start registers the warm-up job on its cron schedule.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(s.cfg.Schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.Start()
	s.cron = c

	s.log.Info("scheduler started", zap.String("schedule", s.cfg.Schedule))
	return nil
}

// Stop waits for a running job to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce warms the current month unless another replica holds the job lock.
func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, jobWarmPreviews, s.cfg.Timeout, s.WarmPreviewsJob)
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ran, err := s.locker.WithLock(ctx, warmLockKey, s.cfg.LockTTL, func(ctx context.Context) error {
		s.metrics.IncJobRun(name)
		return fn(ctx)
	})
	if errors.Is(err, ratelimit.ErrLockBackend) {
		err = fmt.Errorf("%w: %v", obsmetrics.ErrLockUnavailable, err)
	}
	if !ran && err == nil {
		s.metrics.IncJobSkipped(name)
		s.log.Info("job skipped, lock held elsewhere", zap.String("job", name))
		return nil
	}
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		s.metrics.IncJobTimeout(name)
	}
	s.metrics.IncJobError(name, err)
	if isTimeout {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// WarmPreviewsJob computes and caches the current month's preview for every
// client. A failing client is logged and skipped.
func (s *Scheduler) WarmPreviewsJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, jobWarmPreviews, s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	now := s.clock.Now()
	year, month := now.Year(), int(now.Month())

	var after snowflake.ID
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		refs, err := s.clients.ListRefs(ctx, s.db.WithContext(ctx), after, s.cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			return nil
		}

		for _, ref := range refs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.warmClient(ctx, ref, year, month); err != nil {
				s.metrics.IncWarmed(obsmetrics.WarmupOutcomeFailed)
				s.logSchedulerError(ctx, run, "scheduler.preview.failed", ref, err)
				continue
			}
			s.metrics.IncWarmed(obsmetrics.WarmupOutcomeComputed)
			run.AddProcessed(1)
		}

		after = refs[len(refs)-1].ClientID
		if len(refs) < s.cfg.BatchSize {
			return nil
		}
	}
}

func (s *Scheduler) warmClient(ctx context.Context, ref clientRef, year, month int) error {
	ctx = orgcontext.WithCompanyID(ctx, int64(ref.CompanyID))
	preview, err := s.billing.Preview(ctx, billingdomain.PreviewRequest{
		ClientID: ref.ClientID.String(),
		Year:     year,
		Month:    month,
	})
	if err != nil {
		return err
	}

	s.cache.Set(ctx, cache.PreviewKey{
		CompanyID: ref.CompanyID.String(),
		ClientID:  ref.ClientID.String(),
		Year:      year,
		Month:     month,
	}, preview, s.cfg.CacheTTL)
	return nil
}
