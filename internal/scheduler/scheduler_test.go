package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/tidybill/internal/billing/domain"
	"github.com/smallbiznis/tidybill/internal/cache"
	clientdomain "github.com/smallbiznis/tidybill/internal/client/domain"
	"github.com/smallbiznis/tidybill/internal/clock"
	"github.com/smallbiznis/tidybill/internal/orgcontext"
	"github.com/smallbiznis/tidybill/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubClients struct {
	refs []clientdomain.Ref
	err  error
}

func (s *stubClients) Insert(context.Context, *gorm.DB, *clientdomain.Client) error { return nil }

func (s *stubClients) FindByID(context.Context, *gorm.DB, snowflake.ID, snowflake.ID) (*clientdomain.Client, error) {
	return nil, nil
}

func (s *stubClients) ListRefs(_ context.Context, _ *gorm.DB, afterID snowflake.ID, limit int) ([]clientdomain.Ref, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]clientdomain.Ref, 0, limit)
	for _, ref := range s.refs {
		if ref.ClientID <= afterID {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, ref)
	}
	return out, nil
}

type stubBilling struct {
	mu      sync.Mutex
	calls   []billingdomain.PreviewRequest
	tenants []snowflake.ID
	failFor string
	block   bool
}

func (s *stubBilling) Preview(ctx context.Context, req billingdomain.PreviewRequest) (*billingdomain.Preview, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	companyID, _ := orgcontext.CompanyIDFromContext(ctx)

	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.tenants = append(s.tenants, companyID)
	s.mu.Unlock()

	if req.ClientID == s.failFor {
		return nil, errors.New("boom")
	}
	return &billingdomain.Preview{
		CompanyID: companyID.String(),
		ClientID:  req.ClientID,
		Year:      req.Year,
		Month:     req.Month,
		Total:     decimal.RequireFromString("1082.50"),
	}, nil
}

func newTestScheduler(t *testing.T, clients clientdomain.Repository, billing billingdomain.Service, previews cache.PreviewCache, cfg Config) *Scheduler {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	s, err := New(Params{
		DB:      dbtest.Open(t),
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(time.Date(2025, time.April, 1, 3, 0, 0, 0, time.UTC)),
		GenID:   node,
		Clients: clients,
		Billing: billing,
		Cache:   previews,
		Config:  cfg,
	})
	require.NoError(t, err)
	return s
}

func refs(pairs ...int64) []clientdomain.Ref {
	out := make([]clientdomain.Ref, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, clientdomain.Ref{CompanyID: snowflake.ID(pairs[i]), ClientID: snowflake.ID(pairs[i+1])})
	}
	return out
}

func TestWarmPreviewsJob_CachesEveryClientAcrossPages(t *testing.T) {
	clients := &stubClients{refs: refs(1001, 1, 1001, 2, 2002, 3, 2002, 4, 3003, 5)}
	billing := &stubBilling{}
	previews := cache.NewMemoryPreviewCache()
	s := newTestScheduler(t, clients, billing, previews, Config{BatchSize: 2})

	require.NoError(t, s.RunOnce(context.Background()))

	require.Len(t, billing.calls, 5)
	for _, call := range billing.calls {
		assert.Equal(t, 2025, call.Year)
		assert.Equal(t, 4, call.Month)
	}
	assert.Equal(t, []snowflake.ID{1001, 1001, 2002, 2002, 3003}, billing.tenants)

	got, ok := previews.Get(context.Background(), cache.PreviewKey{CompanyID: "2002", ClientID: "4", Year: 2025, Month: 4})
	require.True(t, ok)
	assert.Equal(t, "1082.5", got.Total.String())
}

func TestWarmPreviewsJob_SkipsFailingClient(t *testing.T) {
	clients := &stubClients{refs: refs(1001, 1, 1001, 2, 1001, 3)}
	billing := &stubBilling{failFor: "2"}
	previews := cache.NewMemoryPreviewCache()
	s := newTestScheduler(t, clients, billing, previews, Config{})

	require.NoError(t, s.RunOnce(context.Background()))

	assert.Len(t, billing.calls, 3)
	_, ok := previews.Get(context.Background(), cache.PreviewKey{CompanyID: "1001", ClientID: "2", Year: 2025, Month: 4})
	assert.False(t, ok)
	_, ok = previews.Get(context.Background(), cache.PreviewKey{CompanyID: "1001", ClientID: "3", Year: 2025, Month: 4})
	assert.True(t, ok)
}

func TestRunOnce_ListErrorIsReturned(t *testing.T) {
	clients := &stubClients{err: errors.New("db down")}
	s := newTestScheduler(t, clients, &stubBilling{}, cache.NewMemoryPreviewCache(), Config{})

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), jobWarmPreviews)
}

func TestRunOnce_TimeoutIsSoft(t *testing.T) {
	clients := &stubClients{refs: refs(1001, 1)}
	s := newTestScheduler(t, clients, &stubBilling{block: true}, cache.NewMemoryPreviewCache(), Config{Timeout: 20 * time.Millisecond})

	assert.NoError(t, s.RunOnce(context.Background()))
}

func TestNew_RejectsInvalidInput(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	_, err = New(Params{
		DB:      dbtest.Open(t),
		Log:     zap.NewNop(),
		Clock:   clock.SystemClock{},
		GenID:   node,
		Clients: &stubClients{},
		Billing: &stubBilling{},
		Cache:   cache.NewMemoryPreviewCache(),
		Config:  Config{Schedule: "whenever"},
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler(t, &stubClients{}, &stubBilling{}, cache.NewMemoryPreviewCache(), Config{})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
	assert.NoError(t, s.Stop(ctx))
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{Timeout: 2 * time.Minute}.withDefaults()

	assert.Equal(t, DefaultConfig().Schedule, cfg.Schedule)
	assert.Equal(t, 3*time.Minute, cfg.LockTTL)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}
