package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/tidybill/internal/billing/domain"
	"github.com/smallbiznis/tidybill/internal/cache"
	"github.com/smallbiznis/tidybill/internal/clock"
	"github.com/smallbiznis/tidybill/internal/config"
	"github.com/smallbiznis/tidybill/internal/observability"
	"github.com/smallbiznis/tidybill/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBillingService struct {
	calls   []billingdomain.PreviewRequest
	company string
	err     error
}

func (f *fakeBillingService) Preview(ctx context.Context, req billingdomain.PreviewRequest) (*billingdomain.Preview, error) {
	f.calls = append(f.calls, req)
	if companyID, ok := orgcontext.CompanyIDFromContext(ctx); ok {
		f.company = companyID.String()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &billingdomain.Preview{
		CompanyID: f.company,
		ClientID:  req.ClientID,
		Year:      req.Year,
		Month:     req.Month,
		Subtotal:  decimal.RequireFromString("1000.00"),
		TaxAmount: decimal.RequireFromString("82.50"),
		Total:     decimal.RequireFromString("1082.50"),
	}, nil
}

func newTestServer(t *testing.T, billing billingdomain.Service) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	return NewServer(ServerParams{
		Gin:          NewEngine(observability.Config{}, nil),
		Cfg:          config.Config{Environment: "test"},
		Clock:        clock.NewFakeClock(time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)),
		BillingSvc:   billing,
		BillingCfg:   config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()),
		PreviewCache: cache.NewMemoryPreviewCache(),
	})
}

func doRequest(s *Server, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestGetBillingPreview_RequiresCompany(t *testing.T) {
	billing := &fakeBillingService{}
	s := newTestServer(t, billing)

	w := doRequest(s, "/api/clients/42/billing-preview", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, billing.calls)
}

func TestGetBillingPreview_DefaultsToCurrentMonthAndCaches(t *testing.T) {
	billing := &fakeBillingService{}
	s := newTestServer(t, billing)
	headers := map[string]string{HeaderCompany: "1001"}

	w := doRequest(s, "/api/clients/42/billing-preview", headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "miss", w.Header().Get(headerCache))

	require.Len(t, billing.calls, 1)
	assert.Equal(t, billingdomain.PreviewRequest{ClientID: "42", Year: 2025, Month: 3}, billing.calls[0])
	assert.Equal(t, "1001", billing.company)

	var body struct {
		Preview billingdomain.Preview `json:"preview"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "1082.5", body.Preview.Total.String())

	w = doRequest(s, "/api/clients/42/billing-preview?year=2025&month=3", headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hit", w.Header().Get(headerCache))
	assert.Len(t, billing.calls, 1)

	headers["Cache-Control"] = "no-cache"
	w = doRequest(s, "/api/clients/42/billing-preview", headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, billing.calls, 2)
}

func TestGetBillingPreview_CacheIsTenantScoped(t *testing.T) {
	billing := &fakeBillingService{}
	s := newTestServer(t, billing)

	doRequest(s, "/api/clients/42/billing-preview", map[string]string{HeaderCompany: "1001"})
	w := doRequest(s, "/api/clients/42/billing-preview", map[string]string{HeaderCompany: "2002"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "miss", w.Header().Get(headerCache))
	assert.Len(t, billing.calls, 2)
}

func TestGetBillingPreview_BadQuery(t *testing.T) {
	s := newTestServer(t, &fakeBillingService{})

	w := doRequest(s, "/api/clients/42/billing-preview?month=march", map[string]string{HeaderCompany: "1001"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	payload := decodeError(t, w)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "month", payload.Errors[0].Field)
}

func TestGetBillingPreview_ServiceErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		wantType string
	}{
		{"not found", billingdomain.ErrClientNotFound, http.StatusNotFound, "not_found"},
		{"invalid month", billingdomain.ErrInvalidMonth, http.StatusBadRequest, "validation_error"},
		{"invalid client", billingdomain.ErrInvalidClient, http.StatusBadRequest, "validation_error"},
		{"storage", errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, &fakeBillingService{err: tc.err})

			w := doRequest(s, "/api/clients/42/billing-preview?year=2025&month=13", map[string]string{HeaderCompany: "1001"})

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.wantType, decodeError(t, w).Type)
		})
	}
}

func TestHealthAndFallback(t *testing.T) {
	s := newTestServer(t, &fakeBillingService{})

	w := doRequest(s, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Type)
}

func TestMapError(t *testing.T) {
	status, payload := mapError(ErrRateLimited)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", payload.Type)

	status, payload = mapError(billingdomain.ErrInvalidYear)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "year", payload.Errors[0].Field)

	status, _ = mapError(nil)
	assert.Equal(t, http.StatusInternalServerError, status)

	typ, code := classifyErrorForLog(billingdomain.ErrClientNotFound)
	assert.Equal(t, "not_found", typ)
	assert.Equal(t, "Not Found", code)
}
