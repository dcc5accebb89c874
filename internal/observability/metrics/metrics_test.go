package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("company_id", "123"),
		attribute.String("client_id", "456"),
		attribute.String("outcome", "ok"),
	)
	if len(attrs) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(attrs))
	}
	if attrs[0].Key != "outcome" {
		t.Fatalf("expected outcome to be retained, got %s", attrs[0].Key)
	}
}

func TestMetricsRecordOnNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "tidybill"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	ctx := context.Background()
	m.RecordPreview(ctx, "ok", 15*time.Millisecond)
	m.RecordFacilityStatus(ctx, "ACTIVE")
	m.RecordComparisonUnavailable(ctx, "load_failed")

	var nilMetrics *Metrics
	nilMetrics.RecordPreview(ctx, "ok", time.Millisecond)
}

func TestHTTPMetricsGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m, err := NewHTTPMetricsWithRegisterer(registry, Config{ServiceName: "tidybill"})
	if err != nil {
		t.Fatalf("register http metrics: %v", err)
	}

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := testutil.ToFloat64(m.requests.WithLabelValues("/health", http.MethodGet, "200")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
}
