package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("provider", "mollie"),
		attribute.String("customer_email", "x@example.com"),
		attribute.String("currency", "EUR"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "customer_email" {
			t.Fatalf("expected customer_email to be dropped")
		}
	}
}

func TestHTTPMetricsCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	metrics := newHTTPMetrics(registry, Config{
		ServiceName: "faktur",
		Environment: "test",
	})

	router := gin.New()
	router.Use(metrics.GinMiddleware())
	router.GET("/v1/invoices/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/v1/invoices/abc", nil)
		router.ServeHTTP(recorder, request)
	}

	got := testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("GET", "/v1/invoices/:id", "200"))
	if got != 3 {
		t.Fatalf("expected request count 3, got %v", got)
	}
}
