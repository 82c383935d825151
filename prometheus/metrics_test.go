package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/items/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "nope")
	})

	for _, path := range []string{"/items/1", "/items/2", "/fail"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		e.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(m.HttpRequestsTotal.WithLabelValues("GET", "/items/:id", "200")); got != 2 {
		t.Fatalf("expected 2 item requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.StatusCategoryTotal.WithLabelValues("4xx", "GET", "/fail")); got != 1 {
		t.Fatalf("expected one 4xx, got %v", got)
	}
}

func TestStockMetrics(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordStockAdjustment("reduce", "applied")
	m.RecordStockAdjustment("reduce", "applied")
	m.RecordStockAdjustment("restore", "not_found")
	m.UpdateProductInventory("k1", "Rice", "kg", 9)
	m.RecordLowStockAlert("k1")

	if got := testutil.ToFloat64(m.StockAdjustmentsCounter.WithLabelValues("reduce", "applied")); got != 2 {
		t.Fatalf("expected 2 applied reductions, got %v", got)
	}
	if got := testutil.ToFloat64(m.ProductInventoryGauge.WithLabelValues("k1", "Rice", "kg")); got != 9 {
		t.Fatalf("expected gauge 9, got %v", got)
	}
	if got := testutil.ToFloat64(m.LowStockAlertsCounter.WithLabelValues("k1")); got != 1 {
		t.Fatalf("expected 1 alert, got %v", got)
	}
}

func TestHandlerServesOwnRegistry(t *testing.T) {
	m := NewMetrics("scoped", prometheus.NewRegistry())
	m.RecordCatalogOperation("created")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `scoped_catalog_operations_total{operation="created"} 1`) {
		t.Fatalf("metric missing from exposition:\n%s", rec.Body.String())
	}
}
