package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors
type Metrics struct {
	gatherer prometheus.Gatherer

	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec
	StatusCategoryTotal *prometheus.CounterVec

	// Stock metrics
	StockAdjustmentsCounter *prometheus.CounterVec
	ProductInventoryGauge   *prometheus.GaugeVec
	LowStockAlertsCounter   *prometheus.CounterVec

	// Catalog maintenance metrics
	CatalogOperationsCounter *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg uses the default registry.
func NewMetrics(prefix string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: gatherer,

		HttpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HttpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		StatusCategoryTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_status_category_total",
				Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
			},
			[]string{"category", "method", "path"},
		),

		StockAdjustmentsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_stock_adjustments_total",
				Help: "Stock adjustments by direction and outcome",
			},
			[]string{"direction", "outcome"},
		),

		ProductInventoryGauge: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "_product_inventory",
				Help: "Current inventory level for products, in their canonical unit",
			},
			[]string{"product_key", "product_name", "unit"},
		),

		LowStockAlertsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_low_stock_alerts_total",
				Help: "Total number of low stock alerts raised",
			},
			[]string{"product_key"},
		),

		CatalogOperationsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_catalog_operations_total",
				Help: "Total number of catalog maintenance operations",
			},
			[]string{"operation"},
		),
	}
}

// Middleware records request count and duration for every route
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}

			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			m.HttpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
			m.HttpRequestDuration.WithLabelValues(method, path, statusStr).Observe(time.Since(start).Seconds())
			if category := statusCategory(status); category != "" {
				m.StatusCategoryTotal.WithLabelValues(category, method, path).Inc()
			}

			return err
		}
	}
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

// Handler exposes the registry the metrics were registered on
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordStockAdjustment counts one line item processed in the given direction
func (m *Metrics) RecordStockAdjustment(direction, outcome string) {
	m.StockAdjustmentsCounter.WithLabelValues(direction, outcome).Inc()
}

// UpdateProductInventory sets the inventory gauge of a product
func (m *Metrics) UpdateProductInventory(productKey, productName, unit string, available float64) {
	m.ProductInventoryGauge.WithLabelValues(productKey, productName, unit).Set(available)
}

// RecordLowStockAlert counts a low stock alert for a product
func (m *Metrics) RecordLowStockAlert(productKey string) {
	m.LowStockAlertsCounter.WithLabelValues(productKey).Inc()
}

// RecordCatalogOperation counts catalog maintenance operations
func (m *Metrics) RecordCatalogOperation(operation string) {
	m.CatalogOperationsCounter.WithLabelValues(operation).Inc()
}
