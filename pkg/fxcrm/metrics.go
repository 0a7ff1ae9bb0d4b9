package fxcrm

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for calls and the HTTP
// exchanges behind them.
type MetricsCollector struct {
	callsAttempted  prometheus.Counter
	callsSucceeded  prometheus.Counter
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(registry)

	return &MetricsCollector{
		callsAttempted: factory.NewCounter(prometheus.CounterOpts{
			Name: "fxcrm_calls_attempted_total",
			Help: "Total number of API calls attempted",
		}),
		callsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "fxcrm_calls_succeeded_total",
			Help: "Total number of API calls that passed status and envelope checks",
		}),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxcrm_http_requests_total",
				Help: "Total number of HTTP requests made",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxcrm_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxcrm_http_errors_total",
				Help: "Total number of HTTP requests that failed without a response",
			},
			[]string{"method", "endpoint"},
		),
	}
}

// CallAttempted records an attempted call.
func (m *MetricsCollector) CallAttempted() {
	m.callsAttempted.Inc()
}

// CallSucceeded records a successful call.
func (m *MetricsCollector) CallSucceeded() {
	m.callsSucceeded.Inc()
}

// MetricsRequestInterceptor records request start time.
func MetricsRequestInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata["start_time"] = time.Now()

		return nil
	}
}

// MetricsResponseInterceptor records response metrics.
func MetricsResponseInterceptor(collector *MetricsCollector) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		endpoint := endpointLabel(req.URL)

		if resp.Error != nil {
			collector.errorsTotal.WithLabelValues(req.Method, endpoint).Inc()
		} else {
			collector.requestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode), endpoint).Inc()
		}

		if req.Metadata != nil {
			if startTime, ok := req.Metadata["start_time"].(time.Time); ok {
				collector.requestDuration.WithLabelValues(req.Method, endpoint).Observe(time.Since(startTime).Seconds())
			}
		}

		return nil
	}
}

// AddMetricsInterceptors registers the collector's interceptors on chain.
func AddMetricsInterceptors(chain *InterceptorChain, collector *MetricsCollector) {
	chain.AddRequestInterceptor(MetricsRequestInterceptor())
	chain.AddResponseInterceptor(MetricsResponseInterceptor(collector))
}

func endpointLabel(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Path == "" {
		return rawURL
	}

	return parsed.Path
}
