package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jamesatomc/kanari-sdk-V2/log"
)

const namespace = "kanari"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics installs the Prometheus-backed Metrics
// implementation as the process-wide default. It is idempotent: a
// second call while Prometheus is already installed is a no-op.
func InitializePrometheusMetrics() {
	if _, ok := metrics.(*prometheusMetrics); !ok {
		metrics = newPrometheusMetrics()
	}
}

type prometheusMetrics struct {
	counters      sync.Map
	counterVecs   sync.Map
	histograms    sync.Map
	histogramVecs sync.Map
	gauges        sync.Map
	gaugeVecs     sync.Map
}

func newPrometheusMetrics() Metrics {
	return &prometheusMetrics{}
}

func (o *prometheusMetrics) GetOrCreateHandler() http.Handler {
	return promhttp.Handler()
}

func (o *prometheusMetrics) GetOrCreateCountMeter(name string) CountMeter {
	if v, ok := o.counters.Load(name); ok {
		return v.(CountMeter)
	}
	meter := o.newCountMeter(name)
	actual, _ := o.counters.LoadOrStore(name, meter)
	return actual.(CountMeter)
}

func (o *prometheusMetrics) GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter {
	if v, ok := o.counterVecs.Load(name); ok {
		return v.(CountVecMeter)
	}
	meter := o.newCountVecMeter(name, labels)
	actual, _ := o.counterVecs.LoadOrStore(name, meter)
	return actual.(CountVecMeter)
}

func (o *prometheusMetrics) GetOrCreateGaugeMeter(name string) GaugeMeter {
	if v, ok := o.gauges.Load(name); ok {
		return v.(GaugeMeter)
	}
	meter := o.newGaugeMeter(name)
	actual, _ := o.gauges.LoadOrStore(name, meter)
	return actual.(GaugeMeter)
}

func (o *prometheusMetrics) GetOrCreateGaugeVecMeter(name string, labels []string) GaugeVecMeter {
	if v, ok := o.gaugeVecs.Load(name); ok {
		return v.(GaugeVecMeter)
	}
	meter := o.newGaugeVecMeter(name, labels)
	actual, _ := o.gaugeVecs.LoadOrStore(name, meter)
	return actual.(GaugeVecMeter)
}

func (o *prometheusMetrics) GetOrCreateHistogramMeter(name string, buckets []int64) HistogramMeter {
	if v, ok := o.histograms.Load(name); ok {
		return v.(HistogramMeter)
	}
	meter := o.newHistogramMeter(name, buckets)
	actual, _ := o.histograms.LoadOrStore(name, meter)
	return actual.(HistogramMeter)
}

func (o *prometheusMetrics) GetOrCreateHistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter {
	if v, ok := o.histogramVecs.Load(name); ok {
		return v.(HistogramVecMeter)
	}
	meter := o.newHistogramVecMeter(name, labels, buckets)
	actual, _ := o.histogramVecs.LoadOrStore(name, meter)
	return actual.(HistogramVecMeter)
}

func toFloatBuckets(buckets []int64) []float64 {
	out := make([]float64, len(buckets))
	for i, b := range buckets {
		out[i] = float64(b)
	}
	return out
}

func (o *prometheusMetrics) newHistogramMeter(name string, buckets []int64) HistogramMeter {
	meter := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Buckets:   toFloatBuckets(buckets),
	})
	if err := prometheus.Register(meter); err != nil {
		logger.Warn("unable to register histogram", "name", name, "err", err)
	}
	return &promHistogramMeter{histogram: meter}
}

type promHistogramMeter struct{ histogram prometheus.Histogram }

func (c *promHistogramMeter) Observe(i int64) { c.histogram.Observe(float64(i)) }

func (o *prometheusMetrics) newHistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter {
	meter := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Buckets:   toFloatBuckets(buckets),
	}, labels)
	if err := prometheus.Register(meter); err != nil {
		logger.Warn("unable to register histogram vec", "name", name, "err", err)
	}
	return &promHistogramVecMeter{histogram: meter}
}

type promHistogramVecMeter struct{ histogram *prometheus.HistogramVec }

func (c *promHistogramVecMeter) ObserveWithLabels(i int64, labels map[string]string) {
	c.histogram.With(labels).Observe(float64(i))
}

func (o *prometheusMetrics) newCountMeter(name string) CountMeter {
	meter := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name})
	if err := prometheus.Register(meter); err != nil {
		logger.Warn("unable to register counter", "name", name, "err", err)
	}
	return &promCountMeter{counter: meter}
}

type promCountMeter struct{ counter prometheus.Counter }

func (c *promCountMeter) Add(i int64) { c.counter.Add(float64(i)) }

func (o *prometheusMetrics) newCountVecMeter(name string, labels []string) CountVecMeter {
	meter := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
	if err := prometheus.Register(meter); err != nil {
		logger.Warn("unable to register counter vec", "name", name, "err", err)
	}
	return &promCountVecMeter{counter: meter}
}

type promCountVecMeter struct{ counter *prometheus.CounterVec }

func (c *promCountVecMeter) AddWithLabel(i int64, labels map[string]string) {
	c.counter.With(labels).Add(float64(i))
}

func (o *prometheusMetrics) newGaugeMeter(name string) GaugeMeter {
	meter := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
	if err := prometheus.Register(meter); err != nil {
		logger.Warn("unable to register gauge", "name", name, "err", err)
	}
	return &promGaugeMeter{gauge: meter}
}

type promGaugeMeter struct{ gauge prometheus.Gauge }

func (c *promGaugeMeter) Add(i int64) { c.gauge.Add(float64(i)) }
func (c *promGaugeMeter) Set(i int64) { c.gauge.Set(float64(i)) }

func (o *prometheusMetrics) newGaugeVecMeter(name string, labels []string) GaugeVecMeter {
	meter := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name}, labels)
	if err := prometheus.Register(meter); err != nil {
		logger.Warn("unable to register gauge vec", "name", name, "err", err)
	}
	return &promGaugeVecMeter{gauge: meter}
}

type promGaugeVecMeter struct{ gauge *prometheus.GaugeVec }

func (c *promGaugeVecMeter) AddWithLabel(i int64, labels map[string]string) {
	c.gauge.With(labels).Add(float64(i))
}
func (c *promGaugeVecMeter) SetWithLabel(i int64, labels map[string]string) {
	c.gauge.With(labels).Set(float64(i))
}
