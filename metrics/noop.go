package metrics

import "net/http"

type noopMetrics struct{}

func defaultNoopMetrics() Metrics { return &noopMetrics{} }

func (n *noopMetrics) GetOrCreateHistogramMeter(string, []int64) HistogramMeter { return &noopMeter }
func (n *noopMetrics) GetOrCreateHistogramVecMeter(string, []string, []int64) HistogramVecMeter {
	return &noopMeter
}
func (n *noopMetrics) GetOrCreateCountMeter(string) CountMeter { return &noopMeter }
func (n *noopMetrics) GetOrCreateCountVecMeter(string, []string) CountVecMeter {
	return &noopMeter
}
func (n *noopMetrics) GetOrCreateGaugeMeter(string) GaugeMeter { return &noopMeter }
func (n *noopMetrics) GetOrCreateGaugeVecMeter(string, []string) GaugeVecMeter {
	return &noopMeter
}
func (n *noopMetrics) GetOrCreateHandler() http.Handler { return nil }

var noopMeter = noopMeterImpl{}

// noopMeterImpl satisfies every meter interface with a single empty
// struct, so the no-op backend never allocates one value per metric
// name the way the Prometheus backend does.
type noopMeterImpl struct{}

func (noopMeterImpl) Observe(int64)                              {}
func (noopMeterImpl) ObserveWithLabels(int64, map[string]string) {}
func (noopMeterImpl) Add(int64)                                  {}
func (noopMeterImpl) AddWithLabel(int64, map[string]string)      {}
func (noopMeterImpl) Set(int64)                                  {}
func (noopMeterImpl) SetWithLabel(int64, map[string]string)      {}
