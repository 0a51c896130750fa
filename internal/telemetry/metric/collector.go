// Package metric provides Prometheus metrics for MistKV.
package metric

import "github.com/prometheus/client_golang/prometheus"

// StoreCollector exposes the live key count of the store as a gauge.
//
// It pulls the size at scrape time instead of tracking it on every
// set/sweep, so the store's hot path carries no metrics bookkeeping.
type StoreCollector struct {
	size func() int
	desc *prometheus.Desc
}

// NewStoreCollector creates a collector reading the key count from size.
func NewStoreCollector(size func() int) *StoreCollector {
	return &StoreCollector{
		size: size,
		desc: prometheus.NewDesc(
			namespace+"_store_keys",
			"Number of entries currently held in the store, expired but unswept entries included.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(c.size()))
}
