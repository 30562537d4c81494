package seqno

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	descMaxSeqNo = prometheus.NewDesc(
		"seqtrack_shard_max_seq_no",
		"Highest sequence number issued on the shard copy.",
		[]string{"shard"},
		nil,
	)
	descLocalCheckpoint = prometheus.NewDesc(
		"seqtrack_shard_local_checkpoint",
		"Highest sequence number below which all operations on the shard copy are complete.",
		[]string{"shard"},
		nil,
	)
	descGlobalCheckpoint = prometheus.NewDesc(
		"seqtrack_shard_global_checkpoint",
		"Highest sequence number below which all in-sync copies of the shard have caught up.",
		[]string{"shard"},
		nil,
	)
)

// Collector exposes the checkpoint state of a set of trackers as metrics.
// The tracker set is looked up on every scrape so shards opening and closing
// between scrapes are picked up naturally.
type Collector struct {
	trackers func() []*Tracker
}

// NewCollector returns a new collector over the trackers returned by the
// given callback.
func NewCollector(trackers func() []*Tracker) *Collector {
	return &Collector{trackers: trackers}
}

//nolint: revive,stylecheck // This is unintentionally missing documentation.
func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, descs)
}

//nolint: revive,stylecheck // This is unintentionally missing documentation.
func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	for _, tracker := range c.trackers() {
		shard := tracker.ShardID().String()
		stats := tracker.Stats()

		metrics <- prometheus.MustNewConstMetric(descMaxSeqNo, prometheus.GaugeValue, float64(stats.MaxSeqNo), shard)
		metrics <- prometheus.MustNewConstMetric(descLocalCheckpoint, prometheus.GaugeValue, float64(stats.LocalCheckpoint), shard)
		metrics <- prometheus.MustNewConstMetric(descGlobalCheckpoint, prometheus.GaugeValue, float64(stats.GlobalCheckpoint), shard)
	}
}
