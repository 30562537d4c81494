package seqno

import (
	"context"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/logrus/ctxlogrus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Publisher drives the global checkpoint recomputation on the primary copy of
// a shard. On every interval it asks the tracker to recompute and, if the
// checkpoint advanced, signals the Updated channel so the replication
// machinery knows there is a new value to push down to the replicas. A
// blocked recomputation is not an error; it resolves itself once the missing
// copy reports, at the latest on the next tick.
type Publisher struct {
	tracker  *Tracker
	interval time.Duration
	updated  chan struct{}

	updatesMetric *prometheus.CounterVec
}

// NewPublisher returns a publisher recomputing the global checkpoint of the
// given tracker on every interval.
func NewPublisher(tracker *Tracker, interval time.Duration) *Publisher {
	return &Publisher{
		tracker:  tracker,
		interval: interval,
		updated:  make(chan struct{}, 1),
		updatesMetric: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "seqtrack",
				Subsystem: "publisher",
				Name:      "global_checkpoint_updates_total",
				Help:      "Total number of global checkpoint recomputations by outcome",
			},
			[]string{"outcome"},
		),
	}
}

//nolint: revive,stylecheck // This is unintentionally missing documentation.
func (p *Publisher) Describe(descs chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(p, descs)
}

//nolint: revive,stylecheck // This is unintentionally missing documentation.
func (p *Publisher) Collect(metrics chan<- prometheus.Metric) {
	p.updatesMetric.Collect(metrics)
}

// Updated returns a channel that is sent to when the global checkpoint
// advanced. The channel is buffered so a slow consumer does not hold up
// recomputation; coalesced signals are fine since consumers re-read the
// checkpoint anyway.
func (p *Publisher) Updated() <-chan struct{} {
	return p.updated
}

// Run recomputes the global checkpoint on every interval until the context is
// canceled. Returns the error from the context.
func (p *Publisher) Run(ctx context.Context) error {
	p.log(ctx).Info("checkpoint publisher started")
	defer p.log(ctx).Info("checkpoint publisher stopped")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.publish(ctx)
		}
	}
}

func (p *Publisher) publish(ctx context.Context) {
	outcome := p.tracker.UpdateGlobalCheckpointOnPrimary()
	p.updatesMetric.WithLabelValues(outcome.String()).Inc()

	switch outcome {
	case CheckpointAdvanced:
		p.log(ctx).WithField("global_checkpoint", p.tracker.GlobalCheckpoint()).Debug("publishing advanced global checkpoint")
		select {
		case p.updated <- struct{}{}:
		default:
		}
	case CheckpointBlocked:
		p.log(ctx).Debug("global checkpoint recomputation blocked, retrying on next tick")
	}
}

func (p *Publisher) log(ctx context.Context) logrus.FieldLogger {
	return ctxlogrus.Extract(ctx).WithFields(logrus.Fields{
		"component": "seqno.Publisher",
		"shard":     p.tracker.ShardID().String(),
	})
}
