package cache

import "github.com/rcrowley/go-metrics"

// Metric names registered by Engine.
const (
	OfferMetric      = "cache.offer"
	RefreshMetric    = "cache.offer.refresh"
	RejectMetric     = "cache.offer.reject"
	RemoveMetric     = "cache.remove"
	TakeMetric       = "cache.take"
	TakeWaitMetric   = "cache.take.wait"
	TakeCancelMetric = "cache.take.cancel"
	ExpireMetric     = "cache.expire"
	SweepMetric      = "cache.sweep"
	SweepFaultMetric = "cache.sweep.fault"
	SizeMetric       = "cache.size"
)

type engineMetrics struct {
	offer      metrics.Counter
	refresh    metrics.Counter
	reject     metrics.Counter
	remove     metrics.Counter
	take       metrics.Counter
	takeWait   metrics.Counter
	takeCancel metrics.Counter
	expire     metrics.Counter
	sweepFault metrics.Counter
	sweep      metrics.Timer
}

func newEngineMetrics(r metrics.Registry, size func() int64) engineMetrics {
	r.GetOrRegister(SizeMetric, metrics.NewFunctionalGauge(size))
	return engineMetrics{
		offer:      metrics.GetOrRegisterCounter(OfferMetric, r),
		refresh:    metrics.GetOrRegisterCounter(RefreshMetric, r),
		reject:     metrics.GetOrRegisterCounter(RejectMetric, r),
		remove:     metrics.GetOrRegisterCounter(RemoveMetric, r),
		take:       metrics.GetOrRegisterCounter(TakeMetric, r),
		takeWait:   metrics.GetOrRegisterCounter(TakeWaitMetric, r),
		takeCancel: metrics.GetOrRegisterCounter(TakeCancelMetric, r),
		expire:     metrics.GetOrRegisterCounter(ExpireMetric, r),
		sweepFault: metrics.GetOrRegisterCounter(SweepFaultMetric, r),
		sweep:      metrics.GetOrRegisterTimer(SweepMetric, r),
	}
}
