package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
)

// BusinessMetrics counts domain activity: events flowing through the bus,
// handler latency and legacy sync runs.
type BusinessMetrics struct {
	eventsDispatched *Counter
	handlerFailures  *Counter
	handlerDuration  *Histogram
	syncRuns         *Counter
	syncDuration     *Histogram
	syncRecords      *Counter
}

// NewBusinessMetrics creates the instruments on the provider's meter
func NewBusinessMetrics(mp *MeterProvider) (*BusinessMetrics, error) {
	meter := mp.Meter(instrumentationName)
	bm := &BusinessMetrics{}
	var err error
	if bm.eventsDispatched, err = NewCounter(meter, "qm.events.dispatched", "Event deliveries to handlers", "{delivery}"); err != nil {
		return nil, err
	}
	if bm.handlerFailures, err = NewCounter(meter, "qm.events.handler.failures", "Event deliveries whose handler failed", "{delivery}"); err != nil {
		return nil, err
	}
	if bm.handlerDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "qm.events.handler.duration",
		Description: "Time spent in one event handler",
		Unit:        "s",
		Buckets:     SmallDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.syncRuns, err = NewCounter(meter, "qm.sync.runs", "Legacy sync runs by outcome", "{run}"); err != nil {
		return nil, err
	}
	if bm.syncDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "qm.sync.duration",
		Description: "Legacy sync run duration",
		Unit:        "s",
		Buckets:     SyncDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.syncRecords, err = NewCounter(meter, "qm.sync.records", "Records pulled from the legacy system", "{record}"); err != nil {
		return nil, err
	}
	return bm, nil
}

// ObserveDispatch has the shape of an event bus dispatch observer
func (bm *BusinessMetrics) ObserveDispatch(ctx context.Context, event shared.DomainEvent, elapsed time.Duration, err error) {
	attrs := []attribute.KeyValue{
		AttrEventType.String(event.EventType()),
		AttrAggregateType.String(event.AggregateType()),
		AttrOutcome.String(outcome(err)),
	}
	bm.eventsDispatched.Inc(ctx, attrs...)
	bm.handlerDuration.RecordDuration(ctx, elapsed, attrs[:2]...)
	if err != nil {
		bm.handlerFailures.Inc(ctx, attrs[:2]...)
	}
}

// RecordSync records one legacy sync run of a tenant
func (bm *BusinessMetrics) RecordSync(ctx context.Context, tenantID uuid.UUID, elapsed time.Duration, success, failed int, err error) {
	tenant := AttrTenantID.String(tenantID.String())
	bm.syncRuns.Inc(ctx, tenant, AttrOutcome.String(outcome(err)))
	bm.syncDuration.RecordDuration(ctx, elapsed, tenant)
	if success > 0 {
		bm.syncRecords.Add(ctx, int64(success), tenant, AttrOutcome.String("success"))
	}
	if failed > 0 {
		bm.syncRecords.Add(ctx, int64(failed), tenant, AttrOutcome.String("error"))
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
