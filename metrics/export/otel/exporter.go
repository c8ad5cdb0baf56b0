package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/cartauth"
	"github.com/MrEthical07/cartauth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() cartauth.MetricsSnapshot
	AuditDropped() uint64
}

// outcome is one attribute value of an operation instrument, backed by one
// Engine counter.
type outcome struct {
	id    cartauth.MetricID
	value string
}

// operation groups the Engine counters of one lifecycle step into a single
// instrument distinguished by an attribute.
type operation struct {
	name     string
	unit     string
	help     string
	key      string
	outcomes []outcome
}

var operations = []operation{
	{
		name: "cartauth.signups", unit: "{signup}", help: "Signup attempts by outcome.", key: "outcome",
		outcomes: []outcome{
			{cartauth.MetricSignupSuccess, "success"},
			{cartauth.MetricSignupDuplicate, "duplicate"},
			{cartauth.MetricSignupFailure, "failure"},
		},
	},
	{
		name: "cartauth.logins", unit: "{login}", help: "Login attempts by outcome.", key: "outcome",
		outcomes: []outcome{
			{cartauth.MetricLoginSuccess, "success"},
			{cartauth.MetricLoginFailure, "failure"},
			{cartauth.MetricLoginRateLimited, "rate_limited"},
		},
	},
	{
		name: "cartauth.renewals", unit: "{renewal}", help: "Access renewals by outcome.", key: "outcome",
		outcomes: []outcome{
			{cartauth.MetricRefreshSuccess, "success"},
			{cartauth.MetricRefreshFailure, "failure"},
			{cartauth.MetricRefreshReuseDetected, "reuse"},
		},
	},
	{
		name: "cartauth.access_checks", unit: "{request}", help: "Guarded requests by decision.", key: "decision",
		outcomes: []outcome{
			{cartauth.MetricAccessGranted, "granted"},
			{cartauth.MetricAccessDenied, "denied"},
			{cartauth.MetricAdminDenied, "admin_denied"},
		},
	},
	{
		name: "cartauth.sessions_ended", unit: "{session}", help: "Sessions ended by reason.", key: "reason",
		outcomes: []outcome{
			{cartauth.MetricLogout, "logout"},
			{cartauth.MetricSessionRevoked, "revoked"},
		},
	},
	{
		name: "cartauth.store_failures", unit: "{error}", help: "Credential store failures.", key: "store",
		outcomes: []outcome{
			{cartauth.MetricStoreUnavailable, "redis"},
		},
	},
}

type observedOutcome struct {
	id   cartauth.MetricID
	opt  metric.ObserveOption
	inst metric.Int64ObservableCounter
}

type observedBucket struct {
	opt metric.ObserveOption
}

// Exporter publishes Engine metrics as OTel observable instruments.
type Exporter struct {
	source       metricsSource
	registration metric.Registration

	outcomes     []observedOutcome
	latency      metric.Int64ObservableGauge
	buckets      []observedBucket
	auditDropped metric.Int64ObservableCounter
}

// NewExporter registers observable instruments for engine on meter. Call Close
// to unregister the collection callback.
func NewExporter(meter metric.Meter, engine *cartauth.Engine) (*Exporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, engine)
}

func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	var observables []metric.Observable

	for _, op := range operations {
		inst, err := meter.Int64ObservableCounter(op.name,
			metric.WithDescription(op.help),
			metric.WithUnit(op.unit),
		)
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", op.name, err)
		}
		observables = append(observables, inst)
		for _, o := range op.outcomes {
			e.outcomes = append(e.outcomes, observedOutcome{
				id:   o.id,
				inst: inst,
				opt:  metric.WithAttributeSet(attribute.NewSet(attribute.String(op.key, o.value))),
			})
		}
	}

	// cumulative bucket counts keyed by upper bound, the Prometheus "le" convention
	latency, err := meter.Int64ObservableGauge("cartauth.verify_access.latency",
		metric.WithDescription("Access verifications at or under each latency bound."),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create latency gauge: %w", err)
	}
	e.latency = latency
	observables = append(observables, latency)
	for _, bound := range internaldefs.HistogramUpperBounds {
		le := strconv.FormatFloat(bound, 'f', -1, 64)
		e.buckets = append(e.buckets, observedBucket{opt: metric.WithAttributeSet(attribute.NewSet(attribute.String("le", le)))})
	}
	e.buckets = append(e.buckets, observedBucket{opt: metric.WithAttributeSet(attribute.NewSet(attribute.String("le", "+Inf")))})

	e.auditDropped, err = meter.Int64ObservableCounter("cartauth.audit.dropped",
		metric.WithDescription("Audit events dropped under dispatcher backpressure."),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	observables = append(observables, e.auditDropped)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.outcomes {
		o.ObserveInt64(c.inst, int64(snapshot.Counters[c.id]), c.opt)
	}

	if raw, ok := snapshot.Histograms[cartauth.MetricValidateLatency]; ok {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, b := range e.buckets {
			o.ObserveInt64(e.latency, int64(cumulative[i]), b.opt)
		}
	}

	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
