package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

var ordersCreated = &Metric{
	ID:          "ordersCreated",
	Name:        "orders_created_total",
	Description: "Orders created, partitioned by item type and payment path.",
	Type:        "counter_vec",
	Args:        []string{"item_type", "payment"},
}

var emailSends = &Metric{
	ID:          "emailSends",
	Name:        "email_sends_total",
	Description: "Receipt dispatch attempts, partitioned by final status and content source.",
	Type:        "counter_vec",
	Args:        []string{"status", "source"},
}

var webhookEvents = &Metric{
	ID:          "webhookEvents",
	Name:        "webhook_events_total",
	Description: "Processor webhook deliveries, partitioned by outcome.",
	Type:        "counter_vec",
	Args:        []string{"outcome"},
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "process latency in milliseconds",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype"},
}

// Business holds the domain counters. A nil *Business records nothing.
type Business struct {
	ordersCreated *prometheus.CounterVec
	emailSends    *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
	processDur    *prometheus.HistogramVec
}

func NewBusiness(reg prometheus.Registerer) *Business {
	return &Business{
		ordersCreated: register(reg, NewMetric(ordersCreated, Subsystem), nil, ordersCreated.Name).(*prometheus.CounterVec),
		emailSends:    register(reg, NewMetric(emailSends, Subsystem), nil, emailSends.Name).(*prometheus.CounterVec),
		webhookEvents: register(reg, NewMetric(webhookEvents, Subsystem), nil, webhookEvents.Name).(*prometheus.CounterVec),
		processDur:    register(reg, NewMetric(MetricsBusinessProcess, Subsystem), nil, MetricsBusinessProcess.Name).(*prometheus.HistogramVec),
	}
}

func (b *Business) OrderCreated(itemType, payment string) {
	if b == nil {
		return
	}
	b.ordersCreated.WithLabelValues(itemType, payment).Inc()
}

func (b *Business) EmailSend(status, source string) {
	if b == nil {
		return
	}
	b.emailSends.WithLabelValues(status, source).Inc()
}

func (b *Business) WebhookEvent(outcome string) {
	if b == nil {
		return
	}
	b.webhookEvents.WithLabelValues(outcome).Inc()
}

// ObserveProcess records the latency of a business operation since start.
func (b *Business) ObserveProcess(typ, subtype string, start time.Time) {
	if b == nil {
		return
	}
	b.processDur.WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

var Module = fx.Options(
	fx.Provide(
		newRegistry,
		func(r *prometheus.Registry) prometheus.Registerer { return r },
		func(r *prometheus.Registry) prometheus.Gatherer { return r },
		NewBusiness,
	),
)
