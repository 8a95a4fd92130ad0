package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sheafa-accounting-agent/internal/model"
)

// Instrumentation carries the prometheus collectors exposed on the probe
// endpoint.
type Instrumentation struct {
	Registry *prometheus.Registry

	RefreshCycles    prometheus.Counter
	EventsEmitted    prometheus.Counter
	EventBatchesSent prometheus.Counter
	ActiveAlerts     prometheus.Gauge
	TokenBalance     prometheus.Gauge
	ProtectionLevel  prometheus.Gauge
	FloorPercent     prometheus.Gauge
	CeilingPercent   prometheus.Gauge
}

func NewInstrumentation() *Instrumentation {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Instrumentation{
		Registry: reg,
		RefreshCycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "sheafa_dashboard_refresh_cycles_total",
			Help: "Completed dashboard refresh cycles.",
		}),
		EventsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "sheafa_economic_events_emitted_total",
			Help: "Economic events persisted to the ledger backend.",
		}),
		EventBatchesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "sheafa_economic_event_batches_total",
			Help: "Non-empty economic event batches persisted.",
		}),
		ActiveAlerts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sheafa_constitutional_alerts",
			Help: "Constitutional alerts raised by the latest evaluation.",
		}),
		TokenBalance: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sheafa_token_balance",
			Help: "Net infrastructure-token balance from the latest replay.",
		}),
		ProtectionLevel: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sheafa_protection_level",
			Help: "Protection classification rank: 0 vulnerable, 1 protected, 2 highly-protected.",
		}),
		FloorPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sheafa_dignity_floor_percent",
			Help: "Percent of dignity floor, worst dimension.",
		}),
		CeilingPercent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sheafa_ceiling_percent",
			Help: "Token balance as percent of the accumulation ceiling.",
		}),
	}
}

// ObserveState updates the gauges from a freshly published dashboard
// state.
func (in *Instrumentation) ObserveState(state model.SheafaDashboardState) {
	in.RefreshCycles.Inc()
	in.ActiveAlerts.Set(float64(len(state.Limits.Alerts)))
	in.TokenBalance.Set(state.Tokens.Balance)
	in.ProtectionLevel.Set(float64(state.Protection.Level.Rank()))
	in.FloorPercent.Set(state.Limits.Floor.PercentOfFloor)
	in.CeilingPercent.Set(state.Limits.Ceiling.PercentOfCeiling)
}
