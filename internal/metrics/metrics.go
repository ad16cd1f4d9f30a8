// Package metrics turns the console's derived views into Prometheus gauges
// for the node exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/keel-hq/keelctl/internal/store"
	"github.com/keel-hq/keelctl/internal/views"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gauges is one snapshot of the Keel dashboard.
type Gauges struct {
	Registry *prometheus.Registry

	Resources       *prometheus.GaugeVec
	Pods            *prometheus.GaugeVec
	Approvals       *prometheus.GaugeVec
	TrackedImages   prometheus.Gauge
	TrackedDistinct *prometheus.GaugeVec
	UpdatesPeriod   prometheus.Gauge
	DailyStats      *prometheus.GaugeVec
}

func New() *Gauges {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Gauges{
		Registry: reg,
		Resources: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "keel_resources",
				Help: "Workloads visible to keel",
			},
			[]string{"managed"},
		),
		Pods: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "keel_pods",
				Help: "Replicas across all workloads",
			},
			[]string{"state"}, // total, available, unavailable
		),
		Approvals: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "keel_approvals",
				Help: "Approvals by state",
			},
			[]string{"state"}, // pending, approved, rejected
		),
		TrackedImages: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "keel_tracked_images",
				Help: "Images keel watches for new tags",
			},
		),
		TrackedDistinct: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "keel_tracked_distinct",
				Help: "Distinct namespaces and registries of tracked images",
			},
			[]string{"field"},
		),
		UpdatesPeriod: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "keel_updates_period_total",
				Help: "Updates applied over the stats period",
			},
		),
		DailyStats: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "keel_daily_events",
				Help: "Per-day audit statistics",
			},
			[]string{"date", "kind"}, // kind: webhooks, approved, rejected, updates
		),
	}
}

// Observe sets every gauge from s.
func (g *Gauges) Observe(s *store.State) {
	sum := views.Summarize(s)
	g.Resources.WithLabelValues("true").Set(float64(sum.ManagedResources))
	g.Resources.WithLabelValues("false").Set(float64(sum.Resources - sum.ManagedResources))
	g.Pods.WithLabelValues("total").Set(float64(sum.Pods))
	g.Pods.WithLabelValues("available").Set(float64(sum.AvailablePods))
	g.Pods.WithLabelValues("unavailable").Set(float64(sum.UnavailablePods))
	g.Approvals.WithLabelValues("pending").Set(float64(sum.PendingApprovals))
	g.Approvals.WithLabelValues("approved").Set(float64(sum.Approved))
	g.Approvals.WithLabelValues("rejected").Set(float64(sum.Rejected))
	g.TrackedImages.Set(float64(sum.TrackedImages))
	g.TrackedDistinct.WithLabelValues("namespace").Set(float64(sum.Namespaces))
	g.TrackedDistinct.WithLabelValues("registry").Set(float64(sum.Registries))
	g.UpdatesPeriod.Set(float64(sum.UpdatesPeriod))

	g.DailyStats.Reset()
	for _, p := range s.Stats.Items() {
		g.DailyStats.WithLabelValues(p.Date, "webhooks").Set(float64(p.Webhooks))
		g.DailyStats.WithLabelValues(p.Date, "approved").Set(float64(p.Approved))
		g.DailyStats.WithLabelValues(p.Date, "rejected").Set(float64(p.Rejected))
		g.DailyStats.WithLabelValues(p.Date, "updates").Set(float64(p.Updates))
	}
}

// WriteTextfile atomically writes the registry in the text exposition format.
func (g *Gauges) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, g.Registry); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
