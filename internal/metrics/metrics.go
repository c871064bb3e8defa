// Package metrics holds the Prometheus collectors for the datastore service.
// A nil *Metrics is valid and records nothing, so callers never need to check
// whether metrics are enabled.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	handlesCreated  *prometheus.CounterVec
	handleRequests  *prometheus.CounterVec
	listings        *prometheus.CounterVec
	flagResolutions *prometheus.CounterVec
	settingsFetches *prometheus.CounterVec
}

// New registers the collectors on reg. Returns nil when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	return &Metrics{
		handlesCreated: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dsclient_handles_created_total",
				Help: "Store handles constructed by the registry, by kind and API generation",
			},
			[]string{"kind", "generation"},
		),
		handleRequests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dsclient_handle_requests_total",
				Help: "Store handle requests by kind and outcome (created, cached, rejected)",
			},
			[]string{"kind", "outcome"},
		),
		listings: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dsclient_listings_total",
				Help: "Store listing requests by outcome",
			},
			[]string{"outcome"},
		),
		flagResolutions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dsclient_flag_resolutions_total",
				Help: "Runtime variable resolutions by the tier that answered",
			},
			[]string{"tier"},
		),
		settingsFetches: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dsclient_settings_fetches_total",
				Help: "Live settings fetches by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) HandleCreated(kind, generation string) {
	if m == nil {
		return
	}
	m.handlesCreated.WithLabelValues(kind, generation).Inc()
}

func (m *Metrics) HandleRequested(kind, outcome string) {
	if m == nil {
		return
	}
	m.handleRequests.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Listing(outcome string) {
	if m == nil {
		return
	}
	m.listings.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FlagResolved(tier string) {
	if m == nil {
		return
	}
	m.flagResolutions.WithLabelValues(tier).Inc()
}

func (m *Metrics) SettingsFetched(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.settingsFetches.WithLabelValues(result).Inc()
}
