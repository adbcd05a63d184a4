package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ealicense/license-server-go/internal/config"
	"github.com/ealicense/license-server-go/internal/model"
)

// Check-in outcomes used as the "result" label.
const (
	ResultNewTrial = "new_trial"
	ResultValid    = "valid"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

type Metrics struct {
	registry      *prometheus.Registry
	checkins      *prometheus.CounterVec
	adminActions  *prometheus.CounterVec
	lazyExpiries  prometheus.Counter
	duplicateRace prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		checkins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "license_checkins_total",
			Help: "EA check-ins by outcome",
		}, []string{"result"}),
		adminActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "license_admin_actions_total",
			Help: "Administrative license actions by action and outcome",
		}, []string{"action", "result"}),
		lazyExpiries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "license_lazy_expiries_total",
			Help: "Licenses flipped to expired when a check or read observed a passed expiry",
		}),
		duplicateRace: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "license_duplicate_insert_races_total",
			Help: "First check-ins that lost the insert race and fell back to update",
		}),
	}

	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m.registry.MustRegister(m.checkins, m.adminActions, m.lazyExpiries, m.duplicateRace)

	return m
}

// RegisterStatsCollector exposes live license counts read from source on scrape.
func (m *Metrics) RegisterStatsCollector(source StatsSource) {
	m.registry.MustRegister(NewLicenseCollector(source))
	log.Info().Msg("metrics: license stats collector registered")
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// The recorders below are nil-safe so services can run without metrics in tests.

func (m *Metrics) Checkin(result string) {
	if m == nil {
		return
	}
	m.checkins.WithLabelValues(result).Inc()
}

func (m *Metrics) AdminAction(action model.AdminAction, result string) {
	if m == nil {
		return
	}
	m.adminActions.WithLabelValues(string(action), result).Inc()
}

func (m *Metrics) LazyExpiry() {
	if m == nil {
		return
	}
	m.lazyExpiries.Inc()
}

func (m *Metrics) DuplicateRace() {
	if m == nil {
		return
	}
	m.duplicateRace.Inc()
}

// StatsSource is satisfied by the license repository.
type StatsSource interface {
	Stats(ctx context.Context) (*model.LicenseStats, error)
}

type LicenseCollector struct {
	source      StatsSource
	timeout     time.Duration
	licenseDesc *prometheus.Desc
	scrapeError *prometheus.Desc
}

func NewLicenseCollector(source StatsSource) *LicenseCollector {
	return &LicenseCollector{
		source:  source,
		timeout: config.MetricsQueryTimeout,
		licenseDesc: prometheus.NewDesc(
			"license_records",
			"Number of license records by category",
			[]string{"category"},
			nil,
		),
		scrapeError: prometheus.NewDesc(
			"license_stats_scrape_error",
			"1 if the last stats query failed",
			nil,
			nil,
		),
	}
}

func (c *LicenseCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.licenseDesc
	ch <- c.scrapeError
}

func (c *LicenseCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	stats, err := c.source.Stats(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("metrics: failed to query license stats")
		ch <- prometheus.MustNewConstMetric(c.scrapeError, prometheus.GaugeValue, 1)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.scrapeError, prometheus.GaugeValue, 0)

	for category, n := range map[string]int{
		"total":     stats.TotalUsers,
		"trial":     stats.TrialUsers,
		"paid":      stats.PaidUsers,
		"active":    stats.ActiveUsers,
		"paused":    stats.PausedUsers,
		"pending":   stats.PendingApprovals,
		"suspended": stats.SuspendedUsers,
		"expired":   stats.ExpiredUsers,
	} {
		ch <- prometheus.MustNewConstMetric(c.licenseDesc, prometheus.GaugeValue, float64(n), category)
	}
}
