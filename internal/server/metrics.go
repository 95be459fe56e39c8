package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"intake-backend/internal/intake"
)

// PrometheusRecorder implements intake.Recorder on its own registry so
// several servers can coexist in one process.
type PrometheusRecorder struct {
	registry         *prometheus.Registry
	turnsTotal       *prometheus.CounterVec
	proposalsTotal   *prometheus.CounterVec
	lowBudgetTotal   *prometheus.CounterVec
	cacheHitsTotal   prometheus.Counter
	cacheMissesTotal prometheus.Counter
	replayDuration   *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
}

var _ intake.Recorder = (*PrometheusRecorder)(nil)

func NewPrometheusRecorder() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		registry: reg,
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_turns_total",
				Help: "Assistant turns produced, by service",
			},
			[]string{"service"},
		),
		proposalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_proposals_total",
				Help: "Conversations that reached a proposal, by service",
			},
			[]string{"service"},
		),
		lowBudgetTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_low_budget_warnings_total",
				Help: "Low-budget warnings shown, by service",
			},
			[]string{"service"},
		),
		cacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "intake_state_cache_hits_total",
			Help: "Replays that resumed from a cached transcript prefix",
		}),
		cacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "intake_state_cache_misses_total",
			Help: "Replays that folded the transcript from the start",
		}),
		replayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "intake_replay_duration_seconds",
				Help:    "Time spent folding a transcript into state",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"service"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
}

// ObserveReplay records one transcript replay.
func (p *PrometheusRecorder) ObserveReplay(service string, cachedPrefix int, d time.Duration) {
	if cachedPrefix > 0 {
		p.cacheHitsTotal.Inc()
	} else {
		p.cacheMissesTotal.Inc()
	}
	p.replayDuration.WithLabelValues(service).Observe(d.Seconds())
}

// ObserveReply records the kind of assistant turn produced. Proposals are
// counted once per conversation.
func (p *PrometheusRecorder) ObserveReply(service string, r intake.Reply, firstProposal bool) {
	p.turnsTotal.WithLabelValues(service).Inc()
	if firstProposal {
		p.proposalsTotal.WithLabelValues(service).Inc()
	}
	if r.LowBudget {
		p.lowBudgetTotal.WithLabelValues(service).Inc()
	}
}

func (p *PrometheusRecorder) observeHTTP(route string, code int) {
	p.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
