// SPDX-License-Identifier: MIT

package mcmc

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "probability"

// Metrics exposes sampler progress to Prometheus. A nil *Metrics records
// nothing.
//
// Concurrency: safe for concurrent use by every chain.
type Metrics struct {
	steps        *prometheus.CounterVec
	accepted     *prometheus.CounterVec
	acceptProb   prometheus.Histogram
	stepSize     *prometheus.GaugeVec
	initAttempts prometheus.Counter
	windows      prometheus.Counter
}

// NewMetrics builds the sampler metrics and registers them with reg; a nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		steps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "mcmc",
			Name:      "steps_total",
			Help:      "Kernel transitions by schedule phase.",
		}, []string{"phase"}),
		accepted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "mcmc",
			Name:      "accepted_total",
			Help:      "Accepted proposals by schedule phase.",
		}, []string{"phase"}),
		acceptProb: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "mcmc",
			Name:      "accept_prob",
			Help:      "Metropolis acceptance probability per transition.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		stepSize: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "mcmc",
			Name:      "step_size",
			Help:      "Current step size by chain.",
		}, []string{"chain"}),
		initAttempts: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "mcmc",
			Name:      "init_attempts_total",
			Help:      "Initial states drawn while searching for a finite target log density.",
		}),
		windows: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "mcmc",
			Name:      "slow_windows_closed_total",
			Help:      "Slow adaptation windows closed across chains.",
		}),
	}
}

func (m *Metrics) observeStep(chain int, phase Phase, info StepInfo, stepSize float64) {
	if m == nil {
		return
	}
	label := phase.String()
	m.steps.WithLabelValues(label).Inc()
	if info.Accepted {
		m.accepted.WithLabelValues(label).Inc()
	}
	m.acceptProb.Observe(info.AcceptProb)
	m.stepSize.WithLabelValues(strconv.Itoa(chain)).Set(stepSize)
}

func (m *Metrics) observeInitAttempt() {
	if m != nil {
		m.initAttempts.Inc()
	}
}

func (m *Metrics) observeWindowClosed() {
	if m != nil {
		m.windows.Inc()
	}
}
