package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    InitiateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "rsinit",
        Name:      "initiate_total",
        Help:      "Replica-set initiate requests by result",
    }, []string{"result"})

    PollAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "rsinit",
        Name:      "status_polls_total",
        Help:      "Replica-set status polls by outcome",
    }, []string{"outcome"})

    MemberState = prometheus.NewGauge(prometheus.GaugeOpts{
        Namespace: "rsinit",
        Name:      "first_member_state",
        Help:      "Numeric replica-set state of the first reported member (1 = PRIMARY, -1 = unknown string)",
    })

    TimeToPrimary = prometheus.NewHistogram(prometheus.HistogramOpts{
        Namespace: "rsinit",
        Name:      "time_to_primary_seconds",
        Help:      "Time spent waiting for the first member to become primary",
        Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
    })

    SeededDocuments = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "rsinit",
        Subsystem: "seed",
        Name:      "documents_total",
        Help:      "Fixture documents inserted per collection",
    }, []string{"collection"})
)

// Register registers metrics into the default Prometheus registry (idempotent).
func Register() {
    once.Do(func() {
        prometheus.MustRegister(InitiateTotal)
        prometheus.MustRegister(PollAttempts)
        prometheus.MustRegister(MemberState)
        prometheus.MustRegister(TimeToPrimary)
        prometheus.MustRegister(SeededDocuments)
    })
}
