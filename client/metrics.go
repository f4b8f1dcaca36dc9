package client

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bitelog/bitelog/client/internal/analysis"
	"github.com/bitelog/bitelog/client/internal/lifecycle"
	"github.com/bitelog/bitelog/client/internal/shardqueue"
)

var (
	jobErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bitelog_client",
			Name:      "analysis_job_errors_total",
			Help:      "Analysis jobs that ended in error, by kind.",
		},
		[]string{"kind"},
	)

	identityChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bitelog_client",
			Name:      "identity_changes_total",
			Help:      "Logins and logouts.",
		},
		[]string{"action"},
	)
)

func jobErrorKind(err error) string {
	var pe *shardqueue.PanicError
	var perr *lifecycle.PersistenceError
	switch {
	case errors.As(err, &pe):
		return "panic"
	case errors.Is(err, analysis.ErrInference):
		return "inference"
	case errors.As(err, &perr):
		return "persistence"
	default:
		return "other"
	}
}
