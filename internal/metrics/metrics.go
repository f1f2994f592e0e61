package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Ledger
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_total",
			Help: "Transaction records written, by kind and result",
		},
		[]string{"kind", "result"}, // USE|CANCEL, SUCCEEDED|FAILED
	)
	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_errors_total",
			Help: "Rejected or failed ledger operations, by error kind",
		},
		[]string{"op", "kind"},
	)
	AccountsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_accounts_total",
			Help: "Account lifecycle events",
		},
		[]string{"event"}, // created|closed
	)
	LockWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_lock_wait_seconds",
			Help:    "Time spent acquiring per-account locks",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// Handler serves /metrics.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(TransactionsTotal)
	prometheus.MustRegister(ErrorsTotal)
	prometheus.MustRegister(AccountsTotal)
	prometheus.MustRegister(LockWait)
	prometheus.MustRegister(WorkerQueueDepth)
}
