// Package metrics exposes Prometheus counters for the entitlement engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TasksCompleted counts completions by the slot kind that paid for them.
var TasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sparks",
	Name:      "tasks_completed_total",
	Help:      "Total completed tasks.",
}, []string{"slot"})

// CompletionsRejected counts completion attempts refused before any write.
var CompletionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sparks",
	Name:      "completions_rejected_total",
	Help:      "Completion attempts rejected, by reason.",
}, []string{"reason"})

// ExtraTasksPurchased counts paid slots bought with sparks.
var ExtraTasksPurchased = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "sparks",
	Name:      "extra_tasks_purchased_total",
	Help:      "Total extra task slots purchased.",
})

// PurchasesRejected counts purchases refused for lack of balance.
var PurchasesRejected = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "sparks",
	Name:      "extra_task_purchases_rejected_total",
	Help:      "Extra task purchases rejected for insufficient balance.",
})

// BonusesClaimed counts streak bonus claims by streak day.
var BonusesClaimed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sparks",
	Name:      "daily_bonuses_claimed_total",
	Help:      "Total daily bonus claims by streak day.",
}, []string{"day"})

// SparksCredited tracks sparks added to balances by source.
var SparksCredited = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sparks",
	Name:      "credited_total",
	Help:      "Sparks credited to balances.",
}, []string{"source"})

// SparksDebited tracks sparks spent.
var SparksDebited = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sparks",
	Name:      "debited_total",
	Help:      "Sparks debited from balances.",
}, []string{"reason"})

// DailyResetRows records how many rows the last midnight sweep touched.
var DailyResetRows = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "sparks",
	Name:      "daily_reset_rows",
	Help:      "Entitlement rows reset by the last daily sweep.",
})

// TranslationsMissing counts tasks dropped from listings for lack of text.
var TranslationsMissing = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "sparks",
	Name:      "translations_missing_total",
	Help:      "Tasks skipped because no translation exists in the user or fallback language.",
})

// HTTPRequests counts API requests by route pattern and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sparks",
	Name:      "http_requests_total",
	Help:      "HTTP requests served, by route and status.",
}, []string{"route", "status"})
