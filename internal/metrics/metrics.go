package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finance_transactions_total",
			Help: "Total number of ledger transactions appended",
		},
		[]string{"type"},
	)

	WithdrawalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finance_withdrawals_total",
			Help: "Total number of withdrawal lifecycle events",
		},
		[]string{"event"},
	)

	ReferralGrantsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finance_referral_grants_total",
			Help: "Total number of referral grant calls",
		},
		[]string{"outcome"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finance_notifications_total",
			Help: "Total number of outbound Telegram notifications",
		},
		[]string{"status"},
	)

	ExportJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finance_export_jobs_total",
			Help: "Total number of processed export jobs",
		},
		[]string{"status"},
	)
)
