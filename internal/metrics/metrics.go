package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_events_created_total",
		Help: "Total number of events registered in the ledger.",
	})

	TicketsMinted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_tickets_minted_total",
		Help: "Total number of tickets minted across all events.",
	})

	TicketsTransferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_tickets_transferred_total",
		Help: "Total number of tickets moved by secondary transfers.",
	})

	TicketsUsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_tickets_used_total",
		Help: "Total number of tickets checked in or burned.",
	})

	SignalsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_signals_emitted_total",
		Help: "Total number of ledger signals emitted, labelled by type.",
	}, []string{"type"})

	FraudSignals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_fraud_signals_total",
		Help: "Total number of fraud-detection signals emitted.",
	})

	PaymentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_payment_failures_total",
		Help: "Total number of failed outbound payments, labelled by kind.",
	}, []string{"kind"})

	RejectedCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_rejected_calls_total",
		Help: "Total number of mutating calls rejected before commit, labelled by reason.",
	}, []string{"reason"})
)
