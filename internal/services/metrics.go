package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// chatLookups counts reconciler lookups by outcome:
	// authoritative, cached, inferred (fallbacks) and error (any failed lookup).
	chatLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_lookups_total",
			Help: "Chat identity lookups performed by the reconciler, by result.",
		},
		[]string{"result"},
	)

	// messagesSent counts outgoing messages by status (ok/error).
	messagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Messages sent through the messaging platform, by status.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(chatLookups, messagesSent)
}
