package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RelayMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatter",
		Subsystem: "relay",
		Name:      "messages_total",
		Help:      "Messages handled by the relay, by outcome.",
	}, []string{"outcome"})

	OnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chatter",
		Subsystem: "relay",
		Name:      "online_users",
		Help:      "Users currently in the online set.",
	})

	PresenceBroadcasts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chatter",
		Subsystem: "relay",
		Name:      "presence_broadcasts_total",
		Help:      "Online-set broadcasts sent.",
	})

	MessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatter",
		Subsystem: "api",
		Name:      "messages_sent_total",
		Help:      "Messages accepted by the REST send endpoint.",
	}, []string{"duplicate"})
)

// Relay outcomes
const (
	OutcomeRelayed   = "relayed"
	OutcomeDelivered = "delivered"
	OutcomeMalformed = "malformed"
	OutcomeThrottled = "throttled"
)

func init() {
	prometheus.MustRegister(RelayMessages, OnlineUsers, PresenceBroadcasts, MessagesSent)
}

// Handler exposes the default registry on a fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
