package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthFlowsStarted is a counter for authorization flows started.
	AuthFlowsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kickdemo_auth_flows_started_total",
			Help: "The total number of authorization flows started.",
		},
	)

	// CallbackOutcomes counts OAuth callback results by outcome.
	CallbackOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickdemo_callback_outcomes_total",
			Help: "The total number of OAuth callbacks by outcome.",
		},
		[]string{"outcome"},
	)

	// TokenRefreshes counts token refresh attempts by result.
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickdemo_token_refreshes_total",
			Help: "The total number of token refresh attempts.",
		},
		[]string{"result"},
	)

	// UpstreamRequests counts calls to the Kick API by endpoint and status.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickdemo_upstream_requests_total",
			Help: "The total number of upstream API requests.",
		},
		[]string{"endpoint", "status"},
	)

	// ChatMessagesRelayed counts chat messages forwarded to browsers.
	ChatMessagesRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kickdemo_chat_messages_relayed_total",
			Help: "The total number of chat messages relayed to browsers.",
		},
	)

	// ActiveRelays is a gauge of open live-chat relay connections.
	ActiveRelays = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kickdemo_active_relays",
			Help: "The number of live-chat relay connections currently open.",
		},
	)
)
