package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for FairDeck.
type Metrics struct {
	// --- Rounds ---
	RoundsStarted     prometheus.Counter
	RoundsSettled     prometheus.Counter
	RoundsClaimed     prometheus.Counter
	SessionOverwrites prometheus.Counter
	ActiveSessions    prometheus.Gauge

	// --- Actions ---
	ActionsTotal   *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
	CardsDealt     prometheus.Counter
	Busts          prometheus.Counter

	// --- Deck engine ---
	DeckBuildDuration prometheus.Histogram

	// --- Settlement ---
	ProofFetches *prometheus.CounterVec

	// --- Archive ---
	ArchiveRowsWritten prometheus.Counter
	ArchiveBatchSize   prometheus.Histogram
	ArchiveBatchDur    prometheus.Histogram
	ArchiveErrors      prometheus.Counter
	ArchiveDrops       prometheus.Counter

	// --- Events ---
	PublishDrops prometheus.Counter

	// --- HTTP API ---
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	actionBuckets := []float64{
		0.00001, 0.000025, 0.00005, 0.0001, 0.00025,
		0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		RoundsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairdeck_rounds_started_total",
			Help: "Rounds started (decks committed and dealt)",
		}),

		RoundsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairdeck_rounds_settled_total",
			Help: "Rounds where the dealer played out",
		}),

		RoundsClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairdeck_rounds_claimed_total",
			Help: "Settlement packages handed out",
		}),

		SessionOverwrites: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairdeck_session_overwrites_total",
			Help: "Sessions or unclaimed rounds discarded by a new start",
		}),

		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fairdeck_active_sessions",
			Help: "Players with a round in progress",
		}),

		ActionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fairdeck_actions_total",
			Help: "Player actions by type and outcome",
		}, []string{"action", "outcome"}),

		ActionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fairdeck_action_duration_seconds",
			Help:    "Time to apply one player action",
			Buckets: actionBuckets,
		}, []string{"action"}),

		CardsDealt: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairdeck_cards_dealt_total",
			Help: "Positions consumed from reveal cursors",
		}),

		Busts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairdeck_busts_total",
			Help: "Player hands that went over 21",
		}),

		DeckBuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fairdeck_deck_build_duration_seconds",
			Help:    "Shuffle, salt, and tree construction time",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		}),

		ProofFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fairdeck_proof_fetches_total",
			Help: "Settlement-proof fetches (ok/already_claimed/none)",
		}, []string{"outcome"}),

		ArchiveRowsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairdeck_archive_rows_written_total",
			Help: "Round rows written to Postgres",
		}),

		ArchiveBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fairdeck_archive_batch_size",
			Help:    "Rounds per archive batch",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),

		ArchiveBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fairdeck_archive_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		ArchiveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairdeck_archive_errors_total",
			Help: "Failed archive batch writes",
		}),

		ArchiveDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairdeck_archive_drops_total",
			Help: "Completed rounds dropped due to full archive channel",
		}),

		PublishDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairdeck_publish_drops_total",
			Help: "Round events dropped due to full publish channel",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fairdeck_http_requests_total",
			Help: "API requests by endpoint and status",
		}, []string{"endpoint", "status"}),

		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fairdeck_http_request_duration_seconds",
			Help:    "API request latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"endpoint"}),
	}
}
