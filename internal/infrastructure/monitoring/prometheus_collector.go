package monitoring

import (
	"time"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector is the metrics sink for the engine. Histograms
// carry the raw distributions; the quality summary additionally exposes
// 50th, 95th and 99th percentiles for dashboards that cannot run
// histogram_quantile.
type PrometheusCollector struct {
	samplesIngestedTotal *prometheus.CounterVec
	sessionsActive       prometheus.Gauge

	qualityScore        *prometheus.HistogramVec
	qualityScoreSummary prometheus.Summary
	videoPacketLoss     prometheus.Histogram
	audioPacketLoss     prometheus.Histogram
	videoJitter         prometheus.Histogram
	roundTripTime       prometheus.Histogram
	sessionDuration     prometheus.Histogram

	disconnectionsTotal prometheus.Counter
	reconnectionsTotal  prometheus.Counter
	alertsTotal         *prometheus.CounterVec
	alertsDroppedTotal  prometheus.Counter
	profileSwitchTotal  *prometheus.CounterVec

	storeOperationDuration *prometheus.HistogramVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var _ ports.MetricsSink = (*PrometheusCollector)(nil)

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		samplesIngestedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "telequal_samples_ingested_total",
			Help: "Total number of metric samples ingested",
		}, []string{"role", "connection_state"}),

		sessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "telequal_sessions_active",
			Help: "Number of sessions with selector state",
		}),

		qualityScore: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "telequal_quality_score",
			Help:    "Distribution of computed quality scores (0-100)",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}, []string{"role"}),

		qualityScoreSummary: promauto.NewSummary(prometheus.SummaryOpts{
			Name:       "telequal_quality_score_summary",
			Help:       "Quality score percentiles",
			Objectives: map[float64]float64{0.5: 0.05, 0.95: 0.01, 0.99: 0.001},
			MaxAge:     5 * time.Minute,
		}),

		videoPacketLoss: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telequal_video_packet_loss_percent",
			Help:    "Video packet loss per sample in percent",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 50},
		}),

		audioPacketLoss: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telequal_audio_packet_loss_percent",
			Help:    "Audio packet loss per sample in percent",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 50},
		}),

		videoJitter: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telequal_video_jitter_ms",
			Help:    "Video jitter per sample in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 200, 500, 1000},
		}),

		roundTripTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telequal_round_trip_time_ms",
			Help:    "Round-trip time per sample in milliseconds",
			Buckets: []float64{25, 50, 100, 200, 300, 500, 1000, 2000},
		}),

		sessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telequal_session_duration_seconds",
			Help:    "Duration of summarized sessions",
			Buckets: prometheus.ExponentialBuckets(30, 2, 10),
		}),

		disconnectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telequal_disconnections_total",
			Help: "Total participant disconnection transitions observed",
		}),

		reconnectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telequal_reconnections_total",
			Help: "Total participant reconnection transitions observed",
		}),

		alertsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "telequal_alerts_total",
			Help: "Total alerts dispatched by severity",
		}, []string{"severity"}),

		alertsDroppedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telequal_alerts_dropped_total",
			Help: "Notifications dropped because the dispatch queue was full",
		}),

		profileSwitchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "telequal_profile_switches_total",
			Help: "Total adaptive profile switches",
		}, []string{"from", "to"}),

		storeOperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "telequal_store_operation_duration_seconds",
			Help:    "Duration of persistence operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"operation", "status"}),

		httpRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "telequal_http_requests_total",
			Help: "Total HTTP requests handled",
		}, []string{"method", "path", "status"}),

		httpRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "telequal_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "path"}),
	}
}

func (p *PrometheusCollector) ObserveSample(sample *domain.MetricSample) {
	role := string(sample.Role)

	p.samplesIngestedTotal.WithLabelValues(role, string(sample.ConnectionState)).Inc()
	p.qualityScore.WithLabelValues(role).Observe(float64(sample.QualityScore))
	p.qualityScoreSummary.Observe(float64(sample.QualityScore))

	if v := sample.Video; v != nil {
		p.videoPacketLoss.Observe(domain.PacketLossPercent(v.PacketsReceived, v.PacketsLost))
		p.videoJitter.Observe(v.JitterMs)
	}
	if a := sample.Audio; a != nil {
		p.audioPacketLoss.Observe(domain.PacketLossPercent(a.PacketsReceived, a.PacketsLost))
	}
	if n := sample.Network; n != nil {
		p.roundTripTime.Observe(n.RoundTripTimeMs)
	}
}

func (p *PrometheusCollector) ObserveSessionDuration(seconds float64) {
	p.sessionDuration.Observe(seconds)
}

func (p *PrometheusCollector) RecordDisconnection(sessionID domain.SessionID) {
	p.disconnectionsTotal.Inc()
}

func (p *PrometheusCollector) RecordReconnection(sessionID domain.SessionID) {
	p.reconnectionsTotal.Inc()
}

func (p *PrometheusCollector) RecordAlert(severity domain.AlertSeverity) {
	p.alertsTotal.WithLabelValues(string(severity)).Inc()
}

func (p *PrometheusCollector) RecordAlertDropped() {
	p.alertsDroppedTotal.Inc()
}

func (p *PrometheusCollector) RecordProfileSwitch(from, to domain.ProfileTier) {
	p.profileSwitchTotal.WithLabelValues(from.String(), to.String()).Inc()
}

func (p *PrometheusCollector) RecordStoreOperation(op string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.storeOperationDuration.WithLabelValues(op, status).Observe(seconds)
}

// SetActiveSessions updates the live session gauge.
func (p *PrometheusCollector) SetActiveSessions(count int) {
	p.sessionsActive.Set(float64(count))
}

// RecordHTTPRequest feeds the request middleware observations.
func (p *PrometheusCollector) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	p.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	p.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
