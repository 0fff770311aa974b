package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "profsafe_"

	resultSuccess = "success"
	resultError   = "error"

	loginResultSuccess = "success"
	loginResultFailure = "failure"
	loginResultLocked  = "locked"
)

var (
	registerOnce sync.Once

	alertsCreated  prometheus.Counter
	alertsResolved prometheus.Counter
	alertsCleared  prometheus.Counter
	sirenCommands  *prometheus.CounterVec
	loginAttempts  *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	notifyLatency  *prometheus.HistogramVec
	notifyDropped  prometheus.Counter
	reportsTotal   *prometheus.CounterVec
	reportsLatency *prometheus.HistogramVec
)

// Init registers the service metrics on the default registerer.
func Init() {
	registerOnce.Do(func() {
		alertsCreated = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "alerts_created_total",
			Help: "Total alerts raised",
		})
		alertsResolved = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "alerts_resolved_total",
			Help: "Total alerts resolved",
		})
		alertsCleared = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "alerts_cleared_total",
			Help: "Total clear-all operations",
		})
		sirenCommands = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "siren_commands_total",
				Help: "Total siren commands by action",
			},
			[]string{"action"},
		)
		loginAttempts = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "login_attempts_total",
				Help: "Total central login attempts by result",
			},
			[]string{"result"},
		)
		notifications = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Total outbound notifications by channel and result",
			},
			[]string{"channel", "result"},
		)
		notifyLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "notification_latency_seconds",
				Help:    "Outbound notification latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"channel"},
		)
		notifyDropped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "notifications_dropped_total",
			Help: "Notification jobs dropped because the queue was full",
		})
		reportsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reports_total",
				Help: "Total rendered reports by format and result",
			},
			[]string{"format", "result"},
		)
		reportsLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_latency_seconds",
				Help:    "Report render latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		)

		prometheus.MustRegister(
			alertsCreated,
			alertsResolved,
			alertsCleared,
			sirenCommands,
			loginAttempts,
			notifications,
			notifyLatency,
			notifyDropped,
			reportsTotal,
			reportsLatency,
		)
	})
}

// IncAlertCreated increments the raised alerts counter.
func IncAlertCreated() {
	if alertsCreated != nil {
		alertsCreated.Inc()
	}
}

// IncAlertResolved increments the resolved alerts counter.
func IncAlertResolved() {
	if alertsResolved != nil {
		alertsResolved.Inc()
	}
}

// IncAlertsCleared increments the clear-all counter.
func IncAlertsCleared() {
	if alertsCleared != nil {
		alertsCleared.Inc()
	}
}

// IncSirenCommand counts a siren command.
func IncSirenCommand(action string) {
	if action == "" {
		action = "unknown"
	}
	if sirenCommands != nil {
		sirenCommands.WithLabelValues(action).Inc()
	}
}

// IncLogin counts a login attempt outcome.
func IncLogin(result string) {
	if result == "" {
		result = "unknown"
	}
	if loginAttempts != nil {
		loginAttempts.WithLabelValues(result).Inc()
	}
}

// ObserveNotification records one channel delivery.
func ObserveNotification(channel string, ok bool, duration time.Duration) {
	result := resultSuccess
	if !ok {
		result = resultError
	}
	if notifications != nil {
		notifications.WithLabelValues(channel, result).Inc()
	}
	if notifyLatency != nil {
		notifyLatency.WithLabelValues(channel).Observe(duration.Seconds())
	}
}

// IncNotificationDropped counts a job rejected by a full queue.
func IncNotificationDropped() {
	if notifyDropped != nil {
		notifyDropped.Inc()
	}
}

// ObserveReport records report rendering latency and result.
func ObserveReport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportsTotal != nil {
		reportsTotal.WithLabelValues(format, result).Inc()
	}
	if reportsLatency != nil {
		reportsLatency.WithLabelValues(format).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	LoginSuccess = loginResultSuccess
	LoginFailure = loginResultFailure
	LoginLocked  = loginResultLocked
)
