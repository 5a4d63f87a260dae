package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gptbot_messages_received_total",
		Help: "Total number of messages received",
	}, []string{"kind"})

	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gptbot_messages_processed_total",
		Help: "Total number of messages processed",
	}, []string{"status"})

	commandsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gptbot_commands_executed_total",
		Help: "Total number of commands executed",
	}, []string{"command"})

	aiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gptbot_ai_request_duration_seconds",
		Help:    "Duration of AI completion requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode", "status"})

	dialogsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gptbot_dialogs_started_total",
		Help: "Total number of new dialogs started",
	})

	dialogsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gptbot_dialogs_deleted_total",
		Help: "Total number of dialogs deleted",
	})

	credentialsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gptbot_credentials_issued_total",
		Help: "Total number of website credential lookups",
	})
)

// Metrics provides methods to record metrics
type Metrics struct{}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordMessageReceived records a received update by kind (text, command, callback)
func (m *Metrics) RecordMessageReceived(kind string) {
	messagesReceived.WithLabelValues(kind).Inc()
}

// RecordMessageProcessed records a processed message
func (m *Metrics) RecordMessageProcessed(status string) {
	messagesProcessed.WithLabelValues(status).Inc()
}

// RecordCommandExecuted records an executed command
func (m *Metrics) RecordCommandExecuted(command string) {
	commandsExecuted.WithLabelValues(command).Inc()
}

// RecordAIRequest records an AI request
func (m *Metrics) RecordAIRequest(mode, status string, duration time.Duration) {
	aiRequestDuration.WithLabelValues(mode, status).Observe(duration.Seconds())
}

// RecordDialogStarted records a started dialog
func (m *Metrics) RecordDialogStarted() {
	dialogsStarted.Inc()
}

// RecordDialogDeleted records a deleted dialog
func (m *Metrics) RecordDialogDeleted() {
	dialogsDeleted.Inc()
}

// RecordCredentialsIssued records a credential lookup
func (m *Metrics) RecordCredentialsIssued() {
	credentialsIssued.Inc()
}

// StartMetricsServer starts the metrics HTTP server
func StartMetricsServer(port int, path string) error {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
