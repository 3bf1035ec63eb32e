package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_embedding_worker_count",
	Help: "Number of embedding workers currently running",
})

var activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_chat_streams",
	Help: "Number of chat turns currently streaming",
})

var chatTurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chat_turns_total",
	Help: "Chat turns labelled by provider and outcome",
}, []string{"provider", "outcome"})

var tokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "llm_tokens_total",
	Help: "Tokens consumed labelled by provider and kind",
}, []string{"provider", "kind"})

var costTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "llm_cost_usd_total",
	Help: "Cost in USD labelled by provider",
}, []string{"provider"})

var ingestedChunksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ingested_chunks_total",
	Help: "Chunks written during ingestion, labelled by whether an embedding was stored",
}, []string{"embedded"})

var retrievedChunks = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "retrieved_chunks",
	Help:    "Chunks passing the similarity threshold per retrieval",
	Buckets: []float64{0, 1, 2, 3, 4, 5, 10},
})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30, 60},
}, []string{"service"})

// HttpStatusRecorder captures the status code while keeping streaming working.
type HttpStatusRecorder struct {
	http.ResponseWriter
	Status      int
	wroteHeader bool
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.Status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *HttpStatusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *HttpStatusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijack not supported")
}

func (r *HttpStatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}

func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func StreamStarted() {
	activeStreams.Inc()
}

func StreamFinished() {
	activeStreams.Dec()
}

func CaptureChatTurn(provider string, outcome string) {
	chatTurnsTotal.WithLabelValues(provider, outcome).Inc()
}

func CaptureUsage(provider string, promptTokens int, completionTokens int, costUSD float64) {
	tokensTotal.WithLabelValues(provider, "prompt").Add(float64(promptTokens))
	tokensTotal.WithLabelValues(provider, "completion").Add(float64(completionTokens))
	costTotal.WithLabelValues(provider).Add(costUSD)
}

func CaptureIngestedChunks(embedded int, withoutEmbedding int) {
	ingestedChunksTotal.WithLabelValues("true").Add(float64(embedded))
	ingestedChunksTotal.WithLabelValues("false").Add(float64(withoutEmbedding))
}

func CaptureRetrieved(count int) {
	retrievedChunks.Observe(float64(count))
}

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}
