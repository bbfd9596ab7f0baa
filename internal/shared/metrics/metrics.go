package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	pipelineStartedTotal   atomic.Uint64
	questionsReadyTotal    atomic.Uint64
	reportsGeneratedTotal  atomic.Uint64
	pipelineFailedTotal    atomic.Uint64
	fallbackQuestionsTotal atomic.Uint64

	stageBuckets = []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000}

	stageMu        sync.Mutex
	stageDurations = map[string]*histogram{}
)

// IncPipelineStarted increments the started counter.
func IncPipelineStarted() {
	pipelineStartedTotal.Add(1)
}

// IncQuestionsReady increments the questions-ready counter.
func IncQuestionsReady() {
	questionsReadyTotal.Add(1)
}

// IncReportGenerated increments the report counter.
func IncReportGenerated() {
	reportsGeneratedTotal.Add(1)
}

// IncPipelineFailed increments the failed counter.
func IncPipelineFailed() {
	pipelineFailedTotal.Add(1)
}

// IncFallbackQuestions counts dialogue runs that degraded to the generic question set.
func IncFallbackQuestions() {
	fallbackQuestionsTotal.Add(1)
}

// ObserveStageDurationMs records one pipeline stage duration in milliseconds.
func ObserveStageDurationMs(stage string, value float64) {
	if value < 0 {
		value = 0
	}
	stageMu.Lock()
	h, ok := stageDurations[stage]
	if !ok {
		h = newHistogram(stageBuckets)
		stageDurations[stage] = h
	}
	stageMu.Unlock()
	h.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "pipeline_started_total", "Total analysis pipelines started", pipelineStartedTotal.Load())
	writeCounter(&buf, "questions_ready_total", "Total sessions that reached QUESTIONS_READY", questionsReadyTotal.Load())
	writeCounter(&buf, "reports_generated_total", "Total sessions that reached REPORT_READY", reportsGeneratedTotal.Load())
	writeCounter(&buf, "pipeline_failed_total", "Total sessions that ended FAILED", pipelineFailedTotal.Load())
	writeCounter(&buf, "fallback_questions_total", "Total dialogue runs that used fallback questions", fallbackQuestionsTotal.Load())
	stageMu.Lock()
	stages := make([]string, 0, len(stageDurations))
	for stage := range stageDurations {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	snaps := make(map[string]histogramSnapshot, len(stages))
	for _, stage := range stages {
		snaps[stage] = stageDurations[stage].Snapshot()
	}
	stageMu.Unlock()
	for _, stage := range stages {
		writeStageHistogram(&buf, "pipeline_stage_duration_ms", stage, snaps[stage])
	}
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeStageHistogram(buf *bytes.Buffer, name, stage string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s Pipeline stage duration in milliseconds\n", name)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{stage=%q,le=\"%s\"} %d\n", name, stage, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{stage=%q,le=\"+Inf\"} %d\n", name, stage, snap.count)
	fmt.Fprintf(buf, "%s_sum{stage=%q} %s\n", name, stage, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count{stage=%q} %d\n", name, stage, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
