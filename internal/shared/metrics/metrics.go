package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	resumeSyncTotal         atomic.Uint64
	resumeSyncFailedTotal   atomic.Uint64
	childRecordsWritten     atomic.Uint64
	paymentEventsTotal      atomic.Uint64
	paymentSucceededTotal   atomic.Uint64
	paymentFailedTotal      atomic.Uint64
	assetUploadsTotal       atomic.Uint64
	assetCleanupFailedTotal atomic.Uint64

	requestDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000})
)

// ObserveResumeSync records one persisted reconciliation and the number of
// child rows it wrote.
func ObserveResumeSync(rows int, err error) {
	resumeSyncTotal.Add(1)
	if err != nil {
		resumeSyncFailedTotal.Add(1)
		return
	}
	if rows > 0 {
		childRecordsWritten.Add(uint64(rows))
	}
}

// IncPaymentEvent counts a verified processor event.
func IncPaymentEvent() {
	paymentEventsTotal.Add(1)
}

// IncPaymentSucceeded counts a first transition into succeeded.
func IncPaymentSucceeded() {
	paymentSucceededTotal.Add(1)
}

// IncPaymentFailed counts a transition into failed.
func IncPaymentFailed() {
	paymentFailedTotal.Add(1)
}

// IncAssetUpload counts a stored image.
func IncAssetUpload() {
	assetUploadsTotal.Add(1)
}

// IncAssetCleanupFailed counts a previous object that could not be removed.
func IncAssetCleanupFailed() {
	assetCleanupFailedTotal.Add(1)
}

// ObserveRequestDuration records a request latency.
func ObserveRequestDuration(d time.Duration) {
	value := float64(d.Microseconds()) / 1000.0
	if value < 0 {
		value = 0
	}
	requestDuration.Observe(value)
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
	writeCounter(&buf, "resume_sync_total", "Resume change sets persisted or attempted", resumeSyncTotal.Load())
	writeCounter(&buf, "resume_sync_failed_total", "Resume change sets rolled back", resumeSyncFailedTotal.Load())
	writeCounter(&buf, "resume_child_rows_written_total", "Child rows inserted, updated or deleted", childRecordsWritten.Load())
	writeCounter(&buf, "payment_events_total", "Verified payment processor events", paymentEventsTotal.Load())
	writeCounter(&buf, "payment_succeeded_total", "Payments that reached succeeded", paymentSucceededTotal.Load())
	writeCounter(&buf, "payment_failed_total", "Payments that reached failed", paymentFailedTotal.Load())
	writeCounter(&buf, "asset_uploads_total", "Images stored", assetUploadsTotal.Load())
	writeCounter(&buf, "asset_cleanup_failed_total", "Previous images that could not be removed", assetCleanupFailedTotal.Load())
	writeHistogram(&buf, "http_request_duration_ms", "Request duration in milliseconds", requestDuration.Snapshot())
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
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
