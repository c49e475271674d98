package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"kwmetrics/internal/models"
)

var (
	uploadHistoryDesc = prometheus.NewDesc(
		"kwmetrics_upload_history_total",
		"Recorded uploads by project and outcome",
		[]string{"project", "outcome"},
		nil,
	)

	uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kwmetrics_uploads_total",
		Help: "Uploads processed since start by outcome",
	}, []string{"outcome"})

	keywordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kwmetrics_keywords_processed_total",
		Help: "Keyword rows processed since start",
	})

	uploadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kwmetrics_upload_duration_seconds",
		Help:    "Time spent parsing, scoring and storing an upload",
		Buckets: prometheus.DefBuckets,
	})
)

// UploadCounter reads upload totals from the registry.
type UploadCounter interface {
	CountUploadsByOutcome(ctx context.Context) ([]models.UploadCount, error)
}

// UploadCollector is a custom Prometheus collector that reads upload history
// from the registry on each scrape.
type UploadCollector struct {
	source UploadCounter
}

// Describe sends the metric descriptor to the channel.
func (c *UploadCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- uploadHistoryDesc
}

// Collect queries the registry and emits one counter per project and outcome.
func (c *UploadCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.source.CountUploadsByOutcome(ctx)
	if err != nil {
		slog.Error("failed to collect upload metrics", "error", err)
		return
	}
	for _, uc := range counts {
		ch <- prometheus.MustNewConstMetric(
			uploadHistoryDesc,
			prometheus.CounterValue,
			float64(uc.Count),
			uc.ProjectName,
			uc.Outcome,
		)
	}
}

var initOnce sync.Once

// Init registers the process counters and, when source is non-nil, the
// registry-backed collector. Only the first call has an effect.
func Init(source UploadCounter) {
	initOnce.Do(func() {
		prometheus.MustRegister(uploadsTotal, keywordsTotal, uploadDuration)
		if source != nil {
			prometheus.MustRegister(&UploadCollector{source: source})
		}
	})
}

// RecordUpload counts one processed upload.
func RecordUpload(outcome string, rows int, elapsed time.Duration) {
	uploadsTotal.WithLabelValues(outcome).Inc()
	if rows > 0 {
		keywordsTotal.Add(float64(rows))
	}
	uploadDuration.Observe(elapsed.Seconds())
}
