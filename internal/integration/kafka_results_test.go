//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-wqflow/internal/adapter/flowfile"
	"github.com/couchcryptid/storm-data-wqflow/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-wqflow/internal/config"
	"github.com/couchcryptid/storm-data-wqflow/internal/domain"
	"github.com/couchcryptid/storm-data-wqflow/internal/observability"
	"github.com/couchcryptid/storm-data-wqflow/internal/sizing"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testResultsTopic = "test-sizing-results"

// publishedResult holds a deserialized message read from the results topic.
type publishedResult struct {
	Result  domain.SizingResult
	Key     string
	Headers map[string]string
}

func readResult(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedResult {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from results topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var result domain.SizingResult
	require.NoError(t, json.Unmarshal(msg.Value, &result), "unmarshal result message")

	return publishedResult{Result: result, Key: string(msg.Key), Headers: headers}
}

// TestSizingPublishesResults sizes a catchment through the service and reads
// the published result back from Kafka.
func TestSizingPublishesResults(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testResultsTopic)

	dir := t.TempDir()
	cfg := &config.Config{
		ReferenceFlowsPath:   filepath.Join(dir, "flows.npy"),
		ReferenceAreaHa:      domain.ReferenceAreaHa,
		ReferenceImpervPct:   domain.ReferenceImperviousPct,
		ReferenceStepSeconds: domain.HourSeconds,
		WetThreshold:         domain.DefaultWetThreshold,
		CapturePercentages:   domain.DefaultCapturePercentages,
		KafkaBrokers:         []string{broker},
		KafkaResultsTopic:    testResultsTopic,
	}
	require.NoError(t, flowfile.Save(cfg.ReferenceFlowsPath, []float64{0, 0.5, 1, 1.5, 2}))

	writer := kafka.NewWriter(cfg, slog.Default())
	defer writer.Close()

	metrics := observability.NewMetricsForTesting()
	svc := sizing.New(cfg, nil, writer, slog.Default(), metrics)
	require.NoError(t, svc.Bootstrap(ctx))

	result, err := svc.Size(ctx, sizing.Request{AreaHa: 33, ImperviousPct: 55})
	require.NoError(t, err)
	require.InDelta(t, 1, testutil.ToFloat64(metrics.ResultsPublished), 0, "publish should succeed")

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testResultsTopic,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     time.Second,
	})
	defer consumer.Close()

	got := readResult(ctx, t, consumer)
	assert.Equal(t, result.RunID, got.Key)
	assert.Equal(t, domain.ModeReferenceScaled, got.Headers["mode"])
	assert.Equal(t, result.ComputedAt.Format(time.RFC3339), got.Headers["computed_at"])
	assert.Equal(t, result.RunID, got.Result.RunID)
	assert.InDelta(t, 1.0, got.Result.QWQ90CMS, 1e-9)
	assert.Len(t, got.Result.CaptureFlows, len(domain.DefaultCapturePercentages))
}
