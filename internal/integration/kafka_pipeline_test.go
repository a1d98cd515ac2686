//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/adapter/kafka"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/config"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/domain"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/export"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/observability"
	"github.com/Ryan-ai-champ/data-sourcing-challenge/internal/pipeline"
)

const testSinkTopic = "test-merged-space-weather"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka broker in a container and returns
// its advertised address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve broker address")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// readMerged reads one message from the sink topic and deserializes it.
func readMerged(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (domain.MergedRecord, kafkago.Message) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	var record domain.MergedRecord
	require.NoError(t, json.Unmarshal(msg.Value, &record), "unmarshal sink message")
	return record, msg
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func mergedFixture() domain.MergedRecord {
	speed := 1740.0
	halfAngle := 60.0
	return domain.MergedRecord{
		GST: domain.GSTEvent{
			GstID:     "2024-05-10T12:00:00-GST-001",
			StartTime: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
			KpIndex: []domain.KpObservation{
				{ObservedTime: time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC), KpIndex: 8.33, Source: "NOAA"},
				{ObservedTime: time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC), KpIndex: 9, Source: "NOAA"},
			},
			LinkedActivityIDs: []string{"2024-05-08T05:36:00-CME-001"},
		},
		CMEs: []domain.MergedCME{
			{
				CMEEvent: domain.CMEEvent{
					ActivityID: "2024-05-08T05:36:00-CME-001",
					StartTime:  time.Date(2024, 5, 8, 5, 36, 0, 0, time.UTC),
					Speed:      &speed,
					HalfAngle:  &halfAngle,
					Type:       "R",
				},
				PropagationHours: 54.4,
				LinkedCME:        true,
			},
		},
	}
}

// TestKafkaWriterRoundTrip verifies the adapter layer: kafka.Writer publishes
// merged records that a plain consumer can read back intact.
func TestKafkaWriterRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers: []string{broker},
		KafkaTopic:   testSinkTopic,
	}

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	want := mergedFixture()
	require.NoError(t, writer.Publish(ctx, []domain.MergedRecord{want}))

	consumer := newConsumer(t, broker)
	got, msg := readMerged(ctx, t, consumer)

	assert.Equal(t, []byte(want.GST.GstID), msg.Key)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "2024-05-10T12:00:00Z", headers["gst_start"])
	assert.Equal(t, "1", headers["cme_count"])

	assert.Equal(t, want.GST.GstID, got.GST.GstID)
	assert.True(t, want.GST.StartTime.Equal(got.GST.StartTime))
	require.Len(t, got.CMEs, 1)
	assert.Equal(t, want.CMEs[0].ActivityID, got.CMEs[0].ActivityID)
	require.NotNil(t, got.CMEs[0].Speed)
	assert.Equal(t, 1740.0, *got.CMEs[0].Speed)
	assert.Equal(t, 54.4, got.CMEs[0].PropagationHours)
	assert.True(t, got.CMEs[0].LinkedCME)
	assert.Equal(t, 9.0, got.GST.MaxKp())
}

type staticFetcher struct {
	cmes []domain.RawCME
	gsts []domain.RawGST
}

func (f *staticFetcher) FetchCME(_ context.Context, _, _ time.Time) ([]domain.RawCME, error) {
	return f.cmes, nil
}

func (f *staticFetcher) FetchGST(_ context.Context, _, _ time.Time) ([]domain.RawGST, error) {
	return f.gsts, nil
}

// TestPipelineEndToEnd runs the full pipeline against real Kafka: fetch,
// merge, export to disk, and publish to the sink topic in one pass.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	outputDir := t.TempDir()
	cfg := &config.Config{
		StartDate:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC),
		MergeWindow:  72 * time.Hour,
		OutputDir:    outputDir,
		Formats:      []string{"csv", "json"},
		KafkaBrokers: []string{broker},
		KafkaTopic:   testSinkTopic,
	}

	fetcher := &staticFetcher{
		cmes: []domain.RawCME{
			{
				ActivityID: "2024-05-08T05:36:00-CME-001",
				StartTime:  "2024-05-08T05:36Z",
				CMEAnalyses: []domain.RawCMEAnalysis{
					{Speed: ptrF(1740), HalfAngle: ptrF(60), Type: "R"},
				},
			},
			{ActivityID: "2024-05-01T02:00:00-CME-001", StartTime: "2024-05-01T02:00Z"},
		},
		gsts: []domain.RawGST{
			{
				GstID:     "2024-05-10T12:00:00-GST-001",
				StartTime: "2024-05-10T12:00Z",
				AllKpIndex: []domain.RawKpIndex{
					{ObservedTime: "2024-05-10T15:00Z", KpIndex: 9, Source: "NOAA"},
				},
				LinkedEvents: []domain.RawLinkedEvent{
					{ActivityID: "2024-05-08T05:36:00-CME-001"},
				},
			},
		},
	}

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	exporter := export.New(discardLogger(), metrics)
	clk := clockwork.NewFakeClockAt(time.Date(2024, 5, 12, 8, 0, 0, 0, time.UTC))

	p := pipeline.New(fetcher, exporter, writer, cfg, clk, discardLogger(), metrics)
	require.NoError(t, p.Run(ctx))

	// Files land on disk.
	for _, name := range []string{"space_weather_2024-05-12.csv", "space_weather_2024-05-12.json", "summary_2024-05-12.json"} {
		_, err := os.Stat(filepath.Join(outputDir, name))
		assert.NoError(t, err, name)
	}

	// The merged record lands on the sink topic.
	consumer := newConsumer(t, broker)
	got, msg := readMerged(ctx, t, consumer)

	assert.Equal(t, "2024-05-10T12:00:00-GST-001", string(msg.Key))
	require.Len(t, got.CMEs, 1, "only the in-window CME should merge")
	assert.Equal(t, "2024-05-08T05:36:00-CME-001", got.CMEs[0].ActivityID)
	assert.True(t, got.CMEs[0].LinkedCME)

	// No second message: one GST means one published record.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected a single message on the sink topic")
}

func ptrF(v float64) *float64 { return &v }
