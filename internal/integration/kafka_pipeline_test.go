//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/climogram-etl/internal/adapter/catalog"
	"github.com/couchcryptid/climogram-etl/internal/adapter/catalog/catalogtest"
	"github.com/couchcryptid/climogram-etl/internal/adapter/kafka"
	"github.com/couchcryptid/climogram-etl/internal/config"
	"github.com/couchcryptid/climogram-etl/internal/domain"
	"github.com/couchcryptid/climogram-etl/internal/observability"
	"github.com/couchcryptid/climogram-etl/internal/pipeline"
	"github.com/couchcryptid/climogram-etl/internal/render"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-requests"
	testSinkTopic   = "test-climograms"
	testToken       = "integration-token"
)

// climogramMessage holds a deserialized document read from the sink topic.
type climogramMessage struct {
	Doc     render.Document
	Key     string
	Headers map[string]string
}

// readClimogram reads a single message from the sink consumer and deserializes it.
func readClimogram(ctx context.Context, t *testing.T, consumer *kafkago.Reader) climogramMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var doc render.Document
	require.NoError(t, json.Unmarshal(msg.Value, &doc), "unmarshal sink message")

	return climogramMessage{Doc: doc, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 2 * time.Second,
	}
}

// newTransformer wires the real catalog client against the synthetic catalog.
func newTransformer(t *testing.T, metrics *observability.Metrics) *pipeline.ClimogramTransformer {
	t.Helper()
	srv, _ := catalogtest.NewServer(catalogtest.Default(), testToken)
	t.Cleanup(srv.Close)

	client := catalog.NewClient(srv.URL, testToken, 10*time.Second, 1, metrics, discardLogger())
	source := catalog.NewCachedSource(client, 64, metrics)
	agg := pipeline.NewAggregator(source, domain.JoinDrop, discardLogger(), metrics)
	return pipeline.NewTransformer(agg, discardLogger())
}

func requestMessage(t *testing.T, req domain.ClimogramRequest) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	return kafkago.Message{Key: []byte(req.ID), Value: payload}
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor) and
// kafka.Writer (loader) round-trip a request and its climogram through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	req := domain.ClimogramRequest{ID: "req-rw", Region: loadRegion(t), StartYear: 2001, EndYear: 2003}
	msg := requestMessage(t, req)

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, msg))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for len(batch) == 0 {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("req-rw"), raw.Key)
	assert.Equal(t, msg.Value, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	out, err := newTransformer(t, observability.NewMetricsForTesting()).Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputEvent{out}))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	cm := readClimogram(ctx, t, consumer)
	assert.Equal(t, "req-rw", cm.Key)
	assert.Equal(t, "niamey", cm.Headers["region_id"])
	_, err = time.Parse(time.RFC3339, cm.Headers["generated_at"])
	assert.NoError(t, err, "generated_at should be valid RFC3339")

	require.Len(t, cm.Doc.Climogram.Series, 3)
	assert.Equal(t, domain.YearBucket(2001), cm.Doc.Climogram.Series[0].Year)
	assert.Len(t, cm.Doc.Canvas.Layers, 3)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer → Writer)
// with real Kafka and an HTTP catalog, and checks every request is answered.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	region := loadRegion(t)
	ranges := map[string][2]int{
		"req-full":    {2000, 2010},
		"req-early":   {1996, 2001},
		"req-single":  {2015, 2015},
		"req-decades": {1990, 2020},
	}

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(ranges))
	for id, r := range ranges {
		msgs = append(msgs, requestMessage(t, domain.ClimogramRequest{ID: id, Region: region, StartYear: r[0], EndYear: r[1]}))
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newTransformer(t, metrics), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(map[string]climogramMessage, len(ranges))
	for len(received) < len(ranges) {
		cm := readClimogram(ctx, t, consumer)
		received[cm.Key] = cm
	}

	pipelineCancel()
	require.NoError(t, <-errCh)
	require.NoError(t, p.CheckReadiness(ctx))

	for id, r := range ranges {
		cm, ok := received[id]
		require.True(t, ok, "missing climogram %s", id)
		cg := cm.Doc.Climogram

		first := max(r[0], 2000) // MODIS coverage starts in 2000
		assert.Len(t, cg.Series, r[1]-first+1, id)
		assert.Len(t, cg.DroppedYears, first-r[0], id)
		for _, pt := range cg.Series {
			require.NotNil(t, pt.Precipitation, id)
			require.NotNil(t, pt.Temperature, id)
		}
	}
}

// TestPipelineTransformError verifies that invalid requests (poison pills) are
// skipped and the pipeline continues processing valid ones.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	region := loadRegion(t)
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad-json"), Value: []byte("not-json{{{")},
		requestMessage(t, domain.ClimogramRequest{ID: "inverted", Region: region, StartYear: 2010, EndYear: 2001}),
		requestMessage(t, domain.ClimogramRequest{ID: "good", Region: region, StartYear: 2005, EndYear: 2006}),
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newTransformer(t, metrics), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	cm := readClimogram(ctx, t, consumer)
	assert.Equal(t, "good", cm.Key)
	assert.Len(t, cm.Doc.Climogram.Series, 2)

	// No second message: both poison pills were skipped.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
