// Package kafka implements a record feed backed by a Kafka consumer group.
// Message payloads are validated against an optional JSON schema before they
// reach the engine; invalid payloads are logged and acknowledged so they do
// not wedge the partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/otelhelper"
	"github.com/shipshapehq/shipshape/pkg/sources"
)

// Config declares one Kafka feed. Brokers falls back to the KAFKA_BROKERS
// environment variable.
type Config struct {
	Brokers       []string
	Topics        []string
	ConsumerGroup string
	DataType      string
	// Schema is an optional JSON schema the message payload must satisfy.
	Schema map[string]any
	// Tracer records one span per consumed message when set.
	Tracer trace.Tracer
}

// Feed consumes entity records from Kafka. Messages carry a JSON object with
// "entity_id" and "record" fields; "data_type" overrides the feed default.
type Feed struct {
	logger   *slog.Logger
	cfg      Config
	consumer sarama.ConsumerGroup
	cancel   context.CancelFunc
}

func NewFeed(logger *slog.Logger, cfg Config) (*Feed, error) {
	if len(cfg.Brokers) == 0 {
		brokers := os.Getenv("KAFKA_BROKERS")
		if brokers == "" {
			brokers = "localhost:9092"
		}

		for _, broker := range strings.Split(brokers, ",") {
			cfg.Brokers = append(cfg.Brokers, strings.TrimSpace(broker))
		}
	}

	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("kafka feed needs at least one topic")
	}

	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = "shipshape-feed"
	}

	if cfg.DataType == "" {
		return nil, fmt.Errorf("kafka feed needs a data type")
	}

	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("kafka_feed")
	}

	return &Feed{
		logger: logger.With("module", "kafka_feed", "consumer_group", cfg.ConsumerGroup),
		cfg:    cfg,
	}, nil
}

func (f *Feed) Start(ctx context.Context, handler sources.RecordHandler) error {
	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0
	config.Consumer.Group.Session.Timeout = 10 * time.Second
	config.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	consumer, err := sarama.NewConsumerGroup(f.cfg.Brokers, f.cfg.ConsumerGroup, config)
	if err != nil {
		return fmt.Errorf("creating kafka consumer group: %w", err)
	}

	f.consumer = consumer

	ctx, f.cancel = context.WithCancel(ctx)

	go func() {
		claimHandler := &claimHandler{feed: f, handler: handler}

		for {
			select {
			case <-ctx.Done():
				return
			default:
				if err := consumer.Consume(ctx, f.cfg.Topics, claimHandler); err != nil {
					f.logger.Error("Kafka consume error", "error", err)
					time.Sleep(5 * time.Second)
				}
			}
		}
	}()

	go func() {
		for {
			select {
			case err := <-consumer.Errors():
				if err != nil {
					f.logger.Error("Kafka consumer group error", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	f.logger.Info("Kafka feed started", "topics", f.cfg.Topics, "brokers", f.cfg.Brokers)

	return nil
}

func (f *Feed) Stop(_ context.Context) error {
	if f.cancel != nil {
		f.cancel()
	}

	if f.consumer != nil {
		return f.consumer.Close()
	}

	return nil
}

type inboundMessage struct {
	EntityID string         `json:"entity_id"`
	DataType string         `json:"data_type,omitempty"`
	Record   map[string]any `json:"record"`
}

type claimHandler struct {
	feed    *Feed
	handler sources.RecordHandler
}

func (h *claimHandler) Setup(sarama.ConsumerGroupSession) error {
	h.feed.logger.Info("Kafka consumer session started")

	return nil
}

func (h *claimHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.feed.logger.Info("Kafka consumer session ended")

	return nil
}

func (h *claimHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		logger := h.feed.logger.With("topic", message.Topic, "partition", message.Partition, "offset", message.Offset)

		var inbound inboundMessage
		if err := json.Unmarshal(message.Value, &inbound); err != nil {
			logger.Warn("Dropping unparseable message", "error", err)
			session.MarkMessage(message, "")

			continue
		}

		if inbound.Record == nil {
			logger.Warn("Dropping message without a record payload")
			session.MarkMessage(message, "")

			continue
		}

		if err := h.feed.validatePayload(inbound.Record); err != nil {
			logger.Warn("Dropping message failing payload schema", "error", err)
			session.MarkMessage(message, "")

			continue
		}

		dataType := inbound.DataType
		if dataType == "" {
			dataType = h.feed.cfg.DataType
		}

		msgCtx, span := otelhelper.StartSpan(session.Context(), h.feed.cfg.Tracer, "feed.consume",
			attribute.String(otelhelper.DataTypeKey, dataType),
			attribute.String(otelhelper.EntityIDKey, inbound.EntityID),
		)

		if err := h.handler(msgCtx, dataType, inbound.EntityID, models.Record(inbound.Record)); err != nil {
			logger.Error("Record handler failed, message left unacknowledged", "entity_id", inbound.EntityID, "error", err)
			otelhelper.SetError(span, err)
			span.End()

			continue
		}

		span.End()
		session.MarkMessage(message, "")
	}

	return nil
}

func (f *Feed) validatePayload(payload map[string]any) error {
	if f.cfg.Schema == nil {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(f.cfg.Schema),
		gojsonschema.NewGoLoader(payload),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("payload violates schema: %s", strings.Join(details, "; "))
	}

	return nil
}
