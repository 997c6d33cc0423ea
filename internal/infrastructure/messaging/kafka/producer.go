// Package kafka carries analysis events over Apache Kafka: a producer that
// announces completed analyses, a consumer that drives the analysis worker
// from request events, and topic provisioning.
package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/LexCase-Intelligence/internal/application/caseanalysis"
	"github.com/turtacn/LexCase-Intelligence/internal/config"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

const maxMessageBytes = 1 << 20

var ErrProducerClosed = errors.New(errors.ErrCodeInternal, "producer closed")

// ProducerMetrics holds producer counters.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
	LastLatencyMs  atomic.Int64
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Stats() kafka.WriterStats
}

// Producer publishes envelopes.  It satisfies caseanalysis.EventPublisher.
type Producer struct {
	writer       WriterInterface
	topic        string
	requestTopic string
	logger       logging.Logger
	closed       atomic.Bool
	metrics      *ProducerMetrics
}

var _ caseanalysis.EventPublisher = (*Producer)(nil)

// NewProducer builds a producer over cfg.Brokers.  Messages carry their own
// topic, so the writer is not bound to one.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	if cfg.Topic == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka topic required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  orInt(cfg.MaxAttempts, 3),
		BatchSize:    orInt(cfg.BatchSize, 100),
		BatchTimeout: orDuration(cfg.BatchTimeout, 10*time.Millisecond),
		WriteTimeout: 10 * time.Second,
		RequiredAcks: requiredAcks(cfg.RequiredAcks),
		Async:        cfg.Async,
		Transport:    &kafka.Transport{DialTimeout: 10 * time.Second},
	}

	p := NewProducerWithWriter(writer, cfg.Topic, log)
	p.requestTopic = cfg.RequestTopic
	return p, nil
}

// NewProducerWithWriter wraps an existing writer.  Completed-analysis events
// go to topic.
func NewProducerWithWriter(w WriterInterface, topic string, log logging.Logger) *Producer {
	return &Producer{writer: w, topic: topic, logger: log, metrics: &ProducerMetrics{}}
}

// Publish writes one message.
func (p *Producer) Publish(ctx context.Context, msg *ProducerMessage) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if msg.Topic == "" {
		return errors.New(errors.ErrCodeValidation, "topic required")
	}
	if len(msg.Value) == 0 {
		return errors.New(errors.ErrCodeValidation, "value required")
	}
	if len(msg.Value) > maxMessageBytes {
		return errors.New(errors.ErrCodeValidation, "message too large")
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, toKafkaMessage(msg)); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return errors.Wrap(err, errors.ErrCodeExternalService, "publish failed")
	}

	latency := time.Since(start).Milliseconds()
	p.metrics.MessagesSent.Add(1)
	p.metrics.BytesSent.Add(int64(len(msg.Value)))
	p.metrics.LastLatencyMs.Store(latency)

	p.logger.Debug("message published",
		logging.String("topic", msg.Topic),
		logging.Int64("latency_ms", latency))
	return nil
}

// PublishAnalysisCompleted announces a computed analysis, keyed by case id so
// events for one case stay ordered within a partition.
func (p *Producer) PublishAnalysisCompleted(ctx context.Context, evt caseanalysis.AnalysisCompletedEvent) error {
	env, err := NewEventEnvelope(EventAnalysisCompleted, evt)
	if err != nil {
		return err
	}
	if evt.EventID != "" {
		env.EventID = evt.EventID
	}
	msg, err := env.ToMessage(p.topic, evt.CaseID)
	if err != nil {
		return err
	}
	return p.Publish(ctx, msg)
}

// RequestAnalysis enqueues an analysis request for the worker.
func (p *Producer) RequestAnalysis(ctx context.Context, req AnalysisRequestedPayload) error {
	if req.CaseID == "" {
		return errors.InvalidParam("case id required")
	}
	if p.requestTopic == "" {
		return errors.New(errors.ErrCodeValidation, "kafka request topic not configured")
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	env, err := NewEventEnvelope(EventAnalysisRequested, req)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(p.requestTopic, req.CaseID)
	if err != nil {
		return err
	}
	return p.Publish(ctx, msg)
}

// WithRequestTopic sets the topic used by RequestAnalysis.
func (p *Producer) WithRequestTopic(topic string) *Producer {
	p.requestTopic = topic
	return p
}

// Sent returns the number of messages written successfully.
func (p *Producer) Sent() int64 {
	return p.metrics.MessagesSent.Load()
}

// Failed returns the number of messages that could not be written.
func (p *Producer) Failed() int64 {
	return p.metrics.MessagesFailed.Load()
}

// Close flushes and closes the writer.  Subsequent calls are no-ops.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed", logging.Int64("sent", p.metrics.MessagesSent.Load()))
	return err
}

func toKafkaMessage(msg *ProducerMessage) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return kafka.Message{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
		Time:    ts,
	}
}

// requiredAcks maps -1 to all replicas; anything else waits for the leader.
func requiredAcks(n int) kafka.RequiredAcks {
	if n < 0 {
		return kafka.RequireAll
	}
	return kafka.RequireOne
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

//Personal.AI order the ending
