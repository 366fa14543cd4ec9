// Package redpanda publishes SkillProof domain events to Redpanda/Kafka.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// EventReportGenerated is the value of the event_type header on report records.
const EventReportGenerated = "report.generated"

// ReportGeneratedEvent is the JSON body of a report.generated record.
type ReportGeneratedEvent struct {
	EventType       string                   `json:"eventType"`
	ReportID        string                   `json:"reportId"`
	CandidateID     string                   `json:"candidateId"`
	SkillSessionID  string                   `json:"skillSessionId"`
	JobPositionID   string                   `json:"jobPositionId"`
	SkillLevel      domain.SkillLevel        `json:"skillLevel"`
	IntegrityStatus domain.IntegrityStatus   `json:"integrityStatus"`
	Confidence      domain.ConfidenceInsight `json:"confidenceAssessment"`
	GeneratedAt     time.Time                `json:"generatedAt"`
}

type producerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// ReportPublisher implements domain.EventPublisher on a franz-go client.
type ReportPublisher struct {
	client producerClient
	topic  string
}

var _ domain.EventPublisher = (*ReportPublisher)(nil)

// NewReportPublisher connects to the brokers and makes sure topic exists.
func NewReportPublisher(ctx context.Context, brokers []string, topic string) (*ReportPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=redpanda.new: %w: no seed brokers", domain.ErrInvalidArgument)
	}
	if topic == "" {
		return nil, fmt.Errorf("op=redpanda.new: %w: empty topic", domain.ErrInvalidArgument)
	}
	tracing := kotel.NewKotel(kotel.WithTracer(kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))))
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1_000_000),
		kgo.DialTimeout(10*time.Second),
		kgo.WithHooks(tracing.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("op=redpanda.new: %w", err)
	}
	if err := ensureTopic(ctx, client, topic, 1, 1); err != nil {
		slog.Warn("report topic not ensured, relying on broker auto-create",
			slog.String("topic", topic), slog.Any("error", err))
	}
	slog.Info("redpanda report publisher ready", slog.Any("brokers", brokers), slog.String("topic", topic))
	return &ReportPublisher{client: client, topic: topic}, nil
}

// PublishReportGenerated writes one record keyed by the candidate id so a
// candidate's events stay ordered within a partition.
func (p *ReportPublisher) PublishReportGenerated(ctx domain.Context, r domain.SkillProofReport) error {
	ev := ReportGeneratedEvent{
		EventType:       EventReportGenerated,
		ReportID:        r.ID,
		CandidateID:     r.CandidateID,
		SkillSessionID:  r.SkillSessionID,
		JobPositionID:   r.JobPositionID,
		SkillLevel:      r.InferredSkillLevel,
		IntegrityStatus: r.IntegrityStatus,
		Confidence:      r.ConfidenceAssessment,
		GeneratedAt:     r.ReportGeneratedAt,
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("op=redpanda.publish: %w", err)
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(r.CandidateID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(EventReportGenerated)},
			{Key: "report_id", Value: []byte(r.ID)},
		},
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("op=redpanda.publish: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying client.
func (p *ReportPublisher) Close() {
	if p.client != nil {
		p.client.Close()
	}
}
