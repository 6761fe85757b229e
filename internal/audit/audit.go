package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Audit actions.
const (
	ActionTenantCreated = "TENANT_CREATED"
	ActionTenantJoined  = "TENANT_JOINED"
	ActionLeadStage     = "LEAD_STAGE_CHANGED"
)

// Event is one audit record.
type Event struct {
	ActorID       string         `json:"actor_id"`
	Action        string         `json:"action"`
	TenantID      string         `json:"tenant_id,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	SourceAddress string         `json:"source_address,omitempty"`
	At            time.Time      `json:"at"`
}

// Sink records audit events. Implementations are fire-and-forget: Record
// never returns an error and must not block the caller's primary operation.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// RedisSink publishes events to a Redis stream so audit writes never
// contend with the primary datastore path.
type RedisSink struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

func NewRedisSink(client *redis.Client, stream string, logger *zap.Logger) *RedisSink {
	if stream == "" {
		stream = "nestcrm:audit"
	}
	return &RedisSink{client: client, stream: stream, logger: logger}
}

var _ Sink = (*RedisSink)(nil)

func (s *RedisSink) Record(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	values := map[string]any{
		"actor_id":  event.ActorID,
		"action":    event.Action,
		"tenant_id": event.TenantID,
		"at":        event.At.Format(time.RFC3339Nano),
	}
	if event.SourceAddress != "" {
		values["source_address"] = event.SourceAddress
	}
	if len(event.Details) > 0 {
		if b, err := json.Marshal(event.Details); err == nil {
			values["details"] = string(b)
		}
	}

	if err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: values,
	}).Err(); err != nil {
		// Swallowed: audit must never fail the caller.
		s.logger.Warn("Failed to record audit event",
			zap.String("action", event.Action),
			zap.String("tenant_id", event.TenantID),
			zap.Error(err),
		)
	}
}

// LogSink writes events to the service log only. Used when Redis is not
// configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

var _ Sink = (*LogSink)(nil)

func (s *LogSink) Record(_ context.Context, event Event) {
	s.logger.Info("audit",
		zap.String("actor_id", event.ActorID),
		zap.String("action", event.Action),
		zap.String("tenant_id", event.TenantID),
		zap.Any("details", event.Details),
		zap.String("source_address", event.SourceAddress),
	)
}

// MemorySink collects events for tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

var _ Sink = (*MemorySink)(nil)

func (s *MemorySink) Record(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a copy of everything recorded so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
