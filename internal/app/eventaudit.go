package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"neo-alexandria/internal/config"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/kernel"
)

// EventAuditSink mirrors every kernel.EventBus event out to an external
// EventBridge bus for audit/replay, adapted from the teacher's
// infrastructure/messaging/eventbridge.EventBridgePublisher. Unlike the
// teacher's publisher this has no caller that batches multiple events per
// call (the bus emits one event per Emit), so PublishBatch's 10-wide
// chunking and the teacher's unused retry/Subscribe/Unsubscribe stubs
// (EventBridge subscriptions are managed externally, via IaC) are dropped.
type EventAuditSink struct {
	client       *eventbridge.Client
	eventBusName string
	source       string
	logger       *zap.Logger
}

// allAuditedEventTypes lists every shared.EventType the sink mirrors.
// EventBus.Subscribe has no wildcard registration, so each type needs its
// own subscription.
var allAuditedEventTypes = []shared.EventType{
	shared.EventResourceCreated,
	shared.EventResourceContentChanged,
	shared.EventResourceClassified,
	shared.EventResourceQualityScored,
	shared.EventResourceUpdated,
	shared.EventResourceDeleted,
	shared.EventIngestionCompleted,
	shared.EventIngestionFailed,
	shared.EventAnnotationCreated,
	shared.EventSystemError,
}

// NewEventAuditSink loads AWS credentials/region the default way
// (environment, shared config, EC2/ECS role) and builds an EventBridge
// client for cfg.EventBusName. Returns an error if default AWS config
// can't be loaded; it is the caller's job to treat that as non-fatal for
// an optional audit mirror.
func NewEventAuditSink(ctx context.Context, cfg config.EventAudit, logger *zap.Logger) (*EventAuditSink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("event audit: load aws config: %w", err)
	}
	return &EventAuditSink{
		client:       eventbridge.NewFromConfig(awsCfg),
		eventBusName: cfg.EventBusName,
		source:       cfg.Source,
		logger:       logger,
	}, nil
}

// mirror publishes one bus event to EventBridge. It matches
// kernel.EventBus's subscriber signature so it can be registered directly
// with Subscribe; per the bus's handler contract (internal/kernel/eventbus.go)
// a returned error is logged by the bus, never propagated to the emitter,
// so a down EventBridge endpoint never blocks a request.
func (s *EventAuditSink) mirror(ctx context.Context, event shared.Event) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("event audit: marshal %s: %w", event.Type, err)
	}

	entry := types.PutEventsRequestEntry{
		EventBusName: aws.String(s.eventBusName),
		Source:       aws.String(s.source),
		DetailType:   aws.String(string(event.Type)),
		Detail:       aws.String(string(detail)),
		Time:         aws.Time(event.EmittedAt),
	}
	if id, ok := event.Payload["resource_id"].(string); ok && id != "" {
		entry.Resources = []string{"arn:aws:neo-alexandria::" + id}
	}

	result, err := s.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: []types.PutEventsRequestEntry{entry}})
	if err != nil {
		return fmt.Errorf("event audit: publish %s: %w", event.Type, err)
	}
	if result.FailedEntryCount > 0 {
		for _, e := range result.Entries {
			if e.ErrorCode != nil {
				s.logger.Error("event audit publish failed",
					zap.String("event_type", string(event.Type)),
					zap.String("error_code", *e.ErrorCode),
					zap.String("error_message", aws.ToString(e.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("event audit: %d entries failed", result.FailedEntryCount)
	}
	return nil
}

// registerEventAuditSink subscribes sink.mirror to every audited event
// type, alongside registerEventHandlers' cache-invalidation and cascade
// subscribers.
func registerEventAuditSink(bus *kernel.EventBus, sink *EventAuditSink) {
	for _, typ := range allAuditedEventTypes {
		bus.Subscribe(typ, "eventbridge.audit", sink.mirror)
	}
}
