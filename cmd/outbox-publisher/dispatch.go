package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	"github.com/angelmondragon/solarpo-backend/pkg/outbox"
	"github.com/angelmondragon/solarpo-backend/pkg/outbox/registry"
)

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomeDead
	outcomeDeferred
)

// batchStats counts what happened to each row of one batch.
type batchStats struct {
	published int
	retried   int
	dead      int
	deferred  int
}

func (b batchStats) total() int {
	return b.published + b.retried + b.dead + b.deferred
}

func (b *batchStats) add(o outcome) {
	switch o {
	case outcomePublished:
		b.published++
	case outcomeRetry:
		b.retried++
	case outcomeDead:
		b.dead++
	case outcomeDeferred:
		b.deferred++
	}
}

// processBatch publishes one page of pending rows oldest first. A row that
// fails leaves later rows with the same ordering key untouched until the
// next batch. Only storage errors abort the batch.
func (s *Service) processBatch(ctx context.Context) (batchStats, error) {
	var stats batchStats
	started := time.Now()
	events, err := s.repo.FetchUnpublished(ctx, s.batchSize, s.maxAttempts)
	if err != nil {
		s.metrics.IncFailure(batchLabel)
		return stats, fmt.Errorf("fetch unpublished: %w", err)
	}
	if len(events) == 0 {
		return stats, nil
	}
	defer func() {
		s.metrics.ObserveDuration(batchLabel, time.Since(started))
	}()

	blocked := map[string]bool{}
	for _, event := range events {
		key := orderingKey(event)
		if blocked[key] {
			stats.add(outcomeDeferred)
			continue
		}
		o, err := s.processEvent(ctx, event)
		if err != nil {
			s.metrics.IncFailure(batchLabel)
			return stats, err
		}
		if o != outcomePublished {
			blocked[key] = true
		}
		stats.add(o)
	}
	s.metrics.IncSuccess(batchLabel)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"published": stats.published,
		"retried":   stats.retried,
		"dead":      stats.dead,
		"deferred":  stats.deferred,
	}), "outbox.batch.complete")
	return stats, nil
}

func (s *Service) processEvent(ctx context.Context, event models.OutboxEvent) (outcome, error) {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return outcomeDead, s.deadLetter(ctx, event, enums.OutboxDLQReasonNonRetryable, err, eventFields(event, nil))
	}

	fields := eventFields(event, resolved)
	err = s.publish(ctx, event, resolved)
	if err == nil {
		if err := s.repo.MarkPublished(ctx, event.ID); err != nil {
			return outcomePublished, fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox.event.published")
		return outcomePublished, nil
	}

	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) {
		return outcomeDead, s.deadLetter(ctx, event, enums.OutboxDLQReasonNonRetryable, err, fields)
	}
	attempt := event.AttemptCount + 1
	fields["attempt_count"] = attempt
	if attempt >= s.maxAttempts {
		err = fmt.Errorf("max publish attempts reached: %w", err)
		return outcomeDead, s.deadLetter(ctx, event, enums.OutboxDLQReasonMaxAttempts, err, fields)
	}

	s.logg.Warn(s.logg.WithFields(ctx, withError(fields, err)), "outbox.event.retry")
	if markErr := s.repo.MarkFailed(ctx, event.ID, err); markErr != nil {
		return outcomeRetry, fmt.Errorf("mark failure %s: %w", event.ID, markErr)
	}
	return outcomeRetry, nil
}

// deadLetter copies the row into the DLQ and retires it. The two writes are
// not atomic; a crash in between leaves a DLQ row for an event that is
// retried once more.
func (s *Service) deadLetter(ctx context.Context, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, err error, fields map[string]any) error {
	fields["error_reason"] = reason
	s.logg.Warn(s.logg.WithFields(ctx, withError(fields, err)), "outbox.event.dead")

	msg := err.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      s.now(),
	}
	if err := s.dlq.Insert(ctx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkDead(ctx, event.ID, s.maxAttempts, errors.New(msg)); err != nil {
		return fmt.Errorf("mark dead %s: %w", event.ID, err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.publisherFor(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	ctx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(ctx, newMessage(event, resolved.Envelope))
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	_, err := result.Get(ctx)
	return err
}

// orderingKey keeps events for one aggregate in commit order.
func orderingKey(event models.OutboxEvent) string {
	return string(event.AggregateType) + ":" + event.AggregateID.String()
}

// newMessage sends the stored envelope as-is; the attributes let
// subscribers filter without decoding it.
func newMessage(event models.OutboxEvent, env outbox.PayloadEnvelope) *gcppubsub.Message {
	attrs := map[string]string{
		"event_id":         env.EventID,
		"event_type":       string(event.EventType),
		"aggregate_type":   string(event.AggregateType),
		"aggregate_id":     event.AggregateID.String(),
		"envelope_version": strconv.Itoa(env.Version),
		"created_at":       event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if env.Actor != nil && env.Actor.Kind != "" {
		attrs["actor_kind"] = env.Actor.Kind
	}
	return &gcppubsub.Message{
		Data:        event.Payload,
		Attributes:  attrs,
		OrderingKey: orderingKey(event),
	}
}

func eventFields(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if resolved != nil {
		fields["topic"] = resolved.Descriptor.Topic
		fields["event_id"] = resolved.Envelope.EventID
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func withError(fields map[string]any, err error) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
