package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/solarpo-backend/internal/testutil"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
)

func TestEmitStoresEnvelope(t *testing.T) {
	conn := testutil.NewDB(t)
	svc := NewService(NewRepository(conn), nil)
	jobID := uuid.New()

	err := svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.EventMaterialOrdersCreated,
		AggregateType: enums.AggregateInstallationJob,
		AggregateID:   jobID,
		Actor:         &ActorRef{Kind: "cli", Name: "ensure"},
		Data:          map[string]any{"job_id": jobID.String()},
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventMaterialOrdersCreated, rows[0].EventType)
	assert.Equal(t, jobID, rows[0].AggregateID)
	assert.Nil(t, rows[0].PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, "cli", envelope.Actor.Kind)
	assert.JSONEq(t, `{"job_id":"`+jobID.String()+`"}`, string(envelope.Data))
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{})
	require.ErrorIs(t, err, errTxRequired)
}

func TestEmitRejectsIncompleteEvents(t *testing.T) {
	conn := testutil.NewDB(t)
	svc := NewService(NewRepository(conn), nil)
	valid := DomainEvent{
		EventType:     enums.EventMaterialOrderStatusChanged,
		AggregateType: enums.AggregateMaterialOrder,
		AggregateID:   uuid.New(),
		Data:          map[string]string{"to": "SENT"},
	}

	noType := valid
	noType.EventType = "order_exploded"
	noAggregate := valid
	noAggregate.AggregateType = ""
	noID := valid
	noID.AggregateID = uuid.Nil

	for name, ev := range map[string]DomainEvent{"type": noType, "aggregate": noAggregate, "id": noID} {
		assert.Error(t, svc.Emit(context.Background(), conn, ev), name)
	}
	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitUsesEventTimeWhenSet(t *testing.T) {
	conn := testutil.NewDB(t)
	svc := NewService(NewRepository(conn), nil)
	at := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.EventMaterialOrderStatusChanged,
		AggregateType: enums.AggregateMaterialOrder,
		AggregateID:   uuid.New(),
		Data:          map[string]string{"to": "SENT"},
		OccurredAt:    at,
	}))

	var row models.OutboxEvent
	require.NoError(t, conn.First(&row).Error)
	env, err := DecodeEnvelope(row.Payload)
	require.NoError(t, err)
	assert.True(t, at.Equal(env.OccurredAt))
	assert.Equal(t, EnvelopeVersion, env.Version)
}

func TestDecodeEnvelopeRejects(t *testing.T) {
	cases := map[string]string{
		"broken":  `{"data":`,
		"future":  `{"version":2,"data":{}}`,
		"null":    `{"version":1,"data":null}`,
		"missing": `{"version":1}`,
	}
	for name, raw := range cases {
		_, err := DecodeEnvelope([]byte(raw))
		assert.Error(t, err, name)
	}
	_, err := DecodeEnvelope([]byte(`{"version":1,"eventId":"e1","data":{"a":1}}`))
	assert.NoError(t, err)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := testutil.NewDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Emit(ctx, conn, DomainEvent{
			EventType:     enums.EventMaterialOrderStatusChanged,
			AggregateType: enums.AggregateMaterialOrder,
			AggregateID:   uuid.New(),
			Data:          map[string]int{"n": i},
		}))
	}

	rows, err := repo.FetchUnpublished(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.NoError(t, repo.MarkPublished(ctx, rows[0].ID))
	require.NoError(t, repo.MarkFailed(ctx, rows[1].ID, errors.New("topic unavailable")))
	require.NoError(t, repo.MarkDead(ctx, rows[2].ID, 3, errors.New("bad payload")))

	pending, err := repo.FetchUnpublished(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, rows[1].ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].AttemptCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "topic unavailable", *pending[0].LastError)

	all, err := repo.FetchUnpublished(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepositoryDeleteSettledBefore(t *testing.T) {
	conn := testutil.NewDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)
	recent := now.Add(-time.Hour)

	rows := map[string]models.OutboxEvent{
		"published-old":    {CreatedAt: old, PublishedAt: &old},
		"published-recent": {CreatedAt: old, PublishedAt: &recent},
		"dead-old":         {CreatedAt: old, AttemptCount: 10},
		"dead-recent":      {CreatedAt: recent, AttemptCount: 10},
		"pending-old":      {CreatedAt: old, AttemptCount: 2},
	}
	ids := map[string]uuid.UUID{}
	for name, row := range rows {
		row.EventType = enums.EventMaterialOrdersCreated
		row.AggregateType = enums.AggregateInstallationJob
		row.AggregateID = uuid.New()
		row.Payload = json.RawMessage(`{}`)
		require.NoError(t, repo.Insert(conn, row))
		var stored models.OutboxEvent
		require.NoError(t, conn.Where("aggregate_id = ?", row.AggregateID).First(&stored).Error)
		ids[name] = stored.ID
	}

	cutoff := now.Add(-30 * 24 * time.Hour)
	deleted, err := repo.DeleteSettledBefore(ctx, conn, cutoff, 10, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	deleted, err = repo.DeleteSettledBefore(ctx, conn, cutoff, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var remaining []models.OutboxEvent
	require.NoError(t, conn.Find(&remaining).Error)
	left := map[uuid.UUID]bool{}
	for _, r := range remaining {
		left[r.ID] = true
	}
	assert.False(t, left[ids["published-old"]])
	assert.False(t, left[ids["dead-old"]])
	assert.True(t, left[ids["published-recent"]])
	assert.True(t, left[ids["dead-recent"]])
	assert.True(t, left[ids["pending-old"]])
}

func TestDLQRepositoryInsertAndList(t *testing.T) {
	conn := testutil.NewDB(t)
	dlq := NewDLQRepository(conn)
	ctx := context.Background()
	eventID := uuid.New()
	msg := "topic not found"

	require.Error(t, dlq.Insert(ctx, models.OutboxDLQ{}))
	require.NoError(t, dlq.Insert(ctx, models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventMaterialOrdersCreated,
		AggregateType: enums.AggregateInstallationJob,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
		ErrorReason:   enums.OutboxDLQReasonNonRetryable,
		ErrorMessage:  &msg,
		AttemptCount:  3,
		FailedAt:      time.Now().UTC(),
	}))

	rows, err := dlq.ListByEvent(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, rows[0].ErrorReason)
	assert.Equal(t, 3, rows[0].AttemptCount)
	require.NotNil(t, rows[0].ErrorMessage)
	assert.Equal(t, msg, *rows[0].ErrorMessage)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "a", truncate("aé", 2))
	assert.Equal(t, "", errorText(nil))

	long := strings.Repeat("x", maxErrorLen+50)
	assert.Len(t, errorText(errors.New(long)), maxErrorLen)
}

func TestRepositoryRejectsNilID(t *testing.T) {
	repo := NewRepository(testutil.NewDB(t))
	require.Error(t, repo.MarkPublished(context.Background(), uuid.Nil))
}
