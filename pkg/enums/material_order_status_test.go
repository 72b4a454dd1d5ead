package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to MaterialOrderStatus
		want     bool
	}{
		{MaterialOrderStatusDraft, MaterialOrderStatusPendingReview, true},
		{MaterialOrderStatusPendingReview, MaterialOrderStatusSent, true},
		{MaterialOrderStatusSent, MaterialOrderStatusConfirmed, true},
		{MaterialOrderStatusConfirmed, MaterialOrderStatusInTransit, true},
		{MaterialOrderStatusInTransit, MaterialOrderStatusDelivered, true},
		{MaterialOrderStatusDraft, MaterialOrderStatusSent, false},
		{MaterialOrderStatusSent, MaterialOrderStatusDraft, false},
		{MaterialOrderStatusDraft, MaterialOrderStatusDraft, false},
		{MaterialOrderStatusDraft, MaterialOrderStatusCancelled, true},
		{MaterialOrderStatusInTransit, MaterialOrderStatusCancelled, true},
		{MaterialOrderStatusDelivered, MaterialOrderStatusCancelled, false},
		{MaterialOrderStatusCancelled, MaterialOrderStatusCancelled, false},
		{MaterialOrderStatusCancelled, MaterialOrderStatusDraft, false},
		{MaterialOrderStatus("BOGUS"), MaterialOrderStatusCancelled, false},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestParseEnums(t *testing.T) {
	status, err := ParseMaterialOrderStatus("IN_TRANSIT")
	require.NoError(t, err)
	assert.Equal(t, MaterialOrderStatusInTransit, status)

	_, err = ParseMaterialOrderStatus("in_transit")
	require.Error(t, err)

	strategy, err := ParseSelectionStrategy(" primary_first ")
	require.NoError(t, err)
	assert.Equal(t, StrategyPrimaryFirst, strategy)

	_, err = ParseSelectionStrategy("CHEAPEST")
	require.Error(t, err)

	category, err := ParseMaterialCategory("Protection")
	require.NoError(t, err)
	assert.Equal(t, MaterialCategoryProtection, category)

	_, err = ParseCommissionType("flat")
	require.Error(t, err)

	assert.True(t, JobStatusReadyToSchedule.IsValid())
	assert.False(t, JobStatus("ready").IsValid())
}

func TestOutboxEnums(t *testing.T) {
	agg, err := ParseOutboxAggregateType("material_order")
	require.NoError(t, err)
	assert.Equal(t, AggregateMaterialOrder, agg)

	_, err = ParseOutboxEventType("order_created")
	require.EqualError(t, err, `invalid event type "order_created"`)

	assert.True(t, EventMaterialOrdersCreated.IsValid())
	assert.True(t, OutboxDLQReasonMaxAttempts.IsValid())
	assert.False(t, OutboxDLQErrorReason("timeout").IsValid())
}
