package enums

// OutboxAggregateType is the aggregate_type column of outbox_events. Together
// with the aggregate id it forms the publisher's ordering key.
type OutboxAggregateType string

const (
	AggregateInstallationJob OutboxAggregateType = "installation_job"
	AggregateMaterialOrder   OutboxAggregateType = "material_order"
)

var aggregateTypes = []OutboxAggregateType{AggregateInstallationJob, AggregateMaterialOrder}

func (a OutboxAggregateType) IsValid() bool { return oneOf(a, aggregateTypes) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse("aggregate type", value, aggregateTypes)
}

// OutboxEventType is the event_type column of outbox_events.
type OutboxEventType string

const (
	EventMaterialOrdersCreated      OutboxEventType = "material_orders_created"
	EventMaterialOrderStatusChanged OutboxEventType = "material_order_status_changed"
)

var eventTypes = []OutboxEventType{EventMaterialOrdersCreated, EventMaterialOrderStatusChanged}

func (e OutboxEventType) IsValid() bool { return oneOf(e, eventTypes) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse("event type", value, eventTypes)
}

// OutboxDLQErrorReason says why the publisher gave up on an outbox row.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) String() string { return string(r) }

func (r OutboxDLQErrorReason) IsValid() bool {
	return r == OutboxDLQReasonMaxAttempts || r == OutboxDLQReasonNonRetryable
}
