package observability

// Metric name prefixes
const (
	MetricPrefix = "fireworks"
)

// Metric names
const (
	// Ledger metrics
	LedgerOperationsTotal   = MetricPrefix + ".ledger.operations_total"
	LedgerOperationDuration = MetricPrefix + ".ledger.operation_duration"
	LedgerConflictRetries   = MetricPrefix + ".ledger.conflict_retries_total"

	// Engine metrics
	RewardsCreditedTotal  = MetricPrefix + ".rewards.credited_total"
	RewardsCreditedAmount = MetricPrefix + ".rewards.credited_amount"
	RewardsDroppedTotal   = MetricPrefix + ".rewards.dropped_total"
	SessionsActive        = MetricPrefix + ".sessions.active"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelOperation   = "operation"
	LabelFailureKind = "failure_kind"
	LabelSource      = "source"
	LabelEventType   = "event_type"
)
