package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fireworks/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics. A nil *MetricsProvider is valid
// and records nothing.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	ledgerOperationsCounter metric.Int64Counter
	ledgerDurationHist      metric.Float64Histogram
	ledgerConflictCounter   metric.Int64Counter
	rewardsCreditedCounter  metric.Int64Counter
	rewardsAmountCounter    metric.Int64Counter
	rewardsDroppedCounter   metric.Int64Counter
	sessionsActiveGauge     metric.Int64UpDownCounter
	natsPublishedCounter    metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// NewMetricsProviderWithReader wires the instruments to a caller-supplied reader,
// e.g. an sdkmetric.ManualReader in tests
func NewMetricsProviderWithReader(reader sdkmetric.Reader) (*MetricsProvider, error) {
	mp := &MetricsProvider{}
	mp.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	mp.meter = mp.meterProvider.Meter("fireworks")
	if err := mp.createInstruments(); err != nil {
		return nil, err
	}
	mp.initialized = true
	mp.enabled = true
	return mp, nil
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("fireworks")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.ledgerOperationsCounter, err = mp.meter.Int64Counter(
		LedgerOperationsTotal,
		metric.WithDescription("Ledger operations by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger operations counter: %w", err)
	}

	mp.ledgerDurationHist, err = mp.meter.Float64Histogram(
		LedgerOperationDuration,
		metric.WithDescription("Duration of ledger operations in seconds, retries included"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger duration histogram: %w", err)
	}

	mp.ledgerConflictCounter, err = mp.meter.Int64Counter(
		LedgerConflictRetries,
		metric.WithDescription("Store transactions retried after a conflict"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create conflict retry counter: %w", err)
	}

	mp.rewardsCreditedCounter, err = mp.meter.Int64Counter(
		RewardsCreditedTotal,
		metric.WithDescription("Rewards credited to accounts"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rewards credited counter: %w", err)
	}

	mp.rewardsAmountCounter, err = mp.meter.Int64Counter(
		RewardsCreditedAmount,
		metric.WithDescription("Fireworks credited by rewards"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rewards amount counter: %w", err)
	}

	mp.rewardsDroppedCounter, err = mp.meter.Int64Counter(
		RewardsDroppedTotal,
		metric.WithDescription("Rewards that failed to credit"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rewards dropped counter: %w", err)
	}

	mp.sessionsActiveGauge, err = mp.meter.Int64UpDownCounter(
		SessionsActive,
		metric.WithDescription("Engine sessions currently running"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create sessions gauge: %w", err)
	}

	mp.natsPublishedCounter, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS messages published counter: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordLedgerOperation records one ledger operation and how it ended
func (mp *MetricsProvider) RecordLedgerOperation(operation, failureKind string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelOperation, operation),
		attribute.String(LabelFailureKind, failureKind),
	)
	mp.ledgerOperationsCounter.Add(context.Background(), 1, attrs)
	mp.ledgerDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

// RecordConflictRetry records a transaction retried after a store conflict
func (mp *MetricsProvider) RecordConflictRetry(operation string) {
	if !mp.isEnabled() {
		return
	}

	mp.ledgerConflictCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOperation, operation)),
	)
}

// RecordReward records a credited reward
func (mp *MetricsProvider) RecordReward(source string, amount int64) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(attribute.String(LabelSource, source))
	mp.rewardsCreditedCounter.Add(context.Background(), 1, attrs)
	mp.rewardsAmountCounter.Add(context.Background(), amount, attrs)
}

// RecordRewardDropped records a reward that could not be credited
func (mp *MetricsProvider) RecordRewardDropped(source, failureKind string) {
	if !mp.isEnabled() {
		return
	}

	mp.rewardsDroppedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelSource, source),
			attribute.String(LabelFailureKind, failureKind),
		),
	)
}

// UpdateActiveSessions moves the running session gauge by delta
func (mp *MetricsProvider) UpdateActiveSessions(delta int64) {
	if !mp.isEnabled() {
		return
	}

	mp.sessionsActiveGauge.Add(context.Background(), delta)
}

// RecordEventPublished records a domain event published to NATS
func (mp *MetricsProvider) RecordEventPublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}
