package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// maxDatumsPerPut is the PutMetricData batch size used when flushing
const maxDatumsPerPut = 20

// CloudWatchAPI is the subset of the CloudWatch client used for publishing
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics buffers counters and timings and ships them to CloudWatch.
// A Metrics with a nil client records nothing.
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger

	mu      sync.Mutex
	pending []types.MetricDatum
	now     func() time.Time
}

// NewMetrics creates a metrics recorder for namespace
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

// NewNopMetrics returns a recorder that drops everything
func NewNopMetrics() *Metrics {
	return NewMetrics("", nil, zap.NewNop())
}

// Increment adds one to metric, dimensioned by label
func (m *Metrics) Increment(metric, label string) {
	m.record(metric, label, 1, types.StandardUnitCount)
}

// Timing records a duration in milliseconds
func (m *Metrics) Timing(metric, label string, d time.Duration) {
	m.record(metric, label, float64(d.Milliseconds()), types.StandardUnitMilliseconds)
}

// Timer measures one operation
type Timer struct {
	metrics *Metrics
	metric  string
	label   string
	start   time.Time
}

// Stop records the elapsed time
func (t *Timer) Stop() {
	t.metrics.Timing(t.metric, t.label, t.metrics.now().Sub(t.start))
}

// StartTimer begins timing metric
func (m *Metrics) StartTimer(metric, label string) *Timer {
	return &Timer{metrics: m, metric: metric, label: label, start: m.now()}
}

func (m *Metrics) record(metric, label string, value float64, unit types.StandardUnit) {
	if m.client == nil {
		return
	}

	datum := types.MetricDatum{
		MetricName: aws.String(metric),
		Unit:       unit,
		Value:      aws.Float64(value),
		Timestamp:  aws.Time(m.now()),
	}
	if label != "" {
		datum.Dimensions = []types.Dimension{{Name: aws.String("Operation"), Value: aws.String(label)}}
	}

	m.mu.Lock()
	m.pending = append(m.pending, datum)
	m.mu.Unlock()
}

// Pending returns how many datums wait for the next flush
func (m *Metrics) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Flush publishes buffered datums
func (m *Metrics) Flush(ctx context.Context) error {
	if m.client == nil {
		return nil
	}

	m.mu.Lock()
	batch := m.pending
	m.pending = nil
	m.mu.Unlock()

	for start := 0; start < len(batch); start += maxDatumsPerPut {
		end := start + maxDatumsPerPut
		if end > len(batch) {
			end = len(batch)
		}

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: batch[start:end],
		})
		if err != nil {
			return fmt.Errorf("failed to put metric data: %w", err)
		}
	}
	return nil
}

// Run flushes on interval until ctx is done, then flushes once more
func (m *Metrics) Run(ctx context.Context, interval time.Duration) {
	if m.client == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.Flush(ctx); err != nil {
				m.logger.Warn("Metrics flush failed", zap.Error(err))
			}
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := m.Flush(flushCtx); err != nil {
				m.logger.Warn("Final metrics flush failed", zap.Error(err))
			}
			cancel()
			return
		}
	}
}
