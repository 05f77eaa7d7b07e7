package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestMetrics_FlushBatches(t *testing.T) {
	client := &fakeCloudWatch{}
	m := NewMetrics("Dashboard/test", client, zap.NewNop())

	for i := 0; i < 45; i++ {
		m.Increment("prefetch_count", "published-contract")
	}
	m.StartTimer("loader_duration", "nft").Stop()
	assert.Equal(t, 46, m.Pending())

	require.NoError(t, m.Flush(context.Background()))
	assert.Equal(t, 0, m.Pending())
	require.Len(t, client.inputs, 3)
	assert.Len(t, client.inputs[0].MetricData, 20)
	assert.Len(t, client.inputs[2].MetricData, 6)
	assert.Equal(t, "Dashboard/test", *client.inputs[0].Namespace)
}

func TestMetrics_FlushError(t *testing.T) {
	client := &fakeCloudWatch{err: errors.New("throttled")}
	m := NewMetrics("ns", client, zap.NewNop())
	m.Increment("x", "")

	assert.Error(t, m.Flush(context.Background()))
}

func TestNopMetrics_RecordsNothing(t *testing.T) {
	m := NewNopMetrics()
	m.Increment("x", "y")
	m.Timing("x", "y", time.Second)

	assert.Equal(t, 0, m.Pending())
	assert.NoError(t, m.Flush(context.Background()))
}

func TestTracer_DisabledRunsFunction(t *testing.T) {
	tracer := NewTracer("dashboard", false)
	called := false

	err := tracer.TraceFunction(context.Background(), "prefetch", func(ctx context.Context) error {
		called = true
		return errors.New("fetch failed")
	})

	assert.True(t, called)
	assert.EqualError(t, err, "fetch failed")
}

func TestHTTPCollector_MiddlewareUsesRoutePattern(t *testing.T) {
	c := NewHTTPCollector("dashboard")
	router := chi.NewRouter()
	router.Use(c.Middleware)
	router.Get("/api/v2/explore/categories/{category}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	router.Handle("/metrics", c.Handler())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v2/explore/categories/nope", nil))
	c.ObservePanel("loaded", true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `route="/api/v2/explore/categories/{category}"`), body)
	assert.True(t, strings.Contains(body, `status="404"`))
	assert.True(t, strings.Contains(body, `dashboard_nft_details_responses_total{state="loaded",visible="true"} 1`))
}
