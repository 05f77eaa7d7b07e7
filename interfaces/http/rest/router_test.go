package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dashboard/application/commands"
	"dashboard/application/commands/bus"
	"dashboard/application/queries"
	querybus "dashboard/application/queries/bus"
	"dashboard/application/services"
	domainservices "dashboard/domain/services"
	"dashboard/pkg/auth"
	pkgerrors "dashboard/pkg/errors"
	"dashboard/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type noWatch struct{}

func (noWatch) Watch(context.Context, services.NFTDetailsRequest) (<-chan domainservices.NFTDetailsView, error) {
	ch := make(chan domainservices.NFTDetailsView)
	close(ch)
	return ch, nil
}

type testRouter struct {
	handler   http.Handler
	validator *auth.JWTValidator
	revalids  int
}

func newTestRouter(t *testing.T, rpm int, ready ReadinessCheck) *testRouter {
	t.Helper()
	tr := &testRouter{}

	validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: "test-secret", Issuer: "dashboard-explore"})
	require.NoError(t, err)
	tr.validator = validator

	cb := bus.NewCommandBus()
	require.NoError(t, cb.Register(commands.PrerenderCategoryCommand{}, bus.CommandHandlerFunc(func(context.Context, bus.Command) error {
		tr.revalids++
		return nil
	})))

	qb := querybus.NewQueryBus()
	require.NoError(t, qb.Register(queries.GetCategoryPageQuery{}, querybus.QueryHandlerFunc(func(context.Context, querybus.Query) (interface{}, error) {
		return &queries.GetCategoryPageResult{Page: &domainservices.CategoryView{ID: "nft"}, Version: "v1", Source: queries.SourceSnapshot}, nil
	})))
	require.NoError(t, qb.Register(queries.GetNFTDetailsQuery{}, querybus.QueryHandlerFunc(func(context.Context, querybus.Query) (interface{}, error) {
		return &domainservices.NFTDetailsView{Visible: true}, nil
	})))

	router := NewRouter(
		RouterConfig{EnableMetrics: true, EnableCORS: true, AllowedOrigins: []string{"https://thirdweb.com"}, Version: "test"},
		cb, qb, noWatch{}, validator,
		auth.NewIPRateLimiter(rpm),
		observability.NewHTTPCollector("dashboard_test"),
		pkgerrors.NewErrorHandler(zap.NewNop(), false),
		ready,
		zap.NewNop(),
	)
	tr.handler = router.Setup()
	return tr
}

func (tr *testRouter) do(method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	tr.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	tr := newTestRouter(t, 10, nil)

	rec := tr.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	assert.Equal(t, "test", rec.Header().Get("X-Build-Version"))

	rec = tr.do(http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := newTestRouter(t, 10, func(*http.Request) error { return errors.New("table missing") })
	rec = failing.do(http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	tr := newTestRouter(t, 10, nil)
	tr.do(http.MethodGet, "/api/v2/explore/categories/nft", nil)

	rec := tr.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dashboard_test_category_page_responses_total{source="snapshot"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/api/v2/explore/categories/{category}"`)
}

func TestRouter_RevalidateRequiresRole(t *testing.T) {
	tr := newTestRouter(t, 10, nil)
	path := "/api/v2/explore/categories/nft/revalidate"

	rec := tr.do(http.MethodPost, path, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = tr.do(http.MethodPost, path, http.Header{"Authorization": {"Bearer not-a-jwt"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := tr.validator.Sign("viewer", []string{"viewer"}, time.Minute)
	require.NoError(t, err)
	rec = tr.do(http.MethodPost, path, http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, tr.revalids)

	token, err = tr.validator.Sign("operator", []string{auth.RoleRevalidate}, time.Minute)
	require.NoError(t, err)
	rec = tr.do(http.MethodPost, path, http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, tr.revalids)
}

func TestRouter_ChainReadsAreRateLimited(t *testing.T) {
	tr := newTestRouter(t, 2, nil)
	path := "/api/v2/contracts/137/0x5FbDB2315678afecb367f032d93F642f64180aa3/nft-details"

	assert.Equal(t, http.StatusOK, tr.do(http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusOK, tr.do(http.MethodGet, path, nil).Code)

	rec := tr.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))

	// pages are not limited
	assert.Equal(t, http.StatusOK, tr.do(http.MethodGet, "/api/v2/explore/categories/nft", nil).Code)
}
