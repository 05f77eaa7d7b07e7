package middleware

import (
	"context"
	"net/http"
	"time"

	"dashboard/pkg/auth"
	"dashboard/pkg/common"
	pkgerrors "dashboard/pkg/errors"

	"go.uber.org/zap"
)

// Limiter admits or rejects requests for a client key
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Limit() int
}

// RateLimit limits requests per client address per minute
func RateLimit(limiter Limiter, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, ok := common.GetClientIP(r.Context())
			if !ok {
				ip = clientIP(r)
			}

			allowed, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.Warn("Rate limiter error", zap.Error(err))
			}
			if !allowed {
				for k, v := range auth.Headers(limiter.Limit(), time.Minute, time.Now()) {
					w.Header().Set(k, v)
				}
				errs.Handle(w, r, pkgerrors.NewRateLimitError(limiter.Limit(), "minute").WithCode(pkgerrors.CodeChainReadLimit))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
