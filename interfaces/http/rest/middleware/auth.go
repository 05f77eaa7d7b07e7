package middleware

import (
	"errors"
	"net/http"
	"strings"

	"dashboard/pkg/auth"
	pkgerrors "dashboard/pkg/errors"
)

// AuthOptions configures Authenticate
type AuthOptions struct {
	// TrustGateway accepts requests API Gateway already authorized, carrying
	// the caller in X-User-ID and X-User-Roles
	TrustGateway bool
}

// Authenticate validates the bearer token and attaches the caller to the request
func Authenticate(validator *auth.JWTValidator, errs *pkgerrors.ErrorHandler, opts AuthOptions) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.TrustGateway && r.Header.Get("X-API-Gateway-Authorized") == "true" {
				userID := r.Header.Get("X-User-ID")
				if userID == "" {
					errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Missing user context from API Gateway"))
					return
				}
				user := &auth.UserContext{UserID: userID, Email: r.Header.Get("X-User-Email")}
				if roles := r.Header.Get("X-User-Roles"); roles != "" {
					user.Roles = strings.Split(roles, ",")
				}
				next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Missing authorization header"))
				return
			}
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Invalid authorization header format"))
				return
			}

			if validator == nil {
				errs.Handle(w, r, pkgerrors.NewUnavailableError("authentication"))
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Token has expired"))
				case errors.Is(err, auth.ErrInvalidSignature):
					errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Invalid token signature"))
				default:
					errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Invalid token"))
				}
				return
			}

			user := &auth.UserContext{UserID: claims.UserID, Email: claims.Email, Roles: claims.Roles}
			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
		})
	}
}

// RequireRole rejects authenticated callers that lack role
func RequireRole(role string, errs *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Unauthorized"))
				return
			}
			for _, granted := range user.Roles {
				if granted == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			errs.HandleStatus(w, r, http.StatusForbidden, "Missing role "+role)
		})
	}
}
