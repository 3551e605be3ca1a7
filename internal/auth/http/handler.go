// Package http wires the service layer to the public HTTP surface.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	"github.com/aussiebroadwan/tenauth/internal/auth/obs"
	"github.com/aussiebroadwan/tenauth/internal/auth/service"
	"github.com/aussiebroadwan/tenauth/internal/auth/store"
	"github.com/aussiebroadwan/tenauth/pkg/httpx"
	"github.com/aussiebroadwan/tenauth/pkg/jwtx"
	"github.com/aussiebroadwan/tenauth/pkg/slogx"
)

// Handler bundles the service dependencies of every route.
type Handler struct {
	Store       store.Store
	SignIn      *service.SignInService
	Authorities *service.AuthorityResolver
	Credentials *service.SystemCredentialManager
	Bootstrap   *service.Bootstrapper
	Verifier    *jwtx.Verifier

	// Readiness probes beyond the store (redis).
	ReadyChecks []func(ctx context.Context) error
}

// Routes builds the full route table with per-profile rate limits.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	strict := httpx.RateLimitMiddleware(httpx.StrictLimit)
	moderate := httpx.RateLimitMiddleware(httpx.ModerateLimit)
	public := httpx.RateLimitMiddleware(httpx.PublicLimit)
	authn := httpx.AuthnMiddleware(h.Verifier)

	mux.Handle("POST /v1/signin/password", httpx.Chain(http.HandlerFunc(h.passwordSignIn), strict))
	mux.Handle("POST /v1/signin/code", httpx.Chain(http.HandlerFunc(h.issueSignInCode), strict))
	mux.Handle("POST /v1/signin/sms", httpx.Chain(http.HandlerFunc(h.smsSignIn), strict))
	mux.Handle("POST /v1/signin/email", httpx.Chain(http.HandlerFunc(h.emailSignIn), strict))
	mux.Handle("POST /v1/signin/social", httpx.Chain(http.HandlerFunc(h.socialSignIn), strict))

	mux.Handle("POST /v1/bootstrap", httpx.Chain(http.HandlerFunc(h.bootstrap), strict))

	mux.Handle("GET /v1/authorities", httpx.Chain(http.HandlerFunc(h.listAuthorities), moderate, authn))

	mux.Handle("POST /v1/catalog/resources", httpx.Chain(http.HandlerFunc(h.registerResource), moderate, authn))
	mux.Handle("POST /v1/catalog/apis", httpx.Chain(http.HandlerFunc(h.registerAPI), moderate, authn))

	mux.Handle("POST /v1/system-credentials", httpx.Chain(http.HandlerFunc(h.issueCredential), moderate, authn))
	mux.Handle("GET /v1/system-credentials", httpx.Chain(http.HandlerFunc(h.listCredentials), moderate, authn))
	mux.Handle("DELETE /v1/system-credentials", httpx.Chain(http.HandlerFunc(h.revokeCredentials), moderate, authn))

	mux.Handle("GET /livez", httpx.Chain(http.HandlerFunc(h.livez), public))
	mux.Handle("GET /readyz", httpx.Chain(http.HandlerFunc(h.readyz), public))
	mux.Handle("GET /metrics", obs.Handler())

	return mux
}

// principal loads a fresh Principal for the authenticated caller. Flags like
// SysAdmin come from the store, never from token claims, so a demotion takes
// effect on the next request rather than at token expiry.
func (h *Handler) principal(r *http.Request) (domain.Principal, error) {
	u, err := h.Store.Users().GetUserByID(r.Context(), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		return domain.Principal{}, err
	}
	return u.Principal(), nil
}

// writeServiceError maps service sentinels onto the HTTP surface.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSecretExpired),
		errors.Is(err, service.ErrSecretMismatch),
		errors.Is(err, service.ErrMobileNotBound),
		errors.Is(err, service.ErrEmailNotBound):
		httpx.WriteError(w, http.StatusUnauthorized, "authentication_failed", err.Error())

	case errors.Is(err, service.ErrNotAdministrator):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", err.Error())

	case errors.Is(err, service.ErrCredentialNameTaken),
		errors.Is(err, service.ErrResourceAmbiguous),
		errors.Is(err, service.ErrQuotaExceeded):
		httpx.WriteError(w, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, service.ErrResourceUnknown),
		errors.Is(err, service.ErrAPINotFound):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())

	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "no such resource")

	default:
		slogx.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
