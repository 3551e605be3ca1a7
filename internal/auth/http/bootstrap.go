package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	"github.com/aussiebroadwan/tenauth/internal/auth/service"
	"github.com/aussiebroadwan/tenauth/pkg/httpx"
)

type bootstrapRequest struct {
	Token    string `json:"token"`
	TenantID string `json:"tenant_id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

func (h *Handler) bootstrap(w http.ResponseWriter, r *http.Request) {
	var req bootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.TenantID == "" || req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "tenant_id, username and password are required")
		return
	}

	u, err := h.Bootstrap.Provision(r.Context(), service.BootstrapRequest{
		Token:    req.Token,
		TenantID: req.TenantID,
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrBootstrapDisabled):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "bootstrap is disabled")
		return
	case errors.Is(err, service.ErrBootstrapBadToken):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "bad bootstrap token")
		return
	case errors.Is(err, service.ErrBootstrapCompleted):
		httpx.WriteError(w, http.StatusConflict, "conflict", "tenant already bootstrapped")
		return
	default:
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]string{
		"user_id":   u.ID,
		"tenant_id": u.TenantID,
		"username":  u.Username,
	})
}

type registerResourceRequest struct {
	Name        string `json:"name"`
	ServiceCode string `json:"service_code"`
	Authority   string `json:"authority"`
	APIID       string `json:"api_id"`
}

func (h *Handler) registerResource(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req registerResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Name == "" || req.ServiceCode == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "name and service_code are required")
		return
	}

	err = h.Credentials.RegisterResource(r.Context(), p, domain.CatalogResource{
		Name:        req.Name,
		ServiceCode: req.ServiceCode,
		Authority:   req.Authority,
		APIID:       req.APIID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type registerAPIRequest struct {
	ID          string `json:"id"`
	ServiceCode string `json:"service_code"`
	Path        string `json:"path"`
}

func (h *Handler) registerAPI(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req registerAPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.ServiceCode == "" || req.Path == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "service_code and path are required")
		return
	}

	err = h.Credentials.RegisterAPI(r.Context(), p, domain.API{
		ID:          req.ID,
		ServiceCode: req.ServiceCode,
		Path:        req.Path,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}
