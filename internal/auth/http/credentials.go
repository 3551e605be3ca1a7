package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	"github.com/aussiebroadwan/tenauth/pkg/httpx"
)

type issueCredentialRequest struct {
	Name      string   `json:"name"`
	Resources []string `json:"resources"`
}

type credentialResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ClientID  string    `json:"client_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`

	// Value is present only on the issuance response.
	Value string `json:"value,omitempty"`

	Resources []string `json:"resources,omitempty"`
}

func toCredentialResponse(c domain.SystemCredential) credentialResponse {
	return credentialResponse{
		ID:        c.ID,
		Name:      c.Name,
		ClientID:  c.ClientID,
		ExpiresAt: c.ExpiresAt,
		CreatedAt: c.CreatedAt,
		Value:     c.Value,
	}
}

func (h *Handler) issueCredential(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req issueCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Name == "" || len(req.Resources) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "name and resources are required")
		return
	}

	cred, err := h.Credentials.Issue(r.Context(), p, req.Name, req.Resources)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toCredentialResponse(cred))
}

func (h *Handler) listCredentials(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	creds, err := h.Credentials.List(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]credentialResponse, 0, len(creds))
	for _, c := range creds {
		entry := toCredentialResponse(c.Credential)
		for _, r := range c.Resources {
			entry.Resources = append(entry.Resources, r.Resource)
		}
		out = append(out, entry)
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"credentials": out})
}

type revokeCredentialsRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) revokeCredentials(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req revokeCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if len(req.IDs) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "ids is required")
		return
	}

	if err := h.Credentials.Revoke(r.Context(), p, req.IDs); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
