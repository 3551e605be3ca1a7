package http

import (
	"net/http"

	"github.com/aussiebroadwan/tenauth/pkg/httpx"
)

// listAuthorities returns the caller's freshly resolved permission set. It
// may differ from the token's perms claim when grants changed mid-session.
func (h *Handler) listAuthorities(w http.ResponseWriter, r *http.Request) {
	p, err := h.principal(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	perms, err := h.Authorities.Resolve(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":     p.UserID,
		"tenant_id":   p.TenantID,
		"permissions": perms,
	})
}
