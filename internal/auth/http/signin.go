package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tenauth/internal/auth/service"
	"github.com/aussiebroadwan/tenauth/pkg/httpx"
)

type signInRequest struct {
	TenantID string `json:"tenant_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email"`
	Code     string `json:"code"`
	Secret   string `json:"secret"`
	Channel  string `json:"channel"`
}

type sessionResponse struct {
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Permissions []string  `json:"permissions"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
}

func decodeSignIn(w http.ResponseWriter, r *http.Request) (signInRequest, bool) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return signInRequest{}, false
	}
	if req.TenantID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "tenant_id is required")
		return signInRequest{}, false
	}
	return req, true
}

func writeSession(w http.ResponseWriter, s service.Session) {
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{
		Token:       s.Token,
		ExpiresAt:   s.ExpiresAt,
		Permissions: s.Permissions,
		UserID:      s.User.ID,
		Username:    s.User.Username,
	})
}

func (h *Handler) passwordSignIn(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSignIn(w, r)
	if !ok {
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	sess, err := h.SignIn.PasswordSignIn(r.Context(), req.TenantID, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSession(w, sess)
}

// issueSignInCode delivers a one-shot code to a bound mobile or email. The
// code never appears in the response.
func (h *Handler) issueSignInCode(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSignIn(w, r)
	if !ok {
		return
	}

	var channel service.Channel
	var target string
	switch service.Channel(req.Channel) {
	case service.ChannelSMS:
		channel, target = service.ChannelSMS, req.Mobile
	case service.ChannelEmail:
		channel, target = service.ChannelEmail, req.Email
	default:
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "channel must be sms or email")
		return
	}
	if target == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "channel target is required")
		return
	}

	if err := h.SignIn.IssueSignInCode(r.Context(), req.TenantID, channel, target); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) smsSignIn(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSignIn(w, r)
	if !ok {
		return
	}
	if req.Mobile == "" || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "mobile and code are required")
		return
	}

	sess, err := h.SignIn.SmsSignIn(r.Context(), req.TenantID, req.Mobile, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSession(w, sess)
}

func (h *Handler) emailSignIn(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSignIn(w, r)
	if !ok {
		return
	}
	if req.Email == "" || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and code are required")
		return
	}

	sess, err := h.SignIn.EmailSignIn(r.Context(), req.TenantID, req.Email, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSession(w, sess)
}

func (h *Handler) socialSignIn(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSignIn(w, r)
	if !ok {
		return
	}
	if req.Username == "" || req.Secret == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username and secret are required")
		return
	}

	sess, err := h.SignIn.SocialSignIn(r.Context(), req.TenantID, req.Username, req.Secret)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSession(w, sess)
}
