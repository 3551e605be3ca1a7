package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	authhttp "github.com/aussiebroadwan/tenauth/internal/auth/http"
	"github.com/aussiebroadwan/tenauth/internal/auth/service"
	"github.com/aussiebroadwan/tenauth/internal/auth/store"
	"github.com/aussiebroadwan/tenauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tenauth/pkg/cryptox"
	"github.com/aussiebroadwan/tenauth/pkg/idx"
	"github.com/aussiebroadwan/tenauth/pkg/jwtx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const bootstrapToken = "test-bootstrap-token"

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tenauth-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type fixture struct {
	srv   *httptest.Server
	store store.Store
	redis *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	signer, err := jwtx.GenerateSigner("test-key")
	require.NoError(t, err)
	cipher, err := cryptox.NewCipher([]byte("test key material"))
	require.NoError(t, err)

	tokens := &service.TokenService{Store: s, Signer: signer, Issuer: "tenauth-test"}
	authorities := &service.AuthorityResolver{Store: s}
	linkSecrets := &service.LinkSecrets{Redis: rdb, Namespace: "tenauth", BizKey: "signin"}

	h := &authhttp.Handler{
		Store:       s,
		Authorities: authorities,
		Verifier:    signer.Verifier(),
		SignIn: &service.SignInService{
			Store:       s,
			Passwords:   service.NewPasswordVerifier(),
			LinkSecrets: linkSecrets,
			Authorities: authorities,
			Tokens:      tokens,
		},
		Credentials: &service.SystemCredentialManager{
			Store:  s,
			Tokens: tokens,
			Cipher: cipher,
		},
		Bootstrap: &service.Bootstrapper{Store: s, Token: bootstrapToken},
		ReadyChecks: []func(ctx context.Context) error{
			func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	}

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, store: s, redis: mr}
}

func (f *fixture) post(t *testing.T, path, bearer string, body any) *http.Response {
	t.Helper()
	return f.do(t, http.MethodPost, path, bearer, body)
}

func (f *fixture) do(t *testing.T, method, path, bearer string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// bootstrapAdmin provisions a tenant admin and returns their session token.
func bootstrapAdmin(t *testing.T, f *fixture) string {
	t.Helper()

	resp := f.post(t, "/v1/bootstrap", "", map[string]string{
		"token":     bootstrapToken,
		"tenant_id": "t1",
		"username":  "admin",
		"full_name": "Administrator",
		"password":  "Admin123!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.post(t, "/v1/signin/password", "", map[string]string{
		"tenant_id": "t1",
		"username":  "admin",
		"password":  "Admin123!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	session := decodeBody[map[string]any](t, resp)
	token, _ := session["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestBootstrapAndPasswordSignIn(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, "/v1/bootstrap", "", map[string]string{
		"token":     "wrong",
		"tenant_id": "t1",
		"username":  "admin",
		"password":  "x",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	token := bootstrapAdmin(t, f)

	// Double bootstrap is refused.
	resp = f.post(t, "/v1/bootstrap", "", map[string]string{
		"token":     bootstrapToken,
		"tenant_id": "t1",
		"username":  "admin",
		"password":  "Admin123!",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// The session token opens authenticated routes.
	resp = f.do(t, http.MethodGet, "/v1/authorities", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	require.Equal(t, "t1", body["tenant_id"])
	require.Contains(t, body["permissions"], "POLICY_T1_BASE_USER")
}

func TestPasswordSignInRejected(t *testing.T) {
	f := newFixture(t)
	bootstrapAdmin(t, f)

	resp := f.post(t, "/v1/signin/password", "", map[string]string{
		"tenant_id": "t1",
		"username":  "admin",
		"password":  "not-the-password",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthoritiesRequiresBearer(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/v1/authorities", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, resp.Header.Get("WWW-Authenticate"), "invalid_token")
}

func TestSmsSignInOverHTTP(t *testing.T) {
	f := newFixture(t)
	bootstrapAdmin(t, f)

	mobile := "+61400000042"
	ctx := context.Background()
	require.NoError(t, f.store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByUsername(ctx, "t1", "admin")
		if err != nil {
			return err
		}
		// Rebind the admin's mobile directly in the store.
		if err := tx.Users().DeleteUser(ctx, u.ID); err != nil {
			return err
		}
		u.Mobile = &mobile
		return tx.Users().CreateUser(ctx, u)
	}))

	resp := f.post(t, "/v1/signin/code", "", map[string]string{
		"tenant_id": "t1",
		"channel":   "sms",
		"mobile":    mobile,
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	code, err := f.redis.Get("tenauth:checkSms:signin:" + mobile)
	require.NoError(t, err)

	resp = f.post(t, "/v1/signin/sms", "", map[string]string{
		"tenant_id": "t1",
		"mobile":    mobile,
		"code":      code,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Unbound number gets the channel sentinel status.
	resp = f.post(t, "/v1/signin/code", "", map[string]string{
		"tenant_id": "t1",
		"channel":   "sms",
		"mobile":    "+61400999999",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCredentialLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)
	token := bootstrapAdmin(t, f)

	resp := f.post(t, "/v1/catalog/resources", token, map[string]string{
		"name":         "billing:read",
		"service_code": "billing",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.post(t, "/v1/system-credentials", token, map[string]any{
		"name":      "ci-bot",
		"resources": []string{"billing:read"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	cred := decodeBody[map[string]any](t, resp)
	require.NotEmpty(t, cred["value"], "issuance response must carry the plaintext once")
	credID, _ := cred["id"].(string)

	// The plaintext never appears on list responses.
	resp = f.do(t, http.MethodGet, "/v1/system-credentials", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[map[string][]map[string]any](t, resp)
	require.Len(t, list["credentials"], 1)
	require.Empty(t, list["credentials"][0]["value"])

	// Duplicate name conflicts.
	resp = f.post(t, "/v1/system-credentials", token, map[string]any{
		"name":      "ci-bot",
		"resources": []string{"billing:read"},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Unknown resource is a bad request.
	resp = f.post(t, "/v1/system-credentials", token, map[string]any{
		"name":      "other",
		"resources": []string{"nope"},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, "/v1/system-credentials", token, map[string]any{
		"ids": []string{credID},
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/v1/system-credentials", token, nil)
	list = decodeBody[map[string][]map[string]any](t, resp)
	require.Empty(t, list["credentials"])
}

func TestCredentialRoutesRequireAdmin(t *testing.T) {
	f := newFixture(t)
	bootstrapAdmin(t, f)

	// Provision a plain member and sign them in.
	ctx := context.Background()
	hash, err := cryptox.HashPassword("Member123!")
	require.NoError(t, err)
	require.NoError(t, f.store.Users().CreateUser(ctx, memberUser("t1", "member",
		service.TagCredential(service.AlgArgon2, hash))))

	resp := f.post(t, "/v1/signin/password", "", map[string]string{
		"tenant_id": "t1",
		"username":  "member",
		"password":  "Member123!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := decodeBody[map[string]any](t, resp)
	memberToken, _ := session["token"].(string)

	resp = f.post(t, "/v1/system-credentials", memberToken, map[string]any{
		"name":      "nope",
		"resources": []string{"billing:read"},
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func memberUser(tenantID, username, passwordHash string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		TenantID:     tenantID,
		Username:     username,
		PasswordHash: passwordHash,
	}
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
