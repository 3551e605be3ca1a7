package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	"github.com/aussiebroadwan/tenauth/internal/auth/service"
	"github.com/aussiebroadwan/tenauth/pkg/cryptox"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordVerifier_Argon2(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v := service.NewPasswordVerifier()

	hash, err := cryptox.HashPassword("correct horse")
	require.NoError(t, err)
	stored := service.TagCredential(service.AlgArgon2, hash)

	ok, err := v.Verify(ctx, stored, "correct horse", service.AuthContext{})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Verify(ctx, stored, "wrong", service.AuthContext{})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPasswordVerifier_Bcrypt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v := service.NewPasswordVerifier()

	raw, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := service.TagCredential(service.AlgBcrypt, string(raw))

	ok, err := v.Verify(ctx, stored, "hunter2", service.AuthContext{})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Verify(ctx, stored, "hunter3", service.AuthContext{})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPasswordVerifier_LegacySHA256(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v := service.NewPasswordVerifier()

	sum := sha256.Sum256([]byte("legacy-pass"))
	stored := service.TagCredential(service.AlgSHA256, hex.EncodeToString(sum[:]))

	ok, err := v.Verify(ctx, stored, "legacy-pass", service.AuthContext{})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Verify(ctx, stored, "not-it", service.AuthContext{})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPasswordVerifier_TOTP(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v := service.NewPasswordVerifier()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "tenauth", AccountName: "alice"})
	require.NoError(t, err)
	stored := service.TagCredential(service.AlgTOTP, key.Secret())

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)

	ok, err := v.Verify(ctx, stored, code, service.AuthContext{})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Verify(ctx, stored, "000000", service.AuthContext{})
	require.NoError(t, err)
	// One chance in a million the random secret yields exactly this code.
	require.False(t, ok)
}

func TestPasswordVerifier_UnknownAlgorithm(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v := service.NewPasswordVerifier()

	t.Run("unregistered tag", func(t *testing.T) {
		t.Parallel()
		_, err := v.Verify(ctx, "{MD5}abc", "x", service.AuthContext{})
		require.ErrorIs(t, err, service.ErrUnknownAlgorithm)
	})

	t.Run("untagged credential", func(t *testing.T) {
		t.Parallel()
		_, err := v.Verify(ctx, "$argon2id$v=19$...", "x", service.AuthContext{})
		require.ErrorIs(t, err, service.ErrUnknownAlgorithm)
	})
}

func TestDirectoryBind_UnreachableIsAuthFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	v := service.NewPasswordVerifier()

	ac := service.AuthContext{
		FullName: "Alice Example",
		Directory: &domain.Directory{
			Name:          "corp",
			URL:           "ldap://127.0.0.1:1",
			BaseDN:        "dc=example,dc=org",
			UserDNPattern: "cn=%s,ou=people",
			DialTimeout:   500 * time.Millisecond,
		},
	}

	ok, err := v.Verify(ctx, "{LDAP}", "some-password", ac)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDirectoryBind_MissingDirectoryIsConfigFault(t *testing.T) {
	t.Parallel()
	_, err := service.NewPasswordVerifier().
		Verify(context.Background(), "{LDAP}", "pw", service.AuthContext{FullName: "Alice"})
	require.ErrorIs(t, err, service.ErrUnknownAlgorithm)
}

func TestDirectoryBind_EmptyPasswordRejected(t *testing.T) {
	t.Parallel()
	ac := service.AuthContext{
		FullName: "Alice Example",
		Directory: &domain.Directory{
			URL:           "ldap://127.0.0.1:1",
			BaseDN:        "dc=example,dc=org",
			UserDNPattern: "cn=%s,ou=people",
		},
	}

	// Must fail before dialling: an empty bind password would be an
	// anonymous bind.
	ok, err := service.NewPasswordVerifier().
		Verify(context.Background(), "{LDAP}", "", ac)
	require.NoError(t, err)
	require.False(t, ok)
}
