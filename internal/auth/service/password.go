package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	"github.com/aussiebroadwan/tenauth/pkg/cryptox"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm tags recognised in stored credentials. A stored credential looks
// like "{argon2}$argon2id$v=19$...": the bracketed prefix selects the
// strategy, the remainder is strategy-specific.
const (
	AlgArgon2 = "argon2"
	AlgBcrypt = "bcrypt"
	AlgSHA256 = "SHA256"
	AlgTOTP   = "TOTP"
	AlgLDAP   = "LDAP"
)

// ErrUnknownAlgorithm is a configuration fault: a stored credential carries a
// tag no strategy is registered for. Never attributable to the caller.
var ErrUnknownAlgorithm = errors.New("unknown_password_algorithm")

// AuthContext carries the ambient attributes a strategy may need beyond the
// two secrets. The directory-bind strategy reads the principal's full name
// and directory configuration from here; everything is explicit, no
// thread-local state.
type AuthContext struct {
	FullName  string
	Directory *domain.Directory
}

// PasswordStrategy verifies one supplied secret against one stored
// credential. A false result with nil error is an authentication failure; a
// non-nil error is a system or configuration fault.
type PasswordStrategy interface {
	Verify(ctx context.Context, stored, supplied string, ac AuthContext) (bool, error)
}

// PasswordVerifier dispatches verification to the strategy named by the
// stored credential's algorithm tag.
type PasswordVerifier struct {
	strategies map[string]PasswordStrategy
}

// NewPasswordVerifier returns a verifier with the standard strategy set
// registered.
func NewPasswordVerifier() *PasswordVerifier {
	v := &PasswordVerifier{strategies: map[string]PasswordStrategy{}}
	v.Register(AlgArgon2, argon2Strategy{})
	v.Register(AlgBcrypt, bcryptStrategy{})
	v.Register(AlgSHA256, sha256Strategy{})
	v.Register(AlgTOTP, totpStrategy{})
	v.Register(AlgLDAP, DirectoryBindStrategy{})
	return v
}

func (v *PasswordVerifier) Register(tag string, s PasswordStrategy) {
	v.strategies[tag] = s
}

// Verify splits the algorithm tag off the stored credential and dispatches.
func (v *PasswordVerifier) Verify(ctx context.Context, stored, supplied string, ac AuthContext) (bool, error) {
	tag, rest, ok := splitAlgorithmTag(stored)
	if !ok {
		return false, fmt.Errorf("%w: untagged credential", ErrUnknownAlgorithm)
	}
	strategy, ok := v.strategies[tag]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, tag)
	}
	return strategy.Verify(ctx, rest, supplied, ac)
}

// TagCredential prepends an algorithm tag to a strategy-specific stored
// value, producing the persisted form.
func TagCredential(tag, value string) string {
	return "{" + tag + "}" + value
}

func splitAlgorithmTag(stored string) (tag, rest string, ok bool) {
	if !strings.HasPrefix(stored, "{") {
		return "", "", false
	}
	end := strings.IndexByte(stored, '}')
	if end < 1 {
		return "", "", false
	}
	return stored[1:end], stored[end+1:], true
}

type argon2Strategy struct{}

func (argon2Strategy) Verify(_ context.Context, stored, supplied string, _ AuthContext) (bool, error) {
	return cryptox.VerifyPassword(supplied, stored) == nil, nil
}

type bcryptStrategy struct{}

func (bcryptStrategy) Verify(_ context.Context, stored, supplied string, _ AuthContext) (bool, error) {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil, nil
}

// sha256Strategy covers legacy unsalted hex digests still present in
// migrated tenants. New credentials are never written with it.
type sha256Strategy struct{}

func (sha256Strategy) Verify(_ context.Context, stored, supplied string, _ AuthContext) (bool, error) {
	sum := sha256.Sum256([]byte(supplied))
	computed := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(strings.ToLower(stored))) == 1, nil
}

// totpStrategy treats the stored value as a base32 TOTP secret and the
// supplied value as the current code.
type totpStrategy struct{}

func (totpStrategy) Verify(_ context.Context, stored, supplied string, _ AuthContext) (bool, error) {
	return totp.Validate(supplied, stored), nil
}
