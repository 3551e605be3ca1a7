package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tenauth/internal/auth/domain"
	"github.com/aussiebroadwan/tenauth/internal/auth/obs"
	"github.com/aussiebroadwan/tenauth/internal/auth/store"
	"github.com/aussiebroadwan/tenauth/pkg/slogx"
)

var (
	// ErrInvalidCredentials covers every caller-attributable password
	// sign-in failure. Deliberately unspecific.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrMobileNotBound and ErrEmailNotBound are distinct sentinels even
	// though both map to the same HTTP status. Internal callers and logs
	// need to tell the channels apart.
	ErrMobileNotBound = errors.New("mobile_not_bound")
	ErrEmailNotBound  = errors.New("email_not_bound")
)

// Session is the product of a successful sign-in.
type Session struct {
	Token       string
	ExpiresAt   time.Time
	Permissions []string
	User        domain.User
}

// SignInService runs the four interactive sign-in flows. Each flow
// authenticates through its own mechanism, then converges: resolve
// authorities, sign a session token.
type SignInService struct {
	Store       store.Store
	Passwords   *PasswordVerifier
	LinkSecrets *LinkSecrets
	Authorities *AuthorityResolver
	Tokens      *TokenService
}

// PasswordSignIn authenticates with the stored algorithm-tagged credential.
// Directory-backed users get their directory configuration loaded into the
// verification context; everyone else verifies against the stored hash.
func (s *SignInService) PasswordSignIn(ctx context.Context, tenantID, username, password string) (Session, error) {
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByUsername(ctx, tenantID, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.fail(ChannelPassword, ErrInvalidCredentials)
		}
		return s.fail(ChannelPassword, err)
	}

	ac := AuthContext{FullName: u.FullName}
	if u.DirectoryID != nil {
		d, err := s.Store.Directories().GetDirectoryByID(ctx, *u.DirectoryID)
		if err != nil {
			return s.fail(ChannelPassword, fmt.Errorf("load directory for user %s: %w", u.ID, err))
		}
		ac.Directory = &d
	}

	ok, err := s.Passwords.Verify(ctx, u.PasswordHash, password, ac)
	if err != nil {
		log.Error("password verification fault", "user_id", u.ID, "err", err)
		return s.fail(ChannelPassword, err)
	}
	if !ok {
		log.Info("password sign-in rejected", "tenant_id", tenantID, "username", username)
		return s.fail(ChannelPassword, ErrInvalidCredentials)
	}

	return s.establish(ctx, u, ChannelPassword)
}

// IssueSignInCode issues a link secret for an out-of-band channel. The
// channel target (mobile number or email address) must already be bound to a
// user in the tenant.
func (s *SignInService) IssueSignInCode(ctx context.Context, tenantID string, channel Channel, target string) error {
	if _, err := s.lookupByChannel(ctx, tenantID, channel, target); err != nil {
		return err
	}
	_, err := s.LinkSecrets.Issue(ctx, channel, target)
	return err
}

// SmsSignIn consumes a previously issued SMS code for the bound mobile.
func (s *SignInService) SmsSignIn(ctx context.Context, tenantID, mobile, code string) (Session, error) {
	return s.linkSignIn(ctx, tenantID, ChannelSMS, mobile, code)
}

// EmailSignIn consumes a previously issued email code for the bound address.
func (s *SignInService) EmailSignIn(ctx context.Context, tenantID, email, code string) (Session, error) {
	return s.linkSignIn(ctx, tenantID, ChannelEmail, email, code)
}

// SocialSignIn consumes the one-shot secret minted when the external
// identity provider callback landed. The subject is the local username the
// external identity was linked to.
func (s *SignInService) SocialSignIn(ctx context.Context, tenantID, username, secret string) (Session, error) {
	if err := s.LinkSecrets.Consume(ctx, ChannelSocial, username, secret); err != nil {
		return s.fail(ChannelSocial, err)
	}
	u, err := s.Store.Users().GetUserByUsername(ctx, tenantID, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.fail(ChannelSocial, ErrInvalidCredentials)
		}
		return s.fail(ChannelSocial, err)
	}
	return s.establish(ctx, u, ChannelSocial)
}

func (s *SignInService) linkSignIn(ctx context.Context, tenantID string, channel Channel, target, code string) (Session, error) {
	u, err := s.lookupByChannel(ctx, tenantID, channel, target)
	if err != nil {
		return s.fail(channel, err)
	}
	if err := s.LinkSecrets.Consume(ctx, channel, target, code); err != nil {
		return s.fail(channel, err)
	}
	return s.establish(ctx, u, channel)
}

// lookupByChannel maps an unbound target to the channel's own sentinel, not
// a generic not-found.
func (s *SignInService) lookupByChannel(ctx context.Context, tenantID string, channel Channel, target string) (domain.User, error) {
	switch channel {
	case ChannelSMS:
		u, err := s.Store.Users().GetUserByMobile(ctx, tenantID, target)
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrMobileNotBound
		}
		return u, err
	case ChannelEmail:
		u, err := s.Store.Users().GetUserByEmail(ctx, tenantID, target)
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrEmailNotBound
		}
		return u, err
	default:
		return domain.User{}, fmt.Errorf("%w: %q", errUnknownChannel, channel)
	}
}

// establish is the common tail of every flow: authorities, session token.
func (s *SignInService) establish(ctx context.Context, u domain.User, channel Channel) (Session, error) {
	now := time.Now()

	perms, err := s.Authorities.Resolve(ctx, u.Principal())
	if err != nil {
		return s.fail(channel, fmt.Errorf("resolve authorities: %w", err))
	}

	token, err := s.Tokens.SignSession(u, perms, []string{string(channel)}, now)
	if err != nil {
		return s.fail(channel, fmt.Errorf("sign session: %w", err))
	}

	obs.SignInsTotal.WithLabelValues(string(channel), "ok").Inc()
	slogx.FromContext(ctx).Info("sign-in established",
		"tenant_id", u.TenantID,
		"user_id", u.ID,
		"channel", string(channel),
	)

	return Session{
		Token:       token,
		ExpiresAt:   now.Add(s.Tokens.sessionTTL()),
		Permissions: perms,
		User:        u,
	}, nil
}

func (s *SignInService) fail(channel Channel, err error) (Session, error) {
	obs.SignInsTotal.WithLabelValues(string(channel), "error").Inc()
	return Session{}, err
}
