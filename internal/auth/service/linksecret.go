package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tenauth/pkg/cryptox"
	"github.com/redis/go-redis/v9"
)

// Channel identifies a sign-in channel. Only the out-of-band channels carry
// link secrets; password is listed for metrics and AMR labelling.
type Channel string

const (
	ChannelPassword Channel = "pwd"
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
	ChannelSocial   Channel = "social"
)

// DefaultLinkSecretTTL bounds how long an issued secret stays valid.
const DefaultLinkSecretTTL = 5 * time.Minute

var (
	// ErrSecretExpired: no secret under the key. Expired, consumed, or
	// never issued are deliberately indistinguishable.
	ErrSecretExpired = errors.New("link_secret_expired")

	// ErrSecretMismatch: a secret exists but the supplied value is wrong.
	// The key is NOT deleted, so the caller may retry within the TTL.
	ErrSecretMismatch = errors.New("link_secret_mismatch")

	errUnknownChannel = errors.New("unknown link secret channel")
)

// Notifier delivers a link secret out-of-band. The service never performs
// delivery itself.
type Notifier interface {
	Send(ctx context.Context, channel Channel, subject, secret string) error
}

// LinkSecrets issues and consumes single-use, time-bounded secrets for
// SMS/email/social sign-in, backed by Redis.
type LinkSecrets struct {
	Redis     *redis.Client
	Notifier  Notifier
	Namespace string // cache key namespace, e.g. "tenauth"
	BizKey    string // business scenario discriminator within the namespace
	TTL       time.Duration
}

// Issue generates a fresh secret for (channel, subject), stores it with the
// TTL and hands it to the notifier. Overwriting an unconsumed secret is
// deliberate: it is the "resend code" path.
func (s *LinkSecrets) Issue(ctx context.Context, channel Channel, subject string) (string, error) {
	var secret string
	var err error
	switch channel {
	case ChannelSMS, ChannelEmail:
		secret, err = cryptox.GenerateDigits(6)
	case ChannelSocial:
		secret, err = cryptox.GenerateToken(cryptox.TokenSize128)
	default:
		return "", fmt.Errorf("%w: %q", errUnknownChannel, channel)
	}
	if err != nil {
		return "", err
	}

	key, err := s.key(channel, subject)
	if err != nil {
		return "", err
	}

	if err := s.Redis.Set(ctx, key, secret, s.ttl()).Err(); err != nil {
		return "", fmt.Errorf("store link secret: %w", err)
	}

	if s.Notifier != nil {
		if err := s.Notifier.Send(ctx, channel, subject, secret); err != nil {
			return "", fmt.Errorf("deliver link secret: %w", err)
		}
	}

	return secret, nil
}

// Consume validates a supplied secret. The key is deleted only on a
// successful match: that one rule gives single-use semantics while
// tolerating typos within the TTL window.
func (s *LinkSecrets) Consume(ctx context.Context, channel Channel, subject, supplied string) error {
	key, err := s.key(channel, subject)
	if err != nil {
		return err
	}

	stored, err := s.Redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrSecretExpired
	}
	if err != nil {
		return fmt.Errorf("fetch link secret: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) != 1 {
		return ErrSecretMismatch
	}

	if err := s.Redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("consume link secret: %w", err)
	}
	return nil
}

func (s *LinkSecrets) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultLinkSecretTTL
}

// Key formats are part of the external interface and must stay stable.
func (s *LinkSecrets) key(channel Channel, subject string) (string, error) {
	switch channel {
	case ChannelSMS:
		return fmt.Sprintf("%s:checkSms:%s:%s", s.Namespace, s.BizKey, subject), nil
	case ChannelEmail:
		return fmt.Sprintf("%s:checkEmail:%s:%s", s.Namespace, s.BizKey, subject), nil
	case ChannelSocial:
		return fmt.Sprintf("%s:checkSocial:%s", s.Namespace, subject), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownChannel, channel)
	}
}
