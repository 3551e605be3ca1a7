package service

import (
	"context"

	"github.com/aussiebroadwan/tenauth/pkg/slogx"
)

// LogNotifier is the default Notifier: it records that a secret was issued
// without delivering anything. Real SMS/email transports are external
// collaborators wired in at deployment.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, channel Channel, subject, _ string) error {
	slogx.FromContext(ctx).Info("link secret issued",
		"channel", string(channel),
		"subject", subject,
	)
	return nil
}
