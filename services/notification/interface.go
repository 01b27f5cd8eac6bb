// Package notification fans booking events out to external channels. Every
// outbound call runs behind a circuit breaker and bounded retry; failures
// degrade to "not sent" and never reach the booking caller.
package notification

import (
	"context"
	"errors"
)

// ErrPushTokenExpired marks a push subscription the gateway reports as gone.
// It is permanent: retrying cannot help, the token must be dropped.
var ErrPushTokenExpired = errors.New("push subscription expired")

// EmailSender sends one transactional email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// PushSender sends one push message to a device token. Implementations
// return ErrPushTokenExpired for dead subscriptions, distinct from transient
// failures.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}
