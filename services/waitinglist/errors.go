package waitinglist

import "errors"

var (
	// ErrTokenInvalid means the confirmation token matches no redeemable
	// entry: unknown, already converted, or cancelled.
	ErrTokenInvalid = errors.New("confirmation token is invalid")

	// ErrTokenExpired means the 48-hour confirmation window has passed.
	ErrTokenExpired = errors.New("confirmation token has expired")

	// ErrSlotUnavailable means the offered slot was taken before the token
	// was redeemed. The entry stays notified; a later freed slot may produce
	// a fresh offer.
	ErrSlotUnavailable = errors.New("offered slot is no longer available")
)
