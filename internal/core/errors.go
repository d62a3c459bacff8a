package core

import "errors"

var (
	// ErrSubscriptionClosed is returned by Subscription.Next once the
	// subscription was released or the hub shut down.
	ErrSubscriptionClosed = errors.New("subscription closed")
	// ErrHubClosed is returned when subscribing to a hub that was shut down.
	ErrHubClosed = errors.New("hub closed")
)
