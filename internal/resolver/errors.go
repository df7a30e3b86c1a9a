package resolver

import "errors"

var (
	// ErrInvalidNotification marks a malformed notification. It is a programming error upstream.
	ErrInvalidNotification = errors.New("invalid notification")

	// ErrQuery wraps a FindBindings failure. The previous snapshot is kept.
	ErrQuery = errors.New("binding query failed")

	// ErrAlreadyStarted is returned by Start on a running engine.
	ErrAlreadyStarted = errors.New("resolver already started")
)
