package chat

import "errors"

var (
	// ErrInvalidSender is returned when an operation references a user id
	// that is not registered.
	ErrInvalidSender = errors.New("chat: invalid sender")

	// ErrUnknownUser is returned when a stream is attached for an id that
	// never joined or has already disconnected.
	ErrUnknownUser = errors.New("chat: unknown user")

	// ErrQueueClosed is returned by Queue operations after the owning user
	// has been removed.
	ErrQueueClosed = errors.New("chat: queue closed")

	// ErrPopTimeout is returned by Queue.Pop when no event arrived in time.
	ErrPopTimeout = errors.New("chat: pop timed out")

	// ErrHubClosed is returned by Join after Shutdown.
	ErrHubClosed = errors.New("chat: hub closed")
)
