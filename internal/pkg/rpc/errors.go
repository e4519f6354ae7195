package rpc

import "errors"

var (
	// ErrTimeout means no reply arrived within the call timeout. The request
	// may still have been processed remotely; callers must treat the remote
	// state as unknown, not as unchanged.
	ErrTimeout = errors.New("rpc call timed out waiting for reply")

	// ErrUnreachable means the broker reported the request unroutable. As
	// with ErrTimeout the remote outcome is ambiguous from the caller's side.
	ErrUnreachable = errors.New("rpc destination unreachable")

	ErrClientClosed = errors.New("rpc client is closed")
)
