package core

import (
	"errors"
	"fmt"
)

// WebSocket close codes used when a connection is rejected or torn down.
const (
	CloseInternalError = 4000
	CloseAuthInvalid   = 4001
	CloseAuthRequired  = 4003
)

// Error-frame codes reported to the client while the connection stays open.
const (
	CodeInternal         = 4000
	CodeMalformedPayload = 4002
	CodeValidation       = 4004
	CodeReceiverNotFound = 4005
	CodePersistence      = 4006
)

var (
	// ErrUnknownUser is returned by a Directory when a username does not resolve.
	ErrUnknownUser = errors.New("unknown user")
	// ErrInvalidToken is returned by a TokenResolver for bad or expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNotJoined is returned when Receive is called outside the Joined state.
	ErrNotJoined = errors.New("session is not joined")
)

// RejectError indicates a connection-fatal failure. The transport sends the
// message as an error frame and closes with Code.
type RejectError struct {
	Code    int
	Message string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("rejected (%d): %s", e.Code, e.Message)
}

func reject(code int, msg string) *RejectError {
	return &RejectError{Code: code, Message: msg}
}
