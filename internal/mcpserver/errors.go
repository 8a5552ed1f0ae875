package mcpserver

import (
	"context"
	"errors"
	"fmt"

	codiierrors "github.com/oOSomnus/codii/internal/errors"
)

// Standard JSON-RPC error codes, plus codii's own reserved range starting
// at -32001, mirroring the convention used by other MCP servers in this
// ecosystem.
const (
	errCodeIndexNotFound  = -32001
	errCodeAlreadyRunning = -32002
	errCodeTimeout        = -32003

	errCodeInvalidParams = -32602
	errCodeInternalError = -32603
)

// toolError carries an MCP-style code alongside the text sent back as the
// tool call's error content.
type toolError struct {
	code    int
	message string
}

func (e *toolError) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.code, e.message)
}

func invalidParamsError(msg string) *toolError {
	return &toolError{code: errCodeInvalidParams, message: msg}
}

// mapError converts an internal error into a tool-call error message.
// Recognized CodiiError codes get a specific MCP error code and a
// user-facing message via FormatForUser; a timeout or cancellation gets a
// fixed message; anything else is reported as an internal error carrying
// err's own text.
func mapError(err error) *toolError {
	if err == nil {
		return nil
	}

	var ce *codiierrors.CodiiError
	if errors.As(err, &ce) {
		code := errCodeInternalError
		switch ce.Code {
		case codiierrors.ErrCodeAlreadyIndexing:
			code = errCodeAlreadyRunning
		case codiierrors.ErrCodePathNotFound, codiierrors.ErrCodePathNotDir, codiierrors.ErrCodePathUnreadable:
			code = errCodeInvalidParams
		case codiierrors.ErrCodeInterrupted:
			code = errCodeTimeout
		}
		return &toolError{code: code, message: codiierrors.FormatForUser(ce, false)}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &toolError{code: errCodeTimeout, message: "request timed out or was canceled"}
	}

	return &toolError{code: errCodeInternalError, message: err.Error()}
}

// indexNotFoundError reports that a repository has never been indexed.
func indexNotFoundError(path string) *toolError {
	return &toolError{
		code:    errCodeIndexNotFound,
		message: fmt.Sprintf("%s has not been indexed yet; run the index tool first", path),
	}
}
