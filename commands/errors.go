package commands

import (
	"fmt"
	"pmo-bot/models"
)

type ErrorCode string

const (
	ErrCodeUsage          ErrorCode = "usage"
	ErrCodeInvalidFormat  ErrorCode = "invalid_format"
	ErrCodeNotFound       ErrorCode = "not_found"
	ErrCodeUnknownCommand ErrorCode = "unknown_command"
)

// CommandError is a user-facing failure: bad arguments, a malformed time, an
// unknown id or verb. Message is what the user is shown. None of these change
// state.
type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CommandError) kind() models.ResponseKind {
	switch e.Code {
	case ErrCodeUsage:
		return models.KindUsageError
	case ErrCodeInvalidFormat:
		return models.KindInvalidFormat
	case ErrCodeNotFound:
		return models.KindNotFound
	case ErrCodeUnknownCommand:
		return models.KindUnknownCommand
	default:
		return models.KindUsageError
	}
}

func usageError(msg string) *CommandError {
	return &CommandError{Code: ErrCodeUsage, Message: msg}
}
