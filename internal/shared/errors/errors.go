package errors

import "errors"

var (
	ErrMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	ErrUnauthorized    = errors.New("unauthorized user")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrInvalidPair     = errors.New("invalid pair")
)
