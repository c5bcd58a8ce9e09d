package durable

import "errors"

var (
	ErrQuotaExceeded      = errors.New("durable: storage quota exceeded")
	ErrEmptyConnectionURL = errors.New("durable: empty connection URL")
	ErrFailedToParseURL   = errors.New("durable: failed to parse connection URL")
	ErrConnectionFailed   = errors.New("durable: failed to establish connection")
	ErrHealthcheckFailed  = errors.New("durable: healthcheck failed")
	ErrSetDialect         = errors.New("durable migrator: failed to set dialect")
	ErrApplyMigrations    = errors.New("durable migrator: failed to apply migrations")
	ErrInvalidConfig      = errors.New("durable: invalid configuration")
	ErrAccessDenied       = errors.New("durable: access denied")
	ErrReadFailed         = errors.New("durable: read failed")
	ErrWriteFailed        = errors.New("durable: write failed")
	ErrDeleteFailed       = errors.New("durable: delete failed")
	ErrListFailed         = errors.New("durable: list failed")
)
