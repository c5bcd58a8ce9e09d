package config

import "errors"

var (
	ErrParseEnv         = errors.New("config: failed to parse environment")
	ErrUnknownBackend   = errors.New("config: unknown durable backend")
	ErrReadTTLFile      = errors.New("config: failed to read ttl file")
	ErrInvalidTTLConfig = errors.New("config: invalid ttl profile")
)
