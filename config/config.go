// Package config holds the pure-data configuration types the core takes as
// dependencies (§6): ExecutorConfig, MessageParserConfig, LoggingConfig, and
// the per-endpoint retry/backoff config for the client connector. None of
// these parse text themselves — loading TOML (or any other format) into
// these structs is an explicit non-goal of the core (§1) and is left to a
// thin outer layer. What belongs here is validating the loaded values, using
// github.com/go-playground/validator/v10 the same way this pack's
// marmos91-dittofs and nabbar-golib validate their config structs.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/msgpack-rpc/msgpackrpc-go/status"
)

var validate = validator.New()

// MessageParserConfig configures the frame Parser (§4.1).
type MessageParserConfig struct {
	// ReadBufferSize is the minimum writable region PrepareBuffer must
	// return; must be >= 1 (§6).
	ReadBufferSize int `validate:"gte=1"`
}

// DefaultMessageParserConfig returns a ready-to-use configuration.
func DefaultMessageParserConfig() MessageParserConfig {
	return MessageParserConfig{ReadBufferSize: 4096}
}

// ExecutorConfig configures the two logical task pools (§4.5).
type ExecutorConfig struct {
	TransportThreads int `validate:"gte=1"`
	CallbackThreads  int `validate:"gte=1"`
}

// DefaultExecutorConfig returns a ready-to-use configuration.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{TransportThreads: 2, CallbackThreads: 4}
}

// LoggingConfig configures the per-endpoint logger label and level.
type LoggingConfig struct {
	Name  string `validate:"required"`
	Level string `validate:"omitempty,oneof=trace debug info warn error"`
}

// ReconnectConfig configures ClientConnector's bounded exponential backoff
// with jitter (§4.6, §9).
type ReconnectConfig struct {
	InitialDelay time.Duration `validate:"gt=0"`
	MaxDelay     time.Duration `validate:"gtefield=InitialDelay"`
	Multiplier   float64       `validate:"gt=1"`
}

// DefaultReconnectConfig returns a ready-to-use configuration.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Validate runs struct-tag validation and translates any failure into a
// status.InvalidArgument, per §6 ("invalid values throw INVALID_ARGUMENT").
func Validate(cfg any) error {
	if err := validate.Struct(cfg); err != nil {
		return status.Wrap(status.InvalidArgument, err)
	}
	return nil
}
