package discovery

import (
	"errors"
	"fmt"
)

// ErrPairNotFound is returned by LookupPair when the factory has no pair for the tokens.
var ErrPairNotFound = errors.New("pair not found")

// ConfigurationError reports a pipeline call without enough information to
// reach the factory. It is raised before any network call.
type ConfigurationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}
