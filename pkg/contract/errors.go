package contract

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// NotFound is the text substituted for a value whose remote call failed.
const NotFound = "NotFound"

// ErrUnknownMethod is returned when a method is not part of the bound schema.
var ErrUnknownMethod = errors.New("method not in schema")

// Stage identifies where a remote call failed.
type Stage string

const (
	// StageEncode means the arguments could not be packed.
	StageEncode Stage = "encode"

	// StageCall means the node call itself failed.
	StageCall Stage = "call"

	// StageDecode means the returned data could not be unpacked.
	StageDecode Stage = "decode"
)

// RemoteCallError describes one failed contract call.
type RemoteCallError struct {
	Contract common.Address
	Method   string
	Stage    Stage
	Err      error
}

// Error implements the error interface.
func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("remote call %s.%s failed at %s: %v",
		e.Contract.Hex(), e.Method, e.Stage, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RemoteCallError) Unwrap() error {
	return e.Err
}
