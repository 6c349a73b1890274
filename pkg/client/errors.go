package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// ErrorClass represents a classification of node call errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses and invalid-request RPC errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses and node-side RPC errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses and "limit exceeded" RPC errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport failures.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassTimeout represents deadline expiry.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassRevert represents a call the contract reverted.
	ErrorClassRevert ErrorClass = "revert"
)

// JSON-RPC error codes used for classification.
const (
	codeExecutionReverted = 3
	codeLimitExceeded     = -32005
	codeServerErrorMin    = -32099
	codeServerErrorMax    = -32000
)

// NodeError represents a failed node call with its classification.
type NodeError struct {
	Class    ErrorClass
	Selector string
	Err      error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s error (%s): %v", e.Class, e.Selector, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// ClassifyError categorizes an error for observability and handling.
func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ""
	}

	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr.Class
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassTimeout
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return ErrorClassRateLimit
		case httpErr.StatusCode >= 500:
			return ErrorClassServer
		default:
			return ErrorClassClient
		}
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		code := rpcErr.ErrorCode()
		switch {
		case code == codeExecutionReverted || strings.Contains(rpcErr.Error(), "execution reverted"):
			return ErrorClassRevert
		case code == codeLimitExceeded:
			return ErrorClassRateLimit
		case code >= codeServerErrorMin && code <= codeServerErrorMax:
			return ErrorClassServer
		default:
			return ErrorClassClient
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorClassTimeout
	}

	return ErrorClassNetwork
}
