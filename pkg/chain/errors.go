// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	ErrConnection      = errors.New("connection error")
	ErrSessionClosed   = errors.New("chain session closed")
)

// ConnectionError reports a failed dial, handshake or a transport that
// dropped after the session was open.
type ConnectionError struct {
	Endpoint string
	Cause    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrConnection, e.Endpoint, e.Cause)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnection, e.Cause}
}

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 && string(e.Data) != "null" {
		return fmt.Sprintf("rpc error %d: %s: %s", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
