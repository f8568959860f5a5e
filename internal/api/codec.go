// Package api defines the wire types and procedure names for the Splitr
// Connect services, plus the JSON codec they are served with.
package api

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec marshals request and response structs with encoding/json so the
// services can be served without generated protobuf bindings. Registering it
// under the name "json" makes Connect select it for application/json bodies.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (jsonCodec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil // empty body decodes to the zero request
	}
	return json.Unmarshal(data, message)
}

// WithJSONCodec returns the option every handler and client in this app is
// constructed with.
func WithJSONCodec() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
