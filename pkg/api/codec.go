// Package api defines the messages of the paytungan.v1 RPC services.
//
// Messages are plain Go structs carried as JSON by the Connect protocol, so
// any HTTP client can call the API with a POST of application/json.
package api

import (
	"encoding/json"
	"fmt"
)

// JSONCodec is a connect.Codec for the plain structs in this package.
// It is registered under the name "json", replacing Connect's
// protobuf-only JSON codec.
type JSONCodec struct{}

func (JSONCodec) Name() string {
	return "json"
}

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("invalid JSON message: %w", err)
	}
	return nil
}
