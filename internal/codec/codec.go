package codec

import (
	"encoding/json"
	"fmt"

	"lattice/internal/types"
)

// Symmetric wire codec for lattice message bodies. Every message published on
// the bus is the serialized form of an Invocation (request) or an
// InvocationResponse (reply).

func Serialize(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %T: %w", v, err)
	}
	return data, nil
}

func Deserialize(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to deserialize %T: %w", v, err)
	}
	return nil
}

func DecodeInvocation(data []byte) (types.Invocation, error) {
	var inv types.Invocation
	err := Deserialize(data, &inv)
	return inv, err
}

func DecodeResponse(data []byte) (types.InvocationResponse, error) {
	var resp types.InvocationResponse
	err := Deserialize(data, &resp)
	return resp, err
}
