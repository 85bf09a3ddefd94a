package httpservices

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dcshock/servicepipe/pipeline"
)

// ParseJSON returns a service that unmarshals the input from JSON into a value.
// Input must be []byte or string (response body). Output is the decoded value (e.g. map[string]any for objects).
func ParseJSON[S any]() pipeline.Service[S] {
	return pipeline.Named[S]("parsejson", pipeline.ServiceFunc[S](func(_ context.Context, input any, _ *pipeline.Shared[S]) (any, error) {
		raw, err := jsonBytes("parsejson", input)
		if err != nil {
			return nil, err
		}
		var out any
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("parsejson: %w", err)
		}
		return out, nil
	}))
}

// ParseJSONTo returns a service that unmarshals the input from JSON into a value of type T.
// Input must be []byte or string. Output is *T.
func ParseJSONTo[S, T any]() pipeline.Service[S] {
	return pipeline.Named[S]("parsejsonto", pipeline.ServiceFunc[S](func(_ context.Context, input any, _ *pipeline.Shared[S]) (any, error) {
		raw, err := jsonBytes("parsejsonto", input)
		if err != nil {
			return nil, err
		}
		var out T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("parsejsonto: %w", err)
		}
		return &out, nil
	}))
}

func jsonBytes(op string, input any) ([]byte, error) {
	switch v := input.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("%s: input must be []byte or string, got %T", op, input)
	}
}
