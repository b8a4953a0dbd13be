package server

import (
	"connectrpc.com/connect"
	json "github.com/goccy/go-json"
)

// jsonCodec lets Connect carry the plain Go messages in messages.go. It
// replaces the default protobuf-JSON codec under the same name.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func codecOption() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
