package codec

import (
	"bytes"
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/yndnr/strata-go/internal/core/domain"
)

// Serializer strategy names.
const (
	SerializerText   = "text"
	SerializerBinary = "binary"
)

// Serializer turns normalized trees into bytes and back.
type Serializer interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// newSerializer resolves a strategy name.
func newSerializer(name string) (Serializer, error) {
	switch name {
	case SerializerText, "":
		return jsonSerializer{}, nil
	case SerializerBinary:
		return msgpackSerializer{}, nil
	default:
		return nil, domain.ErrUnknownStrategy.WithDetails("serializer: " + name)
	}
}

// jsonSerializer is the "text" strategy: standard JSON.
type jsonSerializer struct{}

func (jsonSerializer) Name() string { return SerializerText }

func (jsonSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonSerializer) Unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, domain.ErrCorruptPayload.WithCause(err)
	}
	return v, nil
}

// msgpackSerializer is the "binary" strategy: MessagePack.
type msgpackSerializer struct{}

func (msgpackSerializer) Name() string { return SerializerBinary }

func (msgpackSerializer) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (msgpackSerializer) Unmarshal(data []byte) (any, error) {
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, domain.ErrCorruptPayload.WithCause(err)
	}
	return v, nil
}
