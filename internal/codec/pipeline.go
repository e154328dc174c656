package codec

import (
	"github.com/yndnr/strata-go/internal/core/domain"
	"github.com/yndnr/strata-go/pkg/crypto/seal"
)

// Options selects the pipeline strategies. A payload written with one
// set of options is only decodable with the same set.
type Options struct {
	// Serializer is "text" (JSON) or "binary" (MessagePack).
	// Default: "text".
	Serializer string

	// Compressor is "none" or "snappy". Default: "none".
	Compressor string

	// Sealer optionally encrypts payloads after compression.
	Sealer seal.Sealer
}

// Pipeline encodes decoded values into backend payloads and back.
type Pipeline struct {
	serializer Serializer
	compressor Compressor
	sealer     seal.Sealer
}

// New creates a pipeline, rejecting unknown strategy names.
func New(opts Options) (*Pipeline, error) {
	s, err := newSerializer(opts.Serializer)
	if err != nil {
		return nil, err
	}
	c, err := newCompressor(opts.Compressor)
	if err != nil {
		return nil, err
	}
	return &Pipeline{serializer: s, compressor: c, sealer: opts.Sealer}, nil
}

// SerializerName returns the active serializer strategy.
func (p *Pipeline) SerializerName() string { return p.serializer.Name() }

// CompressorName returns the active compressor strategy.
func (p *Pipeline) CompressorName() string { return p.compressor.Name() }

// Encrypted reports whether a sealer is configured.
func (p *Pipeline) Encrypted() bool { return p.sealer != nil }

// Encode runs normalize -> serialize -> compress -> seal.
func (p *Pipeline) Encode(value any) ([]byte, error) {
	normalized, err := Normalize(value)
	if err != nil {
		return nil, err
	}

	data, err := p.serializer.Marshal(normalized)
	if err != nil {
		return nil, domain.ErrCorruptPayload.WithDetails("serialize").WithCause(err)
	}

	data, err = p.compressor.Compress(data)
	if err != nil {
		return nil, err
	}

	if p.sealer != nil {
		data, err = p.sealer.Seal(data, nil)
		if err != nil {
			return nil, domain.NewStorageError("ST-CRYPT-5000", "encryption failed").WithCause(err)
		}
	}

	return data, nil
}

// Canonicalize passes a value through normalize and hydrate without
// touching the wire stages. The result is what a Decode of the Encoded
// value would return, so callers can cache it without paying for a
// round trip.
func Canonicalize(value any) (any, error) {
	normalized, err := Normalize(value)
	if err != nil {
		return nil, err
	}
	return Hydrate(normalized)
}

// Decode runs open -> decompress -> deserialize -> hydrate, the exact
// inverse of Encode. A failed open surfaces as ErrDecryptFailed and is
// never conflated with a parse failure.
func (p *Pipeline) Decode(payload []byte) (any, error) {
	data := payload

	if p.sealer != nil {
		opened, err := p.sealer.Open(data, nil)
		if err != nil {
			return nil, domain.ErrDecryptFailed.WithCause(err)
		}
		data = opened
	}

	data, err := p.compressor.Decompress(data)
	if err != nil {
		return nil, err
	}

	decoded, err := p.serializer.Unmarshal(data)
	if err != nil {
		return nil, err
	}

	return Hydrate(decoded)
}
