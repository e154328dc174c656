package codec

import (
	"github.com/golang/snappy"

	"github.com/yndnr/strata-go/internal/core/domain"
)

// Compressor strategy names.
const (
	CompressorNone   = "none"
	CompressorSnappy = "snappy"
)

// Compressor shrinks serialized payloads and restores them.
type Compressor interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// newCompressor resolves a strategy name.
func newCompressor(name string) (Compressor, error) {
	switch name {
	case CompressorNone, "":
		return noneCompressor{}, nil
	case CompressorSnappy:
		return snappyCompressor{}, nil
	default:
		return nil, domain.ErrUnknownStrategy.WithDetails("compressor: " + name)
	}
}

type noneCompressor struct{}

func (noneCompressor) Name() string                            { return CompressorNone }
func (noneCompressor) Compress(data []byte) ([]byte, error)    { return data, nil }
func (noneCompressor) Decompress(data []byte) ([]byte, error)  { return data, nil }

type snappyCompressor struct{}

func (snappyCompressor) Name() string { return CompressorSnappy }

func (snappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (snappyCompressor) Decompress(data []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, domain.ErrCorruptPayload.WithCause(err)
	}
	return out, nil
}
