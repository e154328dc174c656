package codec

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/yndnr/strata-go/internal/core/domain"
	"github.com/yndnr/strata-go/pkg/crypto/seal"
)

var testKey = func() []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = byte(i * 7)
	}
	return k
}()

// valueCases covers every supported value category.
func valueCases() map[string]any {
	return map[string]any{
		"nil":       nil,
		"bool":      true,
		"number":    float64(42.5),
		"string":    "héllo wörld",
		"list":      []any{float64(1), "two", false, nil},
		"object":    map[string]any{"a": float64(1), "nested": map[string]any{"b": "c"}},
		"dict":      domain.Dict{{Key: float64(1), Value: "one"}, {Key: "two", Value: float64(2)}},
		"set":       domain.Set{"a", float64(2), "c"},
		"timestamp": time.Date(2024, 5, 17, 10, 30, 0, 123456789, time.UTC),
		"binary":    []byte{0x00, 0xff, 0x10, 0x80},
		"deep": map[string]any{
			"when": time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			"tags": domain.Set{"x"},
			"raw":  []byte("blob"),
			"rows": []any{domain.Dict{{Key: "k", Value: "v"}}},
		},
	}
}

func pipelinesUnderTest(t *testing.T) map[string]*Pipeline {
	t.Helper()

	sealer, err := seal.New(testKey)
	if err != nil {
		t.Fatalf("seal.New: %v", err)
	}

	out := make(map[string]*Pipeline)
	for _, ser := range []string{SerializerText, SerializerBinary} {
		for _, comp := range []string{CompressorNone, CompressorSnappy} {
			for _, enc := range []bool{false, true} {
				opts := Options{Serializer: ser, Compressor: comp}
				name := ser + "/" + comp
				if enc {
					opts.Sealer = sealer
					name += "/sealed"
				}
				p, err := New(opts)
				if err != nil {
					t.Fatalf("New(%s): %v", name, err)
				}
				out[name] = p
			}
		}
	}
	return out
}

func TestPipeline_RoundTrip(t *testing.T) {
	for pname, p := range pipelinesUnderTest(t) {
		for vname, value := range valueCases() {
			t.Run(pname+"/"+vname, func(t *testing.T) {
				payload, err := p.Encode(value)
				if err != nil {
					t.Fatalf("Encode: %v", err)
				}

				got, err := p.Decode(payload)
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}

				if diff := cmp.Diff(value, got); diff != "" {
					t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestPipeline_NumbersCanonicalizeToFloat64(t *testing.T) {
	p, _ := New(Options{})

	payload, err := p.Encode(map[string]any{"n": int(7)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := p.Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	m := got.(map[string]any)
	if _, ok := m["n"].(float64); !ok {
		t.Fatalf("n decoded as %T, want float64", m["n"])
	}
}

func TestPipeline_UnknownStrategies(t *testing.T) {
	if _, err := New(Options{Serializer: "xml"}); !errors.Is(err, domain.ErrUnknownStrategy) {
		t.Fatalf("serializer err = %v, want ErrUnknownStrategy", err)
	}
	if _, err := New(Options{Compressor: "zstd"}); !errors.Is(err, domain.ErrUnknownStrategy) {
		t.Fatalf("compressor err = %v, want ErrUnknownStrategy", err)
	}
}

func TestPipeline_DecryptFailureIsDistinct(t *testing.T) {
	sealer, _ := seal.New(testKey)
	p, _ := New(Options{Sealer: sealer})

	payload, err := p.Encode("secret")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	payload[len(payload)-1] ^= 0x01

	_, err = p.Decode(payload)
	if !errors.Is(err, domain.ErrDecryptFailed) {
		t.Fatalf("err = %v, want ErrDecryptFailed", err)
	}
	if errors.Is(err, domain.ErrCorruptPayload) {
		t.Fatal("decrypt failure must not classify as corrupt payload")
	}
}

func TestPipeline_CorruptPayload(t *testing.T) {
	p, _ := New(Options{})

	if _, err := p.Decode([]byte("{not json")); !errors.Is(err, domain.ErrCorruptPayload) {
		t.Fatalf("err = %v, want ErrCorruptPayload", err)
	}

	snappyP, _ := New(Options{Compressor: CompressorSnappy})
	if _, err := snappyP.Decode([]byte("not a snappy frame")); !errors.Is(err, domain.ErrCorruptPayload) {
		t.Fatalf("err = %v, want ErrCorruptPayload", err)
	}
}

func TestPipeline_UnknownTagRejected(t *testing.T) {
	p, _ := New(Options{})

	// Forge a payload with an unregistered variant tag.
	forged := []byte(`{"` + kindKey + `":"graph","` + payloadKey + `":[]}`)
	if _, err := p.Decode(forged); !errors.Is(err, domain.ErrCorruptPayload) {
		t.Fatalf("err = %v, want ErrCorruptPayload for unknown tag", err)
	}
}

func TestPipeline_UnsupportedValue(t *testing.T) {
	p, _ := New(Options{})

	if _, err := p.Encode(make(chan int)); !errors.Is(err, domain.ErrUnsupportedValue) {
		t.Fatalf("err = %v, want ErrUnsupportedValue", err)
	}
	if _, err := p.Encode(map[int]string{1: "a"}); !errors.Is(err, domain.ErrUnsupportedValue) {
		t.Fatalf("non-string map key err = %v, want ErrUnsupportedValue", err)
	}
}

func TestPipeline_TypedSlicesNormalize(t *testing.T) {
	p, _ := New(Options{})

	payload, err := p.Encode([]string{"a", "b"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := p.Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff([]any{"a", "b"}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}
