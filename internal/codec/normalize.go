package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/yndnr/strata-go/internal/core/domain"
)

// Wire tag keys. Maps containing kindKey are reserved for the
// normalizer; user maps must not use it.
const (
	kindKey    = "__strata_kind"
	payloadKey = "__strata_val"
)

// Normalize converts a decoded value into a tree of JSON-native values,
// tagging the non-native variants (dict, set, time, binary) as
// {kind, payload} maps.
//
// Numeric scalars are canonicalized to float64 so that every
// serializer round-trips them identically.
func Normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, float64:
		return val, nil

	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32:
		return toFloat64(val), nil

	case time.Time:
		return tagged(domain.KindTime, val.UTC().Format(time.RFC3339Nano)), nil

	case []byte:
		return tagged(domain.KindBinary, base64.StdEncoding.EncodeToString(val)), nil

	case domain.Dict:
		pairs := make([]any, 0, len(val))
		for _, e := range val {
			k, err := Normalize(e.Key)
			if err != nil {
				return nil, err
			}
			ev, err := Normalize(e.Value)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, []any{k, ev})
		}
		return tagged(domain.KindDict, pairs), nil

	case domain.Set:
		members := make([]any, 0, len(val))
		for _, m := range val {
			nm, err := Normalize(m)
			if err != nil {
				return nil, err
			}
			members = append(members, nm)
		}
		return tagged(domain.KindSet, members), nil

	case map[string]any:
		out := make(map[string]any, len(val))
		for k, mv := range val {
			nv, err := Normalize(mv)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil

	case []any:
		out := make([]any, len(val))
		for i, el := range val {
			nv, err := Normalize(el)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil

	default:
		return normalizeReflect(v)
	}
}

// normalizeReflect handles concrete slice and string-keyed map types
// (e.g. []string, map[string]int) by converting them to their generic
// forms. Anything else is unsupported.
func normalizeReflect(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			nv, err := Normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, domain.ErrUnsupportedValue.WithDetails(
				fmt.Sprintf("map key type %s; use a Dict for non-string keys", rv.Type().Key()))
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			nv, err := Normalize(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = nv
		}
		return out, nil

	default:
		return nil, domain.ErrUnsupportedValue.WithDetails(fmt.Sprintf("%T", v))
	}
}

// Hydrate is the exact inverse of Normalize. It switches over the
// closed set of variant tags and rejects unknown tags as corrupt.
func Hydrate(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, float64:
		return val, nil

	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, domain.ErrCorruptPayload.WithDetails("bad number: " + val.String())
		}
		return f, nil

	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32:
		// Binary serializers decode integers as integer types.
		return toFloat64(val), nil

	case map[string]any:
		if kind, ok := val[kindKey]; ok {
			return hydrateTagged(kind, val[payloadKey])
		}
		out := make(map[string]any, len(val))
		for k, mv := range val {
			hv, err := Hydrate(mv)
			if err != nil {
				return nil, err
			}
			out[k] = hv
		}
		return out, nil

	case map[any]any:
		// Some binary decoders produce any-keyed maps.
		out := make(map[string]any, len(val))
		for k, mv := range val {
			ks, ok := k.(string)
			if !ok {
				return nil, domain.ErrCorruptPayload.WithDetails(fmt.Sprintf("non-string map key %T", k))
			}
			hv, err := Hydrate(mv)
			if err != nil {
				return nil, err
			}
			out[ks] = hv
		}
		if kind, ok := out[kindKey]; ok {
			return hydrateTagged(kind, out[payloadKey])
		}
		return out, nil

	case []any:
		out := make([]any, len(val))
		for i, el := range val {
			hv, err := Hydrate(el)
			if err != nil {
				return nil, err
			}
			out[i] = hv
		}
		return out, nil

	default:
		return nil, domain.ErrCorruptPayload.WithDetails(fmt.Sprintf("unexpected decoded type %T", v))
	}
}

// hydrateTagged rebuilds one tagged variant.
func hydrateTagged(kind, payload any) (any, error) {
	kindStr, ok := kind.(string)
	if !ok {
		return nil, domain.ErrCorruptPayload.WithDetails(fmt.Sprintf("tag kind is %T, want string", kind))
	}

	switch domain.ValueKind(kindStr) {
	case domain.KindTime:
		s, ok := payload.(string)
		if !ok {
			return nil, domain.ErrCorruptPayload.WithDetails("time payload is not a string")
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, domain.ErrCorruptPayload.WithCause(err)
		}
		return t, nil

	case domain.KindBinary:
		s, ok := payload.(string)
		if !ok {
			return nil, domain.ErrCorruptPayload.WithDetails("binary payload is not a string")
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, domain.ErrCorruptPayload.WithCause(err)
		}
		return b, nil

	case domain.KindDict:
		pairs, err := asSlice(payload)
		if err != nil {
			return nil, err
		}
		dict := make(domain.Dict, 0, len(pairs))
		for _, p := range pairs {
			pair, err := asSlice(p)
			if err != nil || len(pair) != 2 {
				return nil, domain.ErrCorruptPayload.WithDetails("dict pair is not a 2-element list")
			}
			k, err := Hydrate(pair[0])
			if err != nil {
				return nil, err
			}
			v, err := Hydrate(pair[1])
			if err != nil {
				return nil, err
			}
			dict = append(dict, domain.DictEntry{Key: k, Value: v})
		}
		return dict, nil

	case domain.KindSet:
		members, err := asSlice(payload)
		if err != nil {
			return nil, err
		}
		set := make(domain.Set, 0, len(members))
		for _, m := range members {
			hm, err := Hydrate(m)
			if err != nil {
				return nil, err
			}
			set = append(set, hm)
		}
		return set, nil

	default:
		return nil, domain.ErrCorruptPayload.WithDetails("unknown value tag: " + kindStr)
	}
}

func tagged(kind domain.ValueKind, payload any) map[string]any {
	return map[string]any{kindKey: string(kind), payloadKey: payload}
}

func asSlice(v any) ([]any, error) {
	s, ok := v.([]any)
	if !ok {
		return nil, domain.ErrCorruptPayload.WithDetails(fmt.Sprintf("expected list payload, got %T", v))
	}
	return s, nil
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
