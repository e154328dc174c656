package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"sort"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/yndnr/strata-go/internal/codec"
	"github.com/yndnr/strata-go/internal/core/domain"
)

// ExportFormat selects the serialization of an export archive. All
// three formats carry identical semantic content: importing an archive
// exported in any format restores the same decoded values.
type ExportFormat string

const (
	// FormatText is an indented JSON document, meant for humans.
	FormatText ExportFormat = "text"

	// FormatLines is JSON Lines, one record per line, meant for
	// streaming tools.
	FormatLines ExportFormat = "lines"

	// FormatBinary is snappy-compressed MessagePack, meant for size.
	FormatBinary ExportFormat = "binary"
)

// exportFormatVersion tags archives; importers reject unknown versions.
const exportFormatVersion = 1

type exportEnvelope struct {
	FormatVersion int            `json:"formatVersion" msgpack:"formatVersion"`
	Entries       map[string]any `json:"entries" msgpack:"entries"`
}

type exportLine struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Export serializes the live state of the namespace in the given
// format. Values are exported in normalized form so every format can
// carry the full value vocabulary.
func (e *Engine) Export(ctx context.Context, format ExportFormat) ([]byte, error) {
	data, err := e.ExportAll(ctx)
	if err != nil {
		return nil, err
	}

	normalized := make(map[string]any, len(data))
	for k, v := range data {
		nv, nerr := codec.Normalize(v)
		if nerr != nil {
			return nil, nerr
		}
		normalized[k] = nv
	}

	switch format {
	case FormatText, "":
		return json.MarshalIndent(exportEnvelope{FormatVersion: exportFormatVersion, Entries: normalized}, "", "  ")

	case FormatLines:
		keys := make([]string, 0, len(normalized))
		for k := range normalized {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, k := range keys {
			if err := enc.Encode(exportLine{Key: k, Value: normalized[k]}); err != nil {
				return nil, domain.ErrCorruptPayload.WithDetails("encode export line").WithCause(err)
			}
		}
		return buf.Bytes(), nil

	case FormatBinary:
		raw, err := msgpack.Marshal(exportEnvelope{FormatVersion: exportFormatVersion, Entries: normalized})
		if err != nil {
			return nil, domain.ErrCorruptPayload.WithDetails("encode export archive").WithCause(err)
		}
		return snappy.Encode(nil, raw), nil

	default:
		return nil, domain.ErrUnknownStrategy.WithDetails(string(format))
	}
}

// Import restores an export archive into the namespace, replacing
// values under colliding keys and keeping the rest. Malformed archives
// fail with a serialization error before any write happens.
func (e *Engine) Import(ctx context.Context, format ExportFormat, archive []byte) (int, error) {
	entries, err := parseArchive(format, archive)
	if err != nil {
		return 0, err
	}

	data := make(map[string]any, len(entries))
	for k, v := range entries {
		hv, herr := codec.Hydrate(v)
		if herr != nil {
			return 0, herr
		}
		data[k] = hv
	}

	if err := e.ImportAll(ctx, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

// DetectFormat guesses the archive format from its leading bytes.
func DetectFormat(archive []byte) ExportFormat {
	trimmed := bytes.TrimLeft(archive, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return FormatBinary
	}
	var env exportEnvelope
	if err := json.Unmarshal(trimmed, &env); err == nil && env.Entries != nil {
		return FormatText
	}
	return FormatLines
}

func parseArchive(format ExportFormat, archive []byte) (map[string]any, error) {
	switch format {
	case FormatText, "":
		var env exportEnvelope
		if err := decodeJSONNumbers(archive, &env); err != nil {
			return nil, domain.ErrCorruptPayload.WithDetails("parse export archive").WithCause(err)
		}
		if env.FormatVersion != exportFormatVersion {
			return nil, domain.ErrCorruptPayload.WithDetails("unsupported archive version")
		}
		return env.Entries, nil

	case FormatLines:
		entries := make(map[string]any)
		scanner := bufio.NewScanner(bytes.NewReader(archive))
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var rec exportLine
			if err := decodeJSONNumbers(line, &rec); err != nil {
				return nil, domain.ErrCorruptPayload.WithDetails("parse export line").WithCause(err)
			}
			entries[rec.Key] = rec.Value
		}
		if err := scanner.Err(); err != nil {
			return nil, domain.ErrCorruptPayload.WithDetails("read export lines").WithCause(err)
		}
		return entries, nil

	case FormatBinary:
		raw, err := snappy.Decode(nil, archive)
		if err != nil {
			return nil, domain.ErrCorruptPayload.WithDetails("decompress export archive").WithCause(err)
		}
		var env exportEnvelope
		if err := msgpack.Unmarshal(raw, &env); err != nil {
			return nil, domain.ErrCorruptPayload.WithDetails("parse export archive").WithCause(err)
		}
		if env.FormatVersion != exportFormatVersion {
			return nil, domain.ErrCorruptPayload.WithDetails("unsupported archive version")
		}
		return env.Entries, nil

	default:
		return nil, domain.ErrUnknownStrategy.WithDetails(string(format))
	}
}

// decodeJSONNumbers unmarshals with json.Number enabled so numeric
// fidelity survives until hydration.
func decodeJSONNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
