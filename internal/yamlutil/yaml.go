// Package yamlutil wraps YAML parsing to isolate the external dependency.
// Configuration, plugin manifests, and bundle metadata all go through it.
package yamlutil

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
	ErrNotMapping     = errors.New("yamlutil: document is not a mapping")
)

// MapSlice is an insertion-ordered mapping. Nested mappings decoded by
// UnmarshalOrdered are MapSlice values too.
type MapSlice = yaml.MapSlice

// MapItem is one key/value pair of a MapSlice.
type MapItem = yaml.MapItem

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

func Unmarshal(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// UnmarshalOrdered decodes a top-level mapping preserving key order.
// A document that is empty or only comments yields an empty MapSlice.
// Integers that fit are returned as int, whatever width the decoder chose,
// so a MapSlice built with int values survives a marshal round trip.
func UnmarshalOrdered(data []byte) (MapSlice, error) {
	var out any
	if err := validateInput(data, &out); err != nil {
		return nil, err
	}
	if err := yaml.UnmarshalWithOptions(data, &out, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	switch m := out.(type) {
	case nil:
		return MapSlice{}, nil
	case MapSlice:
		return normalize(m).(MapSlice), nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotMapping, out)
	}
}

func normalize(v any) any {
	switch x := v.(type) {
	case MapSlice:
		for i := range x {
			x[i].Value = normalize(x[i].Value)
		}
		return x
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	case uint64:
		if x <= math.MaxInt {
			return int(x)
		}
	case int64:
		if x >= math.MinInt && x <= math.MaxInt {
			return int(x)
		}
	}
	return v
}
