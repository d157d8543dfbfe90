package schema

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrOutOfBounds is wrapped by range failures so callers can tell a value
// outside its interval from a value of the wrong kind.
var ErrOutOfBounds = errors.New("out of bounds")

// Type checks the values of one column.
type Type interface {
	// Name returns the type string, e.g. "float[0,1]". ParseType(t.Name())
	// yields an equivalent type.
	Name() string
	Validate(value any) error
}

// FloatType accepts any finite Go number. JSON cannot carry NaN or
// infinities, so they are rejected.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value any) error {
	_, err := AsFloat(value)
	return err
}

// StringType accepts strings.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// RangeType is a float within [Lower, Upper].
type RangeType struct {
	Lower, Upper float64
}

func (t *RangeType) Name() string { return fmt.Sprintf("float[%g,%g]", t.Lower, t.Upper) }

func (t *RangeType) Validate(value any) error {
	n, err := AsFloat(value)
	if err != nil {
		return err
	}
	if n < t.Lower || n > t.Upper {
		return fmt.Errorf("%w: %g outside [%g, %g]", ErrOutOfBounds, n, t.Lower, t.Upper)
	}
	return nil
}

// OneOfType is a float equal to one of Values.
type OneOfType struct {
	Values []float64
}

func (t *OneOfType) Name() string {
	items := make([]string, len(t.Values))
	for i, v := range t.Values {
		items[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "float{" + strings.Join(items, ",") + "}"
}

func (t *OneOfType) Validate(value any) error {
	n, err := AsFloat(value)
	if err != nil {
		return err
	}
	if !slices.Contains(t.Values, n) {
		return fmt.Errorf("value %v is not one of %v", n, t.Values)
	}
	return nil
}

// EnumType is a string equal to one of Categories.
type EnumType struct {
	Categories []string
}

func (t *EnumType) Name() string {
	items := make([]string, len(t.Categories))
	for i, c := range t.Categories {
		items[i] = quoteItem(c)
	}
	return "string{" + strings.Join(items, ",") + "}"
}

func (t *EnumType) Validate(value any) error {
	if err := String().Validate(value); err != nil {
		return err
	}
	if s := value.(string); !slices.Contains(t.Categories, s) {
		return fmt.Errorf("category %q is not one of [%s]", s, strings.Join(t.Categories, ", "))
	}
	return nil
}

// NullableType accepts nil and otherwise delegates to the wrapped type.
// Output columns use it for measurements that have not been taken yet.
type NullableType struct {
	inner Type
}

func (t *NullableType) Name() string { return t.inner.Name() + "?" }

func (t *NullableType) Validate(value any) error {
	if value == nil {
		return nil
	}
	return t.inner.Validate(value)
}

func Float() Type  { return &FloatType{} }
func String() Type { return &StringType{} }

// Range returns a float type bounded by [lower, upper].
func Range(lower, upper float64) Type { return &RangeType{Lower: lower, Upper: upper} }

// OneOf returns a float type restricted to values.
func OneOf(values ...float64) Type { return &OneOfType{Values: slices.Clone(values)} }

// Enum returns a string type restricted to categories.
func Enum(categories ...string) Type { return &EnumType{Categories: slices.Clone(categories)} }

// Nullable wraps a type so that nil values are accepted.
func Nullable(inner Type) Type { return &NullableType{inner: inner} }

// AsFloat converts a Go number to float64. Non-numbers and non-finite
// numbers are errors.
func AsFloat(value any) (float64, error) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int8:
		n = float64(v)
	case int16:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint8:
		n = float64(v)
	case uint16:
		n = float64(v)
	case uint32:
		n = float64(v)
	case uint64:
		n = float64(v)
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("expected finite number, got %v", n)
	}
	return n, nil
}

// ParseType converts a type string back to a Type:
//
//	float  string  float[0,1]  float{1,2,4}  string{a,b,"c,d"}
//
// A trailing "?" marks the type as nullable ("float?").
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)
	if len(typeStr) > 1 && strings.HasSuffix(typeStr, "?") {
		inner, err := ParseType(typeStr[:len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Nullable(inner), nil
	}

	switch {
	case typeStr == "float":
		return Float(), nil
	case typeStr == "string":
		return String(), nil
	case strings.HasPrefix(typeStr, "float[") && strings.HasSuffix(typeStr, "]"):
		bounds, err := parseFloats(typeStr[len("float[") : len(typeStr)-1])
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", typeStr, err)
		}
		if len(bounds) != 2 || bounds[0] > bounds[1] {
			return nil, fmt.Errorf("type %s: want an ordered [lower,upper] pair", typeStr)
		}
		return Range(bounds[0], bounds[1]), nil
	case strings.HasPrefix(typeStr, "float{") && strings.HasSuffix(typeStr, "}"):
		values, err := parseFloats(typeStr[len("float{") : len(typeStr)-1])
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", typeStr, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("type %s: no values", typeStr)
		}
		return OneOf(values...), nil
	case strings.HasPrefix(typeStr, "string{") && strings.HasSuffix(typeStr, "}"):
		items, err := splitItems(typeStr[len("string{") : len(typeStr)-1])
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", typeStr, err)
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("type %s: no categories", typeStr)
		}
		return Enum(items...), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of column names to type strings into a Schema.
// Example: {"solvent": "string{water,ethanol}", "yield": "float?"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema, len(typeMap))
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}

func parseFloats(body string) ([]float64, error) {
	items, err := splitItems(body)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(items))
	for i, item := range items {
		if values[i], err = strconv.ParseFloat(item, 64); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// splitItems splits a comma separated list whose items may be Go-quoted.
func splitItems(body string) ([]string, error) {
	var items []string
	body = strings.TrimSpace(body)
	for body != "" {
		var item string
		if body[0] == '"' {
			quoted, err := strconv.QuotedPrefix(body)
			if err != nil {
				return nil, fmt.Errorf("malformed quoted item in %q", body)
			}
			item, _ = strconv.Unquote(quoted)
			body = body[len(quoted):]
		} else {
			end := strings.IndexByte(body, ',')
			if end < 0 {
				end = len(body)
			}
			item = strings.TrimSpace(body[:end])
			body = body[end:]
		}
		items = append(items, item)

		body = strings.TrimSpace(body)
		if body == "" {
			break
		}
		if body[0] != ',' {
			return nil, fmt.Errorf("expected ',' before %q", body)
		}
		body = strings.TrimSpace(body[1:])
	}
	return items, nil
}

func quoteItem(s string) string {
	if s == "" || s != strings.TrimSpace(s) || strings.ContainsAny(s, `,{}"`) {
		return strconv.Quote(s)
	}
	return s
}
