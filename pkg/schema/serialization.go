package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// MarshalJSON writes the schema as an object of column names to type strings.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	names := make(map[string]string, len(s))
	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("column %s: type is nil", key)
		}
		names[key] = typ.Name()
	}
	return json.Marshal(names)
}

// UnmarshalJSON reads an object written by MarshalJSON, parsing every type
// string with ParseType.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if names == nil {
		*s = nil
		return nil
	}
	parsed, err := ParseTypeMap(names)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	*s = parsed
	return nil
}

// Diff lists, in column order, how got departs from want: missing columns,
// undeclared columns and type changes.
func Diff(want, got Schema) []string {
	keys := want.Keys()
	for _, key := range got.Keys() {
		if _, ok := want[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var diffs []string
	for _, key := range keys {
		w, inWant := want[key]
		g, inGot := got[key]
		switch {
		case !inGot:
			diffs = append(diffs, fmt.Sprintf("%s: missing, want %s", key, w.Name()))
		case !inWant:
			diffs = append(diffs, fmt.Sprintf("%s: not declared, got %s", key, g.Name()))
		case w.Name() != g.Name():
			diffs = append(diffs, fmt.Sprintf("%s: want %s, got %s", key, w.Name(), g.Name()))
		}
	}
	return diffs
}
