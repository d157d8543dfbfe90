package schema

import "sort"

// Schema is a map of column names to their expected types.
type Schema map[string]Type

// Keys returns the declared column names in sorted order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateExact checks that every declared column is present in data and holds
// a value of the declared type, and rejects every column of data the schema
// does not declare, reporting it with extraReason. An empty schema therefore
// only accepts empty data.
func ValidateExact(schema Schema, data map[string]any, extraReason string) error {
	errs := validateDeclared(schema, data)

	extra := make([]string, 0)
	for key := range data {
		if _, ok := schema[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		errs = append(errs, &ValidationError{
			Key:    key,
			Reason: extraReason,
			Value:  data[key],
			Extra:  true,
		})
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func validateDeclared(schema Schema, data map[string]any) []error {
	var errs []error
	for _, key := range schema.Keys() {
		if err := checkValue(key, schema[key], data); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func checkValue(key string, typ Type, data map[string]any) error {
	value, exists := data[key]
	if !exists {
		return &ValidationError{Key: key, Reason: "required", Missing: true}
	}
	if err := typ.Validate(value); err != nil {
		return &ValidationError{Key: key, Reason: err.Error(), Value: value, Err: err}
	}
	return nil
}
