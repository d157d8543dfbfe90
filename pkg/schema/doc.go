// Package schema provides the column type system used to check tabular rows
// against an optimization domain.
//
// A Schema maps column names to types. Float and String accept any finite
// number or any string; Range, OneOf and Enum narrow them to an interval or a
// set, and Nullable lets a column carry a missing value:
//
//	inputs := schema.Schema{
//	    "temperature": schema.Range(20, 80),
//	    "solvent":     schema.Enum("water", "ethanol"),
//	}
//
//	row := map[string]any{"temperature": 42.0, "solvent": "water"}
//	if err := schema.ValidateExact(inputs, row, "extra inputs are not permitted"); err != nil {
//	    // err is an *AggregateError of *ValidationError, sorted by column name
//	}
//
// Every type has a string form ("float[20,80]", "string{water,ethanol}",
// "float?") that ParseType reads back, so a Schema survives a JSON round trip
// and two schemas can be compared with Diff.
//
// The package has no dependencies outside the standard library.
package schema
