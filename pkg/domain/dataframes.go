package domain

import "maps"

// OutputValue is a measured output with its metadata.
type OutputValue struct {
	Value any `json:"value"`

	// Valid marks whether the measurement should be used. Nil means valid.
	Valid *bool `json:"valid,omitempty"`
}

// IsValid reports whether the measurement should be used.
func (v OutputValue) IsValid() bool {
	return v.Valid == nil || *v.Valid
}

// ExperimentRow is one observation: input values paired with measured outputs.
type ExperimentRow struct {
	Inputs  map[string]any         `json:"inputs"`
	Outputs map[string]OutputValue `json:"outputs"`
}

func (r ExperimentRow) outputValues() map[string]any {
	values := make(map[string]any, len(r.Outputs))
	for k, v := range r.Outputs {
		values[k] = v.Value
	}
	return values
}

// Experiments is an ordered batch of observations.
type Experiments struct {
	Rows []ExperimentRow `json:"rows"`
}

// Len returns the number of rows.
func (e Experiments) Len() int { return len(e.Rows) }

// Records returns the tabular projection: one flat record per row with
// output columns named by their keys.
func (e Experiments) Records() []map[string]any {
	records := make([]map[string]any, len(e.Rows))
	for i, r := range e.Rows {
		rec := maps.Clone(r.Inputs)
		if rec == nil {
			rec = make(map[string]any, len(r.Outputs))
		}
		maps.Copy(rec, r.outputValues())
		records[i] = rec
	}
	return records
}

// Clone returns a deep copy so that no caller keeps a mutable alias.
// Values are normalized with NormalizeValue.
func (e Experiments) Clone() Experiments {
	rows := make([]ExperimentRow, len(e.Rows))
	for i, r := range e.Rows {
		rows[i] = ExperimentRow{Inputs: normalizeMap(r.Inputs)}
		if r.Outputs == nil {
			continue
		}
		rows[i].Outputs = make(map[string]OutputValue, len(r.Outputs))
		for k, v := range r.Outputs {
			if v.Valid != nil {
				valid := *v.Valid
				v.Valid = &valid
			}
			v.Value = NormalizeValue(v.Value)
			rows[i].Outputs[k] = v
		}
	}
	return Experiments{Rows: rows}
}

// CandidateRow is one proposed input configuration.
type CandidateRow struct {
	Inputs map[string]any `json:"inputs"`
}

// Candidates is an ordered batch of proposed input configurations.
type Candidates struct {
	Rows []CandidateRow `json:"rows"`
}

// Len returns the number of rows.
func (c Candidates) Len() int { return len(c.Rows) }

// Records returns the tabular projection: one flat record per row.
func (c Candidates) Records() []map[string]any {
	records := make([]map[string]any, len(c.Rows))
	for i, r := range c.Rows {
		records[i] = maps.Clone(r.Inputs)
	}
	return records
}

// Clone returns a deep copy so that no caller keeps a mutable alias.
// Values are normalized with NormalizeValue.
func (c Candidates) Clone() Candidates {
	rows := make([]CandidateRow, len(c.Rows))
	for i, r := range c.Rows {
		rows[i] = CandidateRow{Inputs: normalizeMap(r.Inputs)}
	}
	return Candidates{Rows: rows}
}
