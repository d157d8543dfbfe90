package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/proposer/pkg/domain"
	"github.com/aretw0/proposer/pkg/schema"
)

// DomainSchemas lists the column types checked for each table of a domain.
type DomainSchemas struct {
	Inputs     schema.Schema `json:"inputs"`
	Candidates schema.Schema `json:"candidates"`
	Outputs    schema.Schema `json:"outputs"`
}

// LoadStrategy reads a strategy descriptor from a JSON or YAML file. The file
// may hold the descriptor itself or a request or proposal carrying it under
// strategy_data.
func LoadStrategy(path string) (domain.Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Strategy{}, fmt.Errorf("reading %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if data, err = yamlToJSON(data); err != nil {
			return domain.Strategy{}, err
		}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return domain.Strategy{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if raw, ok := envelope["strategy_data"]; ok {
		data = raw
	}

	var s domain.Strategy
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Strategy{}, fmt.Errorf("parsing strategy: %w", err)
	}
	if err := domain.NewValidationError(s.Validate("strategy_data")); err != nil {
		return domain.Strategy{}, err
	}
	return s, nil
}

// Schemas returns the schemas derived from d.
func Schemas(d domain.Domain) DomainSchemas {
	return DomainSchemas{
		Inputs:     d.InputSchema(),
		Candidates: d.CandidateSchema(),
		Outputs:    d.OutputSchema(),
	}
}

// PrintSchemas writes the schemas of the strategy's domain as indented JSON.
func PrintSchemas(w io.Writer, s domain.Strategy) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Schemas(s.Domain))
}

// LoadSchemas reads schemas previously written by PrintSchemas.
func LoadSchemas(path string) (DomainSchemas, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DomainSchemas{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var s DomainSchemas
	if err := json.Unmarshal(data, &s); err != nil {
		return DomainSchemas{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// DiffSchemas lists the columns of got that drifted from want, prefixed by
// the table they belong to.
func DiffSchemas(want, got DomainSchemas) []string {
	var diffs []string
	for _, table := range []struct {
		name      string
		want, got schema.Schema
	}{
		{"inputs", want.Inputs, got.Inputs},
		{"candidates", want.Candidates, got.Candidates},
		{"outputs", want.Outputs, got.Outputs},
	} {
		for _, d := range schema.Diff(table.want, table.got) {
			diffs = append(diffs, table.name+"."+d)
		}
	}
	return diffs
}
