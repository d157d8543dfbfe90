package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/proposer/pkg/candidates"
	"github.com/aretw0/proposer/pkg/domain"
	"github.com/aretw0/proposer/pkg/observability"
	"gopkg.in/yaml.v3"
)

// Document kinds accepted by Validate.
const (
	KindAuto     = ""
	KindRequest  = "request"
	KindProposal = "proposal"
)

// ErrUnknownKind is returned for a --kind other than request or proposal.
var ErrUnknownKind = errors.New("unknown document kind")

// lifecycleKeys only appear on proposals.
var lifecycleKeys = []string{"state", "error_message", "last_updated_at", "candidates"}

// ValidateFile reads a JSON or YAML document and validates it as kind.
// It returns the kind that was checked.
func ValidateFile(path, kind string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return kind, fmt.Errorf("reading %s: %w", path, err)
	}
	return Validate(data, filepath.Ext(path), kind)
}

// Validate decodes data as JSON, or YAML when ext is .yaml or .yml, and
// checks it as a request or a proposal. With KindAuto the kind is
// inferred from the presence of lifecycle fields.
func Validate(data []byte, ext, kind string) (string, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		converted, err := yamlToJSON(data)
		if err != nil {
			return kind, err
		}
		data = converted
	}

	if kind == KindAuto {
		kind = detectKind(data)
	}

	switch kind {
	case KindRequest:
		var r candidates.Request
		return kind, json.Unmarshal(data, &r)
	case KindProposal:
		var p candidates.Proposal
		return kind, json.Unmarshal(data, &p)
	default:
		return kind, fmt.Errorf("%w %q (want %s or %s)", ErrUnknownKind, kind, KindRequest, KindProposal)
	}
}

func detectKind(data []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return KindRequest
	}
	for _, key := range lifecycleKeys {
		if _, ok := fields[key]; ok {
			return KindProposal
		}
	}
	return KindRequest
}

// yamlToJSON re-encodes a YAML document as JSON. Timestamps stay strings.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	doc, err := stringKeys(doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func stringKeys(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			n, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			t[k] = n
		}
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("parsing yaml: non-string key %v", k)
			}
			n, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			out[ks] = n
		}
		return out, nil
	case []any:
		for i, e := range t {
			n, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			t[i] = n
		}
		return t, nil
	default:
		return v, nil
	}
}

// PrintReport writes the field errors of err, one per line, sorted by field.
// Errors that carry no field errors are printed as is.
func PrintReport(w io.Writer, err error) {
	fields := domain.FieldErrors(err)
	if len(fields) == 0 {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}

	sorted := append([]*domain.FieldError(nil), fields...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Field < sorted[j].Field })

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d validation error(s):\n", len(sorted))
	for _, fe := range sorted {
		fmt.Fprintf(&buf, "  %-28s [%s] %s\n", fe.Field, observability.KindLabel(fe.Kind), fe.Reason)
	}
	w.Write(buf.Bytes())
}
