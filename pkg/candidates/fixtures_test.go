package candidates_test

import (
	"github.com/aretw0/proposer/pkg/domain"
)

const strategyJSON = `{
	"type": "random",
	"domain": {
		"inputs": [{"key": "x1", "type": "continuous", "bounds": [0, 10]}],
		"outputs": [{"key": "y1", "type": "continuous"}]
	}
}`

func testStrategy() domain.Strategy {
	return domain.Strategy{
		Type: "random",
		Domain: domain.Domain{
			Inputs:  []domain.Feature{{Key: "x1", Type: domain.FeatureContinuous, Bounds: []float64{0, 10}}},
			Outputs: []domain.Feature{{Key: "y1", Type: domain.FeatureContinuous}},
		},
	}
}

func experiment(inputs map[string]any, y1 float64) domain.Experiments {
	return domain.Experiments{Rows: []domain.ExperimentRow{{
		Inputs:  inputs,
		Outputs: map[string]domain.OutputValue{"y1": {Value: y1}},
	}}}
}

func candidateRows(values ...float64) domain.Candidates {
	rows := make([]domain.CandidateRow, len(values))
	for i, v := range values {
		rows[i] = domain.CandidateRow{Inputs: map[string]any{"x1": v}}
	}
	return domain.Candidates{Rows: rows}
}

// fieldErrors returns the field errors of a failed validation, keyed by field.
func fieldErrors(err error) map[string]*domain.FieldError {
	byField := make(map[string]*domain.FieldError)
	for _, fe := range domain.FieldErrors(err) {
		byField[fe.Field] = fe
	}
	return byField
}
