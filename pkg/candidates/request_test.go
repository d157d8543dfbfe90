package candidates_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/proposer/pkg/candidates"
	"github.com/aretw0/proposer/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest_MatchingExperiment(t *testing.T) {
	req, err := candidates.NewRequest(testStrategy(),
		candidates.WithNCandidates(1),
		candidates.WithExperiments(experiment(map[string]any{"x1": 5.0}, 0.3)),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, req.NCandidates)
	assert.Equal(t, 1, req.Experiments.Len())
	assert.Nil(t, req.Pendings)
}

func TestNewRequest_DefaultCount(t *testing.T) {
	req, err := candidates.NewRequest(testStrategy())
	require.NoError(t, err)
	assert.Equal(t, candidates.DefaultNCandidates, req.NCandidates)
}

func TestNewRequest_ExtraInputInExperiment(t *testing.T) {
	_, err := candidates.NewRequest(testStrategy(),
		candidates.WithExperiments(experiment(map[string]any{"x1": 5.0, "x2": 1.0}, 0.3)),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDomainViolation)
	assert.NotErrorIs(t, err, domain.ErrStructural)

	fe := fieldErrors(err)["experiments.rows[0].inputs.x2"]
	require.NotNil(t, fe)
	assert.Equal(t, "extra inputs are not permitted", fe.Reason)
}

func TestNewRequest_ExtraOutputInExperiment(t *testing.T) {
	exp := experiment(map[string]any{"x1": 5.0}, 0.3)
	exp.Rows[0].Outputs["y2"] = domain.OutputValue{Value: 1.0}

	_, err := candidates.NewRequest(testStrategy(), candidates.WithExperiments(exp))
	require.Error(t, err)
	fe := fieldErrors(err)["experiments.rows[0].outputs.y2"]
	require.NotNil(t, fe)
	assert.Equal(t, domain.ReasonExtraOutputs, fe.Reason)
}

func TestNewRequest_InvalidValueType(t *testing.T) {
	_, err := candidates.NewRequest(testStrategy(),
		candidates.WithExperiments(experiment(map[string]any{"x1": "hot"}, 0.3)),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDomainViolation)
	fe := fieldErrors(err)["experiments.rows[0].inputs.x1"]
	require.NotNil(t, fe)
	assert.Contains(t, fe.Reason, domain.ReasonInvalidType)
}

func TestNewRequest_PendingsNotPermitted(t *testing.T) {
	_, err := candidates.NewRequest(testStrategy(), candidates.WithPendings(candidateRows(1, 2)))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIllegalFieldCombination)

	fe := fieldErrors(err)["pendings"]
	require.NotNil(t, fe)
	assert.Equal(t, candidates.ReasonPendingsNotPermitted, fe.Reason)
}

func TestNewRequest_PendingsReportedAlongsideStructuralErrors(t *testing.T) {
	_, err := candidates.NewRequest(testStrategy(),
		candidates.WithNCandidates(0),
		candidates.WithPendings(domain.Candidates{}),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStructural)
	assert.ErrorIs(t, err, domain.ErrIllegalFieldCombination)
}

func TestNewRequest_PendingsReportedAlongsideDomainViolations(t *testing.T) {
	_, err := candidates.NewRequest(testStrategy(),
		candidates.WithExperiments(experiment(map[string]any{"x1": 5.0, "x2": 1.0}, 0.3)),
		candidates.WithPendings(candidateRows(1)),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIllegalFieldCombination)
	assert.ErrorIs(t, err, domain.ErrDomainViolation)

	byField := fieldErrors(err)
	assert.Contains(t, byField, "pendings")
	assert.Contains(t, byField, "experiments.rows[0].inputs.x2")
}

func TestNewRequest_NonPositiveCount(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		_, err := candidates.NewRequest(testStrategy(), candidates.WithNCandidates(n))
		require.Error(t, err, "n=%d", n)
		assert.ErrorIs(t, err, domain.ErrStructural)
		assert.Equal(t, candidates.ReasonNonPositiveCount, fieldErrors(err)["n_candidates"].Reason)
	}
}

func TestNewRequest_DomainCheckSkippedOnStructuralFailure(t *testing.T) {
	_, err := candidates.NewRequest(testStrategy(),
		candidates.WithNCandidates(0),
		candidates.WithExperiments(experiment(map[string]any{"x2": 1.0}, 0.3)),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStructural)
	assert.NotErrorIs(t, err, domain.ErrDomainViolation)
}

func TestNewRequest_RejectsLifecycleOptions(t *testing.T) {
	_, err := candidates.NewRequest(testStrategy(),
		candidates.WithState(candidates.StateClaimed),
		candidates.WithErrorMessage("boom"),
	)
	require.Error(t, err)
	errs := fieldErrors(err)
	require.Contains(t, errs, "state")
	require.Contains(t, errs, "error_message")
	assert.ErrorIs(t, errs["state"], domain.ErrIllegalFieldCombination)
}

func TestNewRequest_InvalidStrategy(t *testing.T) {
	_, err := candidates.NewRequest(domain.Strategy{})
	require.Error(t, err)
	errs := fieldErrors(err)
	assert.Contains(t, errs, "strategy_data.type")
	assert.Contains(t, errs, "strategy_data.domain.inputs")
}

func TestNewRequest_OwnsItsPayload(t *testing.T) {
	exp := experiment(map[string]any{"x1": 5.0}, 0.3)
	req, err := candidates.NewRequest(testStrategy(), candidates.WithExperiments(exp))
	require.NoError(t, err)

	exp.Rows[0].Inputs["x1"] = 9.0
	assert.Equal(t, 5.0, req.Experiments.Rows[0].Inputs["x1"])
}

func TestRequest_UnmarshalJSON(t *testing.T) {
	body := `{
		"strategy_data": ` + strategyJSON + `,
		"experiments": {"rows": [{"inputs": {"x1": 5}, "outputs": {"y1": {"value": 0.3}}}]}
	}`

	var req candidates.Request
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.Equal(t, 1, req.NCandidates)
	assert.Equal(t, "random", req.Strategy.Type)
	assert.Equal(t, 5.0, req.Experiments.Rows[0].Inputs["x1"])
}

func TestRequest_UnmarshalJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		kind  error
	}{
		{
			name:  "unknown field",
			body:  `{"strategy_data": ` + strategyJSON + `, "priority": 3}`,
			field: "priority",
			kind:  domain.ErrStructural,
		},
		{
			name:  "missing strategy",
			body:  `{"n_candidates": 2}`,
			field: "strategy_data",
			kind:  domain.ErrStructural,
		},
		{
			name:  "non integer count",
			body:  `{"strategy_data": ` + strategyJSON + `, "n_candidates": "two"}`,
			field: "n_candidates",
			kind:  domain.ErrStructural,
		},
		{
			name:  "zero count",
			body:  `{"strategy_data": ` + strategyJSON + `, "n_candidates": 0}`,
			field: "n_candidates",
			kind:  domain.ErrStructural,
		},
		{
			name:  "pendings",
			body:  `{"strategy_data": ` + strategyJSON + `, "pendings": {"rows": [{"inputs": {"x1": 1}}]}}`,
			field: "pendings",
			kind:  domain.ErrIllegalFieldCombination,
		},
		{
			name:  "pendings with bad count",
			body:  `{"strategy_data": ` + strategyJSON + `, "n_candidates": null, "pendings": {"rows": []}}`,
			field: "pendings",
			kind:  domain.ErrIllegalFieldCombination,
		},
		{
			name:  "extra experiment input",
			body:  `{"strategy_data": ` + strategyJSON + `, "experiments": {"rows": [{"inputs": {"x1": 1, "x2": 2}, "outputs": {}}]}}`,
			field: "experiments.rows[0].inputs.x2",
			kind:  domain.ErrDomainViolation,
		},
		{
			name:  "not an object",
			body:  `[1, 2]`,
			field: "",
			kind:  domain.ErrStructural,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req candidates.Request
			err := json.Unmarshal([]byte(tt.body), &req)
			require.Error(t, err)

			fe := fieldErrors(err)[tt.field]
			require.NotNil(t, fe, "no error for field %q in %v", tt.field, err)
			assert.ErrorIs(t, fe, tt.kind)
		})
	}
}

func TestRequest_UnmarshalJSON_LeavesTargetOnError(t *testing.T) {
	req := candidates.Request{NCandidates: 7}
	err := json.Unmarshal([]byte(`{"strategy_data": `+strategyJSON+`, "n_candidates": -1}`), &req)
	require.Error(t, err)
	assert.Equal(t, 7, req.NCandidates)
}
