package strategy

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/aretw0/proposer/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// RandomType is the strategy type of Random.
const RandomType = "random"

// RandomParams are the params accepted by Random.
type RandomParams struct {
	// Seed makes the output reproducible. Nil draws a fresh seed.
	Seed *int64 `mapstructure:"seed"`
}

// DecodeRandomParams decodes strategy params, rejecting unknown keys.
func DecodeRandomParams(params map[string]any) (RandomParams, error) {
	var p RandomParams
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &p,
	})
	if err != nil {
		return p, err
	}
	if err := dec.Decode(params); err != nil {
		return p, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return p, nil
}

// Random samples every input feature uniformly: continuous features within
// their bounds (unbounded ones from a standard normal), discrete and
// categorical features from their allowed values.
func Random(ctx context.Context, job Job) (domain.Candidates, error) {
	params, err := DecodeRandomParams(job.Strategy.Params)
	if err != nil {
		return domain.Candidates{}, err
	}

	seed := rand.Uint64()
	if params.Seed != nil {
		seed = uint64(*params.Seed)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	rows := make([]domain.CandidateRow, job.NCandidates)
	for i := range rows {
		if err := ctx.Err(); err != nil {
			return domain.Candidates{}, err
		}
		inputs := make(map[string]any, len(job.Strategy.Domain.Inputs))
		for _, f := range job.Strategy.Domain.Inputs {
			inputs[f.Key] = sample(rng, f)
		}
		rows[i] = domain.CandidateRow{Inputs: inputs}
	}
	return domain.Candidates{Rows: rows}, nil
}

func sample(rng *rand.Rand, f domain.Feature) any {
	switch f.Type {
	case domain.FeatureDiscrete:
		return f.Values[rng.IntN(len(f.Values))]
	case domain.FeatureCategorical:
		return f.Categories[rng.IntN(len(f.Categories))]
	default:
		if len(f.Bounds) != 2 {
			return rng.NormFloat64()
		}
		lo, hi := f.Bounds[0], f.Bounds[1]
		return lo + rng.Float64()*(hi-lo)
	}
}
