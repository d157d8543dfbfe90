package domain

import (
	"fmt"

	"github.com/aretw0/proposer/pkg/schema"
)

// FeatureType identifies how a feature's values are drawn.
type FeatureType string

const (
	FeatureContinuous  FeatureType = "continuous"  // Any number, optionally within Bounds
	FeatureDiscrete    FeatureType = "discrete"    // One of Values
	FeatureCategorical FeatureType = "categorical" // One of Categories
)

// Feature declares one input or output column of a Domain.
type Feature struct {
	Key  string      `json:"key" yaml:"key"`
	Type FeatureType `json:"type" yaml:"type"`

	// Bounds is the [lower, upper] interval of a continuous feature.
	Bounds []float64 `json:"bounds,omitempty" yaml:"bounds,omitempty"`

	// Values lists the allowed values of a discrete feature.
	Values []float64 `json:"values,omitempty" yaml:"values,omitempty"`

	// Categories lists the allowed values of a categorical feature.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

func (f Feature) validate(field string) []*FieldError {
	var errs []*FieldError
	if f.Key == "" {
		errs = append(errs, Structural(field+".key", "must not be empty", nil))
	}
	switch f.Type {
	case FeatureContinuous:
		if f.Bounds != nil {
			if len(f.Bounds) != 2 {
				errs = append(errs, Structural(field+".bounds", "must hold exactly a lower and an upper bound", nil))
			} else if f.Bounds[0] > f.Bounds[1] {
				errs = append(errs, Structural(field+".bounds", "lower bound must not exceed upper bound", nil))
			}
		}
	case FeatureDiscrete:
		if len(f.Values) == 0 {
			errs = append(errs, Structural(field+".values", "must not be empty", nil))
		}
	case FeatureCategorical:
		if len(f.Categories) == 0 {
			errs = append(errs, Structural(field+".categories", "must not be empty", nil))
		}
	default:
		errs = append(errs, Structural(field+".type", fmt.Sprintf("unsupported feature type %q", f.Type), nil))
	}
	return errs
}

// valueType returns the schema type of the feature. When bounded is set,
// continuous values must also fall within Bounds.
func (f Feature) valueType(bounded bool) schema.Type {
	switch f.Type {
	case FeatureDiscrete:
		return schema.OneOf(f.Values...)
	case FeatureCategorical:
		return schema.Enum(f.Categories...)
	default:
		if !bounded || len(f.Bounds) != 2 {
			return schema.Float()
		}
		return schema.Range(f.Bounds[0], f.Bounds[1])
	}
}
