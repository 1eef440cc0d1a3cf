package runtime

import (
	"fmt"
	"math"

	"github.com/mitchellh/mapstructure"
)

// Options holds the defaults of one interpretation run. It is passed by
// value and never mutated by the interpreter.
type Options struct {
	// Length is the distance used by F and f without arguments.
	Length float64 `json:"length" yaml:"length" mapstructure:"length"`

	// Width is the initial line width.
	Width float64 `json:"width" yaml:"width" mapstructure:"width"`

	// Material is the initial material index.
	Material int `json:"material" yaml:"material" mapstructure:"material"`

	// Angle is the rotation in degrees used by + - & ^ \ / without arguments.
	Angle float64 `json:"angle" yaml:"angle" mapstructure:"angle"`
}

// DefaultOptions returns length 1, width 0.3, material 0 and a 45 degree angle.
func DefaultOptions() Options {
	return Options{Length: 1, Width: 0.3, Material: 0, Angle: 45}
}

// Validate rejects non-finite defaults.
func (o Options) Validate() error {
	for name, v := range map[string]float64{"length": o.Length, "width": o.Width, "angle": o.Angle} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("option %s must be a finite number, got %v", name, v)
		}
	}
	return nil
}

// DecodeOptions overlays a loosely typed map (e.g. a decoded JSON request
// body) onto base. Numeric strings are accepted; unknown keys are errors.
func DecodeOptions(overrides map[string]any, base Options) (Options, error) {
	out := base
	if len(overrides) == 0 {
		return out, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return base, err
	}
	if err := dec.Decode(overrides); err != nil {
		return base, fmt.Errorf("decoding options: %w", err)
	}
	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}
