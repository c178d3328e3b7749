package sequence

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"catalog/src/internal/numbering"
)

// ErrUnknownPattern is returned for a Definition whose kind is not recognised.
var ErrUnknownPattern = errors.New("unknown sequence pattern")

// IssuesPerVolume numbers issues 1..Issues within a volume, then starts the
// next volume at issue 1. An unknown issue restarts at 1 in the same volume.
type IssuesPerVolume struct {
	Issues int64
}

func (p IssuesPerVolume) NextNumber(volume, issue *int64) (*int64, *int64) {
	if issue == nil {
		return volume, numbering.Int(1)
	}
	if *issue < p.Issues {
		return volume, numbering.Int(*issue + 1)
	}
	if volume == nil {
		return nil, numbering.Int(1)
	}
	return numbering.Int(*volume + 1), numbering.Int(1)
}

// Continuous numbers issues without ever resetting.
type Continuous struct{}

func (Continuous) NextNumber(volume, issue *int64) (*int64, *int64) {
	if issue == nil {
		return volume, numbering.Int(1)
	}
	return volume, numbering.Int(*issue + 1)
}

// VolumeOnly is for series numbered by volume alone.
type VolumeOnly struct{}

func (VolumeOnly) NextNumber(volume, _ *int64) (*int64, *int64) {
	if volume == nil {
		return numbering.Int(1), nil
	}
	return numbering.Int(*volume + 1), nil
}

// Definition is the stored form of a pattern:
//
//	kind: issues_per_volume
//	issues: 12
type Definition struct {
	Kind   string `yaml:"kind" json:"kind"`
	Issues int64  `yaml:"issues,omitempty" json:"issues,omitempty"`
}

// Pattern builds the rule a Definition names.
func (d Definition) Pattern() (Pattern, error) {
	switch strings.ToLower(strings.TrimSpace(d.Kind)) {
	case "issues_per_volume":
		if d.Issues < 1 {
			return nil, fmt.Errorf("issues_per_volume: issues must be positive, got %d", d.Issues)
		}
		return IssuesPerVolume{Issues: d.Issues}, nil
	case "continuous":
		return Continuous{}, nil
	case "volume_only":
		return VolumeOnly{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, d.Kind)
	}
}

// LoadDefinition decodes a YAML pattern definition and builds its rule.
func LoadDefinition(r io.Reader) (Pattern, error) {
	var d Definition
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode sequence pattern: %w", err)
	}
	return d.Pattern()
}
