package cmdctx

import (
	"bytes"
	"context"
	"io"

	"gopkg.in/yaml.v3"

	"catalog/src/internal/catalog"
	"catalog/src/internal/names"
	"catalog/src/internal/ordering"
	"catalog/src/internal/schema"
)

// Record is the YAML accepted by add and printed by lookup: a manifestation
// plus the agent headings that become its creator and producer memberships.
type Record struct {
	schema.Manifestation `yaml:",inline"`
	Creators             []string `yaml:"creators,omitempty"`
	Publishers           []string `yaml:"publishers,omitempty"`
}

// DecodeStrict decodes one YAML document into v, rejecting unknown keys.
func DecodeStrict(raw []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(v)
}

// EncodeYAML writes v as a YAML document with two-space indentation.
func EncodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// SaveRecord saves the manifestation and appends agents that are not yet
// members of its creator and producer relations.
func SaveRecord(ctx context.Context, svc *catalog.Service, rec Record) (schema.Manifestation, error) {
	m, err := svc.SaveManifestation(ctx, rec.Manifestation)
	if err != nil {
		return schema.Manifestation{}, err
	}
	for _, g := range []struct {
		role   ordering.Role
		agents []string
	}{{ordering.Creator, rec.Creators}, {ordering.Producer, rec.Publishers}} {
		rel := svc.Relations().Relation(g.role)
		for _, agent := range g.agents {
			if agent = names.Clean(agent); agent == "" {
				continue
			}
			if _, ok := rel.Position(m.ID, agent); ok {
				continue
			}
			if _, err := svc.Relate(ctx, g.role, m.ID, agent); err != nil {
				return m, err
			}
		}
	}
	return m, nil
}
