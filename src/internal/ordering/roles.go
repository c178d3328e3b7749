package ordering

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Role tags which FRBR relationship a membership belongs to. All roles share
// one Relation implementation keyed by record id.
type Role string

const (
	// Creator orders the agents that created a work.
	Creator Role = "create"
	// Realizer orders the agents that realized an expression.
	Realizer Role = "realize"
	// Producer orders the agents that produced a manifestation.
	Producer Role = "produce"
	// Exemplifier orders the items exemplifying a manifestation.
	Exemplifier Role = "exemplify"
)

// Roles lists every role in a stable order.
var Roles = []Role{Creator, Realizer, Producer, Exemplifier}

var ErrUnknownRole = errors.New("unknown relationship role")

// ParseRole accepts a role name ("create") or its agent noun ("creator").
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "create", "creator", "creates":
		return Creator, nil
	case "realize", "realizer", "realizes":
		return Realizer, nil
	case "produce", "producer", "produces":
		return Producer, nil
	case "exemplify", "exemplifier", "exemplifies":
		return Exemplifier, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// ScopeKind names the record type that scopes the role.
func (r Role) ScopeKind() string {
	switch r {
	case Creator:
		return "work"
	case Realizer:
		return "expression"
	default:
		return "manifestation"
	}
}

// MemberKind names the record type ordered within a scope.
func (r Role) MemberKind() string {
	if r == Exemplifier {
		return "item"
	}
	return "agent"
}

// CatalogOptions configures a Catalog.
type CatalogOptions struct {
	// HasOneItem limits a manifestation to a single item and an item to a
	// single manifestation.
	HasOneItem bool
	// Committer, when set, returns the committer used for a role.
	Committer func(Role) Committer[string, string]
}

// Catalog bundles one Relation per role, keyed by record id.
type Catalog struct {
	relations map[Role]*Relation[string, string]
}

// NewCatalog builds the relations for every role.
func NewCatalog(opts CatalogOptions) *Catalog {
	c := &Catalog{relations: make(map[Role]*Relation[string, string], len(Roles))}
	for _, role := range Roles {
		var committer Committer[string, string]
		if opts.Committer != nil {
			committer = opts.Committer(role)
		}
		var ro Options
		if role == Exemplifier && opts.HasOneItem {
			ro = Options{MaxPerScope: 1, Exclusive: true}
		}
		c.relations[role] = New(committer, ro)
	}
	return c
}

// Relation returns the relation for role.
func (c *Catalog) Relation(role Role) *Relation[string, string] {
	return c.relations[role]
}

// DestroyRecord removes every membership that references id as a record of
// the given kind ("work", "expression", "manifestation", "agent", "item").
// Works and expressions are manifestation records in this catalog, so a
// manifestation id is dropped from every scope-keyed role.
func (c *Catalog) DestroyRecord(ctx context.Context, kind, id string) error {
	var errs []error
	for _, role := range Roles {
		rel := c.relations[role]
		switch {
		case kind == role.MemberKind():
			errs = append(errs, rel.DropMember(ctx, id))
		case kind == role.ScopeKind() || kind == "manifestation" && role.MemberKind() == "agent":
			errs = append(errs, rel.DropScope(ctx, id))
		}
	}
	return errors.Join(errs...)
}
