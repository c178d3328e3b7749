package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"catalog/src/internal/identifier"
	"catalog/src/internal/metrics"
	"catalog/src/internal/names"
	"catalog/src/internal/ordering"
	"catalog/src/internal/schema"
)

var ErrDuplicateISBN = errors.New("isbn already catalogued")

// Repository is the record persistence collaborator.
type Repository interface {
	// ManifestationsByISBN returns records stored under any of the given
	// ISBN forms.
	ManifestationsByISBN(ctx context.Context, keys []string) ([]schema.Manifestation, error)
	// WriteManifestationIf writes m once check, which may be nil, succeeds.
	// check runs under the same write lock as the write itself.
	WriteManifestationIf(ctx context.Context, m schema.Manifestation, check func(context.Context) error) error
	WriteItem(ctx context.Context, it schema.Item) error
}

// Options configures a Service. Logger, Metrics and Relations may be nil.
type Options struct {
	Flags      Flags
	Repository Repository
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Relations  *ordering.Catalog
}

// Service saves records through the pipeline and maintains their ordered
// relationships.
type Service struct {
	flags     Flags
	repo      Repository
	log       *slog.Logger
	metrics   *metrics.Metrics
	relations *ordering.Catalog
}

// NewService builds a Service. Without Relations an in-memory catalog sized
// by Flags.HasOneItem is used.
func NewService(opts Options) *Service {
	s := &Service{
		flags:     opts.Flags,
		repo:      opts.Repository,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		relations: opts.Relations,
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	if s.relations == nil {
		s.relations = ordering.NewCatalog(ordering.CatalogOptions{HasOneItem: opts.Flags.HasOneItem})
	}
	return s
}

// Relations exposes the ordered relationships the service maintains.
func (s *Service) Relations() *ordering.Catalog { return s.relations }

// SaveManifestation prepares m, enforces ISBN uniqueness when configured
// and writes the result. The uniqueness check and the write happen under one
// repository lock. The prepared record is returned even on error.
func (s *Service) SaveManifestation(ctx context.Context, m schema.Manifestation) (schema.Manifestation, error) {
	if m.ID == "" {
		m.ID = schema.NewID()
	}
	out, rep, err := prepareManifestation(m, s.flags)
	s.record(rep)
	if rep.rejectedISBN {
		s.log.Warn("invalid isbn kept as wrong_isbn", "id", out.ID, "wrong_isbn", out.WrongISBN)
	}
	if err == nil && s.repo != nil {
		var checkErr error
		check := func(ctx context.Context) error {
			checkErr = s.checkUnique(ctx, out)
			return checkErr
		}
		if werr := s.repo.WriteManifestationIf(ctx, out, check); checkErr != nil {
			err = checkErr
		} else if werr != nil {
			err = fmt.Errorf("write manifestation %s: %w", out.ID, werr)
		}
	}
	s.metrics.Saved("manifestation", err)
	if err != nil {
		s.log.Info("manifestation not saved", "id", out.ID, "error", err)
		return out, err
	}
	s.log.Debug("manifestation saved", "id", out.ID, "isbn", out.ISBN)
	return out, nil
}

func (s *Service) checkUnique(ctx context.Context, m schema.Manifestation) error {
	if !s.flags.ISBNUnique || m.ISBN == "" || m.SeriesStatementID != "" || s.repo == nil {
		return nil
	}
	found, err := s.repo.ManifestationsByISBN(ctx, identifier.ISBNLookupKeys(m.ISBN))
	if err != nil {
		return fmt.Errorf("isbn lookup: %w", err)
	}
	for _, other := range found {
		if other.ID != m.ID {
			var errs schema.FieldErrors
			errs.Add("isbn", fmt.Errorf("%w by %s", ErrDuplicateISBN, other.ID))
			return errs.Err()
		}
	}
	return nil
}

// SaveItem prepares it, links it to its manifestation and writes it. An item
// that names a different manifestation than before is first unlinked from
// the old one. The new link is undone when the write fails.
func (s *Service) SaveItem(ctx context.Context, it schema.Item) (schema.Item, error) {
	if it.ID == "" {
		it.ID = schema.NewID()
	}
	out, rep, err := prepareItem(it, s.flags)
	s.record(rep)
	if err != nil {
		s.metrics.Saved("item", err)
		return out, err
	}
	rel := s.relation(ordering.Exemplifier)
	for _, prev := range rel.ScopesOf(out.ID) {
		if prev == out.ManifestationID {
			continue
		}
		if err := s.Unrelate(ctx, ordering.Exemplifier, prev, out.ID); err != nil {
			s.metrics.Saved("item", err)
			return out, err
		}
		s.log.Debug("item moved", "id", out.ID, "from", prev, "to", out.ManifestationID)
	}
	linked := false
	if out.ManifestationID != "" {
		if _, ok := rel.Position(out.ManifestationID, out.ID); !ok {
			if _, err := s.Relate(ctx, ordering.Exemplifier, out.ManifestationID, out.ID); err != nil {
				s.metrics.Saved("item", err)
				return out, err
			}
			linked = true
		}
	}
	if s.repo != nil {
		if werr := s.repo.WriteItem(ctx, out); werr != nil {
			err = fmt.Errorf("write item %s: %w", out.ID, werr)
			if linked {
				err = errors.Join(err, s.Unrelate(ctx, ordering.Exemplifier, out.ManifestationID, out.ID))
			}
		}
	}
	s.metrics.Saved("item", err)
	return out, err
}

// Relate appends member to scope under role.
func (s *Service) Relate(ctx context.Context, role ordering.Role, scope, member string) (ordering.Membership[string, string], error) {
	member = cleanMember(role, member)
	ms, err := s.relation(role).Append(ctx, scope, member)
	s.metrics.RelationOp(string(role), "append", err)
	if err != nil {
		return ms, fmt.Errorf("%s %s to %s: %w", role, member, scope, err)
	}
	s.log.Debug("membership appended", "role", string(role), "scope", scope, "member", member, "position", ms.Position)
	return ms, nil
}

// Unrelate removes member from scope under role and closes the gap.
func (s *Service) Unrelate(ctx context.Context, role ordering.Role, scope, member string) error {
	member = cleanMember(role, member)
	err := s.relation(role).Remove(ctx, scope, member)
	s.metrics.RelationOp(string(role), "remove", err)
	if err != nil {
		return fmt.Errorf("%s %s from %s: %w", role, member, scope, err)
	}
	return nil
}

// Move places member at position within scope, clamped to the scope size.
func (s *Service) Move(ctx context.Context, role ordering.Role, scope, member string, position int) (ordering.Membership[string, string], error) {
	member = cleanMember(role, member)
	ms, err := s.relation(role).Reorder(ctx, scope, member, position)
	s.metrics.RelationOp(string(role), "reorder", err)
	if err != nil {
		return ms, fmt.Errorf("move %s in %s: %w", member, scope, err)
	}
	return ms, nil
}

// Destroy drops every membership that references the record.
func (s *Service) Destroy(ctx context.Context, kind, id string) error {
	if kind == "agent" {
		id = names.Clean(id)
	}
	err := s.relations.DestroyRecord(ctx, kind, id)
	s.metrics.RelationOp(kind, "destroy", err)
	if err != nil {
		s.log.Error("memberships not dropped", "kind", kind, "id", id, "error", err)
	}
	return err
}

// cleanMember cleans agent headings so that spacing variants name one agent.
func cleanMember(role ordering.Role, m string) string {
	if role.MemberKind() == "agent" {
		return names.Clean(m)
	}
	return m
}

func (s *Service) relation(role ordering.Role) *ordering.Relation[string, string] {
	return s.relations.Relation(role)
}

func (s *Service) record(rep report) {
	for _, k := range rep.invalid {
		s.metrics.InvalidIdentifier(k.String())
	}
	if rep.rejectedISBN {
		s.metrics.RejectedISBN()
	}
	for _, f := range rep.unsetDates {
		s.metrics.UnparseableDate(f)
	}
}
