// Package ordering keeps the members of a many-to-many relationship in a
// contiguous 1-based order within each scope: the creators of a work, the
// producers of a manifestation, the items exemplifying a manifestation.
//
// A Relation serializes mutations per scope and never exposes a partially
// renumbered scope. Each mutation builds the new order on a copy, hands it
// to the optional Committer, and only then replaces the stored order. If
// the committer fails the previous order is kept and ErrRenumbering is
// returned. A committer that also implements Reader lets a Relation recover
// from ErrConflict: the scope is reloaded from storage and the mutation is
// applied again to the stored order.
package ordering
