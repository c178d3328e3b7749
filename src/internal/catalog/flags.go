package catalog

import "time"

// Flags are the catalog-wide switches that decide which checks run. They
// never change how a check behaves.
type Flags struct {
	// ISBNUnique refuses a second manifestation with the same ISBN unless it
	// belongs to a series.
	ISBNUnique bool
	// HasOneItem limits a manifestation to a single item.
	HasOneItem bool
	// ItemUseDifferentIdentifier stops Identifier from being copied from
	// ItemIdentifier.
	ItemUseDifferentIdentifier bool
	// ItemAcquiredAtManaged means AcquiredAt is entered directly and is not
	// derived from AcquiredAtString.
	ItemAcquiredAtManaged bool
	// DuringImport keeps an invalid ISBN as WrongISBN instead of refusing the
	// record.
	DuringImport bool
	// Location resolves partial dates; nil means UTC.
	Location *time.Location
}
