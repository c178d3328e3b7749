// Package identifier validates and canonicalizes the standard numbers a
// manifestation carries: ISBN-10, ISBN-13, ISSN and LCCN.
//
// Every function is total. A malformed or checksum-failing value is reported
// through Identifier.Valid (or a false return), never through an error, so the
// caller decides whether the save is blocked or the raw value is kept aside as
// a rejected identifier.
package identifier
