// Package catalog runs the save pipeline for manifestations and items.
//
// The pipeline is a fixed sequence of pure steps: text cleanup, identifier
// canonicalization, date resolution, then serial numbering. Each step reads
// only the record and the injected Flags. Service wraps the pipeline with
// logging, metrics, ISBN uniqueness and ordered relationship maintenance.
package catalog
