// Package parse turns a raw model response into a structured JSON value.
// Language models frequently wrap JSON in narrative prose, markdown code
// fences, or reasoning blocks, so the package works in two steps: [Extract]
// isolates the most likely JSON candidate, and [ParseOrRepair] decodes it
// strictly, falling back to a bounded sequence of repair fixups.
//
// Nothing in this package fails on bad content. An unrecoverable candidate
// degrades to the empty object [EmptyObject] with [StageFailed], and the
// failure is reported through the configured observability provider.
package parse
