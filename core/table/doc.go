// Package table normalizes heterogeneous JSON records into a typed table.
//
// Columns are the union of every record's keys in first-appearance order.
// List cells are flattened to ", "-joined text before type inference, a
// column becomes numeric when all of its present cells reduce to a number,
// columns with no present cell are pruned, and the cells that remain empty
// are filled with a textual sentinel ("Unknown" by default).
package table
