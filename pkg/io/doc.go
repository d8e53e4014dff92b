// Package io reads and writes populations as CSV tables.
//
// # Format
//
// The first line is a comma-separated header. Every attribute of the target
// scope must appear in it exactly once, and no other column is allowed except
// the optional coordinate pair x and y, which must appear together:
//
//	live,x,y
//	1,0,0
//	0,1,0
//
// Each following line describes one entity. Cells are validated with the
// attribute's [attrs.Range]; a single invalid cell rejects the whole table,
// so callers never see a partially imported population.
//
// # Export
//
// [WriteCSV] emits the attribute columns in scope order followed by x and y
// when the table carries coordinates. [ExportCSV] writes to a temporary file
// in the destination directory and renames it into place, so a failed export
// leaves no partial file behind.
//
// Values are printed with [value.Value.String]: bools as 1/0 and doubles with
// eight significant digits.
package io
