// Package attrs implements the typed attribute system: named bags of values
// ([Attributes]), the domains those values may take ([Range]) and the ordered
// collections of domains a plugin declares ([Scope]).
//
// # Domain grammar
//
// A range is parsed from a domain string:
//
//	bool | string | non-empty-string | dirpath | filepath
//	int[min,max] | double[min,max]       (max may be the literal "max")
//	int{v1,v2,...} | double{...} | string{...}
//
// Spaces around brackets, braces and commas are ignored. Parsing never fails
// outwardly; a malformed string produces an invalid range and a logged
// warning, and every value then fails validation.
//
// # Validation
//
// [Range.Validate] turns user text into a [value.Value] of the right type, or
// the invalid value. Path domains check that the path exists when validated.
//
//	r := attrs.ParseRange(0, "age", "int[0,10]")
//	r.Validate("10") // value.FromInt(10)
//	r.Validate("11") // invalid
package attrs
