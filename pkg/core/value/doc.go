// Package value provides the tagged scalar used for every piece of data the
// simulator exchanges: node and edge attributes, plugin parameters and model
// outputs.
//
// # Types
//
// A [Value] holds exactly one of bool, char, int, double or string, or is
// invalid. Invalid values are what validation returns on malformed input;
// callers check [Value.IsValid] instead of handling an error:
//
//	v := value.ParseInt("42")
//	if !v.IsValid() {
//	    // reject input
//	}
//
// # Comparison
//
// [Value.Equal] is defined for every pair and is false across types. The
// ordering methods ([Value.Compare], [Value.Less] and friends) are defined only
// between values of the same type and panic with [ErrTypeMismatch] otherwise.
// Comparing an int attribute with a double attribute is a bug in the caller,
// not a condition to recover from.
//
// Doubles compare with a relative tolerance of 1e-12 on 1+x, so 0.1+0.2
// equals 0.3.
package value
