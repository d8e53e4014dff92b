// Package gen synthesizes populations of attributes from declarative
// commands.
//
// A command is one of:
//
//	<path>                                  rows read from a CSV file
//	*<N>;min|max|rand_<seed>                one function for every attribute
//	#<N>;<attr>_min|max|rand_<seed>|value_<literal>[;...]
//
// A bare integer N is shorthand for "*N;min" and a missing size means one
// row, so "*max" is "*1;max". A "#" command carries exactly one clause per
// attribute of the scope.
//
// Every [Generator] re-emits its canonical command through Command, and
// parsing that command yields an equivalent generator:
//
//	g, _ := gen.Parse(scope, "#10;live_rand_7")
//	g.Command() // "#10;live_rand_7"
//
// Random functions own a PRG seeded from the command, reseeded on every
// Create, so a command always produces the same population.
package gen
