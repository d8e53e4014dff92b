// Package graphs provides the built-in graph builders.
//
//   - squaregrid: a width x height lattice with von Neumann (4) or Moore (8)
//     neighbourhoods, optionally periodic (a torus)
//   - cycle: a ring through nodes 0..n-1
//   - star: node 0 linked to every other node
//   - path: a line through nodes 0..n-1
//
// Builders lay nodes out in the plane as they wire them, so exported
// populations carry usable coordinates.
package graphs

import "github.com/matzehuels/plexsim/pkg/plugin"

// All lists the built-in graph builders.
var All = []plugin.GraphPlugin{SquareGrid, Cycle, Star, Path}
