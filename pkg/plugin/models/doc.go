// Package models provides the built-in simulation models.
//
//   - gameoflife: Conway's Game of Life over any neighbourhood
//   - nowak: the spatial prisoner's dilemma of Nowak and May (1992)
//   - growth: a susceptible-infected process through random contacts
//
// Models read and write node attributes through the graph, so a trial's
// graph always shows the current state.
package models

import "github.com/matzehuels/plexsim/pkg/plugin"

// All lists the built-in models.
var All = []plugin.ModelPlugin{GameOfLife, Nowak, Growth}
