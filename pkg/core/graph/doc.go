// Package graph holds the topology a simulation runs on.
//
// A [Graph] is an arena: nodes and edges live in maps keyed by integer ids,
// and edges refer to their endpoints by id. The orientation ([Directed] or
// [Undirected]) is fixed by [New]. One code path serves both kinds; an
// undirected node's incoming map is its outgoing map.
//
// # Undirected edges
//
// Adding an undirected edge creates two records that share one
// [attrs.Attributes]. The primary record (origin to neighbour) sits in the
// edge index and in the origin's map. The mirror record (neighbour to origin)
// is stored only in the neighbour's map, so [Graph.Edges] and
// [Graph.NumEdges] count the edge once while [Graph.OutEdges] shows it from
// both ends.
//
// # Failure
//
// Passing an id that is not in the graph is a programming error and panics
// with a value wrapping [ErrUnknownNode] or [ErrUnknownEdge].
//
// # Concurrency
//
// A Graph guards its state with a sync.RWMutex. Trials never share a graph,
// but an inspector may read one while its trial mutates it.
package graph
