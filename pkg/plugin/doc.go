// Package plugin defines the contracts between the simulation core and the
// models and graph builders it runs.
//
// A [Model] implements one simulation step over a graph. A [GraphBuilder]
// wires the edges of a freshly populated graph. Both are created per trial
// from a factory held in a [Registry], initialised once with an [Env] and
// never reused; embedding [Base] gives a plugin its environment and enforces
// the single initialisation.
//
// Each plugin declares its parameters, and for models the node and edge
// attributes it reads, as attribute scopes in its [Meta]. The registry
// parses those scopes at registration, so a bad declaration fails early.
//
// The built-in plugins live in the graphs and models subpackages; the
// builtin package assembles them into a ready registry.
package plugin
