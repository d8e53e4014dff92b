package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/prg"
	"github.com/matzehuels/plexsim/pkg/core/value"
)

var (
	// ErrUnknownNode is the panic value (wrapped) when a method is given a
	// node id that is not in the graph.
	ErrUnknownNode = errors.New("graph: unknown node")

	// ErrUnknownEdge is the panic value (wrapped) when a method is given an
	// edge id that is not in the graph.
	ErrUnknownEdge = errors.New("graph: unknown edge")

	// ErrCorrupt is returned by [Graph.Validate] when the indices disagree.
	ErrCorrupt = errors.New("graph: inconsistent index")
)

// NodeID identifies a node. Ids are assigned in increasing order and never
// reused within a graph.
type NodeID int

// EdgeID identifies an edge. Ids are assigned in increasing order and never
// reused within a graph.
type EdgeID int

// Kind is the fixed orientation of a graph's edges.
type Kind int

const (
	Undirected Kind = iota
	Directed
)

func (k Kind) String() string {
	if k == Directed {
		return "directed"
	}
	return "undirected"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("graph: unknown kind %q", b)
	}
	*k = v
	return nil
}

// ParseKind parses "directed" or "undirected".
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "directed":
		return Directed, true
	case "undirected":
		return Undirected, true
	}
	return Undirected, false
}

// Node is a snapshot of a node. Attrs is shared with the graph.
type Node struct {
	ID    NodeID
	Attrs *attrs.Attributes
	X, Y  float64
}

// Edge is a snapshot of an edge record. Attrs is shared with the graph and,
// for undirected graphs, with the mirror record.
type Edge struct {
	ID        EdgeID
	Origin    NodeID
	Neighbour NodeID
	Attrs     *attrs.Attributes
}

type node struct {
	Node
	out map[EdgeID]Edge
	in  map[EdgeID]Edge // aliases out when undirected
}

// Graph owns the nodes and edges of one population. All methods are safe for
// concurrent use; mutators take the write lock.
//
// An undirected edge is stored as two records sharing one Attributes: the
// primary (origin to neighbour) in the edge index and the origin's map, and
// the mirror (neighbour to origin) only in the neighbour's map.
type Graph struct {
	mu       sync.RWMutex
	kind     Kind
	nodes    map[NodeID]*node
	order    []NodeID
	edges    map[EdgeID]Edge
	nextNode NodeID
	nextEdge EdgeID
}

// New creates an empty graph of the given kind.
func New(kind Kind) *Graph {
	return &Graph{
		kind:  kind,
		nodes: make(map[NodeID]*node),
		edges: make(map[EdgeID]Edge),
	}
}

// Kind returns the orientation fixed at construction.
func (g *Graph) Kind() Kind { return g.kind }

func (g *Graph) mustNode(id NodeID) *node {
	n, ok := g.nodes[id]
	if !ok {
		panic(fmt.Errorf("%w: %d", ErrUnknownNode, id))
	}
	return n
}

// AddNode inserts a node holding a and returns its id.
func (g *Graph) AddNode(a *attrs.Attributes, x, y float64) NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextNode
	g.nextNode++
	n := &node{Node: Node{ID: id, Attrs: a, X: x, Y: y}, out: make(map[EdgeID]Edge)}
	if g.kind == Directed {
		n.in = make(map[EdgeID]Edge)
	} else {
		n.in = n.out
	}
	g.nodes[id] = n
	g.order = append(g.order, id)
	return id
}

// AddEdge connects origin to neighbour and returns the edge id. It panics if
// either node is unknown.
func (g *Graph) AddEdge(origin, neighbour NodeID, a *attrs.Attributes) EdgeID {
	g.mu.Lock()
	defer g.mu.Unlock()

	o, n := g.mustNode(origin), g.mustNode(neighbour)
	id := g.nextEdge
	g.nextEdge++

	e := Edge{ID: id, Origin: origin, Neighbour: neighbour, Attrs: a}
	g.edges[id] = e
	o.out[id] = e
	if g.kind == Directed {
		n.in[id] = e
	} else if origin != neighbour {
		n.out[id] = Edge{ID: id, Origin: neighbour, Neighbour: origin, Attrs: a}
	}
	return id
}

// RemoveEdge detaches the edge from both endpoints and drops it from the
// index. It panics if id is unknown.
func (g *Graph) RemoveEdge(id EdgeID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeEdge(id)
}

func (g *Graph) removeEdge(id EdgeID) {
	e, ok := g.edges[id]
	if !ok {
		panic(fmt.Errorf("%w: %d", ErrUnknownEdge, id))
	}
	delete(g.nodes[e.Origin].out, id)
	delete(g.nodes[e.Neighbour].in, id)
	delete(g.edges, id)
}

// RemoveNode removes every edge incident to the node, then the node itself.
// It panics if id is unknown.
func (g *Graph) RemoveNode(id NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.mustNode(id)
	for eid := range n.out {
		g.removeEdge(eid)
	}
	for eid := range n.in {
		g.removeEdge(eid)
	}
	delete(g.nodes, id)
	if i, ok := slices.BinarySearch(g.order, id); ok {
		g.order = slices.Delete(g.order, i, i+1)
	}
}

// RemoveAllEdges drops every edge and keeps the nodes.
func (g *Graph) RemoveAllEdges() {
	g.mu.Lock()
	defer g.mu.Unlock()

	clear(g.edges)
	for _, n := range g.nodes {
		clear(n.out)
		clear(n.in)
	}
}

// HasNode reports whether id is in the graph.
func (g *Graph) HasNode(id NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// HasEdge reports whether id is in the edge index.
func (g *Graph) HasEdge(id EdgeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edges[id]
	return ok
}

// Node returns a snapshot of the node. It panics if id is unknown.
func (g *Graph) Node(id NodeID) Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mustNode(id).Node
}

// Edge returns the primary record of the edge. It panics if id is unknown.
func (g *Graph) Edge(id EdgeID) Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[id]
	if !ok {
		panic(fmt.Errorf("%w: %d", ErrUnknownEdge, id))
	}
	return e
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// NumEdges returns the number of edges. An undirected edge counts once.
func (g *Graph) NumEdges() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// NodeIDs returns the node ids in increasing order.
func (g *Graph) NodeIDs() []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.order)
}

// Nodes returns snapshots of all nodes sorted by id.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]Node, len(g.order))
	for i, id := range g.order {
		nodes[i] = g.nodes[id].Node
	}
	return nodes
}

// Edges returns the primary records of all edges sorted by id.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedEdges(g.edges)
}

func sortedEdges(m map[EdgeID]Edge) []Edge {
	ids := slices.Sorted(maps.Keys(m))
	edges := make([]Edge, len(ids))
	for i, id := range ids {
		edges[i] = m[id]
	}
	return edges
}

// OutEdges returns the records leaving the node, sorted by edge id. For
// undirected graphs these are all incident edges, oriented away from id.
func (g *Graph) OutEdges(id NodeID) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedEdges(g.mustNode(id).out)
}

// InEdges returns the records entering the node, sorted by edge id. For
// undirected graphs it equals [Graph.OutEdges].
func (g *Graph) InEdges(id NodeID) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedEdges(g.mustNode(id).in)
}

// Neighbours returns the neighbours reached through [Graph.OutEdges], in
// edge id order. A node linked by several edges appears once per edge.
func (g *Graph) Neighbours(id NodeID) []NodeID {
	edges := g.OutEdges(id)
	ids := make([]NodeID, len(edges))
	for i, e := range edges {
		ids[i] = e.Neighbour
	}
	return ids
}

// OutDegree returns the number of records leaving the node.
func (g *Graph) OutDegree(id NodeID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.mustNode(id).out)
}

// InDegree returns the number of records entering the node.
func (g *Graph) InDegree(id NodeID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.mustNode(id).in)
}

// Degree returns the number of incident edges.
func (g *Graph) Degree(id NodeID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := g.mustNode(id)
	if g.kind == Undirected {
		return len(n.out)
	}
	return len(n.out) + len(n.in)
}

// SetCoords moves the node.
func (g *Graph) SetCoords(id NodeID, x, y float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.mustNode(id)
	n.X, n.Y = x, y
}

// SetNodeAttr replaces the value of one node attribute, keeping its name.
func (g *Graph) SetNodeAttr(id NodeID, attrID int, v value.Value) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustNode(id).Attrs.SetValue(attrID, v)
}

// NodeAttr returns the value of one node attribute.
func (g *Graph) NodeAttr(id NodeID, attrID int) value.Value {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mustNode(id).Attrs.Value(attrID)
}

// RandNode draws a node uniformly. It panics on an empty graph.
func (g *Graph) RandNode(p *prg.PRG) NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.order[p.Index(len(g.order))]
}

// RandNeighbour draws one of the node's out-neighbours uniformly. It returns
// false when the node has none.
func (g *Graph) RandNeighbour(id NodeID, p *prg.PRG) (NodeID, bool) {
	ns := g.Neighbours(id)
	if len(ns) == 0 {
		return 0, false
	}
	return ns[p.Index(len(ns))], true
}

// Validate checks that every indexed edge is registered with both endpoints,
// that no node map holds a record the index does not know, and that the
// id order matches the node set.
func (g *Graph) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(g.order) != len(g.nodes) {
		return fmt.Errorf("%w: %d ordered ids for %d nodes", ErrCorrupt, len(g.order), len(g.nodes))
	}
	for id, e := range g.edges {
		o, ok1 := g.nodes[e.Origin]
		n, ok2 := g.nodes[e.Neighbour]
		if !ok1 || !ok2 {
			return fmt.Errorf("%w: edge %d has a dangling endpoint", ErrCorrupt, id)
		}
		if _, ok := o.out[id]; !ok {
			return fmt.Errorf("%w: edge %d missing from origin %d", ErrCorrupt, id, e.Origin)
		}
		if _, ok := n.in[id]; !ok {
			return fmt.Errorf("%w: edge %d missing from neighbour %d", ErrCorrupt, id, e.Neighbour)
		}
	}
	for nid, n := range g.nodes {
		for eid, rec := range n.out {
			e, ok := g.edges[eid]
			if !ok {
				return fmt.Errorf("%w: node %d holds unknown edge %d", ErrCorrupt, nid, eid)
			}
			if rec.Attrs != e.Attrs {
				return fmt.Errorf("%w: edge %d records do not share attributes", ErrCorrupt, eid)
			}
		}
		for eid := range n.in {
			if _, ok := g.edges[eid]; !ok {
				return fmt.Errorf("%w: node %d holds unknown edge %d", ErrCorrupt, nid, eid)
			}
		}
	}
	return nil
}
