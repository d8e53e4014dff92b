package graph_test

import (
	"fmt"

	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/graph"
)

func ExampleGraph_undirected() {
	g := graph.New(graph.Undirected)
	a := g.AddNode(attrs.New(0), 0, 0)
	b := g.AddNode(attrs.New(0), 1, 0)
	g.AddEdge(a, b, attrs.New(0))

	fmt.Println("Edges:", g.NumEdges())
	fmt.Println("Neighbours of b:", g.Neighbours(b))
	// Output:
	// Edges: 1
	// Neighbours of b: [0]
}

func ExampleGraph_directed() {
	g := graph.New(graph.Directed)
	a := g.AddNode(attrs.New(0), 0, 0)
	b := g.AddNode(attrs.New(0), 1, 0)
	g.AddEdge(a, b, attrs.New(0))

	fmt.Println("Out-degree of a:", g.OutDegree(a))
	fmt.Println("In-degree of b:", g.InDegree(b))
	fmt.Println("Neighbours of b:", g.Neighbours(b))
	// Output:
	// Out-degree of a: 1
	// In-degree of b: 1
	// Neighbours of b: []
}
