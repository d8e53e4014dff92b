package graphs

import (
	"math"

	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/value"
	"github.com/matzehuels/plexsim/pkg/plugin"
)

// Cycle registers the ring builder.
var Cycle = plugin.GraphPlugin{
	Meta: plugin.Meta{
		ID:          "cycle",
		Title:       "Cycle graph",
		Description: "Links node i to node i+1 and the last node back to the first.",
	},
	New: func() plugin.GraphBuilder { return &cycle{} },
}

// Star registers the star builder.
var Star = plugin.GraphPlugin{
	Meta: plugin.Meta{
		ID:          "star",
		Title:       "Star graph",
		Description: "Links the first node to every other node.",
	},
	New: func() plugin.GraphBuilder { return &star{} },
}

// Path registers the line builder.
var Path = plugin.GraphPlugin{
	Meta: plugin.Meta{
		ID:          "path",
		Title:       "Path graph",
		Description: "Links node i to node i+1.",
		Attrs: []attrs.Decl{
			{Name: "layout", Range: "string{horizontal,vertical,none}"},
		},
	},
	New: func() plugin.GraphBuilder { return &path{} },
}

type cycle struct {
	builder
}

func (c *cycle) Init(env plugin.Env) bool {
	n := env.Graph.NumNodes()
	if n < 3 {
		c.Setup(env)
		c.Logger().Error("cycle: needs at least 3 nodes", "nodes", n)
		return false
	}
	return c.prepare(env, n)
}

func (c *cycle) Reset() {
	n := len(c.ids)
	radius := float64(n) / (2 * math.Pi)
	links := make([]link, n)
	for i := range links {
		links[i] = link{from: i, to: (i + 1) % n}
		t := float64(i) / radius
		c.Graph().SetCoords(c.ids[i], radius+radius*math.Cos(t), radius+radius*math.Sin(t))
	}
	c.wire(links)
}

type star struct {
	builder
}

func (s *star) Init(env plugin.Env) bool {
	n := env.Graph.NumNodes()
	if n < 1 {
		s.Setup(env)
		s.Logger().Error("star: needs at least one node")
		return false
	}
	return s.prepare(env, n-1)
}

func (s *star) Reset() {
	n := len(s.ids)
	radius := float64(n-1) / (2 * math.Pi)
	dTheta := 1 / radius
	if radius < 2 {
		radius = 2
		dTheta = 0
		if n >= 3 {
			dTheta = 2 * math.Pi / float64(n-1)
		}
	}

	g := s.Graph()
	g.SetCoords(s.ids[0], radius, radius)
	links := make([]link, 0, n-1)
	for i := 1; i < n; i++ {
		t := dTheta * float64(i-1)
		g.SetCoords(s.ids[i], radius+radius*math.Cos(t), radius+radius*math.Sin(t))
		links = append(links, link{from: 0, to: i})
	}
	s.wire(links)
}

type path struct {
	builder
	layout string
}

func (p *path) Init(env plugin.Env) bool {
	p.layout = "horizontal"
	if env.Attrs != nil {
		p.layout = env.Attrs.ValueByName("layout", value.FromString(p.layout)).Str()
	}
	n := env.Graph.NumNodes()
	if n < 1 {
		p.Setup(env)
		p.Logger().Error("path: needs at least one node")
		return false
	}
	return p.prepare(env, n-1)
}

func (p *path) Reset() {
	g := p.Graph()
	links := make([]link, 0, len(p.ids))
	for i, id := range p.ids {
		switch p.layout {
		case "horizontal":
			g.SetCoords(id, float64(i), 0)
		case "vertical":
			g.SetCoords(id, 0, float64(i))
		}
		if i > 0 {
			links = append(links, link{from: i - 1, to: i})
		}
	}
	p.wire(links)
}
