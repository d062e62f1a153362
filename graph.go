package cook

import (
	"fmt"
	"log/slog"
)

// Edge is a dependency between two nodes.
// Child should be finished before Parent starts.
type Edge struct {
	Parent string `json:"parent" yaml:"parent"`
	Child  string `json:"child" yaml:"child"`
}

// Graph is a graph of nodes for a job.
//
// The graph should be acyclic. Graph doesn't check it,
// callers are responsible for not adding a cycle.
//
// Graph is not safe for concurrent use.
// It is built once by a caller, then frozen when it is compiled.
type Graph struct {
	// nodes are nodes of the graph in insertion order.
	// A node's index in nodes never changes.
	nodes []*Node

	// index maps a node ID to its position in nodes.
	index map[string]int

	// children and parents are adjacency lists keyed by node index.
	// They keep insertion order of the edges.
	children [][]int
	parents  [][]int

	edges map[[2]int]bool

	frozen bool

	logger *slog.Logger
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:  make([]*Node, 0),
		index:  make(map[string]int),
		edges:  make(map[[2]int]bool),
		logger: slog.Default(),
	}
}

// SetLogger sets a logger for the graph's diagnostics.
func (g *Graph) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	g.logger = l
}

// AddNode adds a node to the graph and returns the node stored in the graph.
// When a node with the same ID has been added already, the first one wins;
// AddNode logs a warning and returns the existing node.
// It returns nil for a new node, if the graph has frozen.
func (g *Graph) AddNode(n *Node) *Node {
	if idx, ok := g.index[n.ID]; ok {
		exist := g.nodes[idx]
		g.logger.Warn("node already added", "id", n.ID, "node", exist.Title())
		return exist
	}
	if g.frozen {
		g.logger.Warn("node added to a frozen graph", "id", n.ID)
		return nil
	}
	g.index[n.ID] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.children = append(g.children, nil)
	g.parents = append(g.parents, nil)
	return n
}

// AddEdge records that parent depends on child.
// Adding the same edge twice is a no-op.
func (g *Graph) AddEdge(parent, child string) error {
	if g.frozen {
		return ErrFrozen
	}
	p, ok := g.index[parent]
	if !ok {
		return fmt.Errorf("edge %v -> %v: %w: %v", parent, child, ErrUnknownNode, parent)
	}
	c, ok := g.index[child]
	if !ok {
		return fmt.Errorf("edge %v -> %v: %w: %v", parent, child, ErrUnknownNode, child)
	}
	e := [2]int{p, c}
	if g.edges[e] {
		return nil
	}
	g.edges[e] = true
	g.children[p] = append(g.children[p], c)
	g.parents[c] = append(g.parents[c], p)
	return nil
}

// Len returns number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node finds a node by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	idx, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.nodes[idx], true
}

// Nodes returns nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// Edges returns edges in insertion order of their parents.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.edges))
	for p, children := range g.children {
		for _, c := range children {
			edges = append(edges, Edge{Parent: g.nodes[p].ID, Child: g.nodes[c].ID})
		}
	}
	return edges
}

// Children returns nodes the node depends on.
func (g *Graph) Children(id string) []*Node {
	idx, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.pick(g.children[idx])
}

// Parents returns nodes that depend on the node.
func (g *Graph) Parents(id string) []*Node {
	idx, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.pick(g.parents[idx])
}

// Roots returns nodes that no other node depends on.
// They are the last ones to run.
func (g *Graph) Roots() []*Node {
	roots := make([]*Node, 0)
	for i, n := range g.nodes {
		if len(g.parents[i]) == 0 {
			roots = append(roots, n)
		}
	}
	return roots
}

// Leaves returns nodes that don't depend on any other node.
// They are the first ones to run.
func (g *Graph) Leaves() []*Node {
	leaves := make([]*Node, 0)
	for i, n := range g.nodes {
		if len(g.children[i]) == 0 {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// rootIndexes returns positions of the root nodes.
func (g *Graph) rootIndexes() []int {
	idxs := make([]int, 0)
	for i := range g.nodes {
		if len(g.parents[i]) == 0 {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func (g *Graph) pick(idxs []int) []*Node {
	nodes := make([]*Node, 0, len(idxs))
	for _, i := range idxs {
		nodes = append(nodes, g.nodes[i])
	}
	return nodes
}

// freeze makes the graph read-only.
func (g *Graph) freeze() {
	g.frozen = true
}
