package cook

import (
	"errors"
	"reflect"
	"testing"
)

func ids(nodes []*Node) []string {
	s := make([]string, 0, len(nodes))
	for _, n := range nodes {
		s = append(s, n.ID)
	}
	return s
}

// chain creates a graph A -> B -> C where A depends on B, B depends on C.
func chain(t *testing.T) *Graph {
	g := NewGraph()
	g.AddNode(NewSimpleNode("a", "A", Command{"echo", "a"}))
	g.AddNode(NewSimpleNode("b", "B", Command{"echo", "b"}))
	g.AddNode(NewSimpleNode("c", "C", Command{"echo", "c"}))
	for _, e := range []Edge{{"a", "b"}, {"b", "c"}} {
		err := g.AddEdge(e.Parent, e.Child)
		if err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestGraphRootsLeaves(t *testing.T) {
	g := chain(t)
	if got, want := ids(g.Roots()), []string{"a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("roots: got %v, want %v", got, want)
	}
	if got, want := ids(g.Leaves()), []string{"c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("leaves: got %v, want %v", got, want)
	}
	if got, want := ids(g.Children("b")), []string{"c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("children: got %v, want %v", got, want)
	}
	if got, want := ids(g.Parents("b")), []string{"a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("parents: got %v, want %v", got, want)
	}
	want := []Edge{{"a", "b"}, {"b", "c"}}
	if got := g.Edges(); !reflect.DeepEqual(got, want) {
		t.Fatalf("edges: got %v, want %v", got, want)
	}
}

func TestGraphIsolatedNode(t *testing.T) {
	g := NewGraph()
	g.AddNode(NewSimpleNode("x", "", nil))
	if got, want := ids(g.Roots()), []string{"x"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("roots: got %v, want %v", got, want)
	}
	if got, want := ids(g.Leaves()), []string{"x"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("leaves: got %v, want %v", got, want)
	}
}

func TestGraphDuplicateNode(t *testing.T) {
	g := NewGraph()
	first := g.AddNode(NewSimpleNode("n", "first", nil))
	got := g.AddNode(NewSimpleNode("n", "second", nil))
	if got != first {
		t.Fatalf("got %v, want %v", got, first)
	}
	if g.Len() != 1 {
		t.Fatalf("len: got %v, want 1", g.Len())
	}
	n, _ := g.Node("n")
	if n.Name != "first" {
		t.Fatalf("name: got %v, want first", n.Name)
	}
}

func TestGraphDuplicateEdge(t *testing.T) {
	g := chain(t)
	err := g.AddEdge("a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if got := len(g.Children("a")); got != 1 {
		t.Fatalf("children of a: got %v, want 1", got)
	}
}

func TestGraphUnknownNode(t *testing.T) {
	g := chain(t)
	err := g.AddEdge("a", "z")
	if !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("got %v, want %v", err, ErrUnknownNode)
	}
}

func TestGraphFrozen(t *testing.T) {
	g := chain(t)
	g.freeze()
	err := g.AddEdge("a", "c")
	if !errors.Is(err, ErrFrozen) {
		t.Fatalf("got %v, want %v", err, ErrFrozen)
	}
	if n := g.AddNode(NewSimpleNode("d", "", nil)); n != nil {
		t.Fatalf("got %v, want nil", n)
	}
	if g.Len() != 3 {
		t.Fatalf("len: got %v, want 3", g.Len())
	}
}

func TestNodeKind(t *testing.T) {
	cases := []struct {
		node   *Node
		kind   Kind
		chunks int
	}{
		{NewSimpleNode("s", "", Command{"ls"}), KindSimple, 0},
		{NewChunkedNode("c", "", Command{"render"}, ChunkParams{Start: 1, End: 10, PacketSize: 5}), KindChunked, 2},
		{NewChunkedNode("m", "", Command{"render"}, ChunkParams{Start: 10, End: 1}), KindChunked, 0},
		{NewExpandingNode("e", "", Command{"split"}), KindExpanding, 0},
	}
	for _, c := range cases {
		if c.node.Kind() != c.kind {
			t.Fatalf("%v: kind: got %v, want %v", c.node, c.node.Kind(), c.kind)
		}
		if got := len(c.node.Chunks()); got != c.chunks {
			t.Fatalf("%v: chunks: got %v, want %v", c.node, got, c.chunks)
		}
		_, ok := c.node.ChunkParams()
		if ok != (c.kind == KindChunked) {
			t.Fatalf("%v: chunk params: got %v", c.node, ok)
		}
	}
}
