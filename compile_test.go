package cook

import (
	"errors"
	"reflect"
	"testing"

	"github.com/imagvfx/cook/farm"
)

var testDefaults = Defaults{
	Service:      "linux",
	Limit:        "cook",
	Licenses:     DefaultLicenses,
	WrapperArgv:  Command{"cookwrap"},
	ExpanderArgv: Command{"cookchunks", "--"},
	PackageBin:   "rez",
}

func titles(tasks []*farm.Task) []string {
	s := make([]string, 0, len(tasks))
	for _, t := range tasks {
		s = append(s, t.Title)
	}
	return s
}

func mustCompile(t *testing.T, g *Graph, spec JobSpec) *Compiled {
	t.Helper()
	cc, err := NewCompiler(testDefaults).Compile(g, spec)
	if err != nil {
		t.Fatal(err)
	}
	return cc
}

func TestCompileChain(t *testing.T) {
	cc := mustCompile(t, chain(t), JobSpec{Title: "chain"})
	root := cc.Job.Subtasks[0]
	if root != cc.Root {
		t.Fatalf("root: got %v, want %v", root.Title, cc.Root.Title)
	}
	if !root.SerialSubtasks {
		t.Fatalf("root should run serially with a single leaf")
	}
	if got, want := titles(root.Subtasks), []string{"A"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("root subtasks: got %v, want %v", got, want)
	}
	a := root.Subtasks[0]
	if got, want := titles(a.Subtasks), []string{"B"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("A subtasks: got %v, want %v", got, want)
	}
	c := a.Subtasks[0].Subtasks[0]
	if c.Title != "C" || !c.IsLeaf() {
		t.Fatalf("C: got %v (leaf %v)", c.Title, c.IsLeaf())
	}
	want := &farm.Cmd{Argv: []string{"echo", "c"}, Tags: []string{"cook"}}
	if got := c.Cmds[0]; !reflect.DeepEqual(got, want) {
		t.Fatalf("C cmd: got %+v, want %+v", got, want)
	}
	if c.Metadata["nodeUid"] != "c" {
		t.Fatalf("C nodeUid: got %v", c.Metadata["nodeUid"])
	}
	if c.Service != "linux" {
		t.Fatalf("C service: got %v", c.Service)
	}
}

func TestCompileDiamond(t *testing.T) {
	// a depends on b and c, and both depend on d.
	g := NewGraph()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(NewSimpleNode(id, "", Command{"true"}))
	}
	for _, e := range []Edge{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}} {
		if err := g.AddEdge(e.Parent, e.Child); err != nil {
			t.Fatal(err)
		}
	}
	cc := mustCompile(t, g, JobSpec{Title: "diamond"})
	for i, n := range cc.cooks {
		if n != 1 {
			t.Fatalf("node %v cooked %v times", g.nodes[i].ID, n)
		}
	}
	b, _ := cc.Cooked("b")
	c, _ := cc.Cooked("c")
	d, _ := cc.Cooked("d")
	if b.Task.Subtasks[0] != d.Task || c.Task.Subtasks[0] != d.Task {
		t.Fatalf("b and c should share d's task")
	}
	cc.Job.Init()
	// job, root, a, b, d, c
	if got := len(cc.Job.Tasks()); got != 6 {
		t.Fatalf("distinct tasks: got %v, want 6", got)
	}
}

func TestCompileSerialHint(t *testing.T) {
	g := NewGraph()
	g.AddNode(NewSimpleNode("a", "", Command{"true"}))
	g.AddNode(NewSimpleNode("b", "", Command{"true"}))
	cc := mustCompile(t, g, JobSpec{Title: "parallel"})
	if cc.Root.SerialSubtasks {
		t.Fatalf("root shouldn't run serially with two leaves")
	}
	if got, want := titles(cc.Root.Subtasks), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("root subtasks: got %v, want %v", got, want)
	}
}

func TestCompileEmpty(t *testing.T) {
	cc := mustCompile(t, NewGraph(), JobSpec{Title: "empty"})
	if err := cc.Job.Validate(); err != nil {
		t.Fatal(err)
	}
	if got := len(cc.Job.Subtasks); got != 2 {
		t.Fatalf("job subtasks: got %v, want 2", got)
	}
	if got := len(cc.Root.Subtasks); got != 0 {
		t.Fatalf("root subtasks: got %v, want 0", got)
	}
}

func TestCompileChunked(t *testing.T) {
	g := NewGraph()
	g.AddNode(NewSimpleNode("comp", "comp", Command{"comp"}))
	render := NewChunkedNode("r", "render", Command{"render", "-f"}, ChunkParams{Start: 1, End: 5, PacketSize: 2})
	render.Licenses = []string{"mtoa"}
	render.Env = map[string]string{"B": "2", "A": "1"}
	g.AddNode(render)
	g.AddNode(NewSimpleNode("cache", "cache", Command{"cache"}))
	g.AddEdge("comp", "r")
	g.AddEdge("r", "cache")
	cc := mustCompile(t, g, JobSpec{Title: "shot"})

	r, _ := cc.Cooked("r")
	if len(r.Task.Cmds) != 0 {
		t.Fatalf("chunked task shouldn't have a command: %v", r.Task.Cmds)
	}
	want := []string{"render_1_2", "render_3_4", "render_5_5"}
	if got := titles(r.Task.Subtasks); !reflect.DeepEqual(got, want) {
		t.Fatalf("chunk titles: got %v, want %v", got, want)
	}
	if got := titles(r.Terminals()); !reflect.DeepEqual(got, want) {
		t.Fatalf("terminals: got %v, want %v", got, want)
	}
	cache, _ := cc.Cooked("cache")
	for i, sub := range r.Task.Subtasks {
		wantCmd := &farm.Cmd{
			Argv:   []string{"render", "-f", "--iteration", []string{"0", "1", "2"}[i]},
			Tags:   []string{"arnold", "cook"},
			EnvKey: []string{"setenv A=1", "setenv B=2"},
		}
		if got := sub.Cmds[0]; !reflect.DeepEqual(got, wantCmd) {
			t.Fatalf("chunk %v cmd: got %+v, want %+v", i, got, wantCmd)
		}
		if got := sub.Metadata["iteration"]; got != wantCmd.Argv[3] {
			t.Fatalf("chunk %v iteration: got %v", i, got)
		}
		if len(sub.Subtasks) != 1 || sub.Subtasks[0] != cache.Task {
			t.Fatalf("chunk %v should depend on cache", i)
		}
	}
	if _, ok := r.Task.Metadata["iteration"]; ok {
		t.Fatalf("iteration shouldn't be set on the chunked task itself")
	}
}

func TestCompileSingleChunk(t *testing.T) {
	g := NewGraph()
	g.AddNode(NewChunkedNode("r", "render", Command{"render"}, ChunkParams{Start: 1, End: 1}))
	cc := mustCompile(t, g, JobSpec{Title: "one"})
	r, _ := cc.Cooked("r")
	if r.Chunks != nil || len(r.Task.Subtasks) != 0 {
		t.Fatalf("a single chunk should compile as a simple node")
	}
	if got, want := r.Task.Cmds[0].Argv, []string{"render"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCompileExpanding(t *testing.T) {
	g := NewGraph()
	n := NewExpandingNode("x", "split", Command{"sim", "--frames", "1-10"})
	n.Packages = []string{"houdini-19", ""}
	g.AddNode(n)
	cc := mustCompile(t, g, JobSpec{Title: "expand"})
	x, _ := cc.Cooked("x")
	cmd := x.Task.Cmds[0]
	if !cmd.Expand {
		t.Fatalf("expanding command should have Expand set")
	}
	want := []string{"cookwrap", "rez", "env", "houdini-19", "--", "cookchunks", "--", "sim", "--frames", "1-10"}
	if !reflect.DeepEqual(cmd.Argv, want) {
		t.Fatalf("got %v, want %v", cmd.Argv, want)
	}
	if !x.Task.Expands() {
		t.Fatalf("task should expand")
	}
}

func TestCompileExpandingWithChild(t *testing.T) {
	g := NewGraph()
	g.AddNode(NewExpandingNode("x", "split", Command{"split"}))
	g.AddNode(NewSimpleNode("c", "cache", Command{"cache"}))
	if err := g.AddEdge("x", "c"); err != nil {
		t.Fatal(err)
	}
	cc := mustCompile(t, g, JobSpec{Title: "expand"})
	x, _ := cc.Cooked("x")
	got := titles(x.Task.Subtasks)
	want := []string{"cache"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if x.Chunks != nil {
		t.Fatalf("expanding node shouldn't have chunks known ahead: %v", x.Chunks)
	}
	if len(x.Terminals()) != 1 || x.Terminals()[0] != x.Task {
		t.Fatalf("expanding task should be its own terminal")
	}
}

func TestCompileNoService(t *testing.T) {
	d := testDefaults
	d.Service = ""
	g := NewGraph()
	g.AddNode(NewSimpleNode("a", "", Command{"true"}))
	_, err := NewCompiler(d).Compile(g, JobSpec{Title: "job", Service: "linux"})
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("got %v, want a ConfigError", err)
	}
	if !errors.Is(err, ErrNoService) {
		t.Fatalf("got %v, want %v", err, ErrNoService)
	}
	if cerr.Op != "node a" {
		t.Fatalf("op: got %v", cerr.Op)
	}
	if g.frozen {
		t.Fatalf("graph shouldn't be frozen by a failed compile")
	}

	_, err = NewCompiler(d).Compile(NewGraph(), JobSpec{Title: "job"})
	if !errors.Is(err, ErrNoService) {
		t.Fatalf("got %v, want %v", err, ErrNoService)
	}
}

func TestCompileJobSettings(t *testing.T) {
	spec := JobSpec{
		Title:    "settings",
		Service:  "gpu",
		Priority: farm.PriorityHigh,
		Tags:     map[string]string{"show": "abc"},
		Env:      map[string]string{"SHOW": "abc"},
		User:     "artist",
		Paused:   true,
		Projects: []string{"abc"},
	}
	cc := mustCompile(t, chain(t), spec)
	j := cc.Job
	if j.Service != "gpu" || j.Priority != farm.PriorityHigh || !j.Paused || j.Owner != "artist" {
		t.Fatalf("unexpected job: %+v", j)
	}
	want := []string{"setenv FARM_USER=artist", "setenv SHOW=abc"}
	if !reflect.DeepEqual(j.EnvKey, want) {
		t.Fatalf("env key: got %v, want %v", j.EnvKey, want)
	}
	if j.Metadata["show"] != "abc" {
		t.Fatalf("metadata: got %v", j.Metadata)
	}
}

// TestCompileIsomorphic checks that compiling the same graph twice
// produces the same structure.
func TestCompileIsomorphic(t *testing.T) {
	shape := func(t *farm.Task) []string {
		s := []string{}
		farm.Walk(t, func(t, parent *farm.Task) bool {
			p := ""
			if parent != nil {
				p = parent.Title
			}
			s = append(s, p+">"+t.Title)
			return true
		})
		return s
	}
	a := mustCompile(t, chain(t), JobSpec{Title: "iso"})
	b := mustCompile(t, chain(t), JobSpec{Title: "iso"})
	if got, want := shape(a.Job.Task), shape(b.Job.Task); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDefaultsLimits(t *testing.T) {
	got := testDefaults.Limits([]string{"mtoa", "houdiniE", "nuke"})
	want := []string{"arnold", "houdinie", "nuke", "cook"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEnvKey(t *testing.T) {
	if got := EnvKey(nil); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
	got := EnvKey(map[string]string{"Z": "1", "A": "x y"})
	want := []string{"setenv A=x y", "setenv Z=1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCompileNodeSharedByGraphs(t *testing.T) {
	x := NewSimpleNode("x", "x", Command{"x"})
	a := NewGraph()
	a.AddNode(x)
	b := NewGraph()
	b.AddNode(NewSimpleNode("p", "p", Command{"p"}))
	b.AddNode(x)
	if err := b.AddEdge("p", "x"); err != nil {
		t.Fatal(err)
	}

	ca := mustCompile(t, a, JobSpec{Title: "a"})
	got, ok := ca.Cooked("x")
	if !ok || got.Node != x {
		t.Fatalf("x should be cooked in a")
	}
	if want := []string{"x"}; !reflect.DeepEqual(titles(ca.Root.Subtasks), want) {
		t.Fatalf("got %v, want %v", titles(ca.Root.Subtasks), want)
	}

	cb := mustCompile(t, b, JobSpec{Title: "b"})
	p, _ := cb.Cooked("p")
	if want := []string{"x"}; !reflect.DeepEqual(titles(p.Task.Subtasks), want) {
		t.Fatalf("got %v, want %v", titles(p.Task.Subtasks), want)
	}
	if _, ok := ca.Cooked("p"); ok {
		t.Fatalf("p isn't a node of a")
	}
}
