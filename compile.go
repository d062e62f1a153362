package cook

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/imagvfx/cook/farm"
)

// JobSpec has job level settings for a compiled job.
type JobSpec struct {
	Title string

	// Service is the job's service requirement.
	// Empty Service falls back to the compiler's default service.
	Service string

	// Priority is the job's priority. Zero means normal priority.
	Priority int

	// Tags are the job's metadata.
	Tags map[string]string

	// Env is environment variables for all the job's commands.
	Env map[string]string

	// User owns the job. It is also exported to commands as FARM_USER.
	User string

	Comment  string
	Paused   bool
	Projects []string
}

// CookedTask is what a node turned into.
type CookedTask struct {
	// Node is the node cooked.
	Node *Node

	// Task is the farm task created for the node.
	Task *farm.Task

	// Chunks has a farm task per chunk, when the node is run by chunks.
	Chunks map[Chunk]*farm.Task

	// chunks keeps the chunks in iteration order.
	chunks []Chunk
}

// Terminals returns tasks that dependencies of the node should be attached to.
// Those are the chunk tasks for a chunked node, otherwise the node's task.
func (c *CookedTask) Terminals() []*farm.Task {
	if len(c.chunks) == 0 {
		return []*farm.Task{c.Task}
	}
	ts := make([]*farm.Task, 0, len(c.chunks))
	for _, chk := range c.chunks {
		ts = append(ts, c.Chunks[chk])
	}
	return ts
}

// Compiled is the result of a compilation.
type Compiled struct {
	// Job is the farm job compiled from the graph.
	Job *farm.Job

	// Root is the job task all the graph's roots are attached to.
	Root *farm.Task

	graph *Graph

	// cooked is keyed by node index.
	cooked []*CookedTask

	// cooks counts how many times a node was cooked, keyed by node index.
	// It should be 1 for every node.
	cooks []int
}

// Cooked returns what the node turned into.
func (c *Compiled) Cooked(id string) (*CookedTask, bool) {
	idx, ok := c.graph.index[id]
	if !ok {
		return nil, false
	}
	ct := c.cooked[idx]
	return ct, ct != nil
}

// Compiler compiles a Graph into a farm Job.
type Compiler struct {
	Defaults Defaults
	Logger   *slog.Logger
}

// NewCompiler creates a new Compiler.
func NewCompiler(d Defaults) *Compiler {
	return &Compiler{Defaults: d, Logger: slog.Default()}
}

// Compile compiles the graph into a farm job.
//
// Every node is cooked exactly once, even if it is reached from multiple parents.
// Compile checks all the requirements first, and returns a *ConfigError
// before creating any task, when one of them cannot be resolved.
//
// The graph is frozen and cannot be changed after Compile is called.
func (c *Compiler) Compile(g *Graph, spec JobSpec) (*Compiled, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	jobService, err := c.Defaults.ServiceFor(spec.Service)
	if err != nil {
		return nil, &ConfigError{Op: "job " + spec.Title, Err: err}
	}
	for _, n := range g.nodes {
		_, err := c.Defaults.ServiceFor(n.Requirement)
		if err != nil {
			return nil, &ConfigError{Op: "node " + n.ID, Err: err}
		}
	}
	g.freeze()

	job, err := c.newJob(spec, jobService)
	if err != nil {
		return nil, err
	}
	root := job.NewTask(spec.Title)
	root.SerialSubtasks = len(g.Leaves()) == 1

	cc := &Compiled{
		Job:    job,
		Root:   root,
		graph:  g,
		cooked: make([]*CookedTask, g.Len()),
		cooks:  make([]int, g.Len()),
	}
	ck := &cooker{Compiler: c, compiled: cc, logger: logger}
	for _, idx := range g.rootIndexes() {
		ct, err := ck.cookFrom(idx)
		if err != nil {
			return nil, err
		}
		root.AddChild(ct.Task)
	}
	if g.Len() == 0 {
		// The farm rejects a job without a task.
		job.NewTask("placeholder")
	}
	return cc, nil
}

func (c *Compiler) newJob(spec JobSpec, service string) (*farm.Job, error) {
	job := farm.NewJob(spec.Title)
	job.Service = service
	if spec.Priority != 0 {
		job.Priority = spec.Priority
	}
	job.Comment = spec.Comment
	job.Paused = spec.Paused
	job.Projects = spec.Projects
	job.Owner = spec.User
	env := make(map[string]string, len(spec.Env)+1)
	for k, v := range spec.Env {
		env[k] = v
	}
	if spec.User != "" {
		env[EnvFarmUser] = spec.User
	}
	job.EnvKey = EnvKey(env)
	meta, err := copyTags(spec.Tags)
	if err != nil {
		return nil, err
	}
	job.Metadata = meta
	return job, nil
}

// cooker holds state of a compilation.
type cooker struct {
	*Compiler
	compiled *Compiled
	logger   *slog.Logger
}

// frame is a node visit in progress.
type frame struct {
	idx  int
	next int // next child position to visit
}

// cookFrom cooks the node at idx and everything it depends on,
// in post order. A node already cooked is not visited again.
func (ck *cooker) cookFrom(idx int) (*CookedTask, error) {
	g := ck.compiled.graph
	cooked := ck.compiled.cooked
	if cooked[idx] != nil {
		return cooked[idx], nil
	}
	onStack := make(map[int]bool)
	ct, err := ck.cook(idx)
	if err != nil {
		return nil, err
	}
	cooked[idx] = ct
	onStack[idx] = true
	stack := []*frame{{idx: idx}}
	for len(stack) != 0 {
		top := stack[len(stack)-1]
		children := g.children[top.idx]
		if top.next == len(children) {
			stack = stack[:len(stack)-1]
			delete(onStack, top.idx)
			continue
		}
		child := children[top.next]
		top.next++
		if onStack[child] {
			// A cycle. Callers shouldn't have made it, don't loop forever.
			ck.logger.Warn("dependency cycle ignored", "parent", g.nodes[top.idx].ID, "child", g.nodes[child].ID)
			continue
		}
		if cooked[child] == nil {
			ct, err := ck.cook(child)
			if err != nil {
				return nil, err
			}
			cooked[child] = ct
			onStack[child] = true
			stack = append(stack, &frame{idx: child})
		}
		for _, t := range cooked[top.idx].Terminals() {
			t.AddChild(cooked[child].Task)
		}
	}
	return cooked[idx], nil
}

// cook creates farm tasks for a node.
func (ck *cooker) cook(idx int) (*CookedTask, error) {
	n := ck.compiled.graph.nodes[idx]
	ck.compiled.cooks[idx]++
	ck.logger.Debug("cook node", "id", n.ID, "name", n.Title(), "kind", n.Kind().String())
	service, err := ck.Defaults.ServiceFor(n.Requirement)
	if err != nil {
		return nil, &ConfigError{Op: "node " + n.ID, Err: err}
	}
	meta, err := copyTags(n.Tags)
	if err != nil {
		return nil, err
	}
	meta["nodeUid"] = n.ID
	limits := ck.Defaults.Limits(n.Licenses)
	envKey := EnvKey(n.Env)

	t := farm.NewTask(n.Title())
	t.Service = service
	t.Metadata = meta
	ct := &CookedTask{Node: n, Task: t}

	kind := n.Kind()
	chunks := n.Chunks()
	if kind == KindChunked && len(chunks) <= 1 {
		kind = KindSimple
	}
	switch kind {
	case KindChunked:
		ct.Chunks = make(map[Chunk]*farm.Task, len(chunks))
		ct.chunks = chunks
		for _, chk := range chunks {
			sub := t.NewTask(ChunkTitle(n.Title(), chk))
			sub.Service = service
			sub.Metadata = withIteration(meta, chk.Iteration)
			argv := ck.Defaults.WrapPackages(n.Packages, IterationCommand(n.Command, chk))
			sub.AddCmd(&farm.Cmd{Argv: argv, Tags: limits, EnvKey: envKey})
			ct.Chunks[chk] = sub
		}
	case KindExpanding:
		payload := n.Command.Prefix(ck.Defaults.ExpanderArgv...)
		argv := ck.Defaults.WrapPackages(n.Packages, payload)
		argv = argv.Prefix(ck.Defaults.WrapperArgv...)
		t.AddCmd(&farm.Cmd{Argv: argv, Tags: limits, EnvKey: envKey, Expand: true})
	default:
		if !n.Command.IsEmpty() {
			argv := ck.Defaults.WrapPackages(n.Packages, n.Command)
			t.AddCmd(&farm.Cmd{Argv: argv, Tags: limits, EnvKey: envKey})
		}
	}
	return ct, nil
}

// IterationCommand returns the node command specialized for a chunk.
func IterationCommand(cmd Command, chk Chunk) Command {
	return cmd.With("--iteration", strconv.Itoa(chk.Iteration))
}

// ChunkTitle returns a title for a chunk task of a node.
func ChunkTitle(name string, chk Chunk) string {
	return fmt.Sprintf("%s_%d_%d", name, chk.Start, chk.End)
}

func copyTags(tags map[string]string) (map[string]string, error) {
	m := make(map[string]string, len(tags)+2)
	for k, v := range tags {
		if k == "" {
			return nil, fmt.Errorf("empty tag key (value %q)", v)
		}
		m[k] = v
	}
	return m, nil
}

func withIteration(meta map[string]string, iteration int) map[string]string {
	m := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		m[k] = v
	}
	m["iteration"] = strconv.Itoa(iteration)
	return m
}
