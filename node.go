package cook

import "fmt"

// Kind is a kind of a node.
// A node is exactly one of the kinds.
type Kind int

const (
	// KindSimple node runs its command once.
	KindSimple = Kind(iota)

	// KindChunked node knows its range when it is compiled,
	// and runs its command once per chunk.
	KindChunked

	// KindExpanding node learns how to split its work only when it runs.
	// It declares the subtasks to the farm by itself.
	KindExpanding
)

// String represents Kind as string.
func (k Kind) String() string {
	s, ok := map[Kind]string{
		KindSimple:    "simple",
		KindChunked:   "chunked",
		KindExpanding: "expanding",
	}[k]
	if !ok {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return s
}

// Node is a unit of work in a Graph.
type Node struct {
	// ID identifies the node in a graph.
	// Nodes having the same ID are considered as the same node.
	ID string

	// Name is human readable name of the node.
	// ID will be used instead, when it is empty.
	Name string

	// Command is the payload to run.
	Command Command

	// Requirement is a service expression that selects farm blades for the node.
	// It is passed to the farm as is.
	// Empty Requirement falls back to the compiler's default service.
	Requirement string

	// Env is environment variables to set for the node's commands.
	Env map[string]string

	// Licenses are license names the node consumes.
	// They are translated to farm limit tags.
	Licenses []string

	// Tags are metadata attached to the node's tasks.
	Tags map[string]string

	// Packages are environment packages that should be resolved
	// before running the command.
	Packages []string

	kind   Kind
	chunks *ChunkParams
}

// NewSimpleNode creates a node that runs cmd once.
func NewSimpleNode(id, name string, cmd Command) *Node {
	return &Node{ID: id, Name: name, Command: cmd, kind: KindSimple}
}

// NewChunkedNode creates a node that runs cmd once per chunk of p.
func NewChunkedNode(id, name string, cmd Command, p ChunkParams) *Node {
	return &Node{ID: id, Name: name, Command: cmd, kind: KindChunked, chunks: &p}
}

// NewExpandingNode creates a node that declares its chunks at runtime.
func NewExpandingNode(id, name string, cmd Command) *Node {
	return &Node{ID: id, Name: name, Command: cmd, kind: KindExpanding}
}

// Kind returns the node's kind.
func (n *Node) Kind() Kind {
	return n.kind
}

// ChunkParams returns the node's chunk params.
// The second return value is false, when the node isn't a chunked node.
func (n *Node) ChunkParams() (ChunkParams, bool) {
	if n.kind != KindChunked || n.chunks == nil {
		return ChunkParams{}, false
	}
	return *n.chunks, true
}

// Chunks returns planned chunks of a chunked node.
// Other kinds of node, or a chunked node with a malformed range returns nil.
func (n *Node) Chunks() []Chunk {
	p, ok := n.ChunkParams()
	if !ok {
		return nil
	}
	return p.Plan()
}

// Title returns the node's display name.
func (n *Node) Title() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

func (n *Node) String() string {
	return fmt.Sprintf("<%s node %s %s>", n.kind, n.Title(), n.ID)
}
