package farm

import (
	"sort"
)

// TaskID is a Task identifier make it distinct from all other tasks.
// It is empty until the task's job is initialized.
type TaskID string

// Cmd is a command to be run in a farm blade.
type Cmd struct {
	// Argv is the executable and its arguments.
	// A Cmd having empty Argv will be skipped.
	Argv []string

	// Service overrides the task's service for this command.
	Service string

	// Tags are limit tags the command consumes while it runs.
	Tags []string

	// EnvKey are environment entries applied to the command.
	EnvKey []string

	// Expand makes the farm read the command's stdout after it finished,
	// and add the tasks it declared as subtasks of the command's task.
	Expand bool
}

// Task has commands and/or subtasks that will be run by the farm.
//
// Subtasks run before their parent's commands.
// A task can be a subtask of more than one task. The farm runs it only once,
// and every parent waits for it.
type Task struct {
	// ID is set when the job is initialized.
	ID TaskID

	// Title is human readable title for task.
	// Empty Title will be changed to "untitled" at initialization.
	Title string

	// Service is a blade selection expression.
	// Empty Service inherits the job's service.
	Service string

	// Metadata is key/value information attached to the task.
	Metadata map[string]string

	// Subtasks contains subtasks to be run before the task's commands.
	// Subtasks could be nil or empty.
	Subtasks []*Task

	// When true, a subtask will be launched after the prior task finished.
	// When false, subtasks will be launched in parallel.
	SerialSubtasks bool

	// Cmds are guaranteed that they run serially.
	Cmds []*Cmd

	// num is the task's walk order in its job.
	num int
}

// NewTask creates a new task.
func NewTask(title string) *Task {
	return &Task{Title: title, num: -1}
}

// NewTask creates a new task and adds it as a subtask of t.
func (t *Task) NewTask(title string) *Task {
	sub := NewTask(title)
	t.AddChild(sub)
	return sub
}

// AddChild adds a subtask to t.
// It does nothing when the subtask is already a direct child of t.
func (t *Task) AddChild(sub *Task) {
	for _, s := range t.Subtasks {
		if s == sub {
			return
		}
	}
	t.Subtasks = append(t.Subtasks, sub)
}

// AddCmd adds a command to t.
func (t *Task) AddCmd(c *Cmd) {
	t.Cmds = append(t.Cmds, c)
}

// IsLeaf indicates whether the task doesn't have subtasks.
func (t *Task) IsLeaf() bool {
	return len(t.Subtasks) == 0
}

// Expands indicates whether one of the task's commands declares new subtasks.
func (t *Task) Expands() bool {
	for _, c := range t.Cmds {
		if c.Expand {
			return true
		}
	}
	return false
}

// Num returns the task's walk order in its job.
// It is -1 for a task not initialized yet.
func (t *Task) Num() int {
	return t.num
}

// MetadataKeys returns keys of the metadata in sorted order.
func (t *Task) MetadataKeys() []string {
	keys := make([]string, 0, len(t.Metadata))
	for k := range t.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Walk walks t and its subtasks in depth first order.
// A task reached from multiple parents is visited once,
// at the first time it is reached.
// When fn returns false, the task's subtasks will be skipped.
func Walk(t *Task, fn func(t, parent *Task) bool) {
	seen := make(map[*Task]bool)
	walk(t, nil, seen, fn)
}

func walk(t, parent *Task, seen map[*Task]bool, fn func(t, parent *Task) bool) {
	if seen[t] {
		return
	}
	seen[t] = true
	if !fn(t, parent) {
		return
	}
	for _, sub := range t.Subtasks {
		walk(sub, t, seen, fn)
	}
}
