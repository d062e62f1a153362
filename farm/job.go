package farm

import (
	"encoding/json"
	"fmt"

	"github.com/rs/xid"
)

// Priorities the farm knows by name.
const (
	PriorityLow    = 4000
	PriorityNormal = 5000
	PriorityHigh   = 10000
)

// PriorityFromName converts a priority name to its value.
// Unknown names are treated as normal priority.
func PriorityFromName(name string) int {
	p, ok := map[string]int{
		"low":    PriorityLow,
		"normal": PriorityNormal,
		"high":   PriorityHigh,
	}[name]
	if !ok {
		return PriorityNormal
	}
	return p
}

// Job is a job, user sends to the farm to run.
type Job struct {
	// Job is a Task.
	// Some of the Task's field should be explained in Job's context.
	//
	// Task.Title is human readable title for job.
	//
	// Task.Service is the default service of all the job's tasks.
	//
	// Task.Subtasks are top level tasks of the job.
	*Task

	// Priority sets the job's priority.
	// Higher values take precedence to lower values.
	Priority int

	// EnvKey are environment entries applied to all the job's commands.
	EnvKey []string

	// Comment is a free form comment shown with the job.
	Comment string

	// Paused makes the job wait until a user resumes it.
	Paused bool

	// Projects are shares the job is accounted to.
	Projects []string

	// SpoolCwd is the working directory of the job's commands.
	SpoolCwd string

	// Owner is a user who owns the job.
	Owner string

	// tasks are all distinct tasks of the job, in walk order.
	// It is filled by Init.
	tasks []*Task
}

// NewJob creates a new Job.
func NewJob(title string) *Job {
	return &Job{
		Task:     NewTask(title),
		Priority: PriorityNormal,
		SpoolCwd: "/tmp",
	}
}

// Validate validates a Job before it is sent to the farm.
func (j *Job) Validate() error {
	if j.Task == nil {
		return fmt.Errorf("a job should have a root task")
	}
	if len(j.Subtasks) == 0 {
		return fmt.Errorf("a job should have at least one subtask")
	}
	if j.Title == "" {
		j.Title = "untitled"
	}
	return nil
}

// Init inits the job's tasks.
// It gives every distinct task an id and a walk order number.
// Init returns unmodified pointer of the job, for in case
// when user wants to directly assign to a variable.
func (j *Job) Init() *Job {
	j.tasks = j.tasks[:0]
	Walk(j.Task, func(t, parent *Task) bool {
		if t.ID == "" {
			t.ID = TaskID(xid.New().String())
		}
		if t.Title == "" {
			t.Title = "untitled"
		}
		t.num = len(j.tasks)
		j.tasks = append(j.tasks, t)
		return true
	})
	return j
}

// Tasks returns all distinct tasks of the job in walk order, including the job itself.
// It is valid only after Init.
func (j *Job) Tasks() []*Task {
	tasks := make([]*Task, len(j.tasks))
	copy(tasks, j.tasks)
	return tasks
}

// jsonCmd is a json representation of Cmd.
type jsonCmd struct {
	Argv    []string
	Service string   `json:",omitempty"`
	Tags    []string `json:",omitempty"`
	EnvKey  []string `json:",omitempty"`
	Expand  bool     `json:",omitempty"`
}

// jsonTask is a json representation of Task.
// A task appeared earlier in the walk is written as an Instance of it.
type jsonTask struct {
	Instance       TaskID            `json:",omitempty"`
	ID             TaskID            `json:",omitempty"`
	Title          string            `json:",omitempty"`
	Service        string            `json:",omitempty"`
	Metadata       map[string]string `json:",omitempty"`
	SerialSubtasks bool              `json:",omitempty"`
	Cmds           []*jsonCmd        `json:",omitempty"`
	Subtasks       []*jsonTask       `json:",omitempty"`
}

type jsonJob struct {
	Root     *jsonTask
	Priority int
	EnvKey   []string `json:",omitempty"`
	Comment  string   `json:",omitempty"`
	Paused   bool     `json:",omitempty"`
	Projects []string `json:",omitempty"`
	SpoolCwd string   `json:",omitempty"`
	Owner    string   `json:",omitempty"`
}

func toJSONTask(t *Task, seen map[*Task]bool) *jsonTask {
	if seen[t] {
		return &jsonTask{Instance: t.ID}
	}
	seen[t] = true
	jt := &jsonTask{
		ID:             t.ID,
		Title:          t.Title,
		Service:        t.Service,
		Metadata:       t.Metadata,
		SerialSubtasks: t.SerialSubtasks,
	}
	for _, c := range t.Cmds {
		jt.Cmds = append(jt.Cmds, &jsonCmd{
			Argv:    c.Argv,
			Service: c.Service,
			Tags:    c.Tags,
			EnvKey:  c.EnvKey,
			Expand:  c.Expand,
		})
	}
	for _, sub := range t.Subtasks {
		jt.Subtasks = append(jt.Subtasks, toJSONTask(sub, seen))
	}
	return jt
}

// MarshalJSON implements json.Marshaler interface.
// The job should be initialized, as instances are referenced by their ids.
func (j *Job) MarshalJSON() ([]byte, error) {
	if j.Task == nil || j.ID == "" {
		return nil, fmt.Errorf("marshal job: job isn't initialized")
	}
	m := jsonJob{
		Root:     toJSONTask(j.Task, make(map[*Task]bool)),
		Priority: j.Priority,
		EnvKey:   j.EnvKey,
		Comment:  j.Comment,
		Paused:   j.Paused,
		Projects: j.Projects,
		SpoolCwd: j.SpoolCwd,
		Owner:    j.Owner,
	}
	return json.Marshal(m)
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *Job) UnmarshalJSON(b []byte) error {
	m := jsonJob{}
	err := json.Unmarshal(b, &m)
	if err != nil {
		return err
	}
	if m.Root == nil {
		return fmt.Errorf("unmarshal job: no root task")
	}
	byID := make(map[TaskID]*Task)
	root, err := fromJSONTask(m.Root, byID)
	if err != nil {
		return err
	}
	err = linkInstances(root, m.Root, byID)
	if err != nil {
		return err
	}
	*j = Job{
		Task:     root,
		Priority: m.Priority,
		EnvKey:   m.EnvKey,
		Comment:  m.Comment,
		Paused:   m.Paused,
		Projects: m.Projects,
		SpoolCwd: m.SpoolCwd,
		Owner:    m.Owner,
	}
	j.Init()
	return nil
}

// fromJSONTask creates tasks from a json task, except instances.
func fromJSONTask(jt *jsonTask, byID map[TaskID]*Task) (*Task, error) {
	t := NewTask(jt.Title)
	t.ID = jt.ID
	t.Service = jt.Service
	t.Metadata = jt.Metadata
	t.SerialSubtasks = jt.SerialSubtasks
	for _, c := range jt.Cmds {
		t.Cmds = append(t.Cmds, &Cmd{
			Argv:    c.Argv,
			Service: c.Service,
			Tags:    c.Tags,
			EnvKey:  c.EnvKey,
			Expand:  c.Expand,
		})
	}
	if t.ID != "" {
		if _, ok := byID[t.ID]; ok {
			return nil, fmt.Errorf("unmarshal job: duplicated task id: %v", t.ID)
		}
		byID[t.ID] = t
	}
	for _, sub := range jt.Subtasks {
		if sub.Instance != "" {
			continue
		}
		st, err := fromJSONTask(sub, byID)
		if err != nil {
			return nil, err
		}
		t.Subtasks = append(t.Subtasks, st)
	}
	return t, nil
}

// linkInstances puts instance subtasks back to their places.
// It keeps the subtasks order of the json task.
func linkInstances(t *Task, jt *jsonTask, byID map[TaskID]*Task) error {
	subs := make([]*Task, 0, len(jt.Subtasks))
	i := 0
	for _, sub := range jt.Subtasks {
		if sub.Instance != "" {
			it, ok := byID[sub.Instance]
			if !ok {
				return fmt.Errorf("unmarshal job: unknown instance: %v", sub.Instance)
			}
			subs = append(subs, it)
			continue
		}
		st := t.Subtasks[i]
		i++
		err := linkInstances(st, sub, byID)
		if err != nil {
			return err
		}
		subs = append(subs, st)
	}
	t.Subtasks = subs
	return nil
}
