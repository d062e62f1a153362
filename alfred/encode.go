package alfred

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/imagvfx/cook/farm"
)

// Header is the first line of an Alfred script.
const Header = "##AlfredToDo 3.0"

// ErrMultiline indicates a record that cannot be written in a single line.
var ErrMultiline = errors.New("alfred: record spans multiple lines")

const indent = "    "

type encoder struct {
	b       strings.Builder
	oneLine bool
	depth   int

	// seen are tasks written already.
	// A task is written once, and referenced by Instance afterwards.
	seen map[*farm.Task]bool
}

func newEncoder(oneLine bool) *encoder {
	return &encoder{oneLine: oneLine, seen: make(map[*farm.Task]bool)}
}

func (e *encoder) write(s ...string) {
	for _, v := range s {
		e.b.WriteString(v)
	}
}

// newline starts a new line with indentation,
// or just puts a space in one line mode.
func (e *encoder) newline() {
	if e.oneLine {
		e.b.WriteByte(' ')
		return
	}
	e.b.WriteByte('\n')
	e.b.WriteString(strings.Repeat(indent, e.depth))
}

// open writes an option whose value is a block.
func (e *encoder) open(opt string) {
	e.write(" ", opt, " {")
	e.depth++
}

func (e *encoder) close() {
	e.depth--
	e.newline()
	e.write("}")
}

func (e *encoder) opt(name, value string) {
	e.write(" ", name, " ", Quote(value))
}

func (e *encoder) optList(name string, values []string) {
	if len(values) == 0 {
		return
	}
	e.write(" ", name, " ", List(values))
}

func (e *encoder) flag(name string, on bool) {
	if on {
		e.write(" ", name, " 1")
	}
}

func (e *encoder) metadata(meta map[string]string) error {
	if len(meta) == 0 {
		return nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	e.opt("-metadata", string(b))
	return nil
}

func (e *encoder) task(t *farm.Task) error {
	if e.seen[t] {
		ref := string(t.ID)
		if ref == "" {
			ref = t.Title
		}
		e.write("Instance ", Quote(ref))
		return nil
	}
	e.seen[t] = true
	e.write("Task")
	e.opt("-title", t.Title)
	if t.ID != "" {
		e.opt("-id", string(t.ID))
	}
	if t.Service != "" {
		e.opt("-service", t.Service)
	}
	if err := e.metadata(t.Metadata); err != nil {
		return fmt.Errorf("task %v: %w", t.Title, err)
	}
	e.flag("-serialsubtasks", t.SerialSubtasks)
	if err := e.subtasks(t.Subtasks); err != nil {
		return err
	}
	e.cmds(t.Cmds)
	return nil
}

func (e *encoder) subtasks(subs []*farm.Task) error {
	if len(subs) == 0 {
		return nil
	}
	e.open("-subtasks")
	for _, sub := range subs {
		e.newline()
		if err := e.task(sub); err != nil {
			return err
		}
	}
	e.close()
	return nil
}

func (e *encoder) cmds(cmds []*farm.Cmd) {
	n := 0
	for _, c := range cmds {
		if len(c.Argv) != 0 {
			n++
		}
	}
	if n == 0 {
		return
	}
	e.open("-cmds")
	for _, c := range cmds {
		if len(c.Argv) == 0 {
			continue
		}
		e.newline()
		e.write("RemoteCmd ", List(c.Argv))
		if c.Service != "" {
			e.opt("-service", c.Service)
		}
		e.optList("-tags", c.Tags)
		e.optList("-envkey", c.EnvKey)
		e.flag("-expand", c.Expand)
	}
	e.close()
}

// EncodeTask encodes a task and its subtasks as a single line record.
// The line doesn't have the trailing newline.
// It returns ErrMultiline if one of the values has a line break.
func EncodeTask(t *farm.Task) (string, error) {
	e := newEncoder(true)
	err := e.task(t)
	if err != nil {
		return "", err
	}
	line := e.b.String()
	if strings.ContainsAny(line, "\r\n") {
		return "", ErrMultiline
	}
	return line, nil
}

// EncodeJob writes a job as a script, header included.
func EncodeJob(w io.Writer, j *farm.Job) error {
	if j == nil || j.Task == nil {
		return fmt.Errorf("encode job: nil job")
	}
	e := newEncoder(false)
	e.seen[j.Task] = true
	e.write(Header, "\n")
	e.write("Job")
	e.opt("-title", j.Title)
	if j.ID != "" {
		e.opt("-id", string(j.ID))
	}
	e.write(" -priority ", strconv.Itoa(j.Priority))
	if j.Service != "" {
		e.opt("-service", j.Service)
	}
	e.optList("-envkey", j.EnvKey)
	e.optList("-projects", j.Projects)
	if j.Comment != "" {
		e.opt("-comment", j.Comment)
	}
	if j.SpoolCwd != "" {
		e.opt("-spoolcwd", j.SpoolCwd)
	}
	e.flag("-paused", j.Paused)
	if err := e.metadata(j.Metadata); err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	e.flag("-serialsubtasks", j.SerialSubtasks)
	if err := e.subtasks(j.Subtasks); err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	e.cmds(j.Cmds)
	e.write("\n")
	_, err := io.WriteString(w, e.b.String())
	return err
}
