package expand

import (
	"strconv"

	"github.com/imagvfx/cook"
	"github.com/imagvfx/cook/alfred"
	"github.com/imagvfx/cook/farm"
)

// Record is a subtask a running task declares.
// The farm adds it as a child of the running task.
type Record struct {
	Title   string
	Argv    []string
	Service string

	// Limits are limit tags the subtask consumes.
	Limits []string

	Metadata map[string]string

	// EnvKey are the farm's env key entries, see cook.EnvKey.
	EnvKey []string
}

// Task converts the record to a farm task.
func (r Record) Task() *farm.Task {
	t := farm.NewTask(r.Title)
	t.Service = r.Service
	t.Metadata = r.Metadata
	t.AddCmd(&farm.Cmd{
		Argv:    r.Argv,
		Service: r.Service,
		Tags:    r.Limits,
		EnvKey:  r.EnvKey,
	})
	return t
}

// Encode encodes the record as a line, without the trailing newline.
func (r Record) Encode() (string, error) {
	return alfred.EncodeTask(r.Task())
}

// ChunkSpec describes work a running task splits into chunks.
type ChunkSpec struct {
	// Name is a prefix of the chunk titles.
	Name string

	// Command is run once per chunk, with the chunk's iteration.
	Command cook.Command

	Params  cook.ChunkParams
	Service string
	Limits  []string

	// Metadata is copied to every chunk, with the chunk's iteration added.
	Metadata map[string]string

	Env map[string]string
}

// Records returns a record per planned chunk.
// It follows the naming the compiler uses for chunks known ahead.
func (s ChunkSpec) Records() []Record {
	chunks := s.Params.Plan()
	recs := make([]Record, 0, len(chunks))
	envKey := cook.EnvKey(s.Env)
	for _, chk := range chunks {
		meta := make(map[string]string, len(s.Metadata)+1)
		for k, v := range s.Metadata {
			meta[k] = v
		}
		meta["iteration"] = strconv.Itoa(chk.Iteration)
		recs = append(recs, Record{
			Title:    cook.ChunkTitle(s.Name, chk),
			Argv:     cook.IterationCommand(s.Command, chk),
			Service:  s.Service,
			Limits:   s.Limits,
			Metadata: meta,
			EnvKey:   envKey,
		})
	}
	return recs
}
