package farm

import (
	"encoding/json"
	"reflect"
	"testing"
)

func newTestJob() *Job {
	j := NewJob("root")
	j.SerialSubtasks = true
	sim := j.NewTask("sim")
	sim.SerialSubtasks = true
	sim.NewTask("ocean")
	sim.NewTask("foam")
	render := j.NewTask("render")
	diffuse := render.NewTask("diffuse")
	diffuse.NewTask("1").AddCmd(&Cmd{Argv: []string{"render", "diffuse", "1"}, Tags: []string{"arnold"}})
	diffuse.NewTask("2").AddCmd(&Cmd{Argv: []string{"render", "diffuse", "2"}, Tags: []string{"arnold"}})
	reflection := render.NewTask("reflection")
	reflection.NewTask("1")
	// sim should be finished before reflection renders.
	reflection.AddChild(sim)
	return j.Init()
}

func TestInitJob(t *testing.T) {
	j := newTestJob()
	got := []string{}
	for _, t := range j.Tasks() {
		got = append(got, t.Title)
	}
	want := []string{
		"root",
		"sim",
		"ocean",
		"foam",
		"render",
		"diffuse",
		"1",
		"2",
		"reflection",
		"1",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	seen := make(map[TaskID]bool)
	for i, task := range j.Tasks() {
		if task.ID == "" {
			t.Fatalf("task %v: empty id", i)
		}
		if seen[task.ID] {
			t.Fatalf("task %v: duplicated id: %v", i, task.ID)
		}
		seen[task.ID] = true
		if task.Num() != i {
			t.Fatalf("task %v: num: got %v", i, task.Num())
		}
	}
}

func TestValidateJob(t *testing.T) {
	j := NewJob("")
	err := j.Validate()
	if err == nil {
		t.Fatalf("job without a subtask should be invalid")
	}
	j.NewTask("a")
	err = j.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if j.Title != "untitled" {
		t.Fatalf("got %v, want untitled", j.Title)
	}
}

func TestPriorityFromName(t *testing.T) {
	cases := map[string]int{
		"low":    4000,
		"normal": 5000,
		"high":   10000,
		"":       5000,
		"urgent": 5000,
	}
	for name, want := range cases {
		if got := PriorityFromName(name); got != want {
			t.Fatalf("%q: got %v, want %v", name, got, want)
		}
	}
}

func TestJobJSON(t *testing.T) {
	j := newTestJob()
	j.EnvKey = []string{"setenv FARM_USER=artist"}
	j.Comment = "test"
	b, err := json.Marshal(j)
	if err != nil {
		t.Fatal(err)
	}
	got := &Job{}
	err = json.Unmarshal(b, got)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Tasks()) != len(j.Tasks()) {
		t.Fatalf("tasks: got %v, want %v", len(got.Tasks()), len(j.Tasks()))
	}
	for i := range j.Tasks() {
		err := ShouldEqualTask(got.Tasks()[i], j.Tasks()[i])
		if err != nil {
			t.Fatalf("task %v: %v", i, err)
		}
	}
	reflection := got.Subtasks[1].Subtasks[1]
	if reflection.Subtasks[1] != got.Subtasks[0] {
		t.Fatalf("reflection should share sim task after unmarshal")
	}
	if !reflect.DeepEqual(got.EnvKey, j.EnvKey) || got.Comment != j.Comment || got.Priority != j.Priority {
		t.Fatalf("job fields: got %+v, want %+v", got, j)
	}
}

func TestJobJSONNotInitialized(t *testing.T) {
	j := NewJob("a")
	j.NewTask("b")
	_, err := json.Marshal(j)
	if err == nil {
		t.Fatalf("want error")
	}
}

func TestJobJSONUnknownInstance(t *testing.T) {
	b := []byte(`{"Root": {"ID": "a", "Subtasks": [{"Instance": "z"}]}, "Priority": 5000}`)
	err := json.Unmarshal(b, &Job{})
	if err == nil {
		t.Fatalf("want error")
	}
}
