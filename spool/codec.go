package spool

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/imagvfx/cook/farm"
	"github.com/imagvfx/cook/service"
)

// jobToStruct converts an initialized job to a message.
func jobToStruct(j *farm.Job) (*structpb.Struct, error) {
	return toStruct(j)
}

// jobFromStruct converts a message back to a job.
func jobFromStruct(s *structpb.Struct) (*farm.Job, error) {
	j := &farm.Job{}
	err := fromStruct(s, j)
	if err != nil {
		return nil, err
	}
	return j, nil
}

// serviceJob converts an initialized job to a database record.
func serviceJob(j *farm.Job) (*service.Job, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	sj := &service.Job{
		ID:       string(j.ID),
		Title:    j.Title,
		Owner:    j.Owner,
		Service:  j.Service,
		Priority: j.Priority,
		Paused:   j.Paused,
		Data:     string(data),
	}
	var walkErr error
	farm.Walk(j.Task, func(t, parent *farm.Task) bool {
		cmds, err := json.Marshal(t.Cmds)
		if err != nil {
			walkErr = fmt.Errorf("task %v: %w", t.Title, err)
			return false
		}
		parentNum := -1
		if parent != nil {
			parentNum = parent.Num()
		}
		sj.Tasks = append(sj.Tasks, &service.Task{
			Num:            t.Num(),
			ParentNum:      parentNum,
			ID:             string(t.ID),
			Title:          t.Title,
			Service:        t.Service,
			SerialSubtasks: t.SerialSubtasks,
			Commands:       string(cmds),
			Expand:         t.Expands(),
		})
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return sj, nil
}

// JobInfo is a summary of a spooled job.
type JobInfo struct {
	Order    int    `json:"order"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Owner    string `json:"owner"`
	Service  string `json:"service"`
	Priority int    `json:"priority"`
	Paused   bool   `json:"paused"`
	Tasks    int    `json:"tasks"`
}

func jobInfo(j *service.Job) JobInfo {
	return JobInfo{
		Order:    j.Order,
		ID:       j.ID,
		Title:    j.Title,
		Owner:    j.Owner,
		Service:  j.Service,
		Priority: j.Priority,
		Paused:   j.Paused,
		Tasks:    len(j.Tasks),
	}
}

// toStruct converts a json serializable value to a message.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	err = protojson.Unmarshal(b, s)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// fromStruct converts a message to a json deserializable value.
func fromStruct(s *structpb.Struct, v any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
