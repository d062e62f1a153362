package farm

import (
	"fmt"
	"reflect"
)

// ShouldEqualTask checks that given two tasks are equal and raises an error
// about which parts are different between two.
// It considers the first is 'got' and the second is 'want'.
// It's doesn't compare pointer to pointer directly, but their values.
// Subtasks are compared by their ids.
func ShouldEqualTask(got, want *Task) error {
	if got == nil && want == nil {
		return nil
	}
	if got == nil {
		return fmt.Errorf("only got is nil")
	}
	if want == nil {
		return fmt.Errorf("only want is nil")
	}
	if got.ID != want.ID {
		return fmt.Errorf("ID: got %v, want %v", got.ID, want.ID)
	}
	if got.num != want.num {
		return fmt.Errorf("num: got %v, want %v", got.num, want.num)
	}
	if got.Title != want.Title {
		return fmt.Errorf("Title: got %v, want %v", got.Title, want.Title)
	}
	if got.Service != want.Service {
		return fmt.Errorf("Service: got %v, want %v", got.Service, want.Service)
	}
	if got.SerialSubtasks != want.SerialSubtasks {
		return fmt.Errorf("SerialSubtasks: got %v, want %v", got.SerialSubtasks, want.SerialSubtasks)
	}
	if len(got.Metadata) != 0 || len(want.Metadata) != 0 {
		if !reflect.DeepEqual(got.Metadata, want.Metadata) {
			return fmt.Errorf("Metadata: got %v, want %v", got.Metadata, want.Metadata)
		}
	}
	if len(got.Subtasks) != len(want.Subtasks) {
		return fmt.Errorf("len(Subtasks): got %v, want %v", len(got.Subtasks), len(want.Subtasks))
	}
	for i := range got.Subtasks {
		if got.Subtasks[i].ID != want.Subtasks[i].ID {
			return fmt.Errorf("Subtasks[%v]: got %v, want %v", i, got.Subtasks[i].ID, want.Subtasks[i].ID)
		}
	}
	if len(got.Cmds) != len(want.Cmds) {
		return fmt.Errorf("len(Cmds): got %v, want %v", len(got.Cmds), len(want.Cmds))
	}
	for i := range got.Cmds {
		if !reflect.DeepEqual(got.Cmds[i], want.Cmds[i]) {
			return fmt.Errorf("Cmds[%v]: got %+v, want %+v", i, got.Cmds[i], want.Cmds[i])
		}
	}
	return nil
}
