package cook

import (
	"sort"
	"strings"
)

// Command is a command to be run in a farm blade.
// First string is the executable and others are arguments.
type Command []string

// With returns a new Command that has extra args appended.
// c itself is not changed.
func (c Command) With(args ...string) Command {
	cmd := make(Command, 0, len(c)+len(args))
	cmd = append(cmd, c...)
	return append(cmd, args...)
}

// Prefix returns a new Command that runs c through the prefix.
func (c Command) Prefix(prefix ...string) Command {
	cmd := make(Command, 0, len(c)+len(prefix))
	cmd = append(cmd, prefix...)
	return append(cmd, c...)
}

// IsEmpty checks whether the command has nothing to run.
func (c Command) IsEmpty() bool {
	return len(c) == 0 || c[0] == ""
}

func (c Command) String() string {
	return strings.Join(c, " ")
}

// EnvKey converts environment variables to the farm's env key entries.
// Entries are sorted by the variable name.
func EnvKey(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]string, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, "setenv "+k+"="+env[k])
	}
	return entries
}
