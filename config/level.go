package config

import (
	"fmt"
	"strings"
)

// Level is how much of a resource a task needs.
type Level int

const (
	LevelScript = Level(-1)
	LevelNone   = Level(iota - 1)
	LevelNormal
	LevelIntensive
	LevelExtreme
)

var levelNames = map[Level]string{
	LevelScript:    "SCRIPT",
	LevelNone:      "NONE",
	LevelNormal:    "NORMAL",
	LevelIntensive: "INTENSIVE",
	LevelExtreme:   "EXTREME",
}

func (l Level) String() string {
	s, ok := levelNames[l]
	if !ok {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return s
}

// ParseLevel parses a level name. Empty name is LevelNone.
func ParseLevel(name string) (Level, error) {
	if name == "" {
		return LevelNone, nil
	}
	name = strings.ToUpper(name)
	for l, s := range levelNames {
		if s == name {
			return l, nil
		}
	}
	return LevelNone, fmt.Errorf("unknown level: %v", name)
}

// Requirements are resource levels a task needs.
type Requirements struct {
	CPU string `toml:"cpu" yaml:"cpu" validate:"omitempty,oneof=NONE NORMAL INTENSIVE EXTREME SCRIPT none normal intensive extreme script"`
	RAM string `toml:"ram" yaml:"ram" validate:"omitempty,oneof=NONE NORMAL INTENSIVE EXTREME none normal intensive extreme"`
	GPU string `toml:"gpu" yaml:"gpu" validate:"omitempty,oneof=NONE NORMAL INTENSIVE EXTREME none normal intensive extreme"`

	// ExcludeHosts are hosts the task shouldn't run on.
	ExcludeHosts []string `toml:"excludeHosts" yaml:"excludeHosts"`
}

// LevelConfig maps levels to service expressions, for a kind of blades.
type LevelConfig struct {
	Levels map[string]string `toml:"levels" validate:"required"`
	RAM    map[string]string `toml:"ram"`
}

// LevelTable finds a service expression for requirements.
type LevelTable struct {
	// Script is the service for light single thread tasks.
	Script string      `toml:"script" validate:"required"`
	CPU    LevelConfig `toml:"cpu"`
	GPU    LevelConfig `toml:"gpu"`
}

// Service returns a service expression matches the requirements.
// A GPU requirement takes precedence over a CPU requirement.
func (t LevelTable) Service(r Requirements) (string, error) {
	cpu, err := ParseLevel(r.CPU)
	if err != nil {
		return "", fmt.Errorf("cpu: %w", err)
	}
	ram, err := ParseLevel(r.RAM)
	if err != nil {
		return "", fmt.Errorf("ram: %w", err)
	}
	gpu, err := ParseLevel(r.GPU)
	if err != nil {
		return "", fmt.Errorf("gpu: %w", err)
	}
	if cpu == LevelScript && gpu <= LevelNone {
		return t.Script, nil
	}
	if ram == LevelScript || gpu == LevelScript {
		return "", fmt.Errorf("script level is only for cpu")
	}
	cfg := t.CPU
	level := cpu
	if gpu > LevelNone {
		cfg = t.GPU
		level = gpu
	}
	service, ok := cfg.Levels[level.String()]
	if !ok {
		return "", fmt.Errorf("level not configured: %v", level)
	}
	parts := []string{service}
	if rs := cfg.RAM[ram.String()]; rs != "" {
		parts = append(parts, rs)
	}
	for _, h := range r.ExcludeHosts {
		if h != "" {
			parts = append(parts, "!"+h)
		}
	}
	return strings.Join(parts, ","), nil
}
