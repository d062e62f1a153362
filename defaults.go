package cook

import (
	"os"
	"strings"
)

// Environment variables the programs read.
const (
	// EnvSubtaskFD carries the expansion channel's file descriptor number
	// from the wrapper to the worker.
	EnvSubtaskFD = "COOK_SUBTASK_FD"

	EnvDefaultService = "COOK_DEFAULT_SERVICE"
	EnvDefaultLimit   = "COOK_DEFAULT_LIMIT"
	EnvPackageBin     = "COOK_PACKAGE_BIN"
	EnvWrapper        = "COOK_WRAPPER"
	EnvFarmUser       = "FARM_USER"
)

// DefaultLicenses maps license names to the farm's limit tags,
// for the licenses whose names differ from their tags.
var DefaultLicenses = map[string]string{
	"mtoa":     "arnold",
	"houdiniE": "houdinie",
}

// Defaults are values the compiler falls back to.
type Defaults struct {
	// Service is used for a job or node without a requirement.
	Service string

	// Limit is a limit tag added to every task.
	Limit string

	// Licenses translates license names to limit tags.
	// Names not in Licenses are used as tags directly.
	Licenses map[string]string

	// WrapperArgv is a command that supervises expanding tasks.
	WrapperArgv Command

	// ExpanderArgv is put in front of an expanding node's command.
	// The node's command declares the subtasks by itself when it is empty.
	ExpanderArgv Command

	// PackageBin resolves environment packages of a node before its command.
	PackageBin string
}

// DefaultsFromEnv creates Defaults from environment variables.
func DefaultsFromEnv() Defaults {
	d := Defaults{
		Service:     os.Getenv(EnvDefaultService),
		Limit:       os.Getenv(EnvDefaultLimit),
		Licenses:    DefaultLicenses,
		WrapperArgv: Command{"cookwrap"},
		PackageBin:  "rez",
	}
	if w := os.Getenv(EnvWrapper); w != "" {
		d.WrapperArgv = Command(strings.Fields(w))
	}
	if bin := os.Getenv(EnvPackageBin); bin != "" {
		d.PackageBin = bin
	}
	return d
}

// ServiceFor returns the requirement when it is set, or the default service.
func (d Defaults) ServiceFor(requirement string) (string, error) {
	if requirement != "" {
		return requirement, nil
	}
	if d.Service == "" {
		return "", ErrNoService
	}
	return d.Service, nil
}

// Limits converts license names into limit tags, and adds the default limit.
func (d Defaults) Limits(licenses []string) []string {
	limits := make([]string, 0, len(licenses)+1)
	for _, l := range licenses {
		if tag, ok := d.Licenses[l]; ok {
			l = tag
		}
		limits = append(limits, l)
	}
	if d.Limit != "" {
		limits = append(limits, d.Limit)
	}
	return limits
}

// WrapPackages makes cmd run in a resolved environment of the packages.
// It returns cmd as is when there is no package.
func (d Defaults) WrapPackages(packages []string, cmd Command) Command {
	pkgs := make([]string, 0, len(packages))
	for _, p := range packages {
		if p != "" {
			pkgs = append(pkgs, p)
		}
	}
	if len(pkgs) == 0 {
		return cmd
	}
	bin := d.PackageBin
	if bin == "" {
		bin = "rez"
	}
	prefix := Command{bin, "env"}
	prefix = prefix.With(pkgs...)
	prefix = prefix.With("--")
	return cmd.Prefix(prefix...)
}
