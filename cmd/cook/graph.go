package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/imagvfx/cook"
	"github.com/imagvfx/cook/config"
	"github.com/imagvfx/cook/farm"
)

// graphFile is a job graph written by a user.
// JSON is also accepted, as it is a subset of YAML.
type graphFile struct {
	Title    string            `yaml:"title"`
	Service  string            `yaml:"service"`
	Priority string            `yaml:"priority" validate:"omitempty,oneof=low normal high"`
	Tags     map[string]string `yaml:"tags"`
	Env      map[string]string `yaml:"env"`
	User     string            `yaml:"user"`
	Comment  string            `yaml:"comment"`
	Paused   bool              `yaml:"paused"`
	Projects []string          `yaml:"projects"`

	Nodes []*nodeFile `yaml:"nodes" validate:"dive,required"`
	// Edges are [parent, child] pairs. A child finishes before its parent starts.
	Edges [][]string `yaml:"edges" validate:"dive,len=2,dive,required"`
}

type nodeFile struct {
	ID          string            `yaml:"id" validate:"required"`
	Name        string            `yaml:"name"`
	Command     []string          `yaml:"command" validate:"required,min=1"`
	Requirement string            `yaml:"requirement"`
	Profile     string            `yaml:"profile" validate:"excluded_with=Requirement"`
	Env         map[string]string `yaml:"env"`
	Licenses    []string          `yaml:"licenses"`
	Tags        map[string]string `yaml:"tags"`
	Packages    []string          `yaml:"packages"`

	Chunks *cook.ChunkParams `yaml:"chunks"`
	Expand bool              `yaml:"expand"`
}

var validate = validator.New()

// readGraphFile reads and validates a graph file.
func readGraphFile(path string) (*graphFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	gf := &graphFile{}
	err = yaml.Unmarshal(data, gf)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	err = validate.Struct(gf)
	if err != nil {
		return nil, fmt.Errorf("invalid graph %s: %w", path, err)
	}
	for _, n := range gf.Nodes {
		if n.Chunks != nil && n.Expand {
			return nil, fmt.Errorf("invalid graph %s: node %s: chunks and expand are exclusive", path, n.ID)
		}
	}
	return gf, nil
}

// build builds a graph and a job spec from the file.
// Profiles of nodes are resolved to service expressions with cfg.
func (gf *graphFile) build(cfg *config.Config) (*cook.Graph, cook.JobSpec, error) {
	g := cook.NewGraph()
	for _, nf := range gf.Nodes {
		var n *cook.Node
		cmd := cook.Command(nf.Command)
		switch {
		case nf.Chunks != nil:
			n = cook.NewChunkedNode(nf.ID, nf.Name, cmd, *nf.Chunks)
		case nf.Expand:
			n = cook.NewExpandingNode(nf.ID, nf.Name, cmd)
		default:
			n = cook.NewSimpleNode(nf.ID, nf.Name, cmd)
		}
		n.Requirement = nf.Requirement
		if nf.Profile != "" {
			svc, err := cfg.ProfileService(nf.Profile)
			if err != nil {
				return nil, cook.JobSpec{}, fmt.Errorf("node %s: %w", nf.ID, err)
			}
			n.Requirement = svc
		}
		n.Env = nf.Env
		n.Licenses = nf.Licenses
		n.Tags = nf.Tags
		n.Packages = nf.Packages
		g.AddNode(n)
	}
	for _, e := range gf.Edges {
		err := g.AddEdge(e[0], e[1])
		if err != nil {
			return nil, cook.JobSpec{}, err
		}
	}
	spec := cook.JobSpec{
		Title:    gf.Title,
		Service:  gf.Service,
		Priority: farm.PriorityFromName(strings.ToLower(gf.Priority)),
		Tags:     gf.Tags,
		Env:      gf.Env,
		User:     gf.User,
		Comment:  gf.Comment,
		Paused:   gf.Paused,
		Projects: gf.Projects,
	}
	return g, spec, nil
}

// compileFile reads a graph file and compiles it into a job.
func compileFile(path string, cfg *config.Config) (*cook.Compiled, error) {
	gf, err := readGraphFile(path)
	if err != nil {
		return nil, err
	}
	g, spec, err := gf.build(cfg)
	if err != nil {
		return nil, err
	}
	g.SetLogger(logger)
	c := cook.NewCompiler(cfg.CookDefaults())
	c.Logger = logger
	return c.Compile(g, spec)
}
