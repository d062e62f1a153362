package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagvfx/cook"
	"github.com/imagvfx/cook/config"
	"github.com/imagvfx/cook/farm"
	"github.com/imagvfx/cook/spool"
)

const shotGraph = `
title: shot010
priority: high
tags:
  show: abc
env:
  SHOT: "010"
nodes:
  - id: cache
    name: cache
    command: [houdini, cache.hip]
    profile: sim
  - id: render
    name: render
    command: [kick, shot.ass]
    licenses: [mtoa]
    chunks: {start: 1, end: 5, packetSize: 2}
  - id: comp
    name: comp
    command: [nuke, comp.nk]
    requirement: comp
  - id: sim
    name: sim
    command: [sim]
    packages: [houdini-19]
    expand: true
edges:
  - [comp, render]
  - [render, cache]
  - [comp, sim]
`

func writeGraph(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testConfig() *config.Config {
	c := config.Default()
	c.Defaults.Service = "linux"
	c.Defaults.Expander = []string{"cookchunks", "--"}
	c.Profiles["sim"] = &config.Requirements{CPU: "EXTREME"}
	return c
}

func TestCompileFile(t *testing.T) {
	cc, err := compileFile(writeGraph(t, shotGraph), testConfig())
	require.NoError(t, err)

	j := cc.Job
	assert.Equal(t, "shot010", j.Title)
	assert.Equal(t, farm.PriorityHigh, j.Priority)
	assert.Equal(t, []string{"SHOT=010"}, j.EnvKey)
	assert.Equal(t, "abc", j.Metadata["show"])

	cache, ok := cc.Cooked("cache")
	require.True(t, ok)
	assert.Equal(t, "render,rnd,@.nCPUs>200", cache.Task.Service)

	render, ok := cc.Cooked("render")
	require.True(t, ok)
	require.Len(t, render.Chunks, 3)

	comp, ok := cc.Cooked("comp")
	require.True(t, ok)
	assert.Equal(t, "comp", comp.Task.Service)
	require.Len(t, cc.Root.Subtasks, 1)
	assert.Same(t, comp.Task, cc.Root.Subtasks[0])

	sim, ok := cc.Cooked("sim")
	require.True(t, ok)
	assert.True(t, sim.Task.Expands())
}

func TestReadGraphFileInvalid(t *testing.T) {
	cases := map[string]string{
		"no command": `
nodes:
  - id: a
`,
		"bad edge": `
nodes:
  - id: a
    command: [a]
edges:
  - [a]
`,
		"bad priority": `
priority: urgent
nodes:
  - id: a
    command: [a]
`,
		"chunks and expand": `
nodes:
  - id: a
    command: [a]
    expand: true
    chunks: {start: 1, end: 2}
`,
		"profile and requirement": `
nodes:
  - id: a
    command: [a]
    profile: sim
    requirement: linux
`,
		"not yaml": "nodes: [",
	}
	for name, content := range cases {
		_, err := readGraphFile(writeGraph(t, content))
		assert.Error(t, err, name)
	}
}

func TestBuildGraphErrors(t *testing.T) {
	gf, err := readGraphFile(writeGraph(t, `
nodes:
  - id: a
    command: [a]
edges:
  - [a, b]
`))
	require.NoError(t, err)
	_, _, err = gf.build(testConfig())
	assert.ErrorIs(t, err, cook.ErrUnknownNode)

	gf, err = readGraphFile(writeGraph(t, `
nodes:
  - id: a
    command: [a]
    profile: missing
`))
	require.NoError(t, err)
	_, _, err = gf.build(testConfig())
	assert.ErrorContains(t, err, "unknown profile")

	gf, err = readGraphFile(writeGraph(t, `
nodes:
  - id: a
    command: [a]
  - id: a
    command: [b]
`))
	require.NoError(t, err)
	g, _, err := gf.build(testConfig())
	require.NoError(t, err, "a duplicate node is skipped with a warning")
	n, ok := g.Node("a")
	require.True(t, ok)
	assert.Equal(t, cook.Command{"a"}, n.Command)
	assert.Len(t, g.Nodes(), 1)
}

func TestPrintTree(t *testing.T) {
	cc, err := compileFile(writeGraph(t, shotGraph), testConfig())
	require.NoError(t, err)
	var buf bytes.Buffer
	printTree(&buf, cc.Job, true)
	out := buf.String()
	for _, s := range []string{"shot010", "comp", "render_1_2", "render_5_5", "sim [expand]", "kick shot.ass --iteration 0", "houdini cache.hip"} {
		assert.Contains(t, out, s)
	}

	buf.Reset()
	printTree(&buf, cc.Job, false)
	out = buf.String()
	// cache is shared by the three render chunks.
	assert.Equal(t, 3, strings.Count(out, "cache"))
	assert.Equal(t, 2, strings.Count(out, "=> "))
	assert.NotContains(t, out, "kick")
}

func TestPrintJobs(t *testing.T) {
	var buf bytes.Buffer
	printJobs(&buf, nil)
	assert.Equal(t, "no job to show\n", buf.String())

	buf.Reset()
	printJobs(&buf, []spool.JobInfo{
		{Order: 1, Title: "shot010", Owner: "kim", Priority: 5000, Tasks: 7},
		{Order: 2, Title: "shot020", Owner: "lee", Priority: 4000, Tasks: 2, Paused: true},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "shot010")
	assert.Contains(t, lines[2], "(paused)")
}
