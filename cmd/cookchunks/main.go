// Command cookchunks declares chunk subtasks of a running expanding task.
//
// It should run under cookwrap. Each chunk runs the given command
// with the chunk's iteration appended.
//
// Usage:
//
//	cookchunks -name sim -start 1 -end 240 -packet-size 10 -- command [args...]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/imagvfx/cook"
	"github.com/imagvfx/cook/expand"
)

// pairs is a repeatable key=value flag.
type pairs map[string]string

func (p pairs) String() string {
	ss := make([]string, 0, len(p))
	for k, v := range p {
		ss = append(ss, k+"="+v)
	}
	return strings.Join(ss, ",")
}

func (p pairs) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("need key=value: %q", s)
	}
	p[k] = v
	return nil
}

func main() {
	var (
		verbose bool
		name    string
		service string
		limits  string
		params  cook.ChunkParams
	)
	meta := make(pairs)
	env := make(pairs)
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.StringVar(&name, "name", "chunk", "prefix of chunk titles")
	flag.IntVar(&params.Start, "start", 1, "first item of the range")
	flag.IntVar(&params.End, "end", 1, "last item of the range")
	flag.IntVar(&params.PacketSize, "packet-size", 1, "number of items in a chunk")
	flag.StringVar(&service, "service", os.Getenv(cook.EnvDefaultService), "service of the chunks")
	flag.StringVar(&limits, "limits", os.Getenv(cook.EnvDefaultLimit), "comma separated limit tags of the chunks")
	flag.Var(meta, "meta", "metadata of the chunks as key=value, can be repeated")
	flag.Var(env, "env", "environment of the chunks as key=value, can be repeated")
	flag.Parse()

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	argv := flag.Args()
	if len(argv) == 0 {
		fmt.Fprintln(os.Stderr, "cookchunks: need a command for the chunks")
		os.Exit(2)
	}
	ch, err := expand.Open()
	if err != nil {
		logger.Error("cannot declare chunks", "err", err)
		os.Exit(1)
	}
	ch.SetLogger(logger)
	defer ch.Close()

	spec := expand.ChunkSpec{
		Name:     name,
		Command:  cook.Command(argv),
		Params:   params,
		Service:  service,
		Metadata: meta,
		Env:      env,
	}
	for _, l := range strings.Split(limits, ",") {
		if l = strings.TrimSpace(l); l != "" {
			spec.Limits = append(spec.Limits, l)
		}
	}
	n, err := ch.DeclareChunks(spec)
	if err != nil {
		logger.Error("cannot declare chunks", "declared", n, "err", err)
		ch.Close()
		os.Exit(1)
	}
	logger.Debug("chunks declared", "name", name, "chunks", n)
}
