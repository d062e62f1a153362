package config

import (
	"sort"

	"github.com/pelletier/go-toml"
)

// Match go-toml.Tree keys to the same order with the file.
// Would be great it can be done with go-toml package, but didn't find the way.
func orderedKeys(t *toml.Tree) []string {
	type keyPos struct {
		Key  string
		Line int
		Col  int
	}
	keys := t.Keys()
	poses := make([]keyPos, 0, len(keys))
	for _, k := range keys {
		p := keyPos{Key: k}
		if subt, ok := t.Get(k).(*toml.Tree); ok {
			p.Line = subt.Position().Line
			p.Col = subt.Position().Col
		} else {
			p.Line = t.GetPosition(k).Line
			p.Col = t.GetPosition(k).Col
		}
		poses = append(poses, p)
	}
	sort.Slice(poses, func(i, j int) bool {
		if poses[i].Line != poses[j].Line {
			return poses[i].Line < poses[j].Line
		}
		return poses[i].Col < poses[j].Col
	})
	ordkeys := make([]string, len(poses))
	for i, p := range poses {
		ordkeys[i] = p.Key
	}
	return ordkeys
}
