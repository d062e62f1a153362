// Package config loads cook's configuration.
//
// Configuration comes from the built-in defaults, a toml file,
// and environment variables, in the order of precedence from low to high.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml"

	"github.com/imagvfx/cook"
)

// Environment variables the configuration reads.
const (
	EnvConfig = "COOK_CONFIG"
	EnvFarm   = "COOK_FARM"
)

// Config is cook's configuration.
type Config struct {
	Defaults DefaultsConfig           `toml:"defaults"`
	Licenses map[string]string        `toml:"licenses"`
	Farm     FarmConfig               `toml:"farm"`
	Levels   LevelTable               `toml:"levels"`
	Profiles map[string]*Requirements `toml:"profiles" validate:"dive"`

	// profileOrder are profile names in the order they are defined.
	profileOrder []string
}

// DefaultsConfig are values a graph falls back to.
type DefaultsConfig struct {
	Service    string   `toml:"service"`
	Limit      string   `toml:"limit"`
	PackageBin string   `toml:"packageBin" validate:"required"`
	Wrapper    []string `toml:"wrapper" validate:"required,min=1,dive,required"`
	Expander   []string `toml:"expander" validate:"dive,required"`
}

// FarmConfig is where the farm is.
type FarmConfig struct {
	Addr string `toml:"addr" validate:"required,hostname_port"`
	DB   string `toml:"db" validate:"required"`

	// Allow are ip patterns of hosts allowed to use the farm, like "10.0.[0-3].*".
	// Empty means every host is allowed.
	Allow []string `toml:"allow"`
}

// Default returns the built-in configuration.
func Default() *Config {
	licenses := make(map[string]string, len(cook.DefaultLicenses))
	for k, v := range cook.DefaultLicenses {
		licenses[k] = v
	}
	return &Config{
		Defaults: DefaultsConfig{
			PackageBin: "rez",
			Wrapper:    []string{"cookwrap"},
		},
		Licenses: licenses,
		Farm: FarmConfig{
			Addr: "localhost:8284",
			DB:   "cook.db",
		},
		Levels: LevelTable{
			Script: "script",
			CPU: LevelConfig{
				Levels: map[string]string{
					"NONE":      "render",
					"NORMAL":    "render",
					"INTENSIVE": "render,rnd",
					"EXTREME":   "render,rnd,@.nCPUs>200",
				},
				RAM: map[string]string{
					"INTENSIVE": "ram128",
					"EXTREME":   "ram256",
				},
			},
			GPU: LevelConfig{
				Levels: map[string]string{
					"NONE":      "render",
					"NORMAL":    "render,cuda8G",
					"INTENSIVE": "render,cuda16G",
					"EXTREME":   "render,cuda16G,cudaC",
				},
				RAM: map[string]string{
					"INTENSIVE": "ram128",
					"EXTREME":   "ram128",
				},
			},
		},
		Profiles: map[string]*Requirements{},
	}
}

// Load loads configuration from the file at path over the built-in configuration,
// then applies environment variables.
// Empty path means the path in COOK_CONFIG. No file is loaded if both are empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		tree, err := toml.LoadFile(path)
		if err != nil {
			return nil, &cook.ConfigError{Op: "load " + path, Err: err}
		}
		err = cfg.merge(tree)
		if err != nil {
			return nil, &cook.ConfigError{Op: "load " + path, Err: err}
		}
	}
	cfg.applyEnv()
	err := Validate(cfg)
	if err != nil {
		return nil, &cook.ConfigError{Op: "validate", Err: err}
	}
	return cfg, nil
}

// merge puts values in the tree over the config.
func (c *Config) merge(tree *toml.Tree) error {
	f := &Config{}
	err := tree.Unmarshal(f)
	if err != nil {
		return err
	}
	d := f.Defaults
	if d.Service != "" {
		c.Defaults.Service = d.Service
	}
	if d.Limit != "" {
		c.Defaults.Limit = d.Limit
	}
	if d.PackageBin != "" {
		c.Defaults.PackageBin = d.PackageBin
	}
	if len(d.Wrapper) != 0 {
		c.Defaults.Wrapper = d.Wrapper
	}
	if len(d.Expander) != 0 {
		c.Defaults.Expander = d.Expander
	}
	for k, v := range f.Licenses {
		c.Licenses[k] = v
	}
	if f.Farm.Addr != "" {
		c.Farm.Addr = f.Farm.Addr
	}
	if f.Farm.DB != "" {
		c.Farm.DB = f.Farm.DB
	}
	if len(f.Farm.Allow) != 0 {
		c.Farm.Allow = f.Farm.Allow
	}
	if f.Levels.Script != "" {
		c.Levels.Script = f.Levels.Script
	}
	mergeLevels(&c.Levels.CPU, f.Levels.CPU)
	mergeLevels(&c.Levels.GPU, f.Levels.GPU)
	for name, r := range f.Profiles {
		c.Profiles[name] = r
	}
	if sub, ok := tree.Get("profiles").(*toml.Tree); ok {
		c.profileOrder = orderedKeys(sub)
	}
	return nil
}

func mergeLevels(dst *LevelConfig, src LevelConfig) {
	for k, v := range src.Levels {
		dst.Levels[strings.ToUpper(k)] = v
	}
	if dst.RAM == nil {
		dst.RAM = make(map[string]string)
	}
	for k, v := range src.RAM {
		dst.RAM[strings.ToUpper(k)] = v
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(cook.EnvDefaultService); v != "" {
		c.Defaults.Service = v
	}
	if v := os.Getenv(cook.EnvDefaultLimit); v != "" {
		c.Defaults.Limit = v
	}
	if v := os.Getenv(cook.EnvPackageBin); v != "" {
		c.Defaults.PackageBin = v
	}
	if v := os.Getenv(cook.EnvWrapper); v != "" {
		c.Defaults.Wrapper = strings.Fields(v)
	}
	if v := os.Getenv(EnvFarm); v != "" {
		c.Farm.Addr = v
	}
}

// CookDefaults returns the compiler defaults of the config.
func (c *Config) CookDefaults() cook.Defaults {
	return cook.Defaults{
		Service:      c.Defaults.Service,
		Limit:        c.Defaults.Limit,
		Licenses:     c.Licenses,
		WrapperArgv:  cook.Command(c.Defaults.Wrapper),
		ExpanderArgv: cook.Command(c.Defaults.Expander),
		PackageBin:   c.Defaults.PackageBin,
	}
}

// ProfileNames returns names of the profiles.
// Profiles from a file come first in the order they are written,
// then others in alphabetical order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	seen := make(map[string]bool)
	for _, n := range c.profileOrder {
		if _, ok := c.Profiles[n]; ok && !seen[n] {
			names = append(names, n)
			seen[n] = true
		}
	}
	rest := make([]string, 0)
	for n := range c.Profiles {
		if !seen[n] {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// ProfileService returns a service expression for a named profile.
func (c *Config) ProfileService(name string) (string, error) {
	r, ok := c.Profiles[name]
	if !ok || r == nil {
		return "", fmt.Errorf("unknown profile: %v", name)
	}
	return c.Levels.Service(*r)
}
