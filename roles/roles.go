// Package roles defines agent role profiles as data.
//
// A profile carries everything that distinguishes one agent from another:
// instructions, the allowed tool set, iteration and time budgets, and
// whether completed runs get a lead review. Profiles load from YAML; a
// built-in default set ships embedded in the binary.
package roles

import (
	"fmt"
	"os"
	"time"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Duration is a time.Duration that unmarshals from YAML strings like "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the profile duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Profile is one agent role.
type Profile struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Instructions  string   `yaml:"instructions"`
	Tools         []string `yaml:"tools"`
	MaxIterations int      `yaml:"max_iterations"`
	Budget        Duration `yaml:"budget"`
	Review        bool     `yaml:"review"`
}

// Validate checks the profile for defects that would misconfigure a loop.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("role has no name")
	}
	if p.Instructions == "" {
		return fmt.Errorf("role %q has no instructions", p.Name)
	}
	if p.MaxIterations < 0 {
		return fmt.Errorf("role %q has negative max_iterations", p.Name)
	}
	if p.Budget < 0 {
		return fmt.Errorf("role %q has negative budget", p.Name)
	}
	return nil
}

type profileFile struct {
	Roles []Profile `yaml:"roles"`
}

// Load parses role profiles from YAML, keyed by role name. Duplicate names
// and invalid profiles are errors.
func Load(data []byte) (map[string]Profile, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse roles: %w", err)
	}
	if len(file.Roles) == 0 {
		return nil, fmt.Errorf("no roles defined")
	}

	out := make(map[string]Profile, len(file.Roles))
	for i := range file.Roles {
		p := file.Roles[i]
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := out[p.Name]; exists {
			return nil, fmt.Errorf("duplicate role %q", p.Name)
		}
		out[p.Name] = p
	}
	return out, nil
}

// LoadFile loads role profiles from a YAML file on disk.
func LoadFile(path string) (map[string]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roles file: %w", err)
	}
	return Load(data)
}

// Defaults returns the embedded default profiles.
func Defaults() map[string]Profile {
	profiles, err := Load(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("roles: embedded defaults are invalid: %v", err))
	}
	return profiles
}
