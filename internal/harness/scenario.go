package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ramc/internal/codegen"
	"github.com/roach88/ramc/internal/lvm"
)

// Scenario defines one compile scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is inline CUE source. Exactly one of Program and Source is set.
	Program string `yaml:"program,omitempty"`

	// Source is a path to a CUE or JSON program, relative to the scenario
	// file.
	Source string `yaml:"source,omitempty"`

	Options Options `yaml:"options,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Options mirrors the codegen options a scenario may set.
type Options struct {
	Parallel string `yaml:"parallel,omitempty"`
}

// Expect lists the checks applied to the compiled program.
type Expect struct {
	// Instructions is the number of decoded instructions in main.
	Instructions *int `yaml:"instructions,omitempty"`

	// Relations lists relation names in handle order.
	Relations []string `yaml:"relations,omitempty"`

	// Contains lists opcode names that must appear in some code buffer.
	Contains []string `yaml:"contains,omitempty"`

	// Absent lists opcode names that must not appear in any code buffer.
	Absent []string `yaml:"absent,omitempty"`

	// Error is a substring of the expected compilation error. When set, no
	// other expectation may be given.
	Error string `yaml:"error,omitempty"`

	// Golden compares the disassembly to testdata/golden/<name>.golden.
	Golden bool `yaml:"golden,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. A relative Source is
// resolved against the directory holding the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Source != "" && !filepath.IsAbs(scenario.Source) {
		scenario.Source = filepath.Join(filepath.Dir(path), scenario.Source)
	}
	if scenario.Source != "" {
		if _, err := os.Stat(scenario.Source); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: source file not found: %s", scenario.Source)
		}
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Program == "" && s.Source == "":
		return fmt.Errorf("one of program or source is required")
	case s.Program != "" && s.Source != "":
		return fmt.Errorf("program and source are mutually exclusive")
	}

	if _, err := codegen.ParseParallelStrategy(s.Options.Parallel); err != nil {
		return fmt.Errorf("options.parallel: %w", err)
	}

	e := s.Expect
	if e.Error != "" && (e.Instructions != nil || len(e.Relations) > 0 ||
		len(e.Contains) > 0 || len(e.Absent) > 0 || e.Golden) {
		return fmt.Errorf("expect.error cannot be combined with other expectations")
	}
	if e.Instructions != nil && *e.Instructions < 0 {
		return fmt.Errorf("expect.instructions must be non-negative")
	}
	for i, name := range e.Contains {
		if _, ok := lvm.ParseOpcode(name); !ok {
			return fmt.Errorf("expect.contains[%d]: unknown opcode %q", i, name)
		}
	}
	for i, name := range e.Absent {
		if _, ok := lvm.ParseOpcode(name); !ok {
			return fmt.Errorf("expect.absent[%d]: unknown opcode %q", i, name)
		}
	}
	return nil
}
