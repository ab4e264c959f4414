package script

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario drives a ledger session non-interactively. Scenarios execute a
// sequence of mutations, optionally asserting per-step outcomes and final
// log lengths, and are the scriptable twin of the interactive shell.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Steps are the operations to apply, in order.
	Steps []Step `yaml:"steps"`

	// Assert optionally checks the final log lengths after all steps.
	Assert *AssertClause `yaml:"assert,omitempty"`
}

// Step is a single operation. Op selects the variant; the other fields are
// per-variant arguments.
type Step struct {
	// Op is one of "declare", "bind", "enact", "now".
	Op string `yaml:"op"`

	// Author and Payload are declare arguments.
	Author  string `yaml:"author,omitempty"`
	Payload string `yaml:"payload,omitempty"`

	// Statement is the bind argument (a statement index).
	Statement *int `yaml:"statement,omitempty"`

	// At is the effective time for bind and the new clock value for now.
	At *uint64 `yaml:"at,omitempty"`

	// Actor, Basis, and Justification are enact arguments.
	Actor         string `yaml:"actor,omitempty"`
	Basis         *int   `yaml:"basis,omitempty"`
	Justification []int  `yaml:"justification,omitempty"`

	// Expect optionally asserts the step outcome. Without it the step is
	// assumed to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Error is the expected validation error code: "unknown_statement",
	// "basis_unknown", "justification_unknown", or "" for success.
	Error string `yaml:"error,omitempty"`

	// Index optionally asserts the returned index (declare, bind) or the
	// offending index carried by the expected error.
	Index *int `yaml:"index,omitempty"`
}

// AssertClause checks final log lengths.
type AssertClause struct {
	Statements *int `yaml:"statements,omitempty"`
	Agreements *int `yaml:"agreements,omitempty"`
	Enactments *int `yaml:"enactments,omitempty"`
}

// Step operation constants.
const (
	OpDeclare = "declare"
	OpBind    = "bind"
	OpEnact   = "enact"
	OpNow     = "now"
)

// Load reads, schema-checks, and parses a scenario YAML file.
// Returns an error if the file doesn't exist, fails CUE schema validation,
// contains unknown fields (typos), or is missing required fields.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse schema-checks and parses scenario YAML bytes.
func Parse(data []byte) (*Scenario, error) {
	// CUE schema validation first, for positioned structural errors.
	if err := validateAgainstSchema(data); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	// Parse YAML with strict field validation (catches typos the schema's
	// open fields would let through).
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

// validateScenario checks that required fields are present and that each
// step carries the arguments its op needs.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	if s.Assert != nil {
		if s.Assert.Statements == nil && s.Assert.Agreements == nil && s.Assert.Enactments == nil {
			return fmt.Errorf("assert: at least one of statements/agreements/enactments is required")
		}
	}
	return nil
}

// validateStep validates a single step based on its op.
func validateStep(index int, step *Step) error {
	switch step.Op {
	case OpDeclare:
		if step.Author == "" {
			return fmt.Errorf("steps[%d]: author is required for declare", index)
		}
		// Empty payloads are allowed: a statement's payload is opaque.
	case OpBind:
		if step.Statement == nil {
			return fmt.Errorf("steps[%d]: statement is required for bind", index)
		}
		if step.At == nil {
			return fmt.Errorf("steps[%d]: at is required for bind", index)
		}
	case OpEnact:
		if step.Actor == "" {
			return fmt.Errorf("steps[%d]: actor is required for enact", index)
		}
		if step.Basis == nil {
			return fmt.Errorf("steps[%d]: basis is required for enact", index)
		}
		if len(step.Justification) == 0 {
			return fmt.Errorf("steps[%d]: justification is required and must be non-empty for enact", index)
		}
	case OpNow:
		if step.At == nil {
			return fmt.Errorf("steps[%d]: at is required for now", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}

	if step.Expect != nil && step.Expect.Error != "" {
		switch step.Expect.Error {
		case "unknown_statement", "basis_unknown", "justification_unknown":
		default:
			return fmt.Errorf("steps[%d].expect: unknown error code %q", index, step.Expect.Error)
		}
	}
	return nil
}
