package script

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// scenarioSchema constrains scenario documents before decoding. The schema
// catches shape errors (wrong types, out-of-range values, misspelled enum
// members) with file positions; presence checks live in validateScenario and
// validateStep, which can phrase them per field and per operation.
const scenarioSchema = `
#Expect: {
	error?: "unknown_statement" | "basis_unknown" | "justification_unknown"
	index?: int
}

#Step: {
	op:             "declare" | "bind" | "enact" | "now"
	author?:        string
	payload?:       string
	statement?:     int & >=0
	at?:            int & >=0
	actor?:         string
	basis?:         int & >=0
	justification?: [...int & >=0]
	expect?:        #Expect
}

name?:        string & !=""
description?: string
steps?: [...#Step]
assert?: {
	statements?: int & >=0
	agreements?: int & >=0
	enactments?: int & >=0
}
`

// validateAgainstSchema unifies a scenario YAML document with the CUE
// schema and reports any constraint violations.
func validateAgainstSchema(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(scenarioSchema)
	if err := schema.Err(); err != nil {
		// The schema is a compile-time constant; failing to compile it is
		// a programming error, not a user error.
		return fmt.Errorf("internal: compile scenario schema: %w", err)
	}

	file, err := cueyaml.Extract("scenario.yaml", data)
	if err != nil {
		return fmt.Errorf("parse YAML: %w", err)
	}

	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("build document: %w", err)
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return fmt.Errorf("schema violation:\n%s", errors.Details(err, nil))
	}
	return nil
}
