package workflows

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// CompileSchema compiles a JSON-Schema document for workflow definitions. The
// schema is compiled once at startup and reused for every upload.
func CompileSchema(raw []byte) (*jsonschema.Schema, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("schema is empty")
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("workflow-schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := compiler.Compile("workflow-schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return compiled, nil
}

// validateAgainstSchema checks decoded workflow content against the compiled
// schema. Callers must have established that content is syntactically valid
// JSON first.
func (s *WorkflowsService) validateAgainstSchema(content []byte) error {
	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("failed to decode workflow definition: %w", err)
	}
	return s.schema.Validate(doc)
}
