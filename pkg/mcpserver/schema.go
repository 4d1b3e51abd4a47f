package mcpserver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// compile parses the tool's input schema. A tool without a schema accepts
// any object.
func (t *Tool) compile() error {
	if t.Name == "" {
		return errors.New("tool name is required")
	}
	if len(t.InputSchema) == 0 {
		t.InputSchema = []byte(`{"type":"object"}`)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(t.InputSchema))
	if err != nil {
		return fmt.Errorf("tool %s schema: %w", t.Name, err)
	}
	t.schema = s
	return nil
}

// ValidateArguments checks tool arguments against the tool's input schema.
func (t Tool) ValidateArguments(args map[string]any) error {
	if t.schema == nil {
		if err := t.compile(); err != nil {
			return err
		}
	}
	if args == nil {
		args = map[string]any{}
	}
	res, err := t.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("validate %s arguments: %w", t.Name, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, desc := range res.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
}
