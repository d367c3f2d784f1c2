package transport

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/render_widget.json
var renderWidgetSchema []byte

const renderWidgetSchemaURL = "render_widget.json"

var (
	renderSchemaOnce sync.Once
	renderSchema     *jsonschema.Schema
	renderSchemaErr  error
)

func compiledRenderSchema() (*jsonschema.Schema, error) {
	renderSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(renderWidgetSchema))
		if err != nil {
			renderSchemaErr = fmt.Errorf("transport: unmarshal render schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(renderWidgetSchemaURL, doc); err != nil {
			renderSchemaErr = fmt.Errorf("transport: add render schema: %w", err)
			return
		}
		renderSchema, renderSchemaErr = c.Compile(renderWidgetSchemaURL)
		if renderSchemaErr != nil {
			renderSchemaErr = fmt.Errorf("transport: compile render schema: %w", renderSchemaErr)
		}
	})
	return renderSchema, renderSchemaErr
}

// ValidateRenderPayload checks a render_widget payload against the embedded
// JSON Schema.
func ValidateRenderPayload(payload []byte) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return fmt.Errorf("transport: render payload is empty")
	}
	schema, err := compiledRenderSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("transport: decode render payload: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("transport: invalid render payload: %w", err)
	}
	return nil
}
