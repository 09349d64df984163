package rules

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/macropower/repofilter/pkg/langset"
	"github.com/macropower/repofilter/pkg/yaml"
)

//go:generate go run ../../internal/schemagen -o ../../rules.schema.json

// SchemaURL identifies the rule document JSON schema.
const SchemaURL = "https://raw.githubusercontent.com/macropower/repofilter/refs/heads/main/rules.schema.json"

// Document is the YAML representation of a [RuleSet].
type Document struct {
	// Filters is a list of single-key rule mappings.
	Filters []map[string]any `json:"filters,omitempty" jsonschema:"title=Filters" yaml:"filters,omitempty"`
	// Attributes lists the project attributes kept in the output.
	Attributes []string `json:"attributes,omitempty" jsonschema:"title=Attributes" yaml:"attributes,omitempty"`
	// Match is a list of CEL expressions that projects must satisfy.
	Match []string `json:"match,omitempty" jsonschema:"title=Match Expressions" yaml:"match,omitempty"`
}

// JSONSchemaExtend describes the single-key filter mappings, and allows
// every top-level key to be null.
func (Document) JSONSchemaExtend(jss *jsonschema.Schema) {
	one := uint64(1)

	scalar := &jsonschema.Schema{
		AnyOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "number"},
			{Type: "boolean"},
		},
	}

	group := &jsonschema.Schema{
		Type: "array",
		Items: &jsonschema.Schema{
			Type:                 "object",
			MinProperties:        &one,
			MaxProperties:        &one,
			AdditionalProperties: scalar,
		},
	}

	filter := &jsonschema.Schema{
		Type:                 "object",
		MinProperties:        &one,
		MaxProperties:        &one,
		Properties:           jsonschema.NewProperties(),
		AdditionalProperties: scalar,
	}
	for _, m := range langset.AllModes {
		filter.Properties.Set(m.Key(), group)
	}

	setNullable(jss, "filters", &jsonschema.Schema{Type: "array", Items: filter})
	setNullable(jss, "attributes", &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}})
	setNullable(jss, "match", &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}})
}

func setNullable(jss *jsonschema.Schema, name string, s *jsonschema.Schema) {
	prop, ok := jss.Properties.Get(name)
	if !ok {
		panic(fmt.Sprintf("%s property not found in schema", name))
	}

	jss.Properties.Set(name, &jsonschema.Schema{
		Title:       prop.Title,
		Description: prop.Description,
		AnyOf:       []*jsonschema.Schema{s, {Type: "null"}},
	})
}

// Schema returns the JSON schema of the rule [Document].
func Schema() ([]byte, error) {
	r := jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}

	jss := r.Reflect(&Document{})

	data, err := json.MarshalIndent(jss, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return data, nil
}

var documentValidator = sync.OnceValues(func() (*yaml.Validator, error) {
	data, err := Schema()
	if err != nil {
		return nil, err
	}

	return yaml.NewValidator(SchemaURL, data)
})

// Validate validates a decoded rule document against the rule document
// schema. Errors carry the YAML path of the invalid value.
func Validate(doc any) error {
	v, err := documentValidator()
	if err != nil {
		return fmt.Errorf("create validator: %w", err)
	}

	err = v.Validate(doc)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}
