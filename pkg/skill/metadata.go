package skill

import (
	"encoding/json"
	"reflect"
	"strings"
	"unicode"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/csi"
)

// Metadata describes a packaged skill to the host
type Metadata struct {
	// Description is nil when the skill function carries no documentation
	Description  *string         `json:"description"`
	InputSchema  json.RawMessage `json:"input_schema"`
	OutputSchema json.RawMessage `json:"output_schema"`
}

// Metadata returns the description and the JSON schemas of the skill's input
// and output. It is computed on first use and cached; a fallible skill
// reports the schema of its success value.
func (s *Skill) Metadata() (Metadata, error) {
	s.metadataOnce.Do(func() {
		input, err := schemaFromType(s.sig.input)
		if err != nil {
			s.metadataErr = internal(errors.Wrap(err, "failed to generate input schema").Error())
			return
		}
		output, err := schemaFromType(s.sig.output)
		if err != nil {
			s.metadataErr = internal(errors.Wrap(err, "failed to generate output schema").Error())
			return
		}
		s.metadata = Metadata{
			Description:  s.description,
			InputSchema:  input,
			OutputSchema: output,
		}
	})
	return s.metadata, s.metadataErr
}

// SchemaFor generates the JSON schema used for T in skill metadata
func SchemaFor[T any]() ([]byte, error) {
	return schemaFromType(reflect.TypeFor[T]())
}

func schemaFromType(t reflect.Type) ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		Anonymous:                 true,
		Mapper:                    csi.InterfaceSchema,
		Namer:                     definitionName,
	}
	schema := r.ReflectFromType(t)
	relaxNullable(schema)
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode schema of %s", t)
	}
	return data, nil
}

// relaxNullable rewrites the oneOf [X, null] produced for nullable fields
// into anyOf, which stays valid when X itself accepts null (json.RawMessage)
func relaxNullable(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	if len(s.OneOf) == 2 && s.OneOf[1].Type == "null" && s.AnyOf == nil {
		s.AnyOf, s.OneOf = s.OneOf, nil
	}
	for _, sub := range s.Definitions {
		relaxNullable(sub)
	}
	if s.Properties != nil {
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			relaxNullable(pair.Value)
		}
	}
	for _, group := range [][]*jsonschema.Schema{s.OneOf, s.AnyOf, s.AllOf, s.PrefixItems} {
		for _, sub := range group {
			relaxNullable(sub)
		}
	}
	relaxNullable(s.Items)
	relaxNullable(s.AdditionalProperties)
}

// definitionName keeps instantiated generic types such as
// csi.Document[encoding/json.RawMessage] usable as a $defs key
func definitionName(t reflect.Type) string {
	name := t.Name()
	if !strings.ContainsAny(name, "[/") {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return '_'
	}, name)
	return strings.Trim(name, "_")
}

// describe joins documentation lines into a description. Every line is
// trimmed; no content at all yields nil.
func describe(lines []string) *string {
	trimmed := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed = append(trimmed, strings.TrimSpace(line))
	}
	description := strings.Join(trimmed, "\n")
	if strings.TrimSpace(description) == "" {
		return nil
	}
	return &description
}
