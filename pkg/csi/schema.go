package csi

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
)

// The schemas below describe the JSON produced by the custom codecs in
// json.go, so that skills using domain types publish metadata their own
// input and output satisfy.

// InterfaceSchema returns the schema of the sealed interfaces of the domain
// model and nil for every other type. It is meant to be used as the Mapper of
// a jsonschema.Reflector.
func InterfaceSchema(t reflect.Type) *jsonschema.Schema {
	switch t {
	case reflect.TypeFor[SearchFilter]():
		return &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{
				Without(nil).JSONSchema(),
				WithOneOf(nil).JSONSchema(),
				WithAll(nil).JSONSchema(),
			},
		}
	case reflect.TypeFor[FilterCondition]():
		return MetadataFilter{}.JSONSchema()
	case reflect.TypeFor[MetadataFieldValue]():
		return metadataFieldValueSchema()
	case reflect.TypeFor[Modality]():
		return &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{
				TextModality{}.JSONSchema(),
				ImageModality{}.JSONSchema(),
			},
		}
	}
	return nil
}

// JSONSchema describes "no", "sampled" or {"top": n}
func (Logprobs) JSONSchema() *jsonschema.Schema {
	top := jsonschema.NewProperties()
	top.Set("top", byteSchema())
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string", Enum: []any{"no", "sampled"}},
			{
				Type:                 "object",
				Properties:           top,
				Required:             []string{"top"},
				AdditionalProperties: jsonschema.FalseSchema,
			},
		},
	}
}

// JSONSchema describes a token given as an array of byte values
func (Logprob) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("token", &jsonschema.Schema{Type: "array", Items: byteSchema()})
	props.Set("logprob", &jsonschema.Schema{Type: "number"})
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{"token", "logprob"},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

// JSONSchema restricts the code to the vocabulary
func (LanguageCode) JSONSchema() *jsonschema.Schema {
	enum := make([]any, 0, len(languageCodes))
	for _, code := range languageCodes {
		enum = append(enum, string(code))
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}

// JSONSchema describes {"without": [...]}
func (Without) JSONSchema() *jsonschema.Schema {
	return filterSchema("without")
}

// JSONSchema describes {"with_one_of": [...]}
func (WithOneOf) JSONSchema() *jsonschema.Schema {
	return filterSchema("with_one_of")
}

// JSONSchema describes {"with": [...]}
func (WithAll) JSONSchema() *jsonschema.Schema {
	return filterSchema("with")
}

func filterSchema(tag string) *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set(tag, &jsonschema.Schema{Type: "array", Items: MetadataFilter{}.JSONSchema()})
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{tag},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

// JSONSchema describes {"metadata": {"field": ..., <comparison>: ...}} with
// exactly one comparison
func (MetadataFilter) JSONSchema() *jsonschema.Schema {
	number := func() *jsonschema.Schema { return &jsonschema.Schema{Type: "number"} }
	timestamp := func() *jsonschema.Schema { return &jsonschema.Schema{Type: "string", Format: "date-time"} }

	body := jsonschema.NewProperties()
	body.Set("field", &jsonschema.Schema{Type: "string"})
	body.Set("greater_than", number())
	body.Set("greater_than_or_equal_to", number())
	body.Set("less_than", number())
	body.Set("less_than_or_equal_to", number())
	body.Set("after", timestamp())
	body.Set("at_or_after", timestamp())
	body.Set("before", timestamp())
	body.Set("at_or_before", timestamp())
	body.Set("equal_to", metadataFieldValueSchema())
	body.Set("is_null", &jsonschema.Schema{Const: true})

	two := uint64(2)
	props := jsonschema.NewProperties()
	props.Set("metadata", &jsonschema.Schema{
		Type:                 "object",
		Properties:           body,
		Required:             []string{"field"},
		MinProperties:        &two,
		MaxProperties:        &two,
		AdditionalProperties: jsonschema.FalseSchema,
	})
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{"metadata"},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

func metadataFieldValueSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		AnyOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "integer"},
			{Type: "boolean"},
		},
	}
}

// JSONSchema describes {"modality": "text", "text": ...}
func (TextModality) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("modality", &jsonschema.Schema{Const: "text"})
	props.Set("text", &jsonschema.Schema{Type: "string"})
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{"modality", "text"},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

// JSONSchema describes {"modality": "image"}. Hosts may attach further
// fields, which are ignored.
func (ImageModality) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("modality", &jsonschema.Schema{Const: "image"})
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   []string{"modality"},
	}
}

func byteSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:    "integer",
		Minimum: json.Number("0"),
		Maximum: json.Number("255"),
	}
}
