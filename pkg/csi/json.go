package csi

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// The JSON form of the domain model is the one spoken by the development host
// protocol. Sum types use externally tagged objects, except for
// MetadataFieldValue which is an untagged scalar and Modality which carries a
// "modality" tag field.

// MarshalJSON encodes the mode as "no", "sampled" or {"top": n}
func (l Logprobs) MarshalJSON() ([]byte, error) {
	switch l.Mode {
	case LogprobsModeSampled:
		return json.Marshal("sampled")
	case LogprobsModeTop:
		return json.Marshal(map[string]uint8{"top": l.Top})
	default:
		return json.Marshal("no")
	}
}

// UnmarshalJSON decodes "no", "sampled" or {"top": n}
func (l *Logprobs) UnmarshalJSON(data []byte) error {
	var mode string
	if err := json.Unmarshal(data, &mode); err == nil {
		switch mode {
		case "no":
			*l = LogprobsNone()
		case "sampled":
			*l = LogprobsSampled()
		default:
			return errors.Errorf("unknown logprobs mode %q", mode)
		}
		return nil
	}

	var top struct {
		Top *uint8 `json:"top"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return errors.Wrap(err, "invalid logprobs")
	}
	if top.Top == nil {
		return errors.New("invalid logprobs: expected \"no\", \"sampled\" or {\"top\": n}")
	}
	*l = LogprobsTop(*top.Top)
	return nil
}

type logprobJSON struct {
	Token   []int   `json:"token"`
	Logprob float64 `json:"logprob"`
}

// MarshalJSON encodes the token as an array of byte values
func (l Logprob) MarshalJSON() ([]byte, error) {
	token := make([]int, len(l.Token))
	for i, b := range l.Token {
		token[i] = int(b)
	}
	return json.Marshal(logprobJSON{Token: token, Logprob: l.Logprob})
}

// UnmarshalJSON decodes a token given as an array of byte values
func (l *Logprob) UnmarshalJSON(data []byte) error {
	var raw logprobJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	token := make([]byte, len(raw.Token))
	for i, v := range raw.Token {
		if v < 0 || v > 255 {
			return errors.Errorf("token byte %d out of range", v)
		}
		token[i] = byte(v)
	}
	l.Token = token
	l.Logprob = raw.Logprob
	return nil
}

// MarshalJSON encodes the filter as {"without": [...]}
func (f Without) MarshalJSON() ([]byte, error) {
	return marshalFilter("without", f)
}

// MarshalJSON encodes the filter as {"with_one_of": [...]}
func (f WithOneOf) MarshalJSON() ([]byte, error) {
	return marshalFilter("with_one_of", f)
}

// MarshalJSON encodes the filter as {"with": [...]}
func (f WithAll) MarshalJSON() ([]byte, error) {
	return marshalFilter("with", f)
}

func marshalFilter(tag string, conditions []FilterCondition) ([]byte, error) {
	if conditions == nil {
		conditions = []FilterCondition{}
	}
	return json.Marshal(map[string][]FilterCondition{tag: conditions})
}

// MarshalJSON encodes the condition as {"metadata": {"field": ..., <condition>}}
func (m MetadataFilter) MarshalJSON() ([]byte, error) {
	body := map[string]any{"field": m.Field}
	key, value, err := conditionJSON(m.Condition)
	if err != nil {
		return nil, err
	}
	body[key] = value
	return json.Marshal(map[string]any{"metadata": body})
}

func conditionJSON(condition MetadataFilterCondition) (string, any, error) {
	switch c := condition.(type) {
	case GreaterThan:
		return "greater_than", float64(c), nil
	case GreaterThanOrEqualTo:
		return "greater_than_or_equal_to", float64(c), nil
	case LessThan:
		return "less_than", float64(c), nil
	case LessThanOrEqualTo:
		return "less_than_or_equal_to", float64(c), nil
	case After:
		return "after", FormatTimestamp(time.Time(c)), nil
	case AtOrAfter:
		return "at_or_after", FormatTimestamp(time.Time(c)), nil
	case Before:
		return "before", FormatTimestamp(time.Time(c)), nil
	case AtOrBefore:
		return "at_or_before", FormatTimestamp(time.Time(c)), nil
	case EqualTo:
		if c.Value == nil {
			return "", nil, errors.New("equal_to condition without a value")
		}
		return "equal_to", c.Value, nil
	case IsNull:
		return "is_null", true, nil
	default:
		return "", nil, errors.Errorf("unsupported metadata filter condition %T", condition)
	}
}

// FormatTimestamp renders a timestamp the way the host expects it: RFC 3339 in
// UTC with as many fractional digits as needed
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// UnmarshalJSON decodes a search request including its tagged filters
func (r *SearchRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Query      string            `json:"query"`
		IndexPath  IndexPath         `json:"index_path"`
		MaxResults uint32            `json:"max_results"`
		MinScore   *float64          `json:"min_score"`
		Filters    []json.RawMessage `json:"filters"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	filters := make([]SearchFilter, 0, len(raw.Filters))
	for _, item := range raw.Filters {
		filter, err := UnmarshalSearchFilter(item)
		if err != nil {
			return err
		}
		filters = append(filters, filter)
	}

	*r = SearchRequest{
		Query:      raw.Query,
		IndexPath:  raw.IndexPath,
		MaxResults: raw.MaxResults,
		MinScore:   raw.MinScore,
		Filters:    filters,
	}
	return nil
}

// UnmarshalSearchFilter decodes a single externally tagged search filter
func UnmarshalSearchFilter(data []byte) (SearchFilter, error) {
	var tagged map[string][]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, errors.Wrap(err, "invalid search filter")
	}
	if len(tagged) != 1 {
		return nil, errors.Errorf("search filter must have exactly one tag, got %d", len(tagged))
	}

	for tag, items := range tagged {
		conditions := make([]FilterCondition, 0, len(items))
		for _, item := range items {
			condition, err := unmarshalFilterCondition(item)
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, condition)
		}

		switch tag {
		case "without":
			return Without(conditions), nil
		case "with_one_of":
			return WithOneOf(conditions), nil
		case "with":
			return WithAll(conditions), nil
		default:
			return nil, errors.Errorf("unknown search filter %q", tag)
		}
	}
	return nil, errors.New("unreachable")
}

func unmarshalFilterCondition(data []byte) (FilterCondition, error) {
	var tagged struct {
		Metadata map[string]json.RawMessage `json:"metadata"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, errors.Wrap(err, "invalid filter condition")
	}
	if tagged.Metadata == nil {
		return nil, errors.New("filter condition must be a metadata condition")
	}

	var field string
	if err := json.Unmarshal(tagged.Metadata["field"], &field); err != nil {
		return nil, errors.Wrap(err, "metadata condition requires a string field")
	}
	delete(tagged.Metadata, "field")
	if len(tagged.Metadata) != 1 {
		return nil, errors.Errorf("metadata condition on %q must have exactly one comparison", field)
	}

	for key, value := range tagged.Metadata {
		condition, err := unmarshalCondition(key, value)
		if err != nil {
			return nil, errors.Wrapf(err, "metadata condition on %q", field)
		}
		return MetadataFilter{Field: field, Condition: condition}, nil
	}
	return nil, errors.New("unreachable")
}

func unmarshalCondition(key string, value json.RawMessage) (MetadataFilterCondition, error) {
	switch key {
	case "greater_than", "greater_than_or_equal_to", "less_than", "less_than_or_equal_to":
		var n float64
		if err := json.Unmarshal(value, &n); err != nil {
			return nil, errors.Wrapf(err, "%s requires a number", key)
		}
		switch key {
		case "greater_than":
			return GreaterThan(n), nil
		case "greater_than_or_equal_to":
			return GreaterThanOrEqualTo(n), nil
		case "less_than":
			return LessThan(n), nil
		default:
			return LessThanOrEqualTo(n), nil
		}
	case "after", "at_or_after", "before", "at_or_before":
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, errors.Wrapf(err, "%s requires a timestamp", key)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, errors.Wrapf(err, "%s requires an RFC 3339 timestamp", key)
		}
		switch key {
		case "after":
			return After(t), nil
		case "at_or_after":
			return AtOrAfter(t), nil
		case "before":
			return Before(t), nil
		default:
			return AtOrBefore(t), nil
		}
	case "equal_to":
		scalar, err := UnmarshalMetadataFieldValue(value)
		if err != nil {
			return nil, err
		}
		return EqualTo{Value: scalar}, nil
	case "is_null":
		var flag bool
		if err := json.Unmarshal(value, &flag); err != nil || !flag {
			return nil, errors.New("is_null must be true")
		}
		return IsNull{}, nil
	default:
		return nil, errors.Errorf("unknown comparison %q", key)
	}
}

// UnmarshalMetadataFieldValue decodes an untagged scalar. Integers are tried
// first, then booleans, then strings.
func UnmarshalMetadataFieldValue(data []byte) (MetadataFieldValue, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, errors.New("metadata value must not be null")
	}
	var i int64
	if err := json.Unmarshal(data, &i); err == nil {
		return IntegerValue(i), nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		return BooleanValue(b), nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return StringValue(s), nil
	}
	return nil, errors.Errorf("metadata value %s is not a string, integer or boolean", string(data))
}

// MarshalJSON encodes the modality as {"modality": "text", "text": ...}
func (m TextModality) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Modality string `json:"modality"`
		Text     string `json:"text"`
	}{Modality: "text", Text: m.Text})
}

// MarshalJSON encodes the modality as {"modality": "image"}
func (m ImageModality) MarshalJSON() ([]byte, error) {
	return []byte(`{"modality":"image"}`), nil
}

// UnmarshalModality decodes a single modality using its "modality" tag
func UnmarshalModality(data []byte) (Modality, error) {
	var tagged struct {
		Modality string  `json:"modality"`
		Text     *string `json:"text"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, errors.Wrap(err, "invalid modality")
	}
	switch tagged.Modality {
	case "text":
		if tagged.Text == nil {
			return nil, errors.New("text modality without text")
		}
		return TextModality{Text: *tagged.Text}, nil
	case "image":
		return ImageModality{}, nil
	default:
		return nil, errors.Errorf("unknown modality %q", tagged.Modality)
	}
}

// UnmarshalJSON decodes a document, its tagged contents and its metadata
func (d *Document[M]) UnmarshalJSON(data []byte) error {
	var raw documentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	contents := make([]Modality, 0, len(raw.Contents))
	for _, item := range raw.Contents {
		modality, err := UnmarshalModality(item)
		if err != nil {
			return err
		}
		contents = append(contents, modality)
	}

	metadata, err := decodeMetadata[M](raw.Metadata)
	if err != nil {
		return errors.Wrap(err, "invalid document metadata")
	}

	d.Path = raw.Path
	d.Contents = contents
	d.Metadata = metadata
	return nil
}

type documentJSON struct {
	Path     DocumentPath      `json:"path"`
	Contents []json.RawMessage `json:"contents"`
	Metadata json.RawMessage   `json:"metadata"`
}
