package csi

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogprobsJSON(t *testing.T) {
	tests := []struct {
		name     string
		logprobs Logprobs
		expected string
	}{
		{name: "zero value", logprobs: Logprobs{}, expected: `"no"`},
		{name: "none", logprobs: LogprobsNone(), expected: `"no"`},
		{name: "sampled", logprobs: LogprobsSampled(), expected: `"sampled"`},
		{name: "top", logprobs: LogprobsTop(3), expected: `{"top":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.logprobs)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))

			var decoded Logprobs
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.logprobs.Mode, decoded.Mode)
			assert.Equal(t, tt.logprobs.Top, decoded.Top)
		})
	}
}

func TestLogprobsJSON_Invalid(t *testing.T) {
	for _, input := range []string{`"all"`, `{}`, `{"top":-1}`, `12`} {
		var decoded Logprobs
		assert.Error(t, json.Unmarshal([]byte(input), &decoded), input)
	}
}

func TestLogprobJSON_TokenIsByteArray(t *testing.T) {
	data, err := json.Marshal(Logprob{Token: []byte("Hi"), Logprob: -0.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":[72,105],"logprob":-0.5}`, string(data))

	var decoded Logprob
	require.NoError(t, json.Unmarshal([]byte(`{"token":[255,0],"logprob":-1.25}`), &decoded))
	assert.Equal(t, []byte{255, 0}, decoded.Token)
	assert.Equal(t, -1.25, decoded.Logprob)

	assert.Error(t, json.Unmarshal([]byte(`{"token":[256],"logprob":0}`), &decoded))
}

func TestCompletionRequestJSON(t *testing.T) {
	request := NewCompletionRequest("llama-3.1-8b-instruct", "Say hello")
	data, err := json.Marshal(request)
	require.NoError(t, err)

	expected := `{
		"model": "llama-3.1-8b-instruct",
		"prompt": "Say hello",
		"params": {
			"max_tokens": null,
			"temperature": null,
			"top_k": null,
			"top_p": null,
			"stop": [],
			"return_special_tokens": true,
			"frequency_penalty": null,
			"presence_penalty": null,
			"logprobs": "no"
		}
	}`
	assert.JSONEq(t, expected, string(data))
}

func TestCompletionJSON_Decode(t *testing.T) {
	input := `{
		"text": "Hello",
		"finish_reason": "length",
		"logprobs": [{"sampled": {"token": [72], "logprob": -0.1}, "top": []}],
		"usage": {"prompt": 4, "completion": 1}
	}`

	var completion Completion
	require.NoError(t, json.Unmarshal([]byte(input), &completion))
	assert.Equal(t, "Hello", completion.Text)
	assert.Equal(t, FinishReasonLength, completion.FinishReason)
	require.Len(t, completion.Logprobs, 1)
	assert.Equal(t, []byte("H"), completion.Logprobs[0].Sampled.Token)
	assert.Equal(t, TokenUsage{Prompt: 4, Completion: 1}, completion.Usage)
}

func TestSearchFilterJSON(t *testing.T) {
	before := time.Date(2005, 8, 7, 23, 19, 49, 123_000_000, time.UTC)

	tests := []struct {
		name     string
		filter   SearchFilter
		expected string
	}{
		{
			name:     "without less than",
			filter:   Without{NewMetadataFilter("age", LessThan(10))},
			expected: `{"without":[{"metadata":{"field":"age","less_than":10}}]}`,
		},
		{
			name:     "with one of before",
			filter:   WithOneOf{NewMetadataFilter("created", Before(before))},
			expected: `{"with_one_of":[{"metadata":{"field":"created","before":"2005-08-07T23:19:49.123Z"}}]}`,
		},
		{
			name: "with all mixed",
			filter: WithAll{
				NewMetadataFilter("title", EqualTo{Value: StringValue("Pharia")}),
				NewMetadataFilter("draft", EqualTo{Value: BooleanValue(false)}),
				NewMetadataFilter("version", EqualTo{Value: IntegerValue(3)}),
				NewMetadataFilter("archived", IsNull{}),
			},
			expected: `{"with":[
				{"metadata":{"field":"title","equal_to":"Pharia"}},
				{"metadata":{"field":"draft","equal_to":false}},
				{"metadata":{"field":"version","equal_to":3}},
				{"metadata":{"field":"archived","is_null":true}}
			]}`,
		},
		{
			name:     "empty conditions",
			filter:   Without(nil),
			expected: `{"without":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.filter)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))

			decoded, err := UnmarshalSearchFilter(data)
			require.NoError(t, err)

			again, err := json.Marshal(decoded)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(again))
		})
	}
}

func TestSearchFilterJSON_TimestampConditions(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))

	for _, condition := range []MetadataFilterCondition{After(ts), AtOrAfter(ts), Before(ts), AtOrBefore(ts)} {
		data, err := json.Marshal(NewMetadataFilter("created", condition))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"2024-01-02T02:04:05Z"`)

		decoded, err := unmarshalFilterCondition(data)
		require.NoError(t, err)
		filter, ok := decoded.(MetadataFilter)
		require.True(t, ok)
		assert.IsType(t, condition, filter.Condition)
	}
}

func TestUnmarshalSearchFilter_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "unknown tag", input: `{"maybe":[]}`},
		{name: "two tags", input: `{"with":[],"without":[]}`},
		{name: "no tag", input: `{}`},
		{name: "missing field", input: `{"with":[{"metadata":{"less_than":1}}]}`},
		{name: "two comparisons", input: `{"with":[{"metadata":{"field":"a","less_than":1,"greater_than":0}}]}`},
		{name: "unknown comparison", input: `{"with":[{"metadata":{"field":"a","near":1}}]}`},
		{name: "bad timestamp", input: `{"with":[{"metadata":{"field":"a","before":"yesterday"}}]}`},
		{name: "is null false", input: `{"with":[{"metadata":{"field":"a","is_null":false}}]}`},
		{name: "float equal to", input: `{"with":[{"metadata":{"field":"a","equal_to":1.5}}]}`},
		{name: "null equal to", input: `{"with":[{"metadata":{"field":"x","equal_to":null}}]}`},
		{name: "not metadata", input: `{"with":[{"modality":"text"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalSearchFilter([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalMetadataFieldValue(t *testing.T) {
	tests := []struct {
		input    string
		expected MetadataFieldValue
	}{
		{input: `42`, expected: IntegerValue(42)},
		{input: `-7`, expected: IntegerValue(-7)},
		{input: `true`, expected: BooleanValue(true)},
		{input: `"42"`, expected: StringValue("42")},
		{input: `"true"`, expected: StringValue("true")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			value, err := UnmarshalMetadataFieldValue([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}

	_, err := UnmarshalMetadataFieldValue([]byte(`null`))
	assert.Error(t, err)
}

func TestSearchRequestJSON(t *testing.T) {
	request := NewSearchRequest("What is Pharia?", NewIndexPath("ns", "docs", "asym-64")).
		WithMaxResults(5).
		WithMinScore(0.5).
		WithFilters(WithAll{NewMetadataFilter("lang", EqualTo{Value: StringValue("en")})})

	data, err := json.Marshal(request)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"query": "What is Pharia?",
		"index_path": {"namespace": "ns", "collection": "docs", "index": "asym-64"},
		"max_results": 5,
		"min_score": 0.5,
		"filters": [{"with": [{"metadata": {"field": "lang", "equal_to": "en"}}]}]
	}`, string(data))

	var decoded SearchRequest
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, request, decoded)
}

func TestSearchRequestJSON_Defaults(t *testing.T) {
	data, err := json.Marshal(NewSearchRequest("q", NewIndexPath("n", "c", "i")))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"max_results":1`)
	assert.Contains(t, string(data), `"min_score":null`)
	assert.Contains(t, string(data), `"filters":[]`)
}

func TestDocumentJSON(t *testing.T) {
	input := `{
		"path": {"namespace": "ns", "collection": "docs", "name": "readme"},
		"contents": [
			{"modality": "text", "text": "first"},
			{"modality": "image"},
			{"modality": "text", "text": "second"}
		],
		"metadata": {"author": "Ada", "pages": 3}
	}`

	type meta struct {
		Author string `json:"author"`
		Pages  int    `json:"pages"`
	}

	var doc Document[meta]
	require.NoError(t, json.Unmarshal([]byte(input), &doc))
	assert.Equal(t, NewDocumentPath("ns", "docs", "readme"), doc.Path)
	require.Len(t, doc.Contents, 3)
	assert.Equal(t, TextModality{Text: "first"}, doc.Contents[0])
	assert.Equal(t, ImageModality{}, doc.Contents[1])
	require.NotNil(t, doc.Metadata)
	assert.Equal(t, meta{Author: "Ada", Pages: 3}, *doc.Metadata)
	assert.Equal(t, "first\n\nsecond", doc.Text())

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(data))
}

func TestDocumentJSON_NullMetadata(t *testing.T) {
	input := `{"path":{"namespace":"n","collection":"c","name":"d"},"contents":[],"metadata":null}`

	var raw RawDocument
	require.NoError(t, json.Unmarshal([]byte(input), &raw))
	assert.Nil(t, raw.Metadata)
	assert.Empty(t, raw.Contents)
}

func TestDocumentJSON_InvalidModality(t *testing.T) {
	input := `{"path":{"namespace":"n","collection":"c","name":"d"},"contents":[{"modality":"audio"}],"metadata":null}`

	var raw RawDocument
	err := json.Unmarshal([]byte(input), &raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio")
}
