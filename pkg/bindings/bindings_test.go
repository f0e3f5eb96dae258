package bindings

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillet/pkg/csi"
)

// fakeHost records the last wire requests and answers from their contents
type fakeHost struct {
	completions []CompletionRequest
	searches    []SearchRequest
	languages   []*string
	documents   []Document
	metadata    [][]byte
	docErr      error
}

func (f *fakeHost) Complete(_ context.Context, requests []CompletionRequest) []Completion {
	f.completions = requests
	out := make([]Completion, 0, len(requests))
	for _, r := range requests {
		out = append(out, Completion{
			Text:         strings.ToUpper(r.Prompt),
			FinishReason: FinishReasonLength,
			Logprobs: []Distribution{{
				Sampled: Logprob{Token: []byte(r.Prompt), Logprob: -0.5},
				Top:     []Logprob{{Token: []byte{1}, Logprob: -1}},
			}},
			Usage: TokenUsage{Prompt: 3, Completion: 7},
		})
	}
	return out
}

func (f *fakeHost) Chat(_ context.Context, requests []ChatRequest) []ChatResponse {
	out := make([]ChatResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, ChatResponse{
			Message:      Message{Role: "assistant", Content: r.Messages[len(r.Messages)-1].Content},
			FinishReason: FinishReasonContentFilter,
		})
	}
	return out
}

func (f *fakeHost) Chunk(_ context.Context, requests []ChunkRequest) [][]string {
	out := make([][]string, 0, len(requests))
	for _, r := range requests {
		out = append(out, []string{r.Text})
	}
	return out
}

func (f *fakeHost) Search(_ context.Context, requests []SearchRequest) [][]SearchResult {
	f.searches = requests
	out := make([][]SearchResult, 0, len(requests))
	for _, r := range requests {
		out = append(out, []SearchResult{{
			DocumentPath: DocumentPath{Namespace: "ns", Collection: "col", Name: r.Query},
			Content:      r.Query,
			Score:        10,
			Start:        TextCursor{Item: 1, Position: 1},
			End:          TextCursor{Item: 1, Position: 5},
		}})
	}
	return out
}

func (f *fakeHost) SelectLanguage(_ context.Context, _ []SelectLanguageRequest) []*string {
	return f.languages
}

func (f *fakeHost) Documents(_ context.Context, _ []DocumentPath) ([]Document, error) {
	return f.documents, f.docErr
}

func (f *fakeHost) DocumentMetadata(_ context.Context, _ []DocumentPath) ([][]byte, error) {
	return f.metadata, f.docErr
}

func ptr[T any](v T) *T { return &v }

func TestToSearchRequest(t *testing.T) {
	timestamp := "2005-08-07T23:19:49.123Z"
	before, err := time.Parse(time.RFC3339Nano, timestamp)
	require.NoError(t, err)

	request := csi.NewSearchRequest("example query", csi.NewIndexPath("example_namespace", "example_collection", "example_index")).
		WithMaxResults(10).
		WithMinScore(0.5).
		WithFilters(csi.WithAll{
			csi.NewMetadataFilter("example_field", csi.LessThan(10)),
			csi.NewMetadataFilter("example_field", csi.Before(before)),
		})

	converted := ToSearchRequest(request)

	assert.Equal(t, SearchRequest{
		Query: "example query",
		IndexPath: IndexPath{
			Namespace:  "example_namespace",
			Collection: "example_collection",
			Index:      "example_index",
		},
		MaxResults: 10,
		MinScore:   ptr(0.5),
		Filters: []SearchFilter{{
			Kind: FilterWithAll,
			Conditions: []MetadataFilter{
				{Field: "example_field", Condition: MetadataFilterCondition{Kind: ConditionLessThan, Number: 10}},
				{Field: "example_field", Condition: MetadataFilterCondition{Kind: ConditionBefore, Timestamp: timestamp}},
			},
		}},
	}, converted)
}

func TestToMetadataFilterCondition(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 1, time.UTC)

	tests := []struct {
		name      string
		condition csi.MetadataFilterCondition
		expected  MetadataFilterCondition
	}{
		{"greater than", csi.GreaterThan(1.5), MetadataFilterCondition{Kind: ConditionGreaterThan, Number: 1.5}},
		{"greater or equal", csi.GreaterThanOrEqualTo(2), MetadataFilterCondition{Kind: ConditionGreaterThanOrEqualTo, Number: 2}},
		{"less or equal", csi.LessThanOrEqualTo(3), MetadataFilterCondition{Kind: ConditionLessThanOrEqualTo, Number: 3}},
		{"after", csi.After(ts), MetadataFilterCondition{Kind: ConditionAfter, Timestamp: "2024-05-06T07:08:09.000000001Z"}},
		{"at or after", csi.AtOrAfter(ts), MetadataFilterCondition{Kind: ConditionAtOrAfter, Timestamp: "2024-05-06T07:08:09.000000001Z"}},
		{"at or before", csi.AtOrBefore(ts), MetadataFilterCondition{Kind: ConditionAtOrBefore, Timestamp: "2024-05-06T07:08:09.000000001Z"}},
		{"equal string", csi.EqualTo{Value: csi.StringValue("x")}, MetadataFilterCondition{Kind: ConditionEqualTo, Value: MetadataFieldValue{Kind: StringType, String: "x"}}},
		{"equal integer", csi.EqualTo{Value: csi.IntegerValue(-4)}, MetadataFilterCondition{Kind: ConditionEqualTo, Value: MetadataFieldValue{Kind: IntegerType, Integer: -4}}},
		{"equal boolean", csi.EqualTo{Value: csi.BooleanValue(true)}, MetadataFilterCondition{Kind: ConditionEqualTo, Value: MetadataFieldValue{Kind: BooleanType, Boolean: true}}},
		{"is null", csi.IsNull{}, MetadataFilterCondition{Kind: ConditionIsNull}},
		{"nil", nil, MetadataFilterCondition{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToMetadataFilterCondition(tt.condition))
		})
	}
}

func TestToSearchFilter_Kinds(t *testing.T) {
	conditions := []csi.FilterCondition{csi.NewMetadataFilter("f", csi.IsNull{})}

	assert.Equal(t, FilterWithout, ToSearchFilter(csi.Without(conditions)).Kind)
	assert.Equal(t, FilterWithOneOf, ToSearchFilter(csi.WithOneOf(conditions)).Kind)
	assert.Equal(t, FilterWithAll, ToSearchFilter(csi.WithAll(conditions)).Kind)
	assert.Equal(t, SearchFilter{}, ToSearchFilter(nil))
}

func TestToCompletionRequest(t *testing.T) {
	params := csi.DefaultCompletionParams()
	params.MaxTokens = ptr(uint32(64))
	params.Temperature = ptr(0.2)
	params.Stop = []string{"<|eot_id|>"}
	params.Logprobs = csi.LogprobsTop(2)

	converted := ToCompletionRequest(csi.NewCompletionRequest("llama", "Hi").WithParams(params))

	assert.Equal(t, "llama", converted.Model)
	assert.Equal(t, "Hi", converted.Prompt)
	assert.Equal(t, uint32(64), *converted.Params.MaxTokens)
	assert.Equal(t, 0.2, *converted.Params.Temperature)
	assert.Nil(t, converted.Params.TopK)
	assert.True(t, converted.Params.ReturnSpecialTokens)
	assert.Equal(t, []string{"<|eot_id|>"}, converted.Params.Stop)
	assert.Equal(t, Logprobs{Kind: LogprobsTop, Top: 2}, converted.Params.Logprobs)
}

func TestToChunkAndLanguageRequests(t *testing.T) {
	chunk := ToChunkRequest(csi.NewChunkRequest("This is a test string.", csi.NewChunkParams("llama-3.1-8b-instruct", 10).WithOverlap(2)))
	assert.Equal(t, ChunkRequest{
		Text:   "This is a test string.",
		Params: ChunkParams{Model: "llama-3.1-8b-instruct", MaxTokens: 10, Overlap: 2},
	}, chunk)

	language := ToSelectLanguageRequest(csi.NewSelectLanguageRequest("Hello, world!", csi.LanguageEng, csi.LanguageFra))
	assert.Equal(t, SelectLanguageRequest{Text: "Hello, world!", Languages: []string{"eng", "fra"}}, language)
}

func TestHostCsi_CompleteAll(t *testing.T) {
	host := &fakeHost{}
	c := NewHostCsi(host)

	results := c.CompleteAll(context.Background(), []csi.CompletionRequest{
		csi.NewCompletionRequest("m", "one"),
		csi.NewCompletionRequest("m", "two"),
	})

	require.Len(t, results, 2)
	assert.Equal(t, "ONE", results[0].Text)
	assert.Equal(t, "TWO", results[1].Text)
	assert.Equal(t, csi.FinishReasonLength, results[0].FinishReason)
	assert.Equal(t, csi.TokenUsage{Prompt: 3, Completion: 7}, results[0].Usage)
	require.Len(t, results[1].Logprobs, 1)
	assert.Equal(t, []byte("two"), results[1].Logprobs[0].Sampled.Token)
	assert.Equal(t, []byte{1}, results[1].Logprobs[0].Top[0].Token)
	require.Len(t, host.completions, 2)
	assert.Equal(t, LogprobsNo, host.completions[0].Params.Logprobs.Kind)
}

func TestHostCsi_ChatAndSearch(t *testing.T) {
	ctx := context.Background()
	c := NewHostCsi(&fakeHost{})

	response := csi.Chat(ctx, c, csi.NewChatRequest("m", csi.UserMessage("ping")))
	assert.Equal(t, csi.AssistantMessage("ping"), response.Message)
	assert.Equal(t, csi.FinishReasonContentFilter, response.FinishReason)

	results := csi.Search(ctx, c, csi.NewSearchRequest("test_name", csi.NewIndexPath("n", "c", "i")))
	require.Len(t, results, 1)
	assert.Equal(t, csi.SearchResult{
		DocumentPath: csi.NewDocumentPath("ns", "col", "test_name"),
		Content:      "test_name",
		Score:        10,
		Start:        csi.TextCursor{Item: 1, Position: 1},
		End:          csi.TextCursor{Item: 1, Position: 5},
	}, results[0])

	assert.Equal(t, []string{"abc"}, csi.Chunk(ctx, c, csi.NewChunkRequest("abc", csi.NewChunkParams("m", 5))))
}

func TestHostCsi_SelectLanguageAll(t *testing.T) {
	host := &fakeHost{languages: []*string{ptr("deu"), nil}}
	c := NewHostCsi(host)

	results := c.SelectLanguageAll(context.Background(), []csi.SelectLanguageRequest{
		csi.NewSelectLanguageRequest("Hallo", csi.LanguageDeu),
		csi.NewSelectLanguageRequest("???", csi.LanguageDeu),
	})
	require.Len(t, results, 2)
	require.NotNil(t, results[0])
	assert.Equal(t, csi.LanguageDeu, *results[0])
	assert.Nil(t, results[1])
}

func TestHostCsi_SelectLanguageAll_UnknownCodePanics(t *testing.T) {
	c := NewHostCsi(&fakeHost{languages: []*string{ptr("xx")}})

	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.Contains(t, r, "unknown language code")
	}()
	c.SelectLanguageAll(context.Background(), []csi.SelectLanguageRequest{csi.NewSelectLanguageRequest("x")})
	t.Fatal("expected panic")
}

func TestHostCsi_Documents(t *testing.T) {
	host := &fakeHost{
		documents: []Document{
			{
				Path:     DocumentPath{Namespace: "ns", Collection: "c", Name: "a"},
				Contents: []Modality{{Kind: ModalityText, Text: "hello"}, {Kind: ModalityImage}},
				Metadata: []byte(`{"title":"A"}`),
			},
			{Path: DocumentPath{Namespace: "ns", Collection: "c", Name: "b"}},
		},
		metadata: [][]byte{[]byte(`{"title":"A"}`), nil},
	}
	c := NewHostCsi(host)
	ctx := context.Background()
	paths := []csi.DocumentPath{csi.NewDocumentPath("ns", "c", "a"), csi.NewDocumentPath("ns", "c", "b")}

	docs, err := c.Documents(ctx, paths)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, []csi.Modality{csi.TextModality{Text: "hello"}, csi.ImageModality{}}, docs[0].Contents)
	require.NotNil(t, docs[0].Metadata)
	assert.JSONEq(t, `{"title":"A"}`, string(*docs[0].Metadata))
	assert.Nil(t, docs[1].Metadata)

	metadata, err := c.DocumentsMetadata(ctx, paths)
	require.NoError(t, err)
	assert.Equal(t, []json.RawMessage{json.RawMessage(`{"title":"A"}`), nil}, metadata)

	type meta struct {
		Title string `json:"title"`
	}
	typed, err := csi.DocumentsAs[meta](ctx, c, paths)
	require.NoError(t, err)
	assert.Equal(t, "A", typed[0].Metadata.Title)
}

func TestHostCsi_DocumentsError(t *testing.T) {
	c := NewHostCsi(&fakeHost{docErr: errors.New("boom")})

	_, err := c.Documents(context.Background(), []csi.DocumentPath{csi.NewDocumentPath("n", "c", "d")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	_, err = c.DocumentsMetadata(context.Background(), []csi.DocumentPath{csi.NewDocumentPath("n", "c", "d")})
	assert.Error(t, err)
}

func TestBind(t *testing.T) {
	t.Cleanup(func() { Bind(nil) })

	assert.Nil(t, BoundHost())
	host := &fakeHost{}
	Bind(host)
	assert.Same(t, host, BoundHost())
}
