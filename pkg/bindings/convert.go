package bindings

import (
	"time"

	"github.com/jingkaihe/skillet/pkg/csi"
)

// Requests: domain to wire

// ToLogprobs converts the log probability mode
func ToLogprobs(l csi.Logprobs) Logprobs {
	switch l.Mode {
	case csi.LogprobsModeSampled:
		return Logprobs{Kind: LogprobsSampled}
	case csi.LogprobsModeTop:
		return Logprobs{Kind: LogprobsTop, Top: l.Top}
	default:
		return Logprobs{Kind: LogprobsNo}
	}
}

// ToCompletionRequest converts a completion request
func ToCompletionRequest(r csi.CompletionRequest) CompletionRequest {
	p := r.Params
	return CompletionRequest{
		Model:  r.Model,
		Prompt: r.Prompt,
		Params: CompletionParams{
			MaxTokens:           p.MaxTokens,
			Temperature:         p.Temperature,
			TopK:                p.TopK,
			TopP:                p.TopP,
			Stop:                append([]string{}, p.Stop...),
			ReturnSpecialTokens: p.ReturnSpecialTokens,
			FrequencyPenalty:    p.FrequencyPenalty,
			PresencePenalty:     p.PresencePenalty,
			Logprobs:            ToLogprobs(p.Logprobs),
		},
	}
}

// ToChatRequest converts a chat request
func ToChatRequest(r csi.ChatRequest) ChatRequest {
	messages := make([]Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		messages = append(messages, Message{Role: m.Role, Content: m.Content})
	}
	p := r.Params
	return ChatRequest{
		Model:    r.Model,
		Messages: messages,
		Params: ChatParams{
			MaxTokens:        p.MaxTokens,
			Temperature:      p.Temperature,
			TopP:             p.TopP,
			FrequencyPenalty: p.FrequencyPenalty,
			PresencePenalty:  p.PresencePenalty,
			Logprobs:         ToLogprobs(p.Logprobs),
		},
	}
}

// ToChunkRequest converts a chunk request
func ToChunkRequest(r csi.ChunkRequest) ChunkRequest {
	return ChunkRequest{
		Text: r.Text,
		Params: ChunkParams{
			Model:     r.Params.Model,
			MaxTokens: r.Params.MaxTokens,
			Overlap:   r.Params.Overlap,
		},
	}
}

// ToSelectLanguageRequest converts a language selection request
func ToSelectLanguageRequest(r csi.SelectLanguageRequest) SelectLanguageRequest {
	languages := make([]string, 0, len(r.Languages))
	for _, l := range r.Languages {
		languages = append(languages, l.String())
	}
	return SelectLanguageRequest{Text: r.Text, Languages: languages}
}

// ToDocumentPath converts a document path
func ToDocumentPath(p csi.DocumentPath) DocumentPath {
	return DocumentPath{Namespace: p.Namespace, Collection: p.Collection, Name: p.Name}
}

// ToSearchRequest converts a search request and its filters
func ToSearchRequest(r csi.SearchRequest) SearchRequest {
	filters := make([]SearchFilter, 0, len(r.Filters))
	for _, f := range r.Filters {
		filters = append(filters, ToSearchFilter(f))
	}
	return SearchRequest{
		Query: r.Query,
		IndexPath: IndexPath{
			Namespace:  r.IndexPath.Namespace,
			Collection: r.IndexPath.Collection,
			Index:      r.IndexPath.Index,
		},
		MaxResults: r.MaxResults,
		MinScore:   r.MinScore,
		Filters:    filters,
	}
}

// ToSearchFilter converts a filter. The domain WithAll becomes FilterWithAll.
func ToSearchFilter(f csi.SearchFilter) SearchFilter {
	switch f := f.(type) {
	case csi.Without:
		return SearchFilter{Kind: FilterWithout, Conditions: toMetadataFilters(f)}
	case csi.WithOneOf:
		return SearchFilter{Kind: FilterWithOneOf, Conditions: toMetadataFilters(f)}
	case csi.WithAll:
		return SearchFilter{Kind: FilterWithAll, Conditions: toMetadataFilters(f)}
	default:
		return SearchFilter{}
	}
}

func toMetadataFilters(conditions []csi.FilterCondition) []MetadataFilter {
	out := make([]MetadataFilter, 0, len(conditions))
	for _, c := range conditions {
		if m, ok := c.(csi.MetadataFilter); ok {
			out = append(out, ToMetadataFilter(m))
		}
	}
	return out
}

// ToMetadataFilter converts a metadata filter
func ToMetadataFilter(m csi.MetadataFilter) MetadataFilter {
	return MetadataFilter{Field: m.Field, Condition: ToMetadataFilterCondition(m.Condition)}
}

// ToMetadataFilterCondition flattens a comparison into its Kind and payload.
// Timestamps are rendered with csi.FormatTimestamp.
func ToMetadataFilterCondition(c csi.MetadataFilterCondition) MetadataFilterCondition {
	switch c := c.(type) {
	case csi.GreaterThan:
		return MetadataFilterCondition{Kind: ConditionGreaterThan, Number: float64(c)}
	case csi.GreaterThanOrEqualTo:
		return MetadataFilterCondition{Kind: ConditionGreaterThanOrEqualTo, Number: float64(c)}
	case csi.LessThan:
		return MetadataFilterCondition{Kind: ConditionLessThan, Number: float64(c)}
	case csi.LessThanOrEqualTo:
		return MetadataFilterCondition{Kind: ConditionLessThanOrEqualTo, Number: float64(c)}
	case csi.After:
		return MetadataFilterCondition{Kind: ConditionAfter, Timestamp: csi.FormatTimestamp(time.Time(c))}
	case csi.AtOrAfter:
		return MetadataFilterCondition{Kind: ConditionAtOrAfter, Timestamp: csi.FormatTimestamp(time.Time(c))}
	case csi.Before:
		return MetadataFilterCondition{Kind: ConditionBefore, Timestamp: csi.FormatTimestamp(time.Time(c))}
	case csi.AtOrBefore:
		return MetadataFilterCondition{Kind: ConditionAtOrBefore, Timestamp: csi.FormatTimestamp(time.Time(c))}
	case csi.EqualTo:
		return MetadataFilterCondition{Kind: ConditionEqualTo, Value: ToMetadataFieldValue(c.Value)}
	case csi.IsNull:
		return MetadataFilterCondition{Kind: ConditionIsNull}
	default:
		return MetadataFilterCondition{}
	}
}

// ToMetadataFieldValue converts a scalar
func ToMetadataFieldValue(v csi.MetadataFieldValue) MetadataFieldValue {
	switch v := v.(type) {
	case csi.StringValue:
		return MetadataFieldValue{Kind: StringType, String: string(v)}
	case csi.IntegerValue:
		return MetadataFieldValue{Kind: IntegerType, Integer: int64(v)}
	case csi.BooleanValue:
		return MetadataFieldValue{Kind: BooleanType, Boolean: bool(v)}
	default:
		return MetadataFieldValue{}
	}
}

// Responses: wire to domain

// FromFinishReason converts a finish reason
func FromFinishReason(f FinishReason) csi.FinishReason {
	switch f {
	case FinishReasonLength:
		return csi.FinishReasonLength
	case FinishReasonContentFilter:
		return csi.FinishReasonContentFilter
	default:
		return csi.FinishReasonStop
	}
}

func fromLogprob(l Logprob) csi.Logprob {
	return csi.Logprob{Token: append([]byte{}, l.Token...), Logprob: l.Logprob}
}

func fromDistributions(ds []Distribution) []csi.Distribution {
	out := make([]csi.Distribution, 0, len(ds))
	for _, d := range ds {
		top := make([]csi.Logprob, 0, len(d.Top))
		for _, l := range d.Top {
			top = append(top, fromLogprob(l))
		}
		out = append(out, csi.Distribution{Sampled: fromLogprob(d.Sampled), Top: top})
	}
	return out
}

func fromUsage(u TokenUsage) csi.TokenUsage {
	return csi.TokenUsage{Prompt: u.Prompt, Completion: u.Completion}
}

// FromCompletion converts a completion
func FromCompletion(c Completion) csi.Completion {
	return csi.Completion{
		Text:         c.Text,
		FinishReason: FromFinishReason(c.FinishReason),
		Logprobs:     fromDistributions(c.Logprobs),
		Usage:        fromUsage(c.Usage),
	}
}

// FromChatResponse converts a chat response
func FromChatResponse(r ChatResponse) csi.ChatResponse {
	return csi.ChatResponse{
		Message:      csi.NewMessage(r.Message.Role, r.Message.Content),
		FinishReason: FromFinishReason(r.FinishReason),
		Logprobs:     fromDistributions(r.Logprobs),
		Usage:        fromUsage(r.Usage),
	}
}

func fromDocumentPath(p DocumentPath) csi.DocumentPath {
	return csi.NewDocumentPath(p.Namespace, p.Collection, p.Name)
}

// FromSearchResult converts a search result
func FromSearchResult(r SearchResult) csi.SearchResult {
	return csi.SearchResult{
		DocumentPath: fromDocumentPath(r.DocumentPath),
		Content:      r.Content,
		Score:        r.Score,
		Start:        csi.TextCursor{Item: r.Start.Item, Position: r.Start.Position},
		End:          csi.TextCursor{Item: r.End.Item, Position: r.End.Position},
	}
}

// FromModality converts a content item
func FromModality(m Modality) csi.Modality {
	if m.Kind == ModalityImage {
		return csi.ImageModality{}
	}
	return csi.TextModality{Text: m.Text}
}

// FromDocument converts a document and passes its metadata bytes through
// undecoded
func FromDocument(d Document) csi.RawDocument {
	contents := make([]csi.Modality, 0, len(d.Contents))
	for _, m := range d.Contents {
		contents = append(contents, FromModality(m))
	}
	doc := csi.RawDocument{
		Path:     fromDocumentPath(d.Path),
		Contents: contents,
	}
	if d.Metadata != nil {
		blob := rawMetadata(d.Metadata)
		doc.Metadata = &blob
	}
	return doc
}
