package bindings

// The record shapes below mirror what the host runtime exchanges at the
// boundary. Variants are flattened into a Kind plus payload fields; only the
// payload that matches the Kind is meaningful.

// FinishReason as reported by the host
type FinishReason uint8

// Finish reasons in the order the host numbers them
const (
	FinishReasonStop FinishReason = iota
	FinishReasonLength
	FinishReasonContentFilter
)

// LogprobsKind selects the log probability mode on the wire
type LogprobsKind uint8

// Log probability modes
const (
	LogprobsNo LogprobsKind = iota
	LogprobsSampled
	LogprobsTop
)

// Logprobs is the wire form of the log probability mode
type Logprobs struct {
	Kind LogprobsKind
	Top  uint8
}

// CompletionParams is the wire form of csi.CompletionParams
type CompletionParams struct {
	MaxTokens           *uint32
	Temperature         *float64
	TopK                *uint32
	TopP                *float64
	Stop                []string
	ReturnSpecialTokens bool
	FrequencyPenalty    *float64
	PresencePenalty     *float64
	Logprobs            Logprobs
}

// CompletionRequest is a completion request at the boundary
type CompletionRequest struct {
	Model  string
	Prompt string
	Params CompletionParams
}

// Logprob is the log probability of a single token
type Logprob struct {
	Token   []byte
	Logprob float64
}

// Distribution holds the sampled token and the top alternatives
type Distribution struct {
	Sampled Logprob
	Top     []Logprob
}

// TokenUsage counts prompt and completion tokens
type TokenUsage struct {
	Prompt     uint32
	Completion uint32
}

// Completion is the host's answer to a CompletionRequest
type Completion struct {
	Text         string
	FinishReason FinishReason
	Logprobs     []Distribution
	Usage        TokenUsage
}

// Message is a single chat message
type Message struct {
	Role    string
	Content string
}

// ChatParams is the wire form of csi.ChatParams
type ChatParams struct {
	MaxTokens        *uint32
	Temperature      *float64
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64
	Logprobs         Logprobs
}

// ChatRequest is a chat request at the boundary
type ChatRequest struct {
	Model    string
	Messages []Message
	Params   ChatParams
}

// ChatResponse is the host's answer to a ChatRequest
type ChatResponse struct {
	Message      Message
	FinishReason FinishReason
	Logprobs     []Distribution
	Usage        TokenUsage
}

// ChunkParams controls how the host splits text
type ChunkParams struct {
	Model     string
	MaxTokens uint32
	Overlap   uint32
}

// ChunkRequest asks the host to chunk a text
type ChunkRequest struct {
	Text   string
	Params ChunkParams
}

// SelectLanguageRequest carries language codes as plain strings
type SelectLanguageRequest struct {
	Text      string
	Languages []string
}

// IndexPath selects a collection and index
type IndexPath struct {
	Namespace  string
	Collection string
	Index      string
}

// DocumentPath locates a document
type DocumentPath struct {
	Namespace  string
	Collection string
	Name       string
}

// TextCursor is a position inside a document
type TextCursor struct {
	Item     uint32
	Position uint32
}

// SearchResult is a single search match
type SearchResult struct {
	DocumentPath DocumentPath
	Content      string
	Score        float64
	Start        TextCursor
	End          TextCursor
}

// SearchFilterKind is the combinator applied to a filter's conditions
type SearchFilterKind uint8

// Filter combinators
const (
	FilterWithout SearchFilterKind = iota
	FilterWithOneOf
	FilterWithAll
)

// SearchFilter applies Kind to its conditions
type SearchFilter struct {
	Kind       SearchFilterKind
	Conditions []MetadataFilter
}

// MetadataFilter compares a single metadata field
type MetadataFilter struct {
	Field     string
	Condition MetadataFilterCondition
}

// ConditionKind is the comparison a metadata filter performs
type ConditionKind uint8

// Metadata comparisons
const (
	ConditionGreaterThan ConditionKind = iota
	ConditionGreaterThanOrEqualTo
	ConditionLessThan
	ConditionLessThanOrEqualTo
	ConditionAfter
	ConditionAtOrAfter
	ConditionBefore
	ConditionAtOrBefore
	ConditionEqualTo
	ConditionIsNull
)

// MetadataFilterCondition uses Number for numeric comparisons, Timestamp
// (RFC 3339) for temporal ones and Value for equality. IsNull has no payload.
type MetadataFilterCondition struct {
	Kind      ConditionKind
	Number    float64
	Timestamp string
	Value     MetadataFieldValue
}

// FieldValueKind tags the scalar held by a MetadataFieldValue
type FieldValueKind uint8

// Scalar kinds
const (
	StringType FieldValueKind = iota
	IntegerType
	BooleanType
)

// MetadataFieldValue holds the scalar selected by Kind
type MetadataFieldValue struct {
	Kind    FieldValueKind
	String  string
	Integer int64
	Boolean bool
}

// SearchRequest is a search query at the boundary
type SearchRequest struct {
	Query      string
	IndexPath  IndexPath
	MaxResults uint32
	MinScore   *float64
	Filters    []SearchFilter
}

// ModalityKind tags a document content item
type ModalityKind uint8

// Content item kinds
const (
	ModalityText ModalityKind = iota
	ModalityImage
)

// Modality is a document content item. Text is empty for images.
type Modality struct {
	Kind ModalityKind
	Text string
}

// Document is a document as returned by the host. Metadata holds JSON bytes
// and is nil when the document has none.
type Document struct {
	Path     DocumentPath
	Contents []Modality
	Metadata []byte
}
