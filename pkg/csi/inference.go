package csi

// FinishReason is the reason the model stopped generating
type FinishReason string

const (
	// FinishReasonStop means the model hit a natural stopping point or a provided stop sequence
	FinishReasonStop FinishReason = "stop"
	// FinishReasonLength means the maximum number of tokens in the request was reached
	FinishReasonLength FinishReason = "length"
	// FinishReasonContentFilter means content was omitted due to a content filter flag
	FinishReasonContentFilter FinishReason = "content_filter"
)

// LogprobsMode selects which log probabilities the host returns
type LogprobsMode int

const (
	// LogprobsModeNone requests no log probabilities
	LogprobsModeNone LogprobsMode = iota
	// LogprobsModeSampled requests the log probability of the sampled token only
	LogprobsModeSampled
	// LogprobsModeTop requests the top N most likely tokens for every position
	LogprobsModeTop
)

// Logprobs controls the log probabilities returned with a completion.
// The zero value requests none.
type Logprobs struct {
	Mode LogprobsMode
	// Top is only meaningful for LogprobsModeTop
	Top uint8
}

// LogprobsNone requests no log probabilities
func LogprobsNone() Logprobs {
	return Logprobs{Mode: LogprobsModeNone}
}

// LogprobsSampled requests the log probability of each sampled token
func LogprobsSampled() Logprobs {
	return Logprobs{Mode: LogprobsModeSampled}
}

// LogprobsTop requests the n most likely tokens for each position
func LogprobsTop(n uint8) Logprobs {
	return Logprobs{Mode: LogprobsModeTop, Top: n}
}

// Logprob is the log probability of a single token
type Logprob struct {
	Token   []byte
	Logprob float64
}

// Distribution holds the sampled token and the most likely alternatives
type Distribution struct {
	Sampled Logprob   `json:"sampled"`
	Top     []Logprob `json:"top" jsonschema:"nullable"`
}

// TokenUsage reports the number of tokens consumed by a request
type TokenUsage struct {
	Prompt     uint32 `json:"prompt"`
	Completion uint32 `json:"completion"`
}

// CompletionParams adjusts the sampling behaviour of a completion
type CompletionParams struct {
	// MaxTokens caps the number of generated tokens. The host may return fewer.
	MaxTokens *uint32 `json:"max_tokens" jsonschema:"nullable"`
	// Temperature is the randomness with which the next token is selected
	Temperature *float64 `json:"temperature" jsonschema:"nullable"`
	// TopK is the number of candidate tokens the model chooses from
	TopK *uint32 `json:"top_k" jsonschema:"nullable"`
	// TopP is the probability mass of candidate tokens the model chooses from
	TopP *float64 `json:"top_p" jsonschema:"nullable"`
	// Stop sequences end generation on an exact match, checked in order
	Stop []string `json:"stop" jsonschema:"nullable"`
	// ReturnSpecialTokens keeps tokens like <|eot_id|> in the completion
	ReturnSpecialTokens bool `json:"return_special_tokens"`
	// FrequencyPenalty is a cumulative penalty for tokens already present in the completion.
	// Negative values make repetition more likely.
	FrequencyPenalty *float64 `json:"frequency_penalty" jsonschema:"nullable"`
	// PresencePenalty penalises tokens present in the prompt or completion regardless of count
	PresencePenalty *float64 `json:"presence_penalty" jsonschema:"nullable"`
	Logprobs        Logprobs `json:"logprobs"`
}

// DefaultCompletionParams returns the parameters used when none are given
func DefaultCompletionParams() CompletionParams {
	return CompletionParams{
		ReturnSpecialTokens: true,
		Stop:                []string{},
		Logprobs:            LogprobsNone(),
	}
}

// CompletionRequest asks a model to complete a prompt
type CompletionRequest struct {
	Model  string           `json:"model"`
	Prompt string           `json:"prompt"`
	Params CompletionParams `json:"params"`
}

// NewCompletionRequest creates a request with default parameters
func NewCompletionRequest(model, prompt string) CompletionRequest {
	return CompletionRequest{
		Model:  model,
		Prompt: prompt,
		Params: DefaultCompletionParams(),
	}
}

// WithParams returns a copy of the request using the given parameters
func (r CompletionRequest) WithParams(params CompletionParams) CompletionRequest {
	r.Params = params
	return r
}

// Completion is the text generated by the model and why it stopped.
// Logprobs is only populated when the request asked for sampled or top log probabilities.
type Completion struct {
	Text         string         `json:"text"`
	FinishReason FinishReason   `json:"finish_reason"`
	Logprobs     []Distribution `json:"logprobs" jsonschema:"nullable"`
	Usage        TokenUsage     `json:"usage"`
}

// Conventional chat roles. Roles are free-form strings and are not validated.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a message with an arbitrary role
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}

// UserMessage creates a message with the user role
func UserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// AssistantMessage creates a message with the assistant role
func AssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// SystemMessage creates a message with the system role
func SystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// ChatParams adjusts the sampling behaviour of a chat request
type ChatParams struct {
	MaxTokens        *uint32  `json:"max_tokens" jsonschema:"nullable"`
	Temperature      *float64 `json:"temperature" jsonschema:"nullable"`
	TopP             *float64 `json:"top_p" jsonschema:"nullable"`
	FrequencyPenalty *float64 `json:"frequency_penalty" jsonschema:"nullable"`
	PresencePenalty  *float64 `json:"presence_penalty" jsonschema:"nullable"`
	Logprobs         Logprobs `json:"logprobs"`
}

// ChatRequest sends an ordered conversation to a model
type ChatRequest struct {
	Model    string     `json:"model"`
	Messages []Message  `json:"messages" jsonschema:"nullable"`
	Params   ChatParams `json:"params"`
}

// NewChatRequest starts a chat request with a single message
func NewChatRequest(model string, message Message) ChatRequest {
	return ChatRequest{
		Model:    model,
		Messages: []Message{message},
	}
}

// AndMessage returns a copy of the request with the message appended
func (r ChatRequest) AndMessage(message Message) ChatRequest {
	messages := make([]Message, 0, len(r.Messages)+1)
	messages = append(messages, r.Messages...)
	r.Messages = append(messages, message)
	return r
}

// WithParams returns a copy of the request using the given parameters
func (r ChatRequest) WithParams(params ChatParams) ChatRequest {
	r.Params = params
	return r
}

// ChatResponse is the message generated by the model
type ChatResponse struct {
	Message      Message        `json:"message"`
	FinishReason FinishReason   `json:"finish_reason"`
	Logprobs     []Distribution `json:"logprobs" jsonschema:"nullable"`
	Usage        TokenUsage     `json:"usage"`
}
