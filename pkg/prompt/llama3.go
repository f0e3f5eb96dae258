// Package prompt renders prompts in the Llama 3 instruct format for use with
// csi.CompletionRequest.
package prompt

import "strings"

// Role is the author of a message in a Llama 3 prompt
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleIPython   Role = "ipython"
	RoleAssistant Role = "assistant"
)

const (
	beginOfText = "<|begin_of_text|>"
	startHeader = "<|start_header_id|>"
	endHeader   = "<|end_header_id|>"
	endOfTurn   = "<|eot_id|>"
)

// Message is a single turn of a prompt
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a message authored by role
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

func UserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// IPythonMessage carries the output of a tool call back to the model
func IPythonMessage(content string) Message {
	return NewMessage(RoleIPython, content)
}

func AssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

func (m Message) String() string {
	var sb strings.Builder
	m.writeTo(&sb)
	return sb.String()
}

func (m Message) writeTo(sb *strings.Builder) {
	writeHeader(sb, m.Role)
	sb.WriteString("\n\n")
	sb.WriteString(m.Content)
	sb.WriteString(endOfTurn)
}

func writeHeader(sb *strings.Builder, role Role) {
	sb.WriteString(startHeader)
	sb.WriteString(string(role))
	sb.WriteString(endHeader)
}

// Prompt is an ordered conversation that always opens with a system message.
// The With* methods return a new Prompt and leave the receiver untouched.
type Prompt struct {
	messages []Message
}

// New starts a prompt with the given system message
func New(system string) Prompt {
	return Prompt{messages: []Message{NewMessage(RoleSystem, system)}}
}

// Messages returns a copy of the messages of the prompt
func (p Prompt) Messages() []Message {
	return append([]Message{}, p.messages...)
}

// WithMessage appends an arbitrary message
func (p Prompt) WithMessage(message Message) Prompt {
	return p.WithMessages(message)
}

func (p Prompt) WithUserMessage(content string) Prompt {
	return p.WithMessage(UserMessage(content))
}

func (p Prompt) WithIPythonMessage(content string) Prompt {
	return p.WithMessage(IPythonMessage(content))
}

func (p Prompt) WithAssistantMessage(content string) Prompt {
	return p.WithMessage(AssistantMessage(content))
}

// WithMessages appends messages in order
func (p Prompt) WithMessages(messages ...Message) Prompt {
	out := make([]Message, 0, len(p.messages)+len(messages))
	out = append(out, p.messages...)
	return Prompt{messages: append(out, messages...)}
}

// String renders the prompt and leaves it open for the assistant's reply
func (p Prompt) String() string {
	var sb strings.Builder
	sb.WriteString(beginOfText)
	for _, m := range p.messages {
		m.writeTo(&sb)
	}
	writeHeader(&sb, RoleAssistant)
	return sb.String()
}
