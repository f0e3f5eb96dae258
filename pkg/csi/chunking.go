package csi

import "github.com/pkg/errors"

// ChunkParams controls how text is split
type ChunkParams struct {
	// Model the chunks are intended for. Must be known to the host.
	Model string `json:"model"`
	// MaxTokens is the maximum number of tokens per chunk
	MaxTokens uint32 `json:"max_tokens"`
	// Overlap is the number of tokens adjacent chunks may share. Must be less than MaxTokens.
	Overlap uint32 `json:"overlap"`
}

// NewChunkParams creates chunk parameters without overlap
func NewChunkParams(model string, maxTokens uint32) ChunkParams {
	return ChunkParams{Model: model, MaxTokens: maxTokens}
}

// WithOverlap returns a copy of the parameters with the given overlap
func (p ChunkParams) WithOverlap(overlap uint32) ChunkParams {
	p.Overlap = overlap
	return p
}

// Validate checks that the overlap is less than MaxTokens
func (p ChunkParams) Validate() error {
	if p.Overlap >= p.MaxTokens {
		return errors.Errorf("overlap (%d) must be less than max_tokens (%d)", p.Overlap, p.MaxTokens)
	}
	return nil
}

// ChunkRequest asks the host to split text into token-bounded chunks
type ChunkRequest struct {
	Text   string      `json:"text"`
	Params ChunkParams `json:"params"`
}

// NewChunkRequest creates a chunk request
func NewChunkRequest(text string, params ChunkParams) ChunkRequest {
	return ChunkRequest{Text: text, Params: params}
}
