// Package csitest provides implementations of csi.Csi for testing skills
// outside of a host runtime: a deterministic echo, a scripted responder and a
// client for a development host reachable over HTTP.
package csitest

import (
	"context"
	"encoding/json"

	"github.com/jingkaihe/skillet/pkg/csi"
)

// StubCsi echoes its inputs back. Completions return the prompt, chat
// returns the last message as an assistant message and chunking returns the
// whole text as a single chunk. Search finds nothing, no language is ever
// detected and documents have neither contents nor metadata.
type StubCsi struct{}

var _ csi.Csi = StubCsi{}

// NewStubCsi returns an echoing capability interface
func NewStubCsi() StubCsi {
	return StubCsi{}
}

// CompleteAll echoes each prompt
func (StubCsi) CompleteAll(_ context.Context, requests []csi.CompletionRequest) []csi.Completion {
	out := make([]csi.Completion, 0, len(requests))
	for _, r := range requests {
		out = append(out, csi.Completion{
			Text:         r.Prompt,
			FinishReason: csi.FinishReasonStop,
			Logprobs:     []csi.Distribution{},
		})
	}
	return out
}

// ChatAll echoes the last message as the assistant
func (StubCsi) ChatAll(_ context.Context, requests []csi.ChatRequest) []csi.ChatResponse {
	out := make([]csi.ChatResponse, 0, len(requests))
	for _, r := range requests {
		var content string
		if len(r.Messages) > 0 {
			content = r.Messages[len(r.Messages)-1].Content
		}
		out = append(out, csi.ChatResponse{
			Message:      csi.AssistantMessage(content),
			FinishReason: csi.FinishReasonStop,
			Logprobs:     []csi.Distribution{},
		})
	}
	return out
}

// ChunkAll returns each text as a single chunk
func (StubCsi) ChunkAll(_ context.Context, requests []csi.ChunkRequest) [][]string {
	out := make([][]string, 0, len(requests))
	for _, r := range requests {
		out = append(out, []string{r.Text})
	}
	return out
}

// SearchAll finds nothing
func (StubCsi) SearchAll(_ context.Context, requests []csi.SearchRequest) [][]csi.SearchResult {
	return emptyResults(len(requests))
}

// SelectLanguageAll selects no language
func (StubCsi) SelectLanguageAll(_ context.Context, requests []csi.SelectLanguageRequest) []*csi.LanguageCode {
	return make([]*csi.LanguageCode, len(requests))
}

// Documents returns empty documents for the given paths
func (StubCsi) Documents(_ context.Context, paths []csi.DocumentPath) ([]csi.RawDocument, error) {
	out := make([]csi.RawDocument, 0, len(paths))
	for _, p := range paths {
		out = append(out, csi.RawDocument{Path: p, Contents: []csi.Modality{}})
	}
	return out, nil
}

// DocumentsMetadata reports no metadata
func (StubCsi) DocumentsMetadata(_ context.Context, paths []csi.DocumentPath) ([]json.RawMessage, error) {
	return make([]json.RawMessage, len(paths)), nil
}

func emptyResults(n int) [][]csi.SearchResult {
	out := make([][]csi.SearchResult, n)
	for i := range out {
		out[i] = []csi.SearchResult{}
	}
	return out
}
