package csitest

import (
	"context"
	"encoding/json"

	"github.com/jingkaihe/skillet/pkg/csi"
)

// MockCsi answers every completion, chat and chunk request with a fixed
// response. Documents contain the response as their only text.
type MockCsi struct {
	response string
}

var _ csi.Csi = (*MockCsi)(nil)

// NewMockCsi returns a capability interface that always answers with response
func NewMockCsi(response string) *MockCsi {
	return &MockCsi{response: response}
}

// CompleteAll answers every request with the canned response
func (m *MockCsi) CompleteAll(_ context.Context, requests []csi.CompletionRequest) []csi.Completion {
	out := make([]csi.Completion, len(requests))
	for i := range out {
		out[i] = csi.Completion{
			Text:         m.response,
			FinishReason: csi.FinishReasonStop,
			Logprobs:     []csi.Distribution{},
		}
	}
	return out
}

// ChatAll answers with an assistant message holding the canned response
func (m *MockCsi) ChatAll(_ context.Context, requests []csi.ChatRequest) []csi.ChatResponse {
	out := make([]csi.ChatResponse, len(requests))
	for i := range out {
		out[i] = csi.ChatResponse{
			Message:      csi.AssistantMessage(m.response),
			FinishReason: csi.FinishReasonStop,
			Logprobs:     []csi.Distribution{},
		}
	}
	return out
}

// ChunkAll returns the canned response as the only chunk
func (m *MockCsi) ChunkAll(_ context.Context, requests []csi.ChunkRequest) [][]string {
	out := make([][]string, len(requests))
	for i := range out {
		out[i] = []string{m.response}
	}
	return out
}

// SearchAll finds nothing
func (m *MockCsi) SearchAll(_ context.Context, requests []csi.SearchRequest) [][]csi.SearchResult {
	return emptyResults(len(requests))
}

// SelectLanguageAll selects no language
func (m *MockCsi) SelectLanguageAll(_ context.Context, requests []csi.SelectLanguageRequest) []*csi.LanguageCode {
	return make([]*csi.LanguageCode, len(requests))
}

// Documents returns documents whose only content is the canned response
func (m *MockCsi) Documents(_ context.Context, paths []csi.DocumentPath) ([]csi.RawDocument, error) {
	out := make([]csi.RawDocument, 0, len(paths))
	for _, p := range paths {
		out = append(out, csi.RawDocument{
			Path:     p,
			Contents: []csi.Modality{csi.TextModality{Text: m.response}},
		})
	}
	return out, nil
}

// DocumentsMetadata reports no metadata
func (m *MockCsi) DocumentsMetadata(_ context.Context, paths []csi.DocumentPath) ([]json.RawMessage, error) {
	return make([]json.RawMessage, len(paths)), nil
}
